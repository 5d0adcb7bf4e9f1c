package nix

import (
	"strings"
)

// Kind identifies the syntactic category of a [Node].
type Kind int

// Node kinds. Names follow the rnix convention so diagnostics read the same
// as in the wider Nix tooling ecosystem.
const (
	KindRoot Kind = iota
	KindApply
	KindAssert
	KindAttrPath
	KindAttrSet
	KindBinOp
	KindDynamic
	KindHasAttr
	KindIdent
	KindIdentParam
	KindIfElse
	KindInherit
	KindInheritFrom
	KindInterpol
	KindKeyValue
	KindLambda
	KindLegacyLet
	KindLetIn
	KindList
	KindLiteral
	KindParen
	KindPath
	KindPatBind
	KindPatEntry
	KindPattern
	KindSelect
	KindString
	KindUnaryOp
	KindWith
)

var kindNames = [...]string{
	KindRoot:        "NODE_ROOT",
	KindApply:       "NODE_APPLY",
	KindAssert:      "NODE_ASSERT",
	KindAttrPath:    "NODE_ATTRPATH",
	KindAttrSet:     "NODE_ATTR_SET",
	KindBinOp:       "NODE_BIN_OP",
	KindDynamic:     "NODE_DYNAMIC",
	KindHasAttr:     "NODE_HAS_ATTR",
	KindIdent:       "NODE_IDENT",
	KindIdentParam:  "NODE_IDENT_PARAM",
	KindIfElse:      "NODE_IF_ELSE",
	KindInherit:     "NODE_INHERIT",
	KindInheritFrom: "NODE_INHERIT_FROM",
	KindInterpol:    "NODE_INTERPOL",
	KindKeyValue:    "NODE_KEY_VALUE",
	KindLambda:      "NODE_LAMBDA",
	KindLegacyLet:   "NODE_LEGACY_LET",
	KindLetIn:       "NODE_LET_IN",
	KindList:        "NODE_LIST",
	KindLiteral:     "NODE_LITERAL",
	KindParen:       "NODE_PAREN",
	KindPath:        "NODE_PATH",
	KindPatBind:     "NODE_PAT_BIND",
	KindPatEntry:    "NODE_PAT_ENTRY",
	KindPattern:     "NODE_PATTERN",
	KindSelect:      "NODE_SELECT",
	KindString:      "NODE_STRING",
	KindUnaryOp:     "NODE_UNARY_OP",
	KindWith:        "NODE_WITH",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "NODE_UNKNOWN"
}

// Node is one element of a parsed Nix expression. Spans are byte offsets
// into the source the tree was parsed from.
type Node struct {
	kind     Kind
	start    int
	end      int
	src      string
	parent   *Node
	index    int
	children []*Node

	// op holds the operator of BinOp/UnaryOp nodes and the literal
	// token kind of Literal nodes.
	op string
	// indented marks '' strings.
	indented bool
}

// Kind returns the syntactic category of n.
func (n *Node) Kind() Kind { return n.kind }

// Children returns the direct child nodes in source order.
func (n *Node) Children() []*Node { return n.children }

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Text returns the source text covered by n.
func (n *Node) Text() string { return n.src[n.start:n.end] }

// Span returns the byte offset and length of n.
func (n *Node) Span() (offset, length int) { return n.start, n.end - n.start }

// Operator returns the operator token of a BinOp or UnaryOp node.
func (n *Node) Operator() string { return n.op }

// NextSibling returns the node following n under the same parent, or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil || n.index+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[n.index+1]
}

// FirstChild returns the first child of n, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// Walk visits n and its descendants depth first, stopping early when fn
// returns false for a node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// IsInteger reports whether n is an integer literal.
func (n *Node) IsInteger() bool { return n.kind == KindLiteral && n.op == "int" }

// IsFloat reports whether n is a float literal.
func (n *Node) IsFloat() bool { return n.kind == KindLiteral && n.op == "float" }

// StringValue returns the decoded contents of a String node. ok is false
// for other kinds and for strings containing interpolations.
func (n *Node) StringValue() (value string, ok bool) {
	if n.kind != KindString || len(n.children) > 0 {
		return "", false
	}
	text := n.Text()
	if n.indented {
		return decodeIndented(text[2 : len(text)-2]), true
	}
	return decodeQuoted(text[1 : len(text)-1]), true
}

func decodeQuoted(s string) string {
	if !strings.ContainsAny(s, `\$`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
		case c == '$' && i+1 < len(s) && s[i+1] == '$':
			b.WriteByte('$')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func decodeIndented(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' && strings.HasPrefix(s[i:], "''") && i+2 < len(s) {
			switch s[i+2] {
			case '\'':
				b.WriteString("''")
				i += 2
				continue
			case '$':
				b.WriteByte('$')
				i += 2
				continue
			case '\\':
				if i+3 < len(s) {
					switch s[i+3] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					case 'r':
						b.WriteByte('\r')
					default:
						b.WriteByte(s[i+3])
					}
					i += 3
					continue
				}
			}
		}
		b.WriteByte(s[i])
	}
	return stripIndent(b.String())
}

// stripIndent removes the common leading whitespace of all non-blank lines
// and a leading first line consisting only of whitespace.
func stripIndent(s string) string {
	lines := strings.Split(s, "\n")
	minIndent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if indent := len(line) - len(trimmed); minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent > 0 {
		for i, line := range lines {
			if len(line) >= minIndent {
				lines[i] = line[minIndent:]
			} else {
				lines[i] = strings.TrimLeft(line, " ")
			}
		}
	}
	if len(lines) > 1 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}
