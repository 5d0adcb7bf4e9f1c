// Package nix parses Nix expressions into a span-preserving syntax tree.
//
// The parser covers the expression language used in NixOS and flake
// configurations: attribute sets, let bindings, lambdas with patterns,
// with/assert/if, lists, strings with interpolation, paths, URIs, numbers,
// attribute selection with defaults, application and operators. It does
// not evaluate anything.
//
// Every node records its byte span in the original source so callers can
// anchor diagnostics precisely:
//
//	root, err := nix.Parse(src)
//	root.Walk(func(n *nix.Node) bool {
//	    if n.Kind() == nix.KindApply {
//	        fmt.Println(n.FirstChild().Text())
//	    }
//	    return true
//	})
package nix

import (
	"fmt"
)

// Parse parses src into a tree rooted at a KindRoot node. A source with
// no expression yields a root without children.
func Parse(src string) (*Node, error) {
	lx := &lexer{src: src}
	toks, err := lx.all()
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, toks: toks}
	root := &Node{kind: KindRoot, start: 0, end: len(src), src: src}
	if p.peek().kind == tEOF {
		return root, nil
	}

	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tEOF {
		return nil, p.unexpected(tok)
	}
	p.adopt(root, expr)
	return root, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isKeyword(tok token, kw string) bool {
	return tok.kind == tIdent && tok.text == kw
}

func (p *parser) unexpected(tok token) error {
	if tok.kind == tEOF {
		return &SyntaxError{Offset: tok.start, Msg: "unexpected end of input"}
	}
	return &SyntaxError{Offset: tok.start, Msg: fmt.Sprintf("unexpected %q", tok.text)}
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.peek()
	if tok.kind != kind {
		if tok.kind == tEOF {
			return tok, &SyntaxError{Offset: tok.start, Msg: "expected " + what + ", got end of input"}
		}
		return tok, &SyntaxError{Offset: tok.start, Msg: fmt.Sprintf("expected %s, got %q", what, tok.text)}
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(kw string) error {
	tok := p.peek()
	if !p.isKeyword(tok, kw) {
		return &SyntaxError{Offset: tok.start, Msg: fmt.Sprintf("expected %q", kw)}
	}
	p.advance()
	return nil
}

func (p *parser) node(kind Kind, start, end int, children ...*Node) *Node {
	n := &Node{kind: kind, start: start, end: end, src: p.src}
	for _, c := range children {
		if c != nil {
			p.adopt(n, c)
		}
	}
	return n
}

func (p *parser) adopt(parent, child *Node) {
	child.parent = parent
	child.index = len(parent.children)
	parent.children = append(parent.children, child)
}

// expr parses a full expression including the keyword forms.
func (p *parser) expr() (*Node, error) {
	tok := p.peek()
	switch {
	case tok.kind == tIdent && p.peekAt(1).kind == tColon && !keywords[tok.text]:
		return p.lambdaIdent()
	case tok.kind == tIdent && p.peekAt(1).kind == tAt && !keywords[tok.text]:
		return p.lambdaPattern()
	case tok.kind == tLBrace && p.looksLikePattern():
		return p.lambdaPattern()
	case p.isKeyword(tok, "let") && p.peekAt(1).kind != tLBrace:
		return p.letIn()
	case p.isKeyword(tok, "with"):
		return p.keywordPair(KindWith)
	case p.isKeyword(tok, "assert"):
		return p.keywordPair(KindAssert)
	case p.isKeyword(tok, "if"):
		return p.ifElse()
	}
	return p.binary(0)
}

// looksLikePattern reports whether the '{' at the cursor opens a lambda
// pattern rather than an attribute set.
func (p *parser) looksLikePattern() bool {
	a, b := p.peekAt(1), p.peekAt(2)
	switch a.kind {
	case tRBrace:
		return b.kind == tColon || b.kind == tAt
	case tEllipsis:
		return true
	case tIdent:
		switch b.kind {
		case tComma, tQuestion:
			return true
		case tRBrace:
			c := p.peekAt(3)
			return c.kind == tColon || c.kind == tAt
		}
	}
	return false
}

func (p *parser) lambdaIdent() (*Node, error) {
	ident := p.advance()
	p.advance() // ':'
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	param := p.node(KindIdentParam, ident.start, ident.end)
	return p.node(KindLambda, ident.start, body.end, param, body), nil
}

func (p *parser) lambdaPattern() (*Node, error) {
	start := p.peek().start
	var bind *Node
	if p.peek().kind == tIdent {
		ident := p.advance()
		p.advance() // '@'
		bind = p.node(KindPatBind, ident.start, ident.end)
	}

	pattern, err := p.pattern()
	if err != nil {
		return nil, err
	}
	if bind != nil {
		p.adopt(pattern, bind)
	} else if p.peek().kind == tAt {
		p.advance()
		ident, err := p.expect(tIdent, "identifier")
		if err != nil {
			return nil, err
		}
		p.adopt(pattern, p.node(KindPatBind, ident.start, ident.end))
		pattern.end = ident.end
	}

	if _, err := p.expect(tColon, "':'"); err != nil {
		return nil, err
	}
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	return p.node(KindLambda, start, body.end, pattern, body), nil
}

func (p *parser) pattern() (*Node, error) {
	open, err := p.expect(tLBrace, "'{'")
	if err != nil {
		return nil, err
	}
	pat := p.node(KindPattern, open.start, open.end)
	for {
		tok := p.peek()
		switch tok.kind {
		case tRBrace:
			p.advance()
			pat.end = tok.end
			return pat, nil
		case tEllipsis:
			p.advance()
		case tIdent:
			p.advance()
			entry := p.node(KindPatEntry, tok.start, tok.end, p.node(KindIdent, tok.start, tok.end))
			if p.peek().kind == tQuestion {
				p.advance()
				def, err := p.expr()
				if err != nil {
					return nil, err
				}
				p.adopt(entry, def)
				entry.end = def.end
			}
			p.adopt(pat, entry)
		default:
			return nil, p.unexpected(tok)
		}
		switch p.peek().kind {
		case tComma:
			p.advance()
		case tRBrace:
		default:
			return nil, p.unexpected(p.peek())
		}
	}
}

func (p *parser) letIn() (*Node, error) {
	start := p.advance().start
	n := p.node(KindLetIn, start, start)
	if err := p.bindings(n, func(t token) bool { return p.isKeyword(t, "in") }); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.adopt(n, body)
	n.end = body.end
	return n, nil
}

// keywordPair parses `with e; body` and `assert e; body`.
func (p *parser) keywordPair(kind Kind) (*Node, error) {
	start := p.advance().start
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tSemi, "';'"); err != nil {
		return nil, err
	}
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	return p.node(kind, start, body.end, cond, body), nil
}

func (p *parser) ifElse() (*Node, error) {
	start := p.advance().start
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	els, err := p.expr()
	if err != nil {
		return nil, err
	}
	return p.node(KindIfElse, start, els.end, cond, then, els), nil
}

// Binding powers, loosest first.
var infixPower = map[string]struct {
	power int
	right bool
}{
	"->": {1, true},
	"||": {2, false},
	"&&": {3, false},
	"==": {4, false}, "!=": {4, false},
	"<": {5, false}, ">": {5, false}, "<=": {5, false}, ">=": {5, false},
	"//": {6, true},
	"+":  {8, false}, "-": {8, false},
	"*": {9, false}, "/": {9, false},
	"++": {10, true},
}

const (
	powerNot    = 7
	powerHasAtt = 11
)

func (p *parser) binary(minPower int) (*Node, error) {
	lhs, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind == tQuestion {
			if powerHasAtt < minPower {
				return lhs, nil
			}
			p.advance()
			path, err := p.attrPath()
			if err != nil {
				return nil, err
			}
			lhs = p.node(KindHasAttr, lhs.start, path.end, lhs, path)
			continue
		}
		if tok.kind != tOp {
			return lhs, nil
		}
		info, ok := infixPower[tok.text]
		if !ok || info.power < minPower {
			return lhs, nil
		}
		p.advance()
		next := info.power + 1
		if info.right {
			next = info.power
		}
		rhs, err := p.binary(next)
		if err != nil {
			return nil, err
		}
		lhs = p.node(KindBinOp, lhs.start, rhs.end, lhs, rhs)
		lhs.op = tok.text
	}
}

func (p *parser) prefix() (*Node, error) {
	tok := p.peek()
	if tok.kind == tOp && (tok.text == "!" || tok.text == "-") {
		p.advance()
		var operand *Node
		var err error
		if tok.text == "!" {
			operand, err = p.binary(powerNot + 1)
		} else {
			operand, err = p.application()
		}
		if err != nil {
			return nil, err
		}
		n := p.node(KindUnaryOp, tok.start, operand.end, operand)
		n.op = tok.text
		return n, nil
	}
	return p.application()
}

// startsOperand reports whether tok can begin an application argument.
func (p *parser) startsOperand(tok token) bool {
	switch tok.kind {
	case tIdent:
		return !keywords[tok.text] || tok.text == "rec"
	case tInt, tFloat, tPath, tSearchPath, tURI, tString, tIndString,
		tLParen, tLBrace, tLBracket:
		return true
	}
	return false
}

func (p *parser) application() (*Node, error) {
	fn, err := p.selectExpr()
	if err != nil {
		return nil, err
	}
	for p.startsOperand(p.peek()) && !p.isKeyword(p.peek(), "or") {
		arg, err := p.selectExpr()
		if err != nil {
			return nil, err
		}
		fn = p.node(KindApply, fn.start, arg.end, fn, arg)
	}
	return fn, nil
}

func (p *parser) selectExpr() (*Node, error) {
	base, err := p.simple()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tDot {
		return base, nil
	}
	p.advance()
	path, err := p.attrPath()
	if err != nil {
		return nil, err
	}
	sel := p.node(KindSelect, base.start, path.end, base, path)
	if p.isKeyword(p.peek(), "or") {
		p.advance()
		def, err := p.selectExpr()
		if err != nil {
			return nil, err
		}
		p.adopt(sel, def)
		sel.end = def.end
	}
	return sel, nil
}

func (p *parser) attrPath() (*Node, error) {
	first, err := p.attrName()
	if err != nil {
		return nil, err
	}
	path := p.node(KindAttrPath, first.start, first.end, first)
	for p.peek().kind == tDot {
		p.advance()
		name, err := p.attrName()
		if err != nil {
			return nil, err
		}
		p.adopt(path, name)
		path.end = name.end
	}
	return path, nil
}

func (p *parser) attrName() (*Node, error) {
	tok := p.peek()
	switch tok.kind {
	case tIdent:
		if keywords[tok.text] {
			return nil, p.unexpected(tok)
		}
		p.advance()
		return p.node(KindIdent, tok.start, tok.end), nil
	case tString:
		p.advance()
		return p.stringNode(tok)
	case tDollarCurly:
		p.advance()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(tRBrace, "'}'")
		if err != nil {
			return nil, err
		}
		return p.node(KindDynamic, tok.start, closing.end, inner), nil
	}
	return nil, p.unexpected(tok)
}

func (p *parser) simple() (*Node, error) {
	tok := p.peek()
	switch tok.kind {
	case tIdent:
		if p.isKeyword(tok, "rec") {
			p.advance()
			return p.attrSet(tok.start)
		}
		if p.isKeyword(tok, "let") && p.peekAt(1).kind == tLBrace {
			p.advance()
			set, err := p.attrSet(tok.start)
			if err != nil {
				return nil, err
			}
			set.kind = KindLegacyLet
			return set, nil
		}
		if keywords[tok.text] {
			return nil, p.unexpected(tok)
		}
		p.advance()
		return p.node(KindIdent, tok.start, tok.end), nil
	case tInt, tFloat, tURI:
		p.advance()
		n := p.node(KindLiteral, tok.start, tok.end)
		n.op = map[tokenKind]string{tInt: "int", tFloat: "float", tURI: "uri"}[tok.kind]
		return n, nil
	case tPath, tSearchPath:
		p.advance()
		return p.node(KindPath, tok.start, tok.end), nil
	case tString, tIndString:
		p.advance()
		return p.stringNode(tok)
	case tLParen:
		p.advance()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(tRParen, "')'")
		if err != nil {
			return nil, err
		}
		return p.node(KindParen, tok.start, closing.end, inner), nil
	case tLBracket:
		p.advance()
		list := p.node(KindList, tok.start, tok.end)
		for p.peek().kind != tRBracket {
			if p.peek().kind == tEOF {
				return nil, p.unexpected(p.peek())
			}
			elem, err := p.selectExpr()
			if err != nil {
				return nil, err
			}
			p.adopt(list, elem)
		}
		list.end = p.advance().end
		return list, nil
	case tLBrace:
		return p.attrSet(tok.start)
	}
	return nil, p.unexpected(tok)
}

func (p *parser) attrSet(start int) (*Node, error) {
	if _, err := p.expect(tLBrace, "'{'"); err != nil {
		return nil, err
	}
	set := p.node(KindAttrSet, start, start)
	if err := p.bindings(set, func(t token) bool { return t.kind == tRBrace }); err != nil {
		return nil, err
	}
	closing, err := p.expect(tRBrace, "'}'")
	if err != nil {
		return nil, err
	}
	set.end = closing.end
	return set, nil
}

// bindings parses `path = expr;` and `inherit ...;` entries into parent
// until done reports the terminating token.
func (p *parser) bindings(parent *Node, done func(token) bool) error {
	for {
		tok := p.peek()
		if done(tok) {
			return nil
		}
		if tok.kind == tEOF {
			return p.unexpected(tok)
		}
		if p.isKeyword(tok, "inherit") {
			n, err := p.inherit()
			if err != nil {
				return err
			}
			p.adopt(parent, n)
			continue
		}

		path, err := p.attrPath()
		if err != nil {
			return err
		}
		if _, err := p.expect(tAssign, "'='"); err != nil {
			return err
		}
		value, err := p.expr()
		if err != nil {
			return err
		}
		semi, err := p.expect(tSemi, "';'")
		if err != nil {
			return err
		}
		p.adopt(parent, p.node(KindKeyValue, path.start, semi.end, path, value))
	}
}

func (p *parser) inherit() (*Node, error) {
	start := p.advance().start
	n := p.node(KindInherit, start, start)
	if open := p.peek(); open.kind == tLParen {
		p.advance()
		from, err := p.expr()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(tRParen, "')'")
		if err != nil {
			return nil, err
		}
		p.adopt(n, p.node(KindInheritFrom, open.start, closing.end, from))
	}
	for p.peek().kind != tSemi {
		name, err := p.attrName()
		if err != nil {
			return nil, err
		}
		p.adopt(n, name)
	}
	n.end = p.advance().end
	return n, nil
}

func (p *parser) stringNode(tok token) (*Node, error) {
	n := p.node(KindString, tok.start, tok.end)
	n.indented = tok.kind == tIndString
	for _, in := range tok.interps {
		sub := &parser{src: p.src, toks: in.tokens}
		inner, err := sub.expr()
		if err != nil {
			return nil, err
		}
		if rest := sub.peek(); rest.kind != tEOF {
			return nil, sub.unexpected(rest)
		}
		p.adopt(n, p.node(KindInterpol, in.start, in.end, inner))
	}
	return n, nil
}
