package nix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/uptix/pkg/errors"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tInt
	tFloat
	tPath
	tSearchPath
	tURI
	tString
	tIndString
	tLBrace
	tRBrace
	tLBracket
	tRBracket
	tLParen
	tRParen
	tSemi
	tColon
	tComma
	tAssign
	tAt
	tQuestion
	tEllipsis
	tDot
	tDollarCurly
	tOp
)

type token struct {
	kind    tokenKind
	start   int
	end     int
	text    string
	interps []interpolation
}

// interpolation is a ${...} segment inside a string token. start and end
// cover the delimiters.
type interpolation struct {
	start  int
	end    int
	tokens []token
}

var keywords = map[string]bool{
	"let": true, "in": true, "rec": true, "with": true, "inherit": true,
	"if": true, "then": true, "else": true, "assert": true,
}

var (
	searchPathRe = regexp.MustCompile(`^<[a-zA-Z0-9._+-]+(/[a-zA-Z0-9._+-]+)*>`)
	uriRe        = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:[a-zA-Z0-9%/?:@&=+$,_.!~*'-]+`)
	pathRe       = regexp.MustCompile(`^(~|[a-zA-Z0-9._+-]*)(/[a-zA-Z0-9._+-]+)+/?`)
	numberRe     = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?([eE][+-]?[0-9]+)?`)
	identRe      = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_'-]*`)
)

// operators ordered longest first.
var operators = []string{
	"...", "==", "!=", "<=", ">=", "&&", "||", "->", "++", "//", "${",
	"<", ">", "+", "-", "*", "/", "!",
	"{", "}", "[", "]", "(", ")", ";", ":", ",", "=", "@", "?", ".",
}

var punctKinds = map[string]tokenKind{
	"...": tEllipsis, "${": tDollarCurly,
	"{": tLBrace, "}": tRBrace, "[": tLBracket, "]": tRBracket,
	"(": tLParen, ")": tRParen, ";": tSemi, ":": tColon, ",": tComma,
	"=": tAssign, "@": tAt, "?": tQuestion, ".": tDot,
}

// SyntaxError reports malformed Nix source.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Code returns the error code for this error type.
func (e *SyntaxError) Code() errors.Code {
	return errors.ErrCodeSyntax
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) errorf(offset int, format string, args ...any) error {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// all tokenizes the whole source. The returned slice always ends in tEOF.
func (l *lexer) all() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tEOF {
			return toks, nil
		}
	}
}

// untilClose tokenizes an interpolation body up to its unmatched '}'.
func (l *lexer) untilClose(open int) ([]token, int, error) {
	var toks []token
	depth := 0
	for {
		tok, err := l.next()
		if err != nil {
			return nil, 0, err
		}
		switch tok.kind {
		case tEOF:
			return nil, 0, l.errorf(open, "unterminated interpolation")
		case tLBrace, tDollarCurly:
			depth++
		case tRBrace:
			if depth == 0 {
				toks = append(toks, token{kind: tEOF, start: tok.start, end: tok.start})
				return toks, tok.end, nil
			}
			depth--
		}
		toks = append(toks, tok)
	}
}

func (l *lexer) skipTrivia() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return l.errorf(l.pos, "unterminated comment")
			}
			l.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipTrivia(); err != nil {
		return token{}, err
	}
	start := l.pos
	if start >= len(l.src) {
		return token{kind: tEOF, start: start, end: start}, nil
	}
	rest := l.src[start:]

	switch {
	case rest[0] == '"':
		return l.quoted()
	case strings.HasPrefix(rest, "''"):
		return l.indented()
	}

	if m := searchPathRe.FindString(rest); m != "" {
		return l.emit(tSearchPath, start, len(m)), nil
	}
	if m := uriRe.FindString(rest); m != "" {
		return l.emit(tURI, start, len(m)), nil
	}
	if m := pathRe.FindString(rest); m != "" {
		return l.emit(tPath, start, len(m)), nil
	}
	if m := numberRe.FindString(rest); m != "" {
		if strings.ContainsAny(m, ".eE") {
			return l.emit(tFloat, start, len(m)), nil
		}
		return l.emit(tInt, start, len(m)), nil
	}
	if m := identRe.FindString(rest); m != "" {
		return l.emit(tIdent, start, len(m)), nil
	}
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			kind, ok := punctKinds[op]
			if !ok {
				kind = tOp
			}
			return l.emit(kind, start, len(op)), nil
		}
	}
	return token{}, l.errorf(start, "unexpected character %q", rest[0])
}

func (l *lexer) emit(kind tokenKind, start, n int) token {
	l.pos = start + n
	return token{kind: kind, start: start, end: l.pos, text: l.src[start:l.pos]}
}

func (l *lexer) quoted() (token, error) {
	start := l.pos
	l.pos++
	var interps []interpolation
	for l.pos < len(l.src) {
		switch {
		case l.src[l.pos] == '\\':
			l.pos += 2
		case strings.HasPrefix(l.src[l.pos:], "$${"):
			l.pos += 3
		case strings.HasPrefix(l.src[l.pos:], "${"):
			in, err := l.interpolation()
			if err != nil {
				return token{}, err
			}
			interps = append(interps, in)
		case l.src[l.pos] == '"':
			l.pos++
			return token{kind: tString, start: start, end: l.pos, text: l.src[start:l.pos], interps: interps}, nil
		default:
			l.pos++
		}
	}
	return token{}, l.errorf(start, "unterminated string")
}

func (l *lexer) indented() (token, error) {
	start := l.pos
	l.pos += 2
	var interps []interpolation
	for l.pos < len(l.src) {
		rest := l.src[l.pos:]
		switch {
		case strings.HasPrefix(rest, "'''"), strings.HasPrefix(rest, "''$"):
			l.pos += 3
		case strings.HasPrefix(rest, `''\`):
			l.pos += 4
		case strings.HasPrefix(rest, "''"):
			l.pos += 2
			return token{kind: tIndString, start: start, end: l.pos, text: l.src[start:l.pos], interps: interps}, nil
		case strings.HasPrefix(rest, "$${"):
			l.pos += 3
		case strings.HasPrefix(rest, "${"):
			in, err := l.interpolation()
			if err != nil {
				return token{}, err
			}
			interps = append(interps, in)
		default:
			l.pos++
		}
	}
	return token{}, l.errorf(start, "unterminated indented string")
}

func (l *lexer) interpolation() (interpolation, error) {
	open := l.pos
	l.pos += 2
	toks, end, err := l.untilClose(open)
	if err != nil {
		return interpolation{}, err
	}
	return interpolation{start: open, end: end, tokens: toks}, nil
}
