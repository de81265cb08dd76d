// Package refparse tokenizes reclass's embedded reference syntax,
// ${path:to:value} and ${path::default}, into an AST of literal and
// reference fragments, per spec section 4.5.
//
// The grammar: a string is a sequence of alternating literal-text and
// reference fragments. Inside ${...}, nested ${...} expressions are
// allowed anywhere; the top-level "::" marker (only recognized at nesting
// depth zero within the outermost reference) splits the reference into a
// path expression and a default expression. \${ escapes to a literal "${"
// and \\ escapes to a literal "\"; an unmatched "${" or "{" is a parse
// error.
package refparse

import (
	"fmt"
	"strings"
)

// Fragment is one piece of a parsed string: either literal text or a
// reference.
type Fragment struct {
	Literal   string     // valid when Ref == nil
	Ref       *Reference // valid when Literal == ""  and this is non-nil
}

// IsLiteral reports whether this fragment is literal text rather than a
// reference.
func (f Fragment) IsLiteral() bool { return f.Ref == nil }

// Expr is a parsed string: an ordered sequence of fragments. A string with
// no reference anywhere parses to a single literal Fragment (or none, for
// the empty string).
type Expr []Fragment

// IsPlainLiteral reports whether the expression contains no reference
// fragments at all, i.e. it is just literal text.
func (e Expr) IsPlainLiteral() bool {
	for _, f := range e {
		if !f.IsLiteral() {
			return false
		}
	}
	return true
}

// Literal concatenates a plain-literal Expr's fragments into a string.
// Callers must check IsPlainLiteral first.
func (e Expr) Literal() string {
	var b strings.Builder
	for _, f := range e {
		b.WriteString(f.Literal)
	}
	return b.String()
}

// Reference is a parsed ${...} expression: a path expression (itself an
// Expr, since the path may embed nested references) and an optional
// default expression, plus the original source span for diagnostics.
type Reference struct {
	Path    Expr
	Default *Expr
	Source  string // the original "${...}" text, for error messages
}

// ParseError reports a malformed reference.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reference parse error at byte %d in %q: %s", e.Pos, e.Input, e.Msg)
}

// Parse tokenizes s into an Expr of literal and reference fragments.
func Parse(s string) (Expr, error) {
	p := &parser{input: s}
	expr, err := p.parseExpr(false)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, &ParseError{Input: s, Pos: p.pos, Msg: "unmatched '}'"}
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

// parseExpr consumes fragments until end of input (inNested == false) or
// until it sees the closing '}' of the reference it's nested inside
// (inNested == true), without consuming that '}'.
func (p *parser) parseExpr(inNested bool) (Expr, error) {
	var expr Expr
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			expr = append(expr, Fragment{Literal: lit.String()})
			lit.Reset()
		}
	}

	for p.pos < len(p.input) {
		c := p.input[p.pos]

		if inNested && c == '}' {
			flush()
			return expr, nil
		}

		switch {
		case c == '\\' && p.pos+1 < len(p.input):
			next := p.input[p.pos+1]
			switch next {
			case '\\':
				lit.WriteByte('\\')
				p.pos += 2
			case '$':
				if p.pos+2 < len(p.input) && p.input[p.pos+2] == '{' {
					lit.WriteString("${")
					p.pos += 3
				} else {
					lit.WriteByte('$')
					p.pos += 2
				}
			default:
				lit.WriteByte(c)
				p.pos++
			}
		case c == '$' && p.pos+1 < len(p.input) && p.input[p.pos+1] == '{':
			flush()
			start := p.pos
			p.pos += 2
			ref, err := p.parseReference(start)
			if err != nil {
				return nil, err
			}
			expr = append(expr, Fragment{Ref: ref})
		case c == '{':
			return nil, &ParseError{Input: p.input, Pos: p.pos, Msg: "unescaped '{' outside of a reference"}
		default:
			lit.WriteByte(c)
			p.pos++
		}
	}

	if inNested {
		return nil, &ParseError{Input: p.input, Pos: p.pos, Msg: "unmatched '${'"}
	}
	flush()
	return expr, nil
}

// parseReference parses the body of a "${" already consumed at start,
// through its closing "}". It first parses the raw body as a single
// nested expression (so "::" recognition can be deferred until the whole
// body, including any nested references, has been tokenized), then splits
// that expression on a top-level "::" marker into path and default.
func (p *parser) parseReference(start int) (*Reference, error) {
	body, err := p.parseReferenceBody()
	if err != nil {
		return nil, err
	}
	if p.pos >= len(p.input) || p.input[p.pos] != '}' {
		return nil, &ParseError{Input: p.input, Pos: p.pos, Msg: "unmatched '${'"}
	}
	p.pos++ // consume '}'

	pathExpr, defaultExpr := splitDefault(body)
	return &Reference{
		Path:    pathExpr,
		Default: defaultExpr,
		Source:  p.input[start:p.pos],
	}, nil
}

// parseReferenceBody tokenizes everything up to (not including) the
// reference's closing '}', treating nested "${...}" normally but leaving
// "::" as ordinary literal text — splitDefault finds it afterward.
func (p *parser) parseReferenceBody() (Expr, error) {
	return p.parseExpr(true)
}

// splitDefault scans a parsed reference body for a "::" that occurs
// inside a single literal fragment at the top level (never inside a
// nested reference fragment, since those are already separate Fragments)
// and splits the expression there. Only the first top-level "::" counts;
// everything after it, including further literal text and any nested
// references, becomes the default expression.
func splitDefault(body Expr) (Expr, *Expr) {
	for i, f := range body {
		if !f.IsLiteral() {
			continue
		}
		if idx := strings.Index(f.Literal, "::"); idx != -1 {
			pathExpr := make(Expr, 0, i+1)
			pathExpr = append(pathExpr, body[:i]...)
			if idx > 0 {
				pathExpr = append(pathExpr, Fragment{Literal: f.Literal[:idx]})
			}

			defExpr := make(Expr, 0, len(body)-i)
			if rest := f.Literal[idx+2:]; rest != "" {
				defExpr = append(defExpr, Fragment{Literal: rest})
			}
			defExpr = append(defExpr, body[i+1:]...)

			return pathExpr, &defExpr
		}
	}
	return body, nil
}
