package asm

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/asmbridge/internal/diagn"
)

// patternPart is either a literal token to match or a named parameter.
type patternPart struct {
	param   string
	literal Token
}

func (p patternPart) String() string {
	if p.param != "" {
		return "{" + p.param + "}"
	}
	return p.literal.Text
}

// Rule maps an instruction pattern to its encoding.
type Rule struct {
	Group   string
	pattern []patternPart
	output  []Expr
	bits    int
	span    diagn.Span
}

// Mnemonic is the rule pattern as written, e.g. "ld {v}".
func (r *Rule) Mnemonic() string {
	parts := make([]string, len(r.pattern))
	for i, p := range r.pattern {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

// Size is the encoded instruction length in bytes.
func (r *Rule) Size() int {
	return r.bits / 8
}

// parseRule parses `pattern => term @ term ...` from one line of tokens.
func parseRule(group string, toks []Token, report *diagn.Report) (*Rule, bool) {
	arrow := -1
	for i, t := range toks {
		if t.isPunct("=>") {
			arrow = i
			break
		}
	}
	span := joinSpans(toks[0].Span, toks[len(toks)-1].Span)
	if arrow < 0 {
		report.Error(span, "expected `=>` in rule")
		return nil, false
	}
	if arrow == 0 {
		report.Error(span, "rule pattern is empty")
		return nil, false
	}

	r := &Rule{Group: group, span: span}
	if !r.parsePattern(toks[:arrow], report) {
		return nil, false
	}
	if !r.parseOutput(toks[arrow+1:], span, report) {
		return nil, false
	}
	return r, true
}

func (r *Rule) parsePattern(toks []Token, report *diagn.Report) bool {
	params := make(map[string]bool)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !t.isPunct("{") {
			if t.Kind == TokenIdent {
				t.Text = strings.ToLower(t.Text)
			}
			r.pattern = append(r.pattern, patternPart{literal: t})
			continue
		}

		if i+2 >= len(toks) || toks[i+1].Kind != TokenIdent || !toks[i+2].isPunct("}") {
			report.Error(t.Span, "expected `{name}` parameter in rule pattern")
			return false
		}
		name := toks[i+1].Text
		if params[name] {
			report.Error(toks[i+1].Span, "duplicate parameter `%s`", name)
			return false
		}
		if n := len(r.pattern); n > 0 && r.pattern[n-1].param != "" {
			report.Error(t.Span, "parameters `%s` and `%s` must be separated by a literal token", r.pattern[n-1].param, name)
			return false
		}
		params[name] = true
		r.pattern = append(r.pattern, patternPart{param: name})
		i += 2
	}
	if r.pattern[0].param != "" {
		report.Error(toks[0].Span, "rule pattern must start with a mnemonic")
		return false
	}
	return true
}

func (r *Rule) parseOutput(toks []Token, span diagn.Span, report *diagn.Report) bool {
	if len(toks) == 0 {
		report.Error(span, "rule has no output")
		return false
	}

	for _, termToks := range splitTopLevel(toks, "@") {
		if len(termToks) == 0 {
			report.Error(span, "empty term in rule output")
			return false
		}
		term, err := ParseExpr(termToks)
		if err != nil {
			reportParseError(report, err)
			return false
		}
		if term.Width() == 0 {
			report.Error(term.Span(), "width of output term is unknown; use a sized literal or a slice like x`8")
			return false
		}
		r.output = append(r.output, term)
		r.bits += term.Width()
	}

	if r.bits%8 != 0 {
		report.Error(span, "rule output is %d bits wide, which is not a whole number of bytes", r.bits)
		return false
	}
	return true
}

// match tries to bind the instruction tokens to this rule's pattern.
func (r *Rule) match(toks []Token) (map[string]Expr, bool) {
	args := make(map[string][]Token)
	if !matchParts(r.pattern, toks, args) {
		return nil, false
	}

	exprs := make(map[string]Expr, len(args))
	for name, argToks := range args {
		e, err := ParseExpr(argToks)
		if err != nil {
			return nil, false
		}
		exprs[name] = e
	}
	return exprs, true
}

func matchParts(parts []patternPart, toks []Token, args map[string][]Token) bool {
	if len(parts) == 0 {
		return len(toks) == 0
	}

	part := parts[0]
	if part.param == "" {
		if len(toks) == 0 || !literalMatches(part.literal, toks[0]) {
			return false
		}
		return matchParts(parts[1:], toks[1:], args)
	}

	if len(parts) == 1 {
		if len(toks) == 0 {
			return false
		}
		args[part.param] = toks
		return true
	}

	// Parameters are never adjacent, so the next part is a literal. Try
	// each top-level occurrence of it as the end of this argument.
	next := parts[1].literal
	depth := 0
	for i, t := range toks {
		if i > 0 && depth == 0 && literalMatches(next, t) {
			args[part.param] = toks[:i]
			if matchParts(parts[1:], toks[i:], args) {
				return true
			}
			delete(args, part.param)
		}
		switch {
		case t.isPunct("("):
			depth++
		case t.isPunct(")"):
			depth--
		}
	}
	return false
}

func literalMatches(lit, tok Token) bool {
	if lit.Kind != tok.Kind {
		return false
	}
	if tok.Kind == TokenIdent {
		return strings.EqualFold(lit.Text, tok.Text)
	}
	return lit.Text == tok.Text
}

// splitTopLevel splits toks on sep outside parentheses.
func splitTopLevel(toks []Token, sep string) [][]Token {
	var parts [][]Token
	depth, start := 0, 0
	for i, t := range toks {
		switch {
		case t.isPunct("("):
			depth++
		case t.isPunct(")"):
			depth--
		case depth == 0 && t.isPunct(sep):
			parts = append(parts, toks[start:i])
			start = i + 1
		}
	}
	return append(parts, toks[start:])
}

func reportParseError(report *diagn.Report, err error) {
	if pe, ok := err.(*parseError); ok {
		report.Error(pe.span, "%s", pe.msg)
		return
	}
	report.Error(diagn.Span{}, "%s", fmt.Sprint(err))
}
