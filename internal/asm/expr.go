package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reglet-dev/asmbridge/internal/diagn"
)

// Expr is a parsed expression node.
type Expr interface {
	Span() diagn.Span
	// Width is the statically known bit width, or 0 when unknown.
	Width() int
}

// NumberExpr is an integer literal. Hex and binary literals carry a width
// of four or one bits per digit; decimal literals are unsized.
type NumberExpr struct {
	Value int64
	Bits  int
	Src   diagn.Span
}

// SymbolExpr references a label, constant or rule parameter.
type SymbolExpr struct {
	Name string
	Src  diagn.Span
}

// PCExpr is `$`, the address of the current statement.
type PCExpr struct {
	Src diagn.Span
}

// UnaryExpr applies - or ~ to X.
type UnaryExpr struct {
	Op  string
	X   Expr
	Src diagn.Span
}

// BinaryExpr applies an arithmetic or bitwise operator.
type BinaryExpr struct {
	Op   string
	L, R Expr
	Src  diagn.Span
}

// SliceExpr truncates X to its low Bits bits: x`8.
type SliceExpr struct {
	X    Expr
	Bits int
	Src  diagn.Span
}

func (e *NumberExpr) Span() diagn.Span { return e.Src }
func (e *SymbolExpr) Span() diagn.Span { return e.Src }
func (e *PCExpr) Span() diagn.Span     { return e.Src }
func (e *UnaryExpr) Span() diagn.Span  { return e.Src }
func (e *BinaryExpr) Span() diagn.Span { return e.Src }
func (e *SliceExpr) Span() diagn.Span  { return e.Src }

func (e *NumberExpr) Width() int { return e.Bits }
func (e *SymbolExpr) Width() int { return 0 }
func (e *PCExpr) Width() int     { return 0 }
func (e *UnaryExpr) Width() int  { return 0 }
func (e *BinaryExpr) Width() int { return 0 }
func (e *SliceExpr) Width() int  { return e.Bits }

// binaryPrecedence lists operators from loosest to tightest binding.
var binaryPrecedence = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func joinSpans(a, b diagn.Span) diagn.Span {
	return diagn.Span{File: a.File, Start: a.Start, End: b.End}
}

// parseNumber decodes a decimal, 0x hex, 0b binary or 0o octal literal.
// Underscores may separate digits.
func parseNumber(tok Token) (*NumberExpr, error) {
	text := strings.ReplaceAll(strings.ToLower(tok.Text), "_", "")

	base, bitsPerDigit, digits := 10, 0, text
	switch {
	case strings.HasPrefix(text, "0x"):
		base, bitsPerDigit, digits = 16, 4, text[2:]
	case strings.HasPrefix(text, "0b"):
		base, bitsPerDigit, digits = 2, 1, text[2:]
	case strings.HasPrefix(text, "0o"):
		base, bitsPerDigit, digits = 8, 3, text[2:]
	}
	if digits == "" {
		return nil, fmt.Errorf("invalid number literal `%s`", tok.Text)
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number literal `%s`", tok.Text)
	}
	return &NumberExpr{Value: int64(v), Bits: len(digits) * bitsPerDigit, Src: tok.Span}, nil
}

// exprParser parses expressions from a bounded token slice.
type exprParser struct {
	toks []Token
	pos  int
}

func (p *exprParser) peek() Token {
	if p.pos >= len(p.toks) {
		if len(p.toks) == 0 {
			return Token{Kind: TokenEOF}
		}
		last := p.toks[len(p.toks)-1].Span
		return Token{Kind: TokenEOF, Span: diagn.Span{File: last.File, Start: last.End, End: last.End}}
	}
	return p.toks[p.pos]
}

func (p *exprParser) next() Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *exprParser) atEnd() bool {
	return p.pos >= len(p.toks)
}

// parseExpr parses one full expression.
func (p *exprParser) parseExpr() (Expr, *parseError) {
	return p.parseBinary(0)
}

func (p *exprParser) parseBinary(level int) (Expr, *parseError) {
	if level == len(binaryPrecedence) {
		return p.parseUnary()
	}

	lhs, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Kind != TokenPunct || !containsOp(binaryPrecedence[level], tok.Text) {
			return lhs, nil
		}
		p.next()
		rhs, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Op: tok.Text, L: lhs, R: rhs, Src: joinSpans(lhs.Span(), rhs.Span())}
	}
}

func containsOp(ops []string, op string) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func (p *exprParser) parseUnary() (Expr, *parseError) {
	tok := p.peek()
	if tok.isPunct("-") || tok.isPunct("~") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: tok.Text, X: x, Src: joinSpans(tok.Span, x.Span())}, nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (Expr, *parseError) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().isPunct("`") {
		p.next()
		widthTok := p.next()
		if widthTok.Kind != TokenNumber {
			return nil, &parseError{span: widthTok.Span, msg: "expected slice width after '`'"}
		}
		width, convErr := strconv.Atoi(widthTok.Text)
		if convErr != nil || width <= 0 || width > 64 {
			return nil, &parseError{span: widthTok.Span, msg: fmt.Sprintf("invalid slice width `%s`", widthTok.Text)}
		}
		x = &SliceExpr{X: x, Bits: width, Src: joinSpans(x.Span(), widthTok.Span)}
	}
	return x, nil
}

func (p *exprParser) parsePrimary() (Expr, *parseError) {
	tok := p.next()
	switch {
	case tok.Kind == TokenNumber:
		n, err := parseNumber(tok)
		if err != nil {
			return nil, &parseError{span: tok.Span, msg: err.Error()}
		}
		return n, nil
	case tok.Kind == TokenIdent:
		return &SymbolExpr{Name: tok.Text, Src: tok.Span}, nil
	case tok.isPunct("$"):
		return &PCExpr{Src: tok.Span}, nil
	case tok.isPunct("("):
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if !closing.isPunct(")") {
			return nil, &parseError{span: closing.Span, msg: fmt.Sprintf("expected `)`, found %s", closing.describe())}
		}
		return inner, nil
	}
	return nil, &parseError{span: tok.Span, msg: fmt.Sprintf("expected expression, found %s", tok.describe())}
}

// ParseExpr parses toks as exactly one expression.
func ParseExpr(toks []Token) (Expr, error) {
	p := &exprParser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		tok := p.peek()
		return nil, &parseError{span: tok.Span, msg: fmt.Sprintf("unexpected %s after expression", tok.describe())}
	}
	return e, nil
}

type parseError struct {
	span diagn.Span
	msg  string
}

func (e *parseError) Error() string {
	return e.msg
}
