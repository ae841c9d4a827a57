package asm

import (
	"fmt"

	"github.com/reglet-dev/asmbridge/internal/diagn"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokenIdent TokenKind = iota
	TokenNumber
	TokenString
	TokenDirective
	TokenPunct
	TokenNewline
	TokenEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenDirective:
		return "directive"
	case TokenPunct:
		return "punctuation"
	case TokenNewline:
		return "line break"
	case TokenEOF:
		return "end of file"
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexeme with its source span. String tokens hold the
// unescaped value in Text.
type Token struct {
	Kind TokenKind
	Text string
	Span diagn.Span
}

func (t Token) is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}

func (t Token) isPunct(text string) bool {
	return t.is(TokenPunct, text)
}

func (t Token) describe() string {
	switch t.Kind {
	case TokenNewline, TokenEOF:
		return t.Kind.String()
	case TokenString:
		return fmt.Sprintf("string %q", t.Text)
	}
	return fmt.Sprintf("`%s`", t.Text)
}
