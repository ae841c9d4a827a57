package asm

import (
	"strings"

	"github.com/reglet-dev/asmbridge/internal/diagn"
)

// twoCharPuncts are matched before single characters.
var twoCharPuncts = []string{"=>", "<<", ">>"}

const singleCharPuncts = "{}()[],:=@`$+-*/%&|^~<>!."

// Lex splits src into tokens. Comments run from ';' to the end of the
// line. Unknown characters and unterminated strings are reported and skipped.
func Lex(file string, src []byte, report *diagn.Report) []Token {
	l := lexer{file: file, src: src, report: report}
	l.run()
	return l.toks
}

type lexer struct {
	file   string
	src    []byte
	pos    int
	toks   []Token
	report *diagn.Report
}

func (l *lexer) span(start int) diagn.Span {
	return diagn.Span{File: l.file, Start: start, End: l.pos}
}

func (l *lexer) emit(kind TokenKind, text string, start int) {
	l.toks = append(l.toks, Token{Kind: kind, Text: text, Span: l.span(start)})
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		start := l.pos
		c := l.src[l.pos]

		switch {
		case c == '\n':
			l.pos++
			l.emit(TokenNewline, "\n", start)
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == ';':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '"':
			l.lexString()
		case c == '#':
			l.pos++
			l.takeWhile(isIdentChar)
			if l.pos == start+1 {
				l.report.Error(l.span(start), "expected directive name after `#`")
				continue
			}
			l.emit(TokenDirective, strings.ToLower(string(l.src[start:l.pos])), start)
		case isDigit(c):
			l.takeWhile(isIdentChar)
			l.emit(TokenNumber, string(l.src[start:l.pos]), start)
		case isIdentStart(c):
			l.takeWhile(isIdentChar)
			l.emit(TokenIdent, string(l.src[start:l.pos]), start)
		default:
			l.lexPunct()
		}
	}
	l.toks = append(l.toks, Token{Kind: TokenEOF, Span: l.span(l.pos)})
}

func (l *lexer) lexPunct() {
	start := l.pos
	for _, p := range twoCharPuncts {
		if strings.HasPrefix(string(l.src[l.pos:min(l.pos+2, len(l.src))]), p) {
			l.pos += 2
			l.emit(TokenPunct, p, start)
			return
		}
	}
	c := l.src[l.pos]
	l.pos++
	if strings.IndexByte(singleCharPuncts, c) < 0 {
		l.report.Error(l.span(start), "unexpected character %q", rune(c))
		return
	}
	l.emit(TokenPunct, string(c), start)
}

func (l *lexer) lexString() {
	start := l.pos
	l.pos++

	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			l.emit(TokenString, b.String(), start)
			return
		case '\n':
			l.report.Error(l.span(start), "unterminated string")
			return
		case '\\':
			if l.pos+1 >= len(l.src) {
				l.pos++
				continue
			}
			l.pos += 2
			switch esc := l.src[l.pos-1]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\', '"':
				b.WriteByte(esc)
			default:
				l.report.Error(diagn.Span{File: l.file, Start: l.pos - 2, End: l.pos}, "unknown escape sequence `\\%c`", esc)
			}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	l.report.Error(l.span(start), "unterminated string")
}

func (l *lexer) takeWhile(pred func(byte) bool) {
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.pos++
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
