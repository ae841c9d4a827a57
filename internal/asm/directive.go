package asm

import (
	"github.com/reglet-dev/asmbridge/internal/diagn"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

// maxFill bounds the zero padding a single layout directive may emit.
const maxFill = 16 * 1024 * 1024

var dataDirectiveBits = map[string]int{
	"#d8":  8,
	"#d16": 16,
	"#d32": 32,
	"#d64": 64,
}

func (s *State) parseDirective(report *diagn.Report, fs vfs.FileServer, line []Token, span diagn.Span) {
	name, args := line[0], line[1:]

	if bits, ok := dataDirectiveBits[name.Text]; ok {
		s.parseData(report, args, bits, span)
		return
	}

	switch name.Text {
	case "#d":
		s.parseData(report, args, 0, span)
	case "#res":
		if n, ok := s.directiveValue(report, name, args); ok {
			if n < 0 || n > maxFill {
				report.Error(span, "cannot reserve %d bytes", n)
				return
			}
			s.append(&statement{kind: stmtFill, span: span, size: int(n)})
		}
	case "#align":
		if n, ok := s.directiveValue(report, name, args); ok {
			if n <= 0 || n > maxFill {
				report.Error(span, "alignment must be positive, got %d", n)
				return
			}
			pad := (int(n) - s.pc%int(n)) % int(n)
			s.append(&statement{kind: stmtFill, span: span, size: pad})
		}
	case "#addr":
		if target, ok := s.directiveValue(report, name, args); ok {
			if target < int64(s.pc) {
				report.Error(span, "cannot move address backwards (from 0x%x to 0x%x)", s.pc, target)
				return
			}
			if target-int64(s.pc) > maxFill {
				report.Error(span, "address gap of %d bytes is too large", target-int64(s.pc))
				return
			}
			s.append(&statement{kind: stmtFill, span: span, size: int(target) - s.pc})
		}
	case "#include":
		if len(args) != 1 || args[0].Kind != TokenString {
			report.Error(span, "expected a file name string after #include")
			return
		}
		s.processFile(report, fs, args[0].Text, args[0].Span)
	case "#ruledef":
		report.Error(name.Span, "#ruledef must start a line")
	default:
		report.Error(name.Span, "unknown directive `%s`", name.Text)
	}
}

// directiveValue parses and evaluates the single expression argument of a
// layout directive. Its value is needed immediately, so forward
// references are errors.
func (s *State) directiveValue(report *diagn.Report, name Token, args []Token) (int64, bool) {
	if len(args) == 0 {
		report.Error(name.Span, "expected expression after `%s`", name.Text)
		return 0, false
	}
	e, err := ParseExpr(args)
	if err != nil {
		reportParseError(report, err)
		return 0, false
	}
	return s.evalNow(report, e)
}

// parseData handles #d8..#d64 (fixed element width) and #d (each item
// carries its own width). Strings always contribute their raw bytes.
func (s *State) parseData(report *diagn.Report, args []Token, bits int, span diagn.Span) {
	if len(args) == 0 {
		report.Error(span, "expected data after directive")
		return
	}

	st := &statement{kind: stmtData, span: span}
	totalBits := 0
	for _, itemToks := range splitTopLevel(args, ",") {
		if len(itemToks) == 0 {
			report.Error(span, "empty data item")
			return
		}
		if len(itemToks) == 1 && itemToks[0].Kind == TokenString {
			raw := []byte(itemToks[0].Text)
			st.items = append(st.items, dataItem{raw: raw, bits: len(raw) * 8})
			totalBits += len(raw) * 8
			continue
		}

		e, err := ParseExpr(itemToks)
		if err != nil {
			reportParseError(report, err)
			return
		}
		width := bits
		if width == 0 {
			width = e.Width()
			if width == 0 {
				report.Error(e.Span(), "width of data item is unknown; use a sized literal or a slice like x`8")
				return
			}
		}
		st.items = append(st.items, dataItem{expr: e, bits: width})
		totalBits += width
	}

	if totalBits%8 != 0 {
		report.Error(span, "data is %d bits wide, which is not a whole number of bytes", totalBits)
		return
	}
	st.size = totalBits / 8
	s.append(st)
}
