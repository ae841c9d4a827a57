package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/asmbridge/internal/diagn"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

const cpuRules = `
#ruledef cpu
{
    nop => 0x00
    ld ({x}) => 0x11 @ x` + "`" + `8
    ld {v} => 0x10 @ v` + "`" + `8
    jmp {addr} => 0x20 @ addr` + "`" + `16
    mov {a}, {b} => 0x3 @ a` + "`" + `4 @ b` + "`" + `8
}
`

type run struct {
	state  *State
	report *diagn.Report
	fs     *vfs.Memory
	err    error
}

func (r run) diagnostics(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, r.report.PrintAll(&sb, r.fs))
	return sb.String()
}

func assembleFiles(files map[string]string) run {
	fs := vfs.NewMemory()
	for name, src := range files {
		fs.Add(name, []byte(src))
	}
	r := run{state: NewState(), report: diagn.NewReport(), fs: fs}
	if r.err = r.state.ProcessFile(r.report, fs, "asm"); r.err != nil {
		return r
	}
	r.err = r.state.Wrapup(r.report)
	return r
}

func assemble(src string) run {
	return assembleFiles(map[string]string{"asm": src})
}

func TestAssemble_Success(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []byte
	}{
		{
			name: "single nop",
			src:  "#ruledef\n{\n    nop => 0x00\n}\nnop\n",
			want: []byte{0x00},
		},
		{
			name: "single-line ruledef",
			src:  "#ruledef { nop => 0xea }\nNOP",
			want: []byte{0xea},
		},
		{
			name: "operands and forward labels",
			src:  cpuRules + "start:\n    jmp end\n    ld 0x7f\n    mov 2, 0xff\nend:\n    nop\n",
			want: []byte{0x20, 0x00, 0x07, 0x10, 0x7f, 0x32, 0xff, 0x00},
		},
		{
			name: "parenthesized pattern",
			src:  cpuRules + "ld (5)\nld 5\nld (1+2)+3\n",
			want: []byte{0x11, 0x05, 0x10, 0x05, 0x10, 0x06},
		},
		{
			name: "data directives",
			src:  "#d8 1, 2, 0xff\n#d16 0x1234\n#d32 -1\n#d \"hi\", 0xabc`12, 0x0`4\n",
			want: []byte{0x01, 0x02, 0xff, 0x12, 0x34, 0xff, 0xff, 0xff, 0xff, 0x68, 0x69, 0xab, 0xc0},
		},
		{
			name: "layout directives",
			src:  "#d8 1\n#align 4\n#d8 2\n#res 2\n#addr 0x8\n#d8 3\n",
			want: []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03},
		},
		{
			name: "constants and current address",
			src:  "count = end - start\nstart:\n#d8 count, $\nend:\n",
			want: []byte{0x02, 0x00},
		},
		{
			name: "expression operators",
			src:  "#d8 (1 << 4) | 3, 0xf0 >> 4, ~0, 7 % 4, 2 * 3 + 1, 0xff & 0x0f ^ 0x01\n",
			want: []byte{0x13, 0x0f, 0xff, 0x03, 0x07, 0x0e},
		},
		{
			name: "comments and blank lines",
			src:  "; header\n\n#d8 1 ; trailing\n\n",
			want: []byte{0x01},
		},
		{
			name: "empty source",
			src:  "",
			want: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := assemble(tt.src)
			require.NoError(t, r.err, r.diagnostics(t))
			assert.Equal(t, tt.want, r.state.BinaryOutput().Bytes())
		})
	}
}

func TestAssemble_Symbols(t *testing.T) {
	r := assemble(cpuRules + "start:\n    jmp end\n    ld 0x7f\nend:\n")
	require.NoError(t, r.err)

	v, ok := r.state.Symbol("end")
	require.True(t, ok)
	assert.Equal(t, int64(5), v)

	_, ok = r.state.Symbol("nowhere")
	assert.False(t, ok)
	assert.Len(t, r.state.Rules(), 5)
}

func TestAssemble_Include(t *testing.T) {
	r := assembleFiles(map[string]string{
		"asm":      "#include \"defs.asm\"\n#d8 value\n",
		"defs.asm": "value = 42\n",
	})
	require.NoError(t, r.err, r.diagnostics(t))
	assert.Equal(t, []byte{42}, r.state.BinaryOutput().Bytes())
}

func TestAssemble_Annotations(t *testing.T) {
	r := assemble(cpuRules + "nop\n#d8 1, 2\n")
	require.NoError(t, r.err)

	ann := r.state.BinaryOutput().Annotations()
	require.Len(t, ann, 2)
	assert.Equal(t, 0, ann[0].Addr)
	assert.Equal(t, 1, ann[1].Addr)
	assert.Equal(t, 2, ann[1].Length)
	assert.Equal(t, "asm", ann[1].Source.File)
}

func TestAssemble_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		phase1  bool
		message string
	}{
		{
			name:    "unknown instruction",
			files:   map[string]string{"asm": "foo 1\n"},
			phase1:  true,
			message: "error: unknown instruction `foo`\n --> asm:1:1\n",
		},
		{
			name:    "no matching form",
			files:   map[string]string{"asm": cpuRules + "mov 1\n"},
			phase1:  true,
			message: "no rule matches this form of `mov`",
		},
		{
			name:    "unknown symbol",
			files:   map[string]string{"asm": "#d8 missing\n"},
			message: "error: unknown symbol `missing`\n --> asm:1:5\n",
		},
		{
			name:    "operand out of range",
			files:   map[string]string{"asm": cpuRules + "ld 300\n"},
			message: "value 300 does not fit in 8 bits",
		},
		{
			name:    "data out of range",
			files:   map[string]string{"asm": "#d8 256\n"},
			message: "value 256 does not fit in 8 bits",
		},
		{
			name:    "duplicate label",
			files:   map[string]string{"asm": "a:\na:\n"},
			phase1:  true,
			message: "duplicate symbol `a`",
		},
		{
			name:    "partial byte rule",
			files:   map[string]string{"asm": "#ruledef { nop => 0x0 }\n"},
			phase1:  true,
			message: "not a whole number of bytes",
		},
		{
			name:    "unsized rule term",
			files:   map[string]string{"asm": "#ruledef { ld {v} => 0x10 @ v }\n"},
			phase1:  true,
			message: "width of output term is unknown",
		},
		{
			name:    "unterminated ruledef",
			files:   map[string]string{"asm": "#ruledef {\n nop => 0x00\n"},
			phase1:  true,
			message: "unterminated #ruledef block",
		},
		{
			name:    "unknown directive",
			files:   map[string]string{"asm": "#bank x\n"},
			phase1:  true,
			message: "unknown directive `#bank`",
		},
		{
			name:    "address moves backwards",
			files:   map[string]string{"asm": "#d8 1, 2\n#addr 1\n"},
			phase1:  true,
			message: "cannot move address backwards (from 0x2 to 0x1)",
		},
		{
			name:    "forward reference in layout directive",
			files:   map[string]string{"asm": "#res size\nsize = 2\n"},
			phase1:  true,
			message: "unknown symbol `size`",
		},
		{
			name:    "division by zero",
			files:   map[string]string{"asm": "#d8 1 / 0\n"},
			message: "division by zero",
		},
		{
			name:    "unsized data item",
			files:   map[string]string{"asm": "#d 5\n"},
			phase1:  true,
			message: "width of data item is unknown",
		},
		{
			name:    "unterminated string",
			files:   map[string]string{"asm": "#d \"abc\n"},
			phase1:  true,
			message: "unterminated string",
		},
		{
			name:    "unexpected character",
			files:   map[string]string{"asm": "#d8 1 ? 2\n"},
			phase1:  true,
			message: "unexpected character '?'",
		},
		{
			name:    "missing include",
			files:   map[string]string{"asm": "#include \"nope.asm\"\n"},
			phase1:  true,
			message: "file not found: `nope.asm`",
		},
		{
			name:    "recursive include",
			files:   map[string]string{"asm": "#include \"asm\"\n"},
			phase1:  true,
			message: "include depth limit of 16 exceeded",
		},
		{
			name:    "ruledef after label",
			files:   map[string]string{"asm": "start: #ruledef { nop => 0x00 }\nnop\n"},
			phase1:  true,
			message: "error: #ruledef must start a line\n --> asm:1:8\n",
		},
		{
			name:    "malformed expression",
			files:   map[string]string{"asm": "#d8 (1 + \n"},
			phase1:  true,
			message: "expected expression, found end of file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := assembleFiles(tt.files)
			require.Error(t, r.err)
			assert.True(t, errors.Is(r.err, ErrAssembly))
			assert.True(t, r.report.HasErrors())
			assert.Contains(t, r.diagnostics(t), tt.message)

			if tt.phase1 {
				assert.Zero(t, r.state.BinaryOutput().Len(), "phase 1 failure must not produce output")
			}
		})
	}
}

func TestProcessFile_MissingRoot(t *testing.T) {
	s := NewState()
	report := diagn.NewReport()
	err := s.ProcessFile(report, vfs.NewMemory(), "asm")

	require.ErrorIs(t, err, ErrAssembly)
	assert.Equal(t, "file not found: `asm`", report.Messages()[0].Text)
}

func TestLex(t *testing.T) {
	report := diagn.NewReport()
	toks := Lex("asm", []byte("loop: ld 0x10`8 => \"a\\n\" ; c\n#D8"), report)
	require.False(t, report.HasErrors())

	var kinds []TokenKind
	var texts []string
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []TokenKind{
		TokenIdent, TokenPunct, TokenIdent, TokenNumber, TokenPunct, TokenNumber,
		TokenPunct, TokenString, TokenNewline, TokenDirective, TokenEOF,
	}, kinds)
	assert.Equal(t, []string{"loop", ":", "ld", "0x10", "`", "8", "=>", "a\n", "\n", "#d8", ""}, texts)
	assert.Equal(t, diagn.Span{File: "asm", Start: 6, End: 8}, toks[2].Span)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text  string
		value int64
		bits  int
	}{
		{text: "42", value: 42, bits: 0},
		{text: "0x00", value: 0, bits: 8},
		{text: "0XfF", value: 255, bits: 8},
		{text: "0b101", value: 5, bits: 3},
		{text: "0o17", value: 15, bits: 6},
		{text: "1_000", value: 1000, bits: 0},
	}
	for _, tt := range tests {
		n, err := parseNumber(Token{Kind: TokenNumber, Text: tt.text})
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.value, n.Value, tt.text)
		assert.Equal(t, tt.bits, n.Bits, tt.text)
	}

	_, err := parseNumber(Token{Kind: TokenNumber, Text: "0x"})
	assert.Error(t, err)
	_, err = parseNumber(Token{Kind: TokenNumber, Text: "12ab"})
	assert.Error(t, err)
}

func TestFitsBits(t *testing.T) {
	assert.True(t, fitsBits(255, 8))
	assert.True(t, fitsBits(-128, 8))
	assert.False(t, fitsBits(256, 8))
	assert.False(t, fitsBits(-129, 8))
	assert.True(t, fitsBits(-1, 64))
}

func TestStatementTree(t *testing.T) {
	r := assemble(cpuRules + "ld 1 + 2\n#d8 1\n#res 2\n")
	require.NoError(t, r.err)

	drawn := r.state.StatementTree().String()
	assert.Contains(t, drawn, "asm")
	assert.Contains(t, drawn, "0000 ld {v}")
	assert.Contains(t, drawn, "0002 data[1]")
	assert.Contains(t, drawn, "0003 fill[2]")
}
