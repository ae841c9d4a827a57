// Package asm is a small table-driven assembler. Instruction sets are
// declared in the source with #ruledef blocks; the assembler lays out
// statements on a first pass and encodes them on wrap-up, so labels may
// be referenced before they are defined.
package asm

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/asmbridge/internal/diagn"
	"github.com/reglet-dev/asmbridge/internal/output"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

// ErrAssembly is returned by both phases when the report holds errors.
var ErrAssembly = errors.New("assembly failed")

const maxIncludeDepth = 16

type symbol struct {
	value    int64
	resolved bool
	span     diagn.Span
}

type stmtKind int

const (
	stmtInstr stmtKind = iota
	stmtData
	stmtFill
)

type dataItem struct {
	expr Expr
	bits int
	raw  []byte
}

type statement struct {
	kind  stmtKind
	span  diagn.Span
	addr  int
	size  int
	rule  *Rule
	args  map[string]Expr
	items []dataItem
}

type constant struct {
	name string
	expr Expr
	pc   int64
}

// State is one assembler instance. It is not safe for concurrent use.
type State struct {
	rules   []*Rule
	symbols map[string]*symbol
	pending []*constant
	stmts   []*statement
	pc      int
	depth   int
	out     *output.Binary
}

// NewState creates an assembler with no rules and no symbols.
func NewState() *State {
	return &State{
		symbols: make(map[string]*symbol),
		out:     output.NewBinary(),
	}
}

// ProcessFile lexes, parses and lays out the named file. Diagnostics go
// to report; ErrAssembly is returned if any error was recorded.
func (s *State) ProcessFile(report *diagn.Report, fs vfs.FileServer, name string) error {
	s.processFile(report, fs, name, diagn.Span{})
	return failure(report)
}

// Wrapup resolves remaining symbols and encodes every statement.
func (s *State) Wrapup(report *diagn.Report) error {
	s.resolvePending(report)

	out := output.NewBinary()
	for _, st := range s.stmts {
		if data, ok := s.encode(report, st); ok {
			out.Write(st.addr, data, st.span)
		}
	}
	if err := failure(report); err != nil {
		return err
	}
	s.out = out
	return nil
}

// BinaryOutput returns the artifact produced by Wrapup.
func (s *State) BinaryOutput() *output.Binary {
	return s.out
}

// Symbol returns the resolved value of a label or constant.
func (s *State) Symbol(name string) (int64, bool) {
	sym, ok := s.symbols[name]
	if !ok || !sym.resolved {
		return 0, false
	}
	return sym.value, true
}

// Rules returns the instruction rules declared so far.
func (s *State) Rules() []*Rule {
	out := make([]*Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

func failure(report *diagn.Report) error {
	if n := report.ErrorCount(); n > 0 {
		return fmt.Errorf("%w: %d error(s)", ErrAssembly, n)
	}
	return nil
}

func (s *State) processFile(report *diagn.Report, fs vfs.FileServer, name string, from diagn.Span) {
	content, ok := fs.Get(name)
	if !ok {
		report.Error(from, "file not found: `%s`", name)
		return
	}
	if s.depth >= maxIncludeDepth {
		report.Error(from, "include depth limit of %d exceeded", maxIncludeDepth)
		return
	}

	s.depth++
	defer func() { s.depth-- }()

	toks := Lex(name, content, report)
	for i := 0; toks[i].Kind != TokenEOF; {
		switch {
		case toks[i].Kind == TokenNewline:
			i++
		case toks[i].is(TokenDirective, "#ruledef"):
			i = s.parseRuledef(report, toks, i)
		default:
			j := i
			for toks[j].Kind != TokenNewline && toks[j].Kind != TokenEOF {
				j++
			}
			s.parseLine(report, fs, toks[i:j])
			i = j
		}
	}
}

// parseRuledef consumes `#ruledef [name] { rules }` starting at toks[i]
// and returns the index after the closing brace.
func (s *State) parseRuledef(report *diagn.Report, toks []Token, i int) int {
	start := toks[i]
	i++

	group := ""
	if toks[i].Kind == TokenIdent {
		group = toks[i].Text
		i++
	}
	for toks[i].Kind == TokenNewline {
		i++
	}
	if !toks[i].isPunct("{") {
		report.Error(toks[i].Span, "expected `{` after #ruledef, found %s", toks[i].describe())
		return skipLine(toks, i)
	}
	i++

	for {
		for toks[i].Kind == TokenNewline {
			i++
		}
		switch {
		case toks[i].Kind == TokenEOF:
			report.Error(start.Span, "unterminated #ruledef block")
			return i
		case toks[i].isPunct("}"):
			return i + 1
		}

		j, depth := i, 0
	line:
		for ; ; j++ {
			t := toks[j]
			switch {
			case t.Kind == TokenNewline || t.Kind == TokenEOF:
				break line
			case t.isPunct("{"):
				depth++
			case t.isPunct("}"):
				if depth == 0 {
					break line
				}
				depth--
			}
		}
		if rule, ok := parseRule(group, toks[i:j], report); ok {
			s.rules = append(s.rules, rule)
		}
		i = j
	}
}

func skipLine(toks []Token, i int) int {
	for toks[i].Kind != TokenNewline && toks[i].Kind != TokenEOF {
		i++
	}
	return i
}

func (s *State) parseLine(report *diagn.Report, fs vfs.FileServer, line []Token) {
	for len(line) >= 2 && line[0].Kind == TokenIdent && line[1].isPunct(":") {
		s.define(report, line[0], int64(s.pc), true)
		line = line[2:]
	}
	if len(line) == 0 {
		return
	}

	span := joinSpans(line[0].Span, line[len(line)-1].Span)
	switch {
	case len(line) >= 2 && line[0].Kind == TokenIdent && line[1].isPunct("="):
		s.parseConstant(report, line[0], line[2:], span)
	case line[0].Kind == TokenDirective:
		s.parseDirective(report, fs, line, span)
	default:
		s.parseInstruction(report, line, span)
	}
}

func (s *State) define(report *diagn.Report, name Token, value int64, resolved bool) {
	if prev, exists := s.symbols[name.Text]; exists {
		report.Error(name.Span, "duplicate symbol `%s`", name.Text)
		report.Note(prev.span, "`%s` first defined here", name.Text)
		return
	}
	s.symbols[name.Text] = &symbol{value: value, resolved: resolved, span: name.Span}
}

func (s *State) parseConstant(report *diagn.Report, name Token, toks []Token, span diagn.Span) {
	if len(toks) == 0 {
		report.Error(span, "expected expression after `=`")
		return
	}
	e, err := ParseExpr(toks)
	if err != nil {
		reportParseError(report, err)
		return
	}

	ctx := &evalContext{state: s, report: report, pc: int64(s.pc)}
	v, ok := ctx.eval(e)
	s.define(report, name, v, ok)
	if !ok {
		s.pending = append(s.pending, &constant{name: name.Text, expr: e, pc: int64(s.pc)})
	}
}

func (s *State) resolvePending(report *diagn.Report) {
	for progress := true; progress; {
		progress = false
		for _, c := range s.pending {
			sym := s.symbols[c.name]
			if sym.resolved {
				continue
			}
			ctx := &evalContext{state: s, report: report, pc: c.pc}
			if v, ok := ctx.eval(c.expr); ok {
				sym.value, sym.resolved = v, true
				progress = true
			}
		}
	}
	for _, c := range s.pending {
		if !s.symbols[c.name].resolved {
			ctx := &evalContext{state: s, report: report, pc: c.pc, final: true}
			ctx.eval(c.expr)
		}
	}
	s.pending = nil
}

func (s *State) parseInstruction(report *diagn.Report, line []Token, span diagn.Span) {
	known := false
	for _, rule := range s.rules {
		if literalMatches(rule.pattern[0].literal, line[0]) {
			known = true
		}
		args, ok := rule.match(line)
		if !ok {
			continue
		}
		s.append(&statement{kind: stmtInstr, span: span, size: rule.Size(), rule: rule, args: args})
		return
	}

	if known {
		report.Error(span, "no rule matches this form of `%s`", line[0].Text)
		return
	}
	report.Error(line[0].Span, "unknown instruction `%s`", line[0].Text)
}

func (s *State) append(st *statement) {
	st.addr = s.pc
	s.pc += st.size
	s.stmts = append(s.stmts, st)
}

// evalNow evaluates an expression that must resolve on the first pass.
func (s *State) evalNow(report *diagn.Report, e Expr) (int64, bool) {
	ctx := &evalContext{state: s, report: report, pc: int64(s.pc), final: true}
	return ctx.eval(e)
}

// encode produces the bytes of one statement.
func (s *State) encode(report *diagn.Report, st *statement) ([]byte, bool) {
	switch st.kind {
	case stmtFill:
		return make([]byte, st.size), true
	case stmtData:
		return s.encodeData(report, st)
	}
	return s.encodeInstr(report, st)
}

func (s *State) encodeInstr(report *diagn.Report, st *statement) ([]byte, bool) {
	outer := &evalContext{state: s, report: report, pc: int64(st.addr), final: true}
	ctx := &evalContext{state: s, report: report, pc: int64(st.addr), final: true, args: st.args, outer: outer}

	var w bitWriter
	ok := true
	for _, term := range st.rule.output {
		if slice, isSlice := term.(*SliceExpr); isSlice {
			if sym, isSym := slice.X.(*SymbolExpr); isSym {
				if arg, isArg := st.args[sym.Name]; isArg {
					v, resolved := outer.eval(arg)
					if !resolved {
						ok = false
						continue
					}
					if !fitsBits(v, slice.Bits) {
						report.Error(arg.Span(), "value %d does not fit in %d bits", v, slice.Bits)
						ok = false
						continue
					}
				}
			}
		}

		v, resolved := ctx.eval(term)
		if !resolved {
			ok = false
			continue
		}
		w.write(v, term.Width())
	}
	return w.bytes(), ok
}

func (s *State) encodeData(report *diagn.Report, st *statement) ([]byte, bool) {
	ctx := &evalContext{state: s, report: report, pc: int64(st.addr), final: true}

	var w bitWriter
	ok := true
	for _, item := range st.items {
		if item.expr == nil {
			for _, b := range item.raw {
				w.write(int64(b), 8)
			}
			continue
		}
		v, resolved := ctx.eval(item.expr)
		if !resolved {
			ok = false
			continue
		}
		if !fitsBits(v, item.bits) {
			report.Error(item.expr.Span(), "value %d does not fit in %d bits", v, item.bits)
			ok = false
			continue
		}
		w.write(v, item.bits)
	}
	return w.bytes(), ok
}
