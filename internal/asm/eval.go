package asm

import (
	"github.com/reglet-dev/asmbridge/internal/diagn"
)

// evalContext resolves symbols while evaluating one expression tree.
type evalContext struct {
	state  *State
	report *diagn.Report
	pc     int64
	// final turns undefined symbols into errors; before that they only
	// mark the value as unresolved.
	final bool
	// args binds rule parameters; they are evaluated in outer.
	args  map[string]Expr
	outer *evalContext
}

// eval returns the value of e and whether it could be resolved.
// Errors are reported only in final mode, or for faults that do not
// depend on symbol resolution (division by zero, bad shifts).
func (c *evalContext) eval(e Expr) (int64, bool) {
	switch e := e.(type) {
	case *NumberExpr:
		return e.Value, true

	case *PCExpr:
		return c.pc, true

	case *SymbolExpr:
		if arg, ok := c.args[e.Name]; ok {
			return c.outer.eval(arg)
		}
		if sym, ok := c.state.symbols[e.Name]; ok && sym.resolved {
			return sym.value, true
		}
		if c.final {
			c.report.Error(e.Src, "unknown symbol `%s`", e.Name)
		}
		return 0, false

	case *UnaryExpr:
		x, ok := c.eval(e.X)
		if !ok {
			return 0, false
		}
		if e.Op == "-" {
			return -x, true
		}
		return ^x, true

	case *SliceExpr:
		x, ok := c.eval(e.X)
		if !ok {
			return 0, false
		}
		if e.Bits >= 64 {
			return x, true
		}
		return x & (int64(1)<<e.Bits - 1), true

	case *BinaryExpr:
		l, okL := c.eval(e.L)
		r, okR := c.eval(e.R)
		if !okL || !okR {
			return 0, false
		}
		return c.binary(e, l, r)
	}
	return 0, false
}

func (c *evalContext) binary(e *BinaryExpr, l, r int64) (int64, bool) {
	switch e.Op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/", "%":
		if r == 0 {
			c.report.Error(e.Src, "division by zero")
			return 0, false
		}
		if e.Op == "/" {
			return l / r, true
		}
		return l % r, true
	case "&":
		return l & r, true
	case "|":
		return l | r, true
	case "^":
		return l ^ r, true
	case "<<", ">>":
		if r < 0 {
			c.report.Error(e.Src, "negative shift amount %d", r)
			return 0, false
		}
		if r >= 64 {
			if e.Op == ">>" && l < 0 {
				return -1, true
			}
			return 0, true
		}
		if e.Op == "<<" {
			return l << uint(r), true
		}
		return l >> uint(r), true
	}
	c.report.Error(e.Src, "unknown operator `%s`", e.Op)
	return 0, false
}

// fitsBits reports whether v can be encoded in bits, either as an
// unsigned or a two's-complement signed value.
func fitsBits(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	lo := -(int64(1) << (bits - 1))
	hi := int64(1) << bits
	return v >= lo && v < hi
}
