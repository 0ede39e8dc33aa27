// Package symeval is the pure lookup layer over tracked values: it turns
// an IR operand into either a constant linear expression, a variable
// linear expression, or "untracked," and has no side effects of its own.
package symeval

import (
	"math/big"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/lexpr"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/symtab"
)

// Kind classifies a Type for the translator's purposes: every pointer or
// integer Type known to ir.Type collapses to one of these three buckets.
type Kind int

const (
	Unknown Kind = iota
	Int
	Ptr
)

// Eval is a thin, stateless (beyond its collaborators) wrapper around a
// symtab.Factory and a memory.Oracle.
type Eval struct {
	factory *symtab.Factory
	oracle  memory.Oracle
}

// New returns an Eval backed by factory and oracle.
func New(factory *symtab.Factory, oracle memory.Oracle) *Eval {
	return &Eval{factory: factory, oracle: oracle}
}

// GetType classifies t into the Int/Ptr/Unknown lattice Eval reasons over.
func (e *Eval) GetType(t ir.Type) Kind {
	switch {
	case ir.IsInteger(t):
		return Int
	case ir.IsPointer(t):
		return Ptr
	default:
		return Unknown
	}
}

// IsTracked reports whether v participates in numeric reasoning at all:
// always true for integers, true for pointers only when the oracle's track
// level is at least Registers, false otherwise.
func (e *Eval) IsTracked(v ir.Value) bool {
	switch e.GetType(v.Type()) {
	case Int:
		return true
	case Ptr:
		return e.oracle.TrackLevel() >= memory.Registers
	default:
		return false
	}
}

// SymVar returns the deterministic symbolic name for v, stable across
// calls for the same v.
func (e *Eval) SymVar(v ir.Value) symtab.Name {
	return e.factory.NameFor(v)
}

// Fresh issues a brand-new anonymous symbolic name, used by phi lowering's
// snapshot temporaries and instruction lowering's normalized call actuals.
func (e *Eval) Fresh() symtab.Name { return e.factory.Fresh() }

// SymVarArray returns the deterministic symbolic name for array region a.
func (e *Eval) SymVarArray(a memory.ArrayID) symtab.Name {
	return e.factory.NameForArray(a)
}

// SymVarArrayIn returns the deterministic symbolic name for array region
// a's input-snapshot formal.
func (e *Eval) SymVarArrayIn(a memory.ArrayID) symtab.Name {
	return e.factory.NameForArrayIn(a)
}

// SymVarFunction returns the deterministic symbolic name for fn. A call
// site's return value is not bound to this name; call lowering uses
// SymVar of the call instruction.
func (e *Eval) SymVarFunction(fn *ir.Function) symtab.Name {
	return e.factory.NameForFunction(fn)
}

// Oracle exposes the underlying memory.Oracle so lowering passes that need
// more than Lookup/IsTracked (array ids, singleton detection, ref/mod/new
// sets) can reach it without threading a second parameter everywhere.
func (e *Eval) Oracle() memory.Oracle { return e.oracle }

// Lookup returns a constant expression for integer constants, a variable
// expression for tracked SSA values, and ok=false for untracked values or
// for constants the evaluator refuses: undef, and boolean-typed constants
// outside {0,1}.
func (e *Eval) Lookup(v ir.Value) (lexpr.LinearExpression, bool) {
	if c, ok := v.(*ir.Const); ok {
		if c.Undef {
			return lexpr.LinearExpression{}, false
		}
		if bits, isInt := widthOf(c.Type()); isInt && bits == 1 {
			if c.Value.Cmp(big.NewInt(0)) != 0 && c.Value.Cmp(big.NewInt(1)) != 0 {
				return lexpr.LinearExpression{}, false
			}
		}
		return lexpr.Constant(c.Value), true
	}
	if !e.IsTracked(v) {
		return lexpr.LinearExpression{}, false
	}
	return lexpr.Var(e.SymVar(v)), true
}

func widthOf(t ir.Type) (int, bool) {
	it, ok := t.(*ir.IntType)
	if !ok {
		return 0, false
	}
	return it.Bits, true
}

// IsVar reports whether expr is a single variable with coefficient 1 and
// constant 0.
func (e *Eval) IsVar(expr lexpr.LinearExpression) bool { return expr.IsVar() }
