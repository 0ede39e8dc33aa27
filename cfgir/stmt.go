// Package cfgir is the output data model: the simplified CFG the
// translator builds. It is a tagged variant over a sealed Stmt interface
// rather than a visitor hierarchy — consumers pattern-match with a type
// switch.
package cfgir

import (
	"math/big"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/lexpr"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/symtab"
)

// Stmt is one CFG statement. Statements are appended to a Node once during
// translation and never mutated afterward. The sealed() method restricts
// implementations to this package.
type Stmt interface {
	String() string
	sealed()
}

type stmtBase struct{}

func (stmtBase) sealed() {}

// Assign binds Dst := Expr.
type Assign struct {
	stmtBase
	Dst  symtab.Name
	Expr lexpr.LinearExpression
}

func (s Assign) String() string { return s.Dst.String() + " := " + s.Expr.String() }

// Arith is one of add/sub/mul/sdiv/udiv/srem/urem, reusing ir.BinOpCode so
// the opcode vocabulary stays in one place.
type Arith struct {
	stmtBase
	Dst  symtab.Name
	Op   ir.BinOpCode
	X, Y lexpr.LinearExpression
}

func (s Arith) String() string {
	return s.Dst.String() + " := " + s.Op.String() + "(" + s.X.String() + ", " + s.Y.String() + ")"
}

// Bitwise is one of and/or/xor.
type Bitwise struct {
	stmtBase
	Dst  symtab.Name
	Op   ir.BinOpCode
	X, Y lexpr.LinearExpression
}

func (s Bitwise) String() string {
	return s.Dst.String() + " := " + s.Op.String() + "(" + s.X.String() + ", " + s.Y.String() + ")"
}

// Havoc resets Dst to an unconstrained value.
type Havoc struct {
	stmtBase
	Dst symtab.Name
}

func (s Havoc) String() string { return "havoc(" + s.Dst.String() + ")" }

// Assume restricts execution to states satisfying Constraint.
type Assume struct {
	stmtBase
	Constraint lexpr.Constraint
}

func (s Assume) String() string { return "assume(" + s.Constraint.String() + ")" }

// SelectCond is a Select statement's condition: either a native
// conditional-move constraint (the compare itself, when the condition is a
// single linear constraint) or a boolean symbolic variable to branch on.
// Exactly one field is non-nil.
type SelectCond struct {
	Constraint *lexpr.Constraint
	Var        *symtab.Name
}

// Select binds Dst to X when Cond holds, Y otherwise.
type Select struct {
	stmtBase
	Dst  symtab.Name
	Cond SelectCond
	X, Y lexpr.LinearExpression
}

func (s Select) String() string {
	switch {
	case s.Cond.Constraint != nil:
		return s.Dst.String() + " := select(" + s.Cond.Constraint.String() + ", " + s.X.String() + ", " + s.Y.String() + ")"
	case s.Cond.Var != nil:
		return s.Dst.String() + " := select(" + s.Cond.Var.String() + ", " + s.X.String() + ", " + s.Y.String() + ")"
	default:
		return s.Dst.String() + " := select(?, " + s.X.String() + ", " + s.Y.String() + ")"
	}
}

// ArrayLoad binds Dst to the ElemSize-byte element at Index within Array.
type ArrayLoad struct {
	stmtBase
	Dst      symtab.Name
	Array    symtab.Name
	Index    lexpr.LinearExpression
	ElemSize int64
}

func (s ArrayLoad) String() string {
	return s.Dst.String() + " := array_load(" + s.Array.String() + ", " + s.Index.String() + ")"
}

// ArrayStore writes Val into the ElemSize-byte element at Index within
// Array.
type ArrayStore struct {
	stmtBase
	Array    symtab.Name
	Index    lexpr.LinearExpression
	Val      lexpr.LinearExpression
	ElemSize int64
}

func (s ArrayStore) String() string {
	return "array_store(" + s.Array.String() + ", " + s.Index.String() + ", " + s.Val.String() + ")"
}

// AssumeArray is the array-smashing "initialization hook": it asserts
// (without proof) that every cell of Array holds Value.
type AssumeArray struct {
	stmtBase
	Array symtab.Name
	Value *big.Int
}

func (s AssumeArray) String() string {
	return "assume_array(" + s.Array.String() + ", " + s.Value.String() + ")"
}

// ArrayInit sets Array's cells to Values in order, for a global with a
// constant-data-sequence initializer.
type ArrayInit struct {
	stmtBase
	Array  symtab.Name
	Values []*big.Int
}

func (s ArrayInit) String() string {
	out := "array_init(" + s.Array.String() + ", ["
	for i, v := range s.Values {
		if i > 0 {
			out += ", "
		}
		out += v.String()
	}
	return out + "])"
}

// CallActual is one actual argument of a Callsite: either a scalar linear
// expression or a named array, ordered scalars-then-refs-then-news to
// match FuncDecl's parameter ordering for inter-procedural calls.
type CallActual struct {
	Scalar *lexpr.LinearExpression
	Array  *symtab.Name
}

// Callsite invokes Callee with Args. Dst is non-nil when the call's result
// is used and tracked. ModArrays are the regions to havoc immediately after
// the statement, since a callee's effect on an array it can modify is not
// otherwise modeled.
type Callsite struct {
	stmtBase
	Dst       *symtab.Name
	Callee    string
	Args      []CallActual
	ModArrays []memory.ArrayID
}

func (s Callsite) String() string {
	out := ""
	if s.Dst != nil {
		out += s.Dst.String() + " := "
	}
	out += "call " + s.Callee + "("
	for i, a := range s.Args {
		if i > 0 {
			out += ", "
		}
		switch {
		case a.Scalar != nil:
			out += a.Scalar.String()
		case a.Array != nil:
			out += a.Array.String()
		}
	}
	return out + ")"
}

// Return optionally carries a value back to the caller.
type Return struct {
	stmtBase
	Val *lexpr.LinearExpression
}

func (s Return) String() string {
	if s.Val == nil {
		return "return"
	}
	return "return " + s.Val.String()
}

// Unreachable marks a node control can never reach.
type Unreachable struct {
	stmtBase
}

func (s Unreachable) String() string { return "unreachable" }
