package symeval

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/memory/inmem"
	"github.com/z971586668/ssacfg/symtab"
)

func newEval(level memory.TrackLevel) *Eval {
	return New(symtab.NewFactory(), inmem.NewBuilder(level).Build())
}

func TestGetTypeClassifiesIntPtrAndUnknown(t *testing.T) {
	e := newEval(memory.None)
	assert.Equal(t, Int, e.GetType(&ir.IntType{Bits: 32}))
	assert.Equal(t, Ptr, e.GetType(&ir.PointerType{Elem: &ir.IntType{Bits: 32}}))
	assert.Equal(t, Unknown, e.GetType(&ir.FloatType{}))
}

func TestIsTrackedIntegersAlwaysTracked(t *testing.T) {
	e := newEval(memory.None)
	intVal := ir.NewParameter("x", &ir.IntType{Bits: 32})
	assert.True(t, e.IsTracked(intVal))
}

func TestIsTrackedPointersDependOnTrackLevel(t *testing.T) {
	ptr := ir.NewParameter("p", &ir.PointerType{Elem: &ir.IntType{Bits: 32}})

	assert.False(t, newEval(memory.None).IsTracked(ptr))
	assert.True(t, newEval(memory.Registers).IsTracked(ptr))
	assert.True(t, newEval(memory.Arrays).IsTracked(ptr))
}

func TestLookupConstant(t *testing.T) {
	e := newEval(memory.None)
	c := ir.NewIntConst(&ir.IntType{Bits: 32}, big.NewInt(5))

	expr, ok := e.Lookup(c)
	require.True(t, ok)
	assert.True(t, expr.IsConstant())
	assert.Equal(t, "5", expr.String())
}

func TestLookupUndefIsRefused(t *testing.T) {
	e := newEval(memory.None)
	_, ok := e.Lookup(ir.NewUndef(&ir.IntType{Bits: 32}))
	assert.False(t, ok)
}

func TestLookupOutOfRangeBoolConstantIsRefused(t *testing.T) {
	e := newEval(memory.None)
	c := ir.NewIntConst(&ir.IntType{Bits: 1}, big.NewInt(2))
	_, ok := e.Lookup(c)
	assert.False(t, ok)
}

func TestLookupInRangeBoolConstantIsAccepted(t *testing.T) {
	e := newEval(memory.None)
	c := ir.NewIntConst(&ir.IntType{Bits: 1}, big.NewInt(1))
	_, ok := e.Lookup(c)
	assert.True(t, ok)
}

func TestLookupTrackedVariableIsVar(t *testing.T) {
	e := newEval(memory.None)
	v := ir.NewParameter("x", &ir.IntType{Bits: 32})

	expr, ok := e.Lookup(v)
	require.True(t, ok)
	assert.True(t, e.IsVar(expr))
}

func TestLookupUntrackedPointerFails(t *testing.T) {
	e := newEval(memory.None)
	p := ir.NewParameter("p", &ir.PointerType{Elem: &ir.IntType{Bits: 32}})
	_, ok := e.Lookup(p)
	assert.False(t, ok)
}

func TestSymVarIsStableForSameValue(t *testing.T) {
	e := newEval(memory.None)
	v := ir.NewParameter("x", &ir.IntType{Bits: 32})
	assert.Equal(t, e.SymVar(v), e.SymVar(v))
}

func TestFreshIssuesDistinctNames(t *testing.T) {
	e := newEval(memory.None)
	assert.NotEqual(t, e.Fresh(), e.Fresh())
}
