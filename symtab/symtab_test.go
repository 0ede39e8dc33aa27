package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/memory"
)

func TestFreshIsMonotonicAndDistinct(t *testing.T) {
	f := NewFactory()
	a := f.Fresh()
	b := f.Fresh()
	assert.True(t, a.Less(b))
	assert.NotEqual(t, a, b)
}

func TestNameForIsMemoized(t *testing.T) {
	f := NewFactory()
	v := ir.NewAlloc("x", &ir.IntType{Bits: 32})

	n1 := f.NameFor(v)
	n2 := f.NameFor(v)
	assert.Equal(t, n1, n2)
}

func TestNameForDistinctValuesGetDistinctNames(t *testing.T) {
	f := NewFactory()
	v1 := ir.NewAlloc("x", &ir.IntType{Bits: 32})
	v2 := ir.NewAlloc("y", &ir.IntType{Bits: 32})

	assert.NotEqual(t, f.NameFor(v1), f.NameFor(v2))
}

func TestNameForArrayAndArrayInAreDistinct(t *testing.T) {
	f := NewFactory()
	a := memory.ArrayID(3)

	working := f.NameForArray(a)
	in := f.NameForArrayIn(a)
	assert.NotEqual(t, working, in)

	require.Equal(t, working, f.NameForArray(a))
	require.Equal(t, in, f.NameForArrayIn(a))
}

func TestNameForFunctionIsMemoized(t *testing.T) {
	f := NewFactory()
	fn := &ir.Function{Nam: "helper"}

	assert.Equal(t, f.NameForFunction(fn), f.NameForFunction(fn))
}

func TestStringFormatsTaggedAndAnonymous(t *testing.T) {
	f := NewFactory()
	tagged := f.NameFor(ir.NewAlloc("count", &ir.IntType{Bits: 32}))
	anon := f.Fresh()

	assert.Contains(t, tagged.String(), "count")
	assert.Equal(t, "%t1", anon.String())
}

func TestAllocationOrderIsDeterministicAcrossFactories(t *testing.T) {
	build := func() []Name {
		f := NewFactory()
		v1 := ir.NewAlloc("a", &ir.IntType{Bits: 32})
		v2 := ir.NewAlloc("b", &ir.IntType{Bits: 32})
		return []Name{f.NameFor(v1), f.NameFor(v2), f.Fresh()}
	}

	a := build()
	b := build()
	for i := range a {
		assert.Equal(t, a[i].String(), b[i].String())
	}
}
