// Package symtab assigns the symbolic variable names the output CFG is
// expressed over. A Name is opaque outside this package except for its
// total order and printable form; everything else — what IR value, array,
// or function it stands for — is the Factory's business alone.
package symtab

import (
	"fmt"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/memory"
)

// Name is a symbolic variable identity. Two Names are equal iff they were
// produced by the same Factory call (Fresh, or a repeated NameFor* lookup
// for the same key). Names are totally ordered by id, matching the
// monotonically increasing counter invariant so two runs over identical
// input produce the same sequence of names in the same order.
type Name struct {
	id  int64
	tag string // human-readable hint, carried only for printing
}

// String renders Name for CFG printouts. The format is "%<tag>.<id>" when a
// tag was supplied (e.g. a value or function carried a source name) and
// "%t<id>" for anonymous fresh names.
func (n Name) String() string {
	if n.tag != "" {
		return fmt.Sprintf("%%%s.%d", n.tag, n.id)
	}
	return fmt.Sprintf("%%t%d", n.id)
}

// Less orders n before m by allocation order.
func (n Name) Less(m Name) bool { return n.id < m.id }

// Factory is a deterministic, monotonically increasing source of symbolic
// names, plus memoized mappings from IR values, array identifiers and
// functions to the Name assigned to them the first time they were seen. A
// Factory belongs exclusively to the active translation of one function;
// it is never shared across concurrent translations of different
// functions.
type Factory struct {
	next int64

	values    map[ir.Value]Name
	arrays    map[memory.ArrayID]Name
	arraysIn  map[memory.ArrayID]Name
	functions map[*ir.Function]Name
}

// NewFactory returns an empty Factory with its counter starting at zero.
func NewFactory() *Factory {
	return &Factory{
		values:    make(map[ir.Value]Name),
		arrays:    make(map[memory.ArrayID]Name),
		arraysIn:  make(map[memory.ArrayID]Name),
		functions: make(map[*ir.Function]Name),
	}
}

func (f *Factory) alloc(tag string) Name {
	n := Name{id: f.next, tag: tag}
	f.next++
	return n
}

// Fresh issues a brand-new anonymous Name, used for phi-lowering snapshot
// temporaries and for normalized call actuals during instruction lowering.
func (f *Factory) Fresh() Name { return f.alloc("") }

// NameFor returns the Name assigned to v, allocating one on first use.
// Repeated calls with the same v (by identity) return the same Name.
func (f *Factory) NameFor(v ir.Value) Name {
	if n, ok := f.values[v]; ok {
		return n
	}
	n := f.alloc(v.Name())
	f.values[v] = n
	return n
}

// NameForArray returns the Name assigned to array id a, allocating one on
// first use.
func (f *Factory) NameForArray(a memory.ArrayID) Name {
	if n, ok := f.arrays[a]; ok {
		return n
	}
	n := f.alloc(fmt.Sprintf("arr%d", int(a)))
	f.arrays[a] = n
	return n
}

// NameForArrayIn returns the Name assigned to the input-snapshot formal of
// array id a — the "a_in" binding a ref array's callee-side formal takes,
// distinct from the array's own working name.
func (f *Factory) NameForArrayIn(a memory.ArrayID) Name {
	if n, ok := f.arraysIn[a]; ok {
		return n
	}
	n := f.alloc(fmt.Sprintf("arr%d.in", int(a)))
	f.arraysIn[a] = n
	return n
}

// NameForFunction returns the Name assigned to fn, allocating one on first
// use. Call lowering does not use it: a callsite's return value is bound to
// the Name of the call instruction itself (NameFor).
func (f *Factory) NameForFunction(fn *ir.Function) Name {
	if n, ok := f.functions[fn]; ok {
		return n
	}
	n := f.alloc(fn.Name())
	f.functions[fn] = n
	return n
}
