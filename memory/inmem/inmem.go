// Package inmem is a reference memory.Oracle backed by plain Go maps,
// populated once at construction time. It is what a test fixture or the
// fixture package's JSON loader builds directly; a real memory-region
// analysis would implement memory.Oracle itself and never touch this type.
package inmem

import (
	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/memory"
)

// Oracle is a fully precomputed memory.Oracle. All fields are populated by
// Builder.Build and never mutated afterward, which is what makes values of
// this type safe to share across goroutines translating different
// functions concurrently.
type Oracle struct {
	level memory.TrackLevel

	arrayIDs   map[*ir.Function]map[ir.Value]memory.ArrayID
	globalIDs  map[ir.Value]memory.ArrayID
	singletons map[memory.ArrayID]ir.Value

	perCall     map[callKey]memory.RefModNew
	perFunction map[*ir.Function]memory.RefModNew
}

type callKey struct {
	caller, callee *ir.Function
}

func (o *Oracle) TrackLevel() memory.TrackLevel { return o.level }

func (o *Oracle) ArrayID(fn *ir.Function, ptr ir.Value) memory.ArrayID {
	if fn != nil {
		if m, ok := o.arrayIDs[fn]; ok {
			if a, ok := m[ptr]; ok {
				return a
			}
		}
	}
	if a, ok := o.globalIDs[ptr]; ok {
		return a
	}
	return memory.Unmapped
}

func (o *Oracle) Singleton(a memory.ArrayID) (ir.Value, bool) {
	v, ok := o.singletons[a]
	return v, ok
}

func (o *Oracle) RefModNewForCall(caller, callee *ir.Function) memory.RefModNew {
	return o.perCall[callKey{caller, callee}]
}

func (o *Oracle) RefModNewForFunction(fn *ir.Function) memory.RefModNew {
	return o.perFunction[fn]
}

// Builder assembles an Oracle incrementally: accumulate facts with the
// Set* methods, then call Build to freeze them into an immutable Oracle.
type Builder struct {
	level memory.TrackLevel

	arrayIDs   map[*ir.Function]map[ir.Value]memory.ArrayID
	globalIDs  map[ir.Value]memory.ArrayID
	singletons map[memory.ArrayID]ir.Value

	perCall     map[callKey]memory.RefModNew
	perFunction map[*ir.Function]memory.RefModNew
}

// NewBuilder returns a Builder that will produce an Oracle with the given
// track level.
func NewBuilder(level memory.TrackLevel) *Builder {
	return &Builder{
		level:       level,
		arrayIDs:    make(map[*ir.Function]map[ir.Value]memory.ArrayID),
		globalIDs:   make(map[ir.Value]memory.ArrayID),
		singletons:  make(map[memory.ArrayID]ir.Value),
		perCall:     make(map[callKey]memory.RefModNew),
		perFunction: make(map[*ir.Function]memory.RefModNew),
	}
}

// SetArrayID records that ptr resolves to array id a within fn.
func (b *Builder) SetArrayID(fn *ir.Function, ptr ir.Value, a memory.ArrayID) *Builder {
	m, ok := b.arrayIDs[fn]
	if !ok {
		m = make(map[ir.Value]memory.ArrayID)
		b.arrayIDs[fn] = m
	}
	m[ptr] = a
	return b
}

// SetGlobalArrayID records that the Global g resolves to array id a,
// independent of any function (used while building the global-initializer
// prelude, which runs outside any call).
func (b *Builder) SetGlobalArrayID(g ir.Value, a memory.ArrayID) *Builder {
	b.globalIDs[g] = a
	return b
}

// SetSingleton records that array id a contains exactly the scalar value v.
func (b *Builder) SetSingleton(a memory.ArrayID, v ir.Value) *Builder {
	b.singletons[a] = v
	return b
}

// SetCallRefModNew records the ref/mod/new sets for a direct call from
// caller to callee.
func (b *Builder) SetCallRefModNew(caller, callee *ir.Function, rmn memory.RefModNew) *Builder {
	b.perCall[callKey{caller, callee}] = rmn
	return b
}

// SetFunctionRefModNew records the ref/mod/new sets fn's own signature is
// scoped over.
func (b *Builder) SetFunctionRefModNew(fn *ir.Function, rmn memory.RefModNew) *Builder {
	b.perFunction[fn] = rmn
	return b
}

// Build freezes the accumulated facts into an Oracle.
func (b *Builder) Build() *Oracle {
	return &Oracle{
		level:       b.level,
		arrayIDs:    b.arrayIDs,
		globalIDs:   b.globalIDs,
		singletons:  b.singletons,
		perCall:     b.perCall,
		perFunction: b.perFunction,
	}
}
