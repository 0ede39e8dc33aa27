// Package memory defines the memory-oracle capability: the translator's
// read-only window onto a separately computed memory-region analysis. This
// package never performs that analysis itself; see memory/inmem for a
// reference implementation a test or a small fixture can use directly.
package memory

import "github.com/z971586668/ssacfg/ir"

// ArrayID names a memory region. A negative value means "unmapped": the
// pointer it was derived from escapes the array-smashing abstraction
// entirely and must be treated conservatively (havoc on every use).
type ArrayID int

// Unmapped is the sentinel ArrayID returned for a pointer the oracle cannot
// place in any tracked region.
const Unmapped ArrayID = -1

// Valid reports whether a is a real region id.
func (a ArrayID) Valid() bool { return a >= 0 }

// TrackLevel controls how much of the program's memory the translator
// attempts to model numerically.
type TrackLevel int

const (
	// None tracks no memory at all; only scalar registers participate.
	None TrackLevel = iota
	// Registers tracks pointer-typed SSA values as opaque scalars but
	// does not model the arrays/structs they point to.
	Registers
	// Arrays additionally models array/struct contents via the
	// array-smashing abstraction (array_load/array_store/array_init/
	// assume_array statements).
	Arrays
)

// RefModNew is the per-callsite (or per-function, for declarations) set of
// memory regions a call may read (Refs), write (Mods), or freshly allocate
// (News). Each slice is in the oracle's own stable order; instruction
// lowering and the builder rely on that order matching between a caller's
// callsite and the callee's declaration.
type RefModNew struct {
	Refs []ArrayID
	Mods []ArrayID
	News []ArrayID
}

// Oracle is the memory-oracle capability — an external collaborator the
// translator only ever reads from. Implementations must be safe for
// concurrent use by callers translating distinct functions in parallel
// (a caller may choose to parallelize across functions, but nothing
// requires it); the reference memory/inmem implementation satisfies this
// by populating all state at construction time and never mutating it
// afterward.
type Oracle interface {
	// TrackLevel reports how aggressively the translator should model
	// memory for this module.
	TrackLevel() TrackLevel

	// ArrayID returns the region ptr (a pointer-typed SSA value or a
	// Global) is part of within fn, or Unmapped if ptr escapes the
	// abstraction. fn may be nil when ptr is a Global evaluated outside
	// any function body (e.g. during the global-initializer prelude).
	ArrayID(fn *ir.Function, ptr ir.Value) ArrayID

	// Singleton returns the scalar value region a is known to contain
	// exactly one cell of, if any.
	Singleton(a ArrayID) (ir.Value, bool)

	// RefModNewForCall returns the ref/mod/new sets for a direct call to
	// callee made from fn's body.
	RefModNewForCall(fn *ir.Function, callee *ir.Function) RefModNew

	// RefModNewForFunction returns the ref/mod/new sets a function
	// declaration itself is scoped over — the arrays that flow through
	// its signature as ref-in/ref-out/new parameters.
	RefModNewForFunction(fn *ir.Function) RefModNew
}
