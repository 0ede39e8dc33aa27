// Package ir defines the input data model: the SSA-form intermediate
// representation the translator consumes. Functions, basic blocks and
// instructions are immutable once constructed; nothing in this package
// mutates a value after it has been built.
package ir

import "fmt"

// Type is the minimal type lattice the translator needs to reason about:
// enough to tell integers, pointers, arrays and structs apart and to compute
// storage sizes and struct field offsets. It intentionally has no notion of
// floating point beyond a placeholder kind, non-goals.
type Type interface {
	String() string
	size() int64
	align() int64
}

// IntType is a two's-complement integer of the given bit width.
type IntType struct {
	Bits int
}

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }
func (t *IntType) size() int64    { return (int64(t.Bits) + 7) / 8 }
func (t *IntType) align() int64   { return t.size() }

// FloatType exists only so the IR can represent floating-point values it
// refuses to track; the translator never looks inside it.
type FloatType struct {
	Bits int
}

func (t *FloatType) String() string { return fmt.Sprintf("f%d", t.Bits) }
func (t *FloatType) size() int64    { return (int64(t.Bits) + 7) / 8 }
func (t *FloatType) align() int64   { return t.size() }

// PointerType points at Elem. The translator only cares about Elem when
// computing GEP strides and array element sizes.
type PointerType struct {
	Elem Type
}

func (t *PointerType) String() string { return "*" + t.Elem.String() }
func (t *PointerType) size() int64    { return 8 }
func (t *PointerType) align() int64   { return 8 }

// ArrayType is a fixed-length sequence of Elem.
type ArrayType struct {
	Elem Type
	Len  int64
}

func (t *ArrayType) String() string { return fmt.Sprintf("[%d x %s]", t.Len, t.Elem) }
func (t *ArrayType) size() int64    { return t.Len * StorageSize(t.Elem) }
func (t *ArrayType) align() int64   { return t.Elem.(interface{ align() int64 }).align() }

// StructField is one field of a StructType. Field offsets are not stored
// here; StructType.FieldOffset computes them lazily.
type StructField struct {
	Name string
	Type Type
}

// StructType is a sequence of fields laid out with natural alignment.
type StructType struct {
	Fields []StructField

	offsets []int64 // computed lazily by FieldOffset
}

func (t *StructType) String() string { return "struct" }

func (t *StructType) layout() {
	if t.offsets != nil {
		return
	}
	t.offsets = make([]int64, len(t.Fields))
	var off int64
	for i, f := range t.Fields {
		a := align(f.Type)
		if off%a != 0 {
			off += a - off%a
		}
		t.offsets[i] = off
		off += StorageSize(f.Type)
	}
}

func (t *StructType) size() int64 {
	t.layout()
	if len(t.Fields) == 0 {
		return 0
	}
	return t.offsets[len(t.Fields)-1] + StorageSize(t.Fields[len(t.Fields)-1].Type)
}

func (t *StructType) align() int64 {
	var max int64 = 1
	for _, f := range t.Fields {
		if a := align(f.Type); a > max {
			max = a
		}
	}
	return max
}

// FieldOffset returns the byte offset of field i within t.
func (t *StructType) FieldOffset(i int) int64 {
	t.layout()
	return t.offsets[i]
}

// OpaqueType stands in for anything the translator cannot classify (vector
// types, function types used only as callee types, and so on). It is never
// tracked.
type OpaqueType struct {
	Name string
}

func (t *OpaqueType) String() string { return t.Name }
func (t *OpaqueType) size() int64    { return 0 }
func (t *OpaqueType) align() int64   { return 1 }

func align(t Type) int64 {
	return t.(interface{ align() int64 }).align()
}

// StorageSize returns the number of bytes t occupies in memory. It does not
// consult a DataLayout: pointers always occupy 8 bytes.
func StorageSize(t Type) int64 {
	return t.(interface{ size() int64 }).size()
}

// Deref returns the pointee of a pointer type, or nil if t is not a pointer.
func Deref(t Type) Type {
	if p, ok := t.(*PointerType); ok {
		return p.Elem
	}
	return nil
}

// IsInteger reports whether t is an integer type.
func IsInteger(t Type) bool {
	_, ok := t.(*IntType)
	return ok
}

// IsPointer reports whether t is a pointer type.
func IsPointer(t Type) bool {
	_, ok := t.(*PointerType)
	return ok
}

// DataLayout carries the pointer width of the target. Struct field offsets
// and element strides come from Type.size()/align(), which do not read it.
// A real frontend supplies one derived from the module being translated;
// parsing that description is out of scope.
type DataLayout struct {
	PointerBits int
}

func (dl DataLayout) PointerWidth() int64 { return int64(dl.PointerBits) }
