package ir

import "math/big"

// Value is anything an instruction can take as an operand: a constant, a
// parameter, a global, or the result of a value-producing instruction.
type Value interface {
	Name() string
	Type() Type
	String() string
}

// Instruction is anything that appears in a BasicBlock's instruction list.
// Terminators (Jump, If, Return, Unreachable) implement Instruction but not
// Value. Everything else implements both.
type Instruction interface {
	Block() *BasicBlock
	String() string

	setBlock(*BasicBlock)
}

type instrBase struct {
	block *BasicBlock
}

func (i *instrBase) Block() *BasicBlock    { return i.block }
func (i *instrBase) setBlock(b *BasicBlock) { i.block = b }

// Const is a compile-time-known scalar: an integer, a 0/1 boolean, or the
// undef sentinel. symeval.Eval.Lookup refuses undef and any boolean constant
// outside {0,1}.
type Const struct {
	typ   Type
	Value *big.Int // nil when Undef is true
	Undef bool
}

// NewIntConst builds a Const holding an arbitrary-precision integer value.
func NewIntConst(t Type, v *big.Int) *Const { return &Const{typ: t, Value: v} }

// NewUndef builds the undef constant of type t.
func NewUndef(t Type) *Const { return &Const{typ: t, Undef: true} }

func (c *Const) Name() string { return c.String() }
func (c *Const) Type() Type   { return c.typ }
func (c *Const) String() string {
	if c.Undef {
		return "undef"
	}
	return c.Value.String()
}

// Parameter is a formal parameter of a Function.
type Parameter struct {
	Nam string
	typ Type
}

func NewParameter(name string, t Type) *Parameter { return &Parameter{Nam: name, typ: t} }

func (p *Parameter) Name() string   { return p.Nam }
func (p *Parameter) Type() Type     { return p.typ }
func (p *Parameter) String() string { return "%" + p.Nam }

// Global is a module-level variable. Initializer is nil for an
// uninitialized (externally-defined) global.
type Global struct {
	Nam         string
	typ         Type // always a PointerType to the variable's storage type
	Initializer Constant
}

// NewGlobal builds a Global of the given storage type and initializer. t
// is the variable's storage type; Global.Type() reports *PointerType{t}.
func NewGlobal(name string, t Type, init Constant) *Global {
	return &Global{Nam: name, typ: &PointerType{Elem: t}, Initializer: init}
}

func (g *Global) Name() string   { return g.Nam }
func (g *Global) Type() Type     { return g.typ }
func (g *Global) String() string { return "@" + g.Nam }

// Constant is the subset of Value usable as a global initializer: either a
// scalar Const, an all-zero aggregate, or a flat sequence of integers.
type Constant interface {
	Value
}

// ZeroAggregate marks a global as zero-initialized in its entirety,
// corresponding to LLVM's ConstantAggregateZero.
type ZeroAggregate struct {
	typ Type
}

func NewZeroAggregate(t Type) *ZeroAggregate { return &ZeroAggregate{typ: t} }
func (z *ZeroAggregate) Name() string        { return "zeroinitializer" }
func (z *ZeroAggregate) Type() Type          { return z.typ }
func (z *ZeroAggregate) String() string      { return "zeroinitializer" }

// DataSequence is a flat array of integer constants, corresponding to
// LLVM's ConstantDataSequential.
type DataSequence struct {
	typ    Type
	Values []*big.Int
}

func NewDataSequence(t Type, values []*big.Int) *DataSequence {
	return &DataSequence{typ: t, Values: values}
}
func (d *DataSequence) Name() string   { return "constdata" }
func (d *DataSequence) Type() Type     { return d.typ }
func (d *DataSequence) String() string { return "constdata" }
