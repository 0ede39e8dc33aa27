package ir

// BinOpCode enumerates the arithmetic and bitwise opcodes a BinOp carries.
type BinOpCode int

const (
	Add BinOpCode = iota
	Sub
	Mul
	SDiv
	UDiv
	SRem
	URem
	Shl
	AShr
	LShr
	And
	Or
	Xor
)

func (op BinOpCode) String() string {
	return [...]string{"add", "sub", "mul", "sdiv", "udiv", "srem", "urem", "shl", "ashr", "lshr", "and", "or", "xor"}[op]
}

// Predicate enumerates comparison predicates before normalization. SGT/SGE/
// UGT/UGE are eliminated by the condition lowerer's compare-normalization
// pass by swapping operands; they are kept here because the input IR is
// allowed to contain them.
type Predicate int

const (
	PredEQ Predicate = iota
	PredNE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
	PredULT
	PredULE
	PredUGT
	PredUGE
)

func (p Predicate) String() string {
	return [...]string{"eq", "ne", "slt", "sle", "sgt", "sge", "ult", "ule", "ugt", "uge"}[p]
}

// valueInstr is embedded by every instruction that also produces a Value.
type valueInstr struct {
	instrBase
	Nam string
	Typ Type
}

func (v *valueInstr) Name() string { return v.Nam }
func (v *valueInstr) Type() Type   { return v.Typ }

// BinOp is a binary arithmetic or bitwise instruction.
type BinOp struct {
	valueInstr
	Op   BinOpCode
	X, Y Value
}

// NewBinOp builds a BinOp result named name of type t; X and Y are left
// nil for the caller to fill in (ir/function.go's builders, and fixture
// loaders, construct a value before its operands are all resolvable).
func NewBinOp(name string, t Type, op BinOpCode) *BinOp {
	return &BinOp{valueInstr: valueInstr{Nam: name, Typ: t}, Op: op}
}

func (b *BinOp) String() string { return b.Op.String() + " " + b.X.Name() + ", " + b.Y.Name() }

// Cmp is an integer comparison. It never appears as an operand of anything
// but a branch, select, bitwise guard, or verifier.assume(.not) call —
// instruction lowering skips it everywhere else.
type Cmp struct {
	valueInstr
	Pred Predicate
	X, Y Value
}

// NewCmp builds a Cmp result named name (always of the 1-bit boolean type).
func NewCmp(name string, t Type, pred Predicate) *Cmp {
	return &Cmp{valueInstr: valueInstr{Nam: name, Typ: t}, Pred: pred}
}

func (c *Cmp) String() string { return "icmp " + c.Pred.String() + " " + c.X.Name() + ", " + c.Y.Name() }

// Phi is a block-head pseudo-instruction selecting a value per predecessor
// edge. Edges[i] corresponds to Block().Preds[i].
type Phi struct {
	valueInstr
	Edges []Value
}

// NewPhi builds a Phi result named name with nedges slots, one per
// predecessor, to be filled in once every predecessor edge is known.
func NewPhi(name string, t Type, nedges int) *Phi {
	return &Phi{valueInstr: valueInstr{Nam: name, Typ: t}, Edges: make([]Value, nedges)}
}

func (p *Phi) String() string { return "phi " + p.Typ.String() }

// IncomingFor returns the value Phi takes along the edge from pred, or nil
// if pred is not a predecessor of Phi's block.
func (p *Phi) IncomingFor(pred *BasicBlock) Value {
	for i, pb := range p.block.Preds {
		if pb == pred {
			return p.Edges[i]
		}
	}
	return nil
}

// CastKind distinguishes the handful of cast shapes instruction lowering
// treats specially (ZExt/SExt feed the "uses are GEP indices" optimization;
// everything else behaves uniformly).
type CastKind int

const (
	ZExt CastKind = iota
	SExt
	Trunc
	BitCast
	PtrToInt
	IntToPtr
)

// Convert is any cast instruction.
type Convert struct {
	valueInstr
	Kind CastKind
	X    Value
}

// NewConvert builds a Convert result named name of type t.
func NewConvert(name string, t Type, kind CastKind) *Convert {
	return &Convert{valueInstr: valueInstr{Nam: name, Typ: t}, Kind: kind}
}

func (c *Convert) String() string { return "cast " + c.X.Name() + " to " + c.Typ.String() }

// Alloc reserves storage for one local variable or array of Typ.
type Alloc struct {
	valueInstr // Type() is always *PointerType{Elem: Typ}
}

// NewAlloc builds an Alloc result named name reserving storage for elemType.
func NewAlloc(name string, elemType Type) *Alloc {
	return &Alloc{valueInstr: valueInstr{Nam: name, Typ: &PointerType{Elem: elemType}}}
}

func (a *Alloc) String() string { return "alloca " + a.Typ.String() }

// ElemType returns the type of the storage Alloc reserves.
func (a *Alloc) ElemType() Type { return Deref(a.Typ) }

// Load reads the value stored at Addr.
type Load struct {
	valueInstr
	Addr Value
}

// NewLoad builds a Load result named name of type t.
func NewLoad(name string, t Type) *Load {
	return &Load{valueInstr: valueInstr{Nam: name, Typ: t}}
}

func (l *Load) String() string { return "load " + l.Addr.Name() }

// Store writes Val to Addr. Store has no result, hence it is an
// Instruction but not a Value.
type Store struct {
	instrBase
	Addr, Val Value
}

// NewStore builds an empty Store; Addr and Val are filled in by the caller.
func NewStore() *Store { return &Store{} }

func (s *Store) String() string { return "store " + s.Val.Name() + ", " + s.Addr.Name() }

// GepIndexKind distinguishes a struct-field step (a compile-time constant
// field number) from an array/pointer step (a runtime index multiplied by
// an element stride).
type GepIndexKind int

const (
	GepField GepIndexKind = iota
	GepElement
)

// GepIndex is one step of a Gep instruction's index list.
type GepIndex struct {
	Kind GepIndexKind

	Field int // valid when Kind == GepField

	Elem     Value // valid when Kind == GepElement: the (possibly non-constant) index
	ElemType Type  // the type being indexed into, used to compute the stride
}

// Gep computes an address from a base pointer and a sequence of struct/
// array indices, mirroring LLVM's getelementptr.
type Gep struct {
	valueInstr
	Base    Value
	Indices []GepIndex
}

// NewGep builds a Gep result named name of type t with nindices index slots.
func NewGep(name string, t Type, nindices int) *Gep {
	return &Gep{valueInstr: valueInstr{Nam: name, Typ: t}, Indices: make([]GepIndex, nindices)}
}

func (g *Gep) String() string { return "gep " + g.Base.Name() }

// Select picks between X and Y based on Cond.
type Select struct {
	valueInstr
	Cond, X, Y Value
}

// NewSelect builds a Select result named name of type t.
func NewSelect(name string, t Type) *Select {
	return &Select{valueInstr: valueInstr{Nam: name, Typ: t}}
}

func (s *Select) String() string { return "select " + s.Cond.Name() }

// Callee is either a direct reference to a Function defined or declared in
// the module, or the name of an external symbol the module never defines
// (libc, compiler intrinsics, verifier hooks).
type Callee struct {
	Fn       *Function // non-nil for a direct call whose target is known
	Extern   string    // non-empty when Fn == nil and the callee name is known
	Indirect Value      // non-nil for a call through a function pointer
}

func (c Callee) String() string {
	switch {
	case c.Fn != nil:
		return c.Fn.Nam
	case c.Extern != "":
		return c.Extern
	default:
		return "<indirect>"
	}
}

// Name returns the callee's symbol name, or "" for an indirect call.
func (c Callee) Name() string {
	switch {
	case c.Fn != nil:
		return c.Fn.Nam
	default:
		return c.Extern
	}
}

// Known reports whether the callee is resolved to a name (direct or
// external), as opposed to an indirect call through a value.
func (c Callee) Known() bool { return c.Indirect == nil }

// Call invokes Callee with Args. Typ is the void type's OpaqueType when the
// call has no result.
type Call struct {
	valueInstr
	Callee   Callee
	Args     []Value
	Variadic bool
}

// NewCall builds a Call result named name of type t (the OpaqueType named
// "void" for calls with no result) with nargs argument slots.
func NewCall(name string, t Type, variadic bool, nargs int) *Call {
	return &Call{valueInstr: valueInstr{Nam: name, Typ: t}, Args: make([]Value, nargs), Variadic: variadic}
}

func (c *Call) String() string { return "call " + c.Callee.String() }

// HasResult reports whether Call's result is used for anything (i.e. its
// type is not void).
func (c *Call) HasResult() bool {
	_, void := c.Typ.(*OpaqueType)
	return !void || c.Typ.String() != "void"
}

// Jump is an unconditional branch.
type Jump struct {
	instrBase
	Target *BasicBlock
}

// NewJump builds a Jump to target.
func NewJump(target *BasicBlock) *Jump { return &Jump{Target: target} }

func (j *Jump) String() string { return "jmp " + j.Target.Name }

// If is a conditional branch.
type If struct {
	instrBase
	Cond              Value
	TrueBlk, FalseBlk *BasicBlock
}

// NewIf builds an If branching on cond to trueBlk or falseBlk.
func NewIf(cond Value, trueBlk, falseBlk *BasicBlock) *If {
	return &If{Cond: cond, TrueBlk: trueBlk, FalseBlk: falseBlk}
}

func (i *If) String() string { return "br " + i.Cond.Name() }

// Return optionally carries a value back to the caller.
type Return struct {
	instrBase
	Val Value // nil for a void return
}

// NewReturn builds a Return carrying val (nil for a void return).
func NewReturn(val Value) *Return { return &Return{Val: val} }

func (r *Return) String() string {
	if r.Val == nil {
		return "ret void"
	}
	return "ret " + r.Val.Name()
}

// Unreachable marks a block that control can never reach, or a path a
// verifier assumption has ruled out.
type Unreachable struct {
	instrBase
}

// NewUnreachable builds an Unreachable terminator.
func NewUnreachable() *Unreachable { return &Unreachable{} }

func (u *Unreachable) String() string { return "unreachable" }
