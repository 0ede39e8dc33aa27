package lower

import (
	"math/big"

	"github.com/z971586668/ssacfg/cfgir"
	"github.com/z971586668/ssacfg/config"
	"github.com/z971586668/ssacfg/diag"
	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/lexpr"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/symeval"
	"github.com/z971586668/ssacfg/symtab"
)

// symName is a local alias kept short for the many fresh/dst name
// parameters this file threads through.
type symName = symtab.Name

// functionEntryMarker is a designated no-op call, ignored alongside the
// shadow-memory family.
const functionEntryMarker = "__VERIFIER_fn_entry"

// Instructions lowers instructions: it emits CFG statements for every
// non-terminator, non-phi, non-bare-compare instruction of a block.
type Instructions struct {
	eval *symeval.Eval
	uses *UseInfo
	opts config.Options
	cond *Conditions
	diag diag.Sink
	dl   ir.DataLayout

	// InterProcedural selects whether calls are lowered as callsite
	// statements (true) or left as an external/havoc boundary (false).
	InterProcedural bool
}

// NewInstructions returns an instruction lowering pass.
func NewInstructions(eval *symeval.Eval, uses *UseInfo, opts config.Options, cond *Conditions, sink diag.Sink, dl ir.DataLayout) *Instructions {
	return &Instructions{eval: eval, uses: uses, opts: opts, cond: cond, diag: sink, dl: dl}
}

// Lower emits into target the statements for instr, which must not be a
// Phi, a terminator, or a bare Cmp (those are handled by phi lowering, the
// builder's edge materialization, and condition lowering respectively).
func (lo *Instructions) Lower(target *cfgir.Node, fn *ir.Function, instr ir.Instruction) {
	switch v := instr.(type) {
	case *ir.Phi, *ir.Cmp, *ir.Jump, *ir.If, *ir.Return, *ir.Unreachable:
		return
	case *ir.BinOp:
		lo.lowerBinOp(target, fn, v)
	case *ir.Convert:
		lo.lowerConvert(target, v)
	case *ir.Alloc:
		lo.lowerAlloc(target, fn, v)
	case *ir.Load:
		lo.lowerLoad(target, fn, v)
	case *ir.Store:
		lo.lowerStore(target, fn, v)
	case *ir.Gep:
		lo.lowerGep(target, v)
	case *ir.Select:
		lo.lowerSelect(target, v)
	case *ir.Call:
		lo.lowerCall(target, fn, v)
	default:
		// Fallback: any other tracked instruction havocs its result.
		if val, ok := instr.(ir.Value); ok && lo.eval.IsTracked(val) {
			target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(val)})
		}
	}
}

// LowerReturn emits the `return` CFG statement for r. The value is only
// forwarded when running in inter-procedural mode, outside main, and when
// the value is tracked; otherwise the statement simply marks the exit
// with no carried value.
func (lo *Instructions) LowerReturn(target *cfgir.Node, fn *ir.Function, r *ir.Return) {
	if r.Val == nil || !lo.InterProcedural || fn.Name() == "main" {
		target.Emit(cfgir.Return{})
		return
	}
	if !lo.eval.IsTracked(r.Val) {
		target.Emit(cfgir.Return{})
		return
	}
	expr, ok := lo.eval.Lookup(r.Val)
	if !ok {
		target.Emit(cfgir.Return{})
		return
	}
	target.Emit(cfgir.Return{Val: &expr})
}

// LowerUnreachable emits the `unreachable` CFG statement.
func (lo *Instructions) LowerUnreachable(target *cfgir.Node) {
	target.Emit(cfgir.Unreachable{})
}

func isBitwise(op ir.BinOpCode) bool {
	switch op {
	case ir.And, ir.Or, ir.Xor:
		return true
	default:
		return false
	}
}

func (lo *Instructions) lowerBinOp(target *cfgir.Node, fn *ir.Function, b *ir.BinOp) {
	if !lo.eval.IsTracked(b) {
		return
	}
	dst := lo.eval.SymVar(b)

	switch b.Op {
	case ir.Shl:
		lo.lowerShift(target, b, dst, ir.Mul)
		return
	case ir.AShr:
		lo.lowerShift(target, b, dst, ir.SDiv)
		return
	case ir.LShr:
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}

	xExpr, xok := lo.eval.Lookup(b.X)
	yExpr, yok := lo.eval.Lookup(b.Y)
	if !xok || !yok {
		return
	}

	if isBitwise(b.Op) {
		target.Emit(cfgir.Bitwise{Dst: dst, Op: b.Op, X: xExpr, Y: yExpr})
		return
	}

	switch b.Op {
	case ir.UDiv, ir.URem:
		if xExpr.IsConstant() && yExpr.IsConstant() {
			lo.diag.Warn(diag.UnsoundConstantPattern, fn.Name(), "%s with constant operands should have been folded", b.Op)
			target.Emit(cfgir.Havoc{Dst: dst})
			return
		}
	}

	// A primitive taking a constant as its left operand may be
	// unavailable in the target statement language: bind the constant
	// to dst first, then reissue the op with dst on the left.
	if xExpr.IsConstant() {
		target.Emit(cfgir.Assign{Dst: dst, Expr: xExpr})
		xExpr = lexpr.Var(dst)
	}
	target.Emit(cfgir.Arith{Dst: dst, Op: b.Op, X: xExpr, Y: yExpr})
}

func (lo *Instructions) lowerShift(target *cfgir.Node, b *ir.BinOp, dst symName, equiv ir.BinOpCode) {
	c, ok := b.Y.(*ir.Const)
	if !ok || c.Undef || c.Value.Sign() < 0 {
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}
	xExpr, xok := lo.eval.Lookup(b.X)
	if !xok {
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}
	factor := new(big.Int).Lsh(big.NewInt(1), uint(c.Value.Int64()))
	target.Emit(cfgir.Arith{Dst: dst, Op: equiv, X: xExpr, Y: lexpr.Constant(factor)})
}

func (lo *Instructions) lowerConvert(target *cfgir.Node, c *ir.Convert) {
	if !lo.eval.IsTracked(c) {
		return
	}
	if lo.opts.DisablePointerArith && !ir.IsInteger(c.Typ) {
		return
	}
	if (c.Kind == ir.ZExt || c.Kind == ir.SExt) && lo.uses.onlyUsesAreAddressIndices(c) {
		return
	}
	if lo.uses.AllUsesAreNonTrackMemory(stripZExt(c)) {
		return
	}

	dst := lo.eval.SymVar(c)
	expr, ok := lo.eval.Lookup(c.X)
	if !ok {
		if it, isInt := c.X.Type().(*ir.IntType); isInt && it.Bits == 1 {
			target.Emit(cfgir.Assume{Constraint: lexpr.NewConstraint(lexpr.Var(dst), lexpr.GEQ, lexpr.ConstantInt64(0))})
			target.Emit(cfgir.Assume{Constraint: lexpr.NewConstraint(lexpr.Var(dst), lexpr.LEQ, lexpr.ConstantInt64(1))})
		}
		return
	}
	target.Emit(cfgir.Assign{Dst: dst, Expr: expr})
}

// stripZExt looks through a single ZExt/SExt Convert wrapper, returning its
// source operand; otherwise it returns v unchanged. Shared between Cast's
// AllUsesAreNonTrackMemory check and Call's verifier.assume(.not) handling.
func stripZExt(v ir.Value) ir.Value {
	c, ok := v.(*ir.Convert)
	if !ok {
		return v
	}
	if c.Kind != ir.ZExt && c.Kind != ir.SExt {
		return v
	}
	return c.X
}

func (lo *Instructions) lowerAlloc(target *cfgir.Node, fn *ir.Function, a *ir.Alloc) {
	if lo.eval.Oracle().TrackLevel() != memory.Arrays {
		return
	}
	id := lo.eval.Oracle().ArrayID(fn, a)
	if !id.Valid() {
		return
	}
	target.Emit(cfgir.AssumeArray{Array: lo.eval.SymVarArray(id), Value: big.NewInt(0)})
}

func (lo *Instructions) lowerLoad(target *cfgir.Node, fn *ir.Function, l *ir.Load) {
	if !ir.IsInteger(l.Type()) {
		return
	}
	if lo.eval.Oracle().TrackLevel() != memory.Arrays {
		if lo.eval.IsTracked(l) {
			target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(l)})
		}
		return
	}
	dst := lo.eval.SymVar(l)
	a := lo.eval.Oracle().ArrayID(fn, l.Addr)
	if !a.Valid() {
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}
	idx, ok := lo.eval.Lookup(l.Addr)
	if !ok {
		target.Emit(cfgir.Havoc{Dst: lo.eval.SymVarArray(a)})
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}
	if s, ok := lo.eval.Oracle().Singleton(a); ok {
		if sExpr, ok := lo.eval.Lookup(s); ok {
			target.Emit(cfgir.Assign{Dst: dst, Expr: sExpr})
			return
		}
	}
	target.Emit(cfgir.ArrayLoad{
		Dst:      dst,
		Array:    lo.eval.SymVarArray(a),
		Index:    idx,
		ElemSize: ir.StorageSize(l.Type()),
	})
}

func (lo *Instructions) lowerStore(target *cfgir.Node, fn *ir.Function, s *ir.Store) {
	if !ir.IsInteger(s.Val.Type()) {
		return
	}
	if lo.eval.Oracle().TrackLevel() != memory.Arrays {
		return
	}
	a := lo.eval.Oracle().ArrayID(fn, s.Addr)
	if !a.Valid() {
		return
	}
	idx, ok := lo.eval.Lookup(s.Addr)
	if !ok {
		target.Emit(cfgir.Havoc{Dst: lo.eval.SymVarArray(a)})
		return
	}
	valExpr, ok := lo.eval.Lookup(s.Val)
	if !ok {
		target.Emit(cfgir.Havoc{Dst: lo.eval.SymVarArray(a)})
		return
	}
	if scalar, ok := lo.eval.Oracle().Singleton(a); ok {
		target.Emit(cfgir.Assign{Dst: lo.eval.SymVar(scalar), Expr: valExpr})
		return
	}
	target.Emit(cfgir.ArrayStore{
		Array:    lo.eval.SymVarArray(a),
		Index:    idx,
		Val:      valExpr,
		ElemSize: ir.StorageSize(s.Val.Type()),
	})
}

func (lo *Instructions) lowerGep(target *cfgir.Node, g *ir.Gep) {
	if !lo.eval.IsTracked(g) {
		return
	}
	dst := lo.eval.SymVar(g)

	baseExpr, ok := lo.eval.Lookup(g.Base)
	if !ok {
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}

	offset := big.NewInt(0)
	constant := true
	var acc lexpr.LinearExpression

	for _, idx := range g.Indices {
		switch idx.Kind {
		case ir.GepField:
			st, ok := idx.ElemType.(*ir.StructType)
			if !ok {
				panic("lower: gep field step into a non-struct type")
			}
			offset.Add(offset, big.NewInt(st.FieldOffset(idx.Field)))
		case ir.GepElement:
			elem := stripZExt(idx.Elem)
			stride := ir.StorageSize(idx.ElemType)
			if c, ok := elem.(*ir.Const); ok && !c.Undef {
				offset.Add(offset, new(big.Int).Mul(c.Value, big.NewInt(stride)))
				continue
			}
			constant = false
			idxExpr, ok := lo.eval.Lookup(elem)
			if !ok {
				target.Emit(cfgir.Havoc{Dst: dst})
				return
			}
			term := idxExpr.Scale(big.NewInt(stride))
			if acc.Terms == nil && acc.Const == nil {
				acc = term
			} else {
				acc = acc.Add(term)
			}
		}
	}

	untrackable := lo.opts.DisablePointerArith || lo.uses.AllUsesAreNonTrackMemory(g)
	if untrackable {
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}

	if constant {
		target.Emit(cfgir.Assign{Dst: dst, Expr: baseExpr.AddConst(offset)})
		return
	}

	result := baseExpr.AddConst(offset)
	if acc.Terms != nil || acc.Const != nil {
		result = result.Add(acc)
	}
	target.Emit(cfgir.Assign{Dst: dst, Expr: result})
}

func (lo *Instructions) lowerSelect(target *cfgir.Node, s *ir.Select) {
	if !lo.eval.IsTracked(s) {
		return
	}
	if lo.opts.DisablePointerArith && !ir.IsInteger(s.Typ) {
		return
	}
	dst := lo.eval.SymVar(s)

	xExpr, xok := lo.eval.Lookup(s.X)
	yExpr, yok := lo.eval.Lookup(s.Y)
	if !xok || !yok {
		target.Emit(cfgir.Havoc{Dst: dst})
		return
	}

	if c, ok := s.Cond.(*ir.Const); ok && !c.Undef {
		if c.Value.Sign() == 0 {
			target.Emit(cfgir.Assign{Dst: dst, Expr: yExpr})
		} else {
			target.Emit(cfgir.Assign{Dst: dst, Expr: xExpr})
		}
		return
	}

	if cmp, ok := s.Cond.(*ir.Cmp); ok {
		cx, cy, pred := normalizeCmp(cmp)
		cxExpr, cxok := lo.eval.Lookup(cx)
		cyExpr, cyok := lo.eval.Lookup(cy)
		if cxok && cyok {
			cst := genConstraints(cxExpr, cyExpr, pred, false)
			if len(cst) == 1 {
				target.Emit(cfgir.Select{Dst: dst, Cond: cfgir.SelectCond{Constraint: &cst[0]}, X: xExpr, Y: yExpr})
				return
			}
		}
	}

	condVar := lo.eval.SymVar(s.Cond)
	target.Emit(cfgir.Select{Dst: dst, Cond: cfgir.SelectCond{Var: &condVar}, X: xExpr, Y: yExpr})
}

func (lo *Instructions) lowerCall(target *cfgir.Node, fn *ir.Function, c *ir.Call) {
	name := c.Callee.Name()

	if isShadowOrDebugCall(c) || name == functionEntryMarker {
		return
	}

	if name == "verifier.assume" || name == "verifier.assume.not" {
		if len(c.Args) == 0 {
			return
		}
		cond := stripZExt(c.Args[0])
		polarity := name == "verifier.assume.not"
		lo.cond.Lower(target, cond, polarity)
		return
	}

	if !c.Callee.Known() {
		if c.HasResult() && lo.eval.IsTracked(c) {
			target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(c)})
		}
		return
	}

	switch {
	case isAllocCall(name):
		lo.lowerAllocCall(target, fn, c)
		return
	case name == "memset":
		lo.lowerMemset(target, fn, c)
		return
	case name == "memcpy":
		lo.lowerMemcpy(target, fn, c)
		return
	case name == "memmove":
		// Deliberately unmodeled: overlap makes any memcpy-style
		// rewrite unsound.
		if c.HasResult() && lo.eval.IsTracked(c) {
			target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(c)})
		}
		return
	}

	if c.Callee.Fn == nil {
		if c.HasResult() && lo.eval.IsTracked(c) {
			target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(c)})
		}
		return
	}

	if !lo.InterProcedural || c.Variadic {
		if c.HasResult() && lo.eval.IsTracked(c) {
			target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(c)})
		}
		return
	}

	lo.lowerDirectCall(target, fn, c)
}

func isAllocCall(name string) bool {
	switch name {
	case "malloc", "calloc", "valloc", "palloc":
		return true
	default:
		return false
	}
}

func (lo *Instructions) lowerAllocCall(target *cfgir.Node, fn *ir.Function, c *ir.Call) {
	if fn != nil && fn.Name() != "main" {
		if c.HasResult() && lo.eval.IsTracked(c) {
			target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(c)})
		}
		return
	}
	if c.HasResult() && lo.eval.IsTracked(c) {
		target.Emit(cfgir.Havoc{Dst: lo.eval.SymVar(c)})
	}
	if lo.eval.Oracle().TrackLevel() != memory.Arrays {
		return
	}
	a := lo.eval.Oracle().ArrayID(fn, c)
	if a.Valid() {
		target.Emit(cfgir.AssumeArray{Array: lo.eval.SymVarArray(a), Value: big.NewInt(0)})
	}
}

func (lo *Instructions) lowerMemset(target *cfgir.Node, fn *ir.Function, c *ir.Call) {
	if lo.eval.Oracle().TrackLevel() != memory.Arrays || len(c.Args) < 2 {
		return
	}
	val, ok := c.Args[1].(*ir.Const)
	if !ok || val.Undef {
		return
	}
	a := lo.eval.Oracle().ArrayID(fn, c.Args[0])
	if !a.Valid() {
		return
	}
	arr := lo.eval.SymVarArray(a)
	target.Emit(cfgir.Havoc{Dst: arr})
	target.Emit(cfgir.AssumeArray{Array: arr, Value: val.Value})
}

func (lo *Instructions) lowerMemcpy(target *cfgir.Node, fn *ir.Function, c *ir.Call) {
	if lo.eval.Oracle().TrackLevel() != memory.Arrays || len(c.Args) < 2 {
		return
	}
	dst := lo.eval.Oracle().ArrayID(fn, c.Args[0])
	src := lo.eval.Oracle().ArrayID(fn, c.Args[1])
	if !dst.Valid() || !src.Valid() {
		return
	}
	dstName := lo.eval.SymVarArray(dst)
	target.Emit(cfgir.Havoc{Dst: dstName})
	target.Emit(cfgir.Assign{Dst: dstName, Expr: lexpr.Var(lo.eval.SymVarArray(src))})
}

// lowerDirectCall builds the inter-procedural actual-parameter list:
// the scalar actuals in arg order, then for each ref array its
// input snapshot immediately followed by the array itself, then the new
// arrays. Snapshots and refs are interleaved per array, not grouped.
func (lo *Instructions) lowerDirectCall(target *cfgir.Node, fn *ir.Function, c *ir.Call) {
	rmn := lo.eval.Oracle().RefModNewForCall(fn, c.Callee.Fn)

	var actuals []cfgir.CallActual
	for _, arg := range c.Args {
		actuals = append(actuals, cfgir.CallActual{Scalar: scalarPtr(lo.normalizeActual(target, arg))})
	}
	for _, a := range rmn.Refs {
		arrName := lo.eval.SymVarArray(a)
		in := lo.eval.Fresh()
		target.Emit(cfgir.Assign{Dst: in, Expr: lexpr.Var(arrName)})
		actuals = append(actuals, cfgir.CallActual{Array: namePtr(in)})
		actuals = append(actuals, cfgir.CallActual{Array: namePtr(arrName)})
		target.Emit(cfgir.Havoc{Dst: arrName})
	}
	for _, a := range rmn.News {
		actuals = append(actuals, cfgir.CallActual{Array: namePtr(lo.eval.SymVarArray(a))})
	}

	var dst *symName
	if c.HasResult() && lo.eval.IsTracked(c) {
		d := lo.eval.SymVar(c)
		dst = &d
	}

	target.Emit(cfgir.Callsite{
		Dst:       dst,
		Callee:    c.Callee.Name(),
		Args:      actuals,
		ModArrays: rmn.Mods,
	})

	for _, a := range rmn.Mods {
		target.Emit(cfgir.Havoc{Dst: lo.eval.SymVarArray(a)})
	}
}

// normalizeActual binds a non-tracked-variable actual argument (a
// constant, or anything that doesn't already resolve to a bare symbolic
// variable) to a fresh scalar via assign, instead of passing it as a
// literal in the call's actual list. It havocs instead when the actual
// can't be represented as a linear expression at all.
func (lo *Instructions) normalizeActual(target *cfgir.Node, v ir.Value) lexpr.LinearExpression {
	expr, ok := lo.eval.Lookup(v)
	if ok && lo.eval.IsVar(expr) {
		return expr
	}
	fresh := lo.eval.Fresh()
	if ok {
		target.Emit(cfgir.Assign{Dst: fresh, Expr: expr})
	} else {
		target.Emit(cfgir.Havoc{Dst: fresh})
	}
	return lexpr.Var(fresh)
}

func scalarPtr(e lexpr.LinearExpression) *lexpr.LinearExpression { return &e }
func namePtr(n symName) *symName                                 { return &n }
