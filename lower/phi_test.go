package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z971586668/ssacfg/cfgir"
	"github.com/z971586668/ssacfg/config"
	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/memory/inmem"
	"github.com/z971586668/ssacfg/symeval"
	"github.com/z971586668/ssacfg/symtab"
)

func TestPhisLowerSimpleAssignment(t *testing.T) {
	eval := symeval.New(symtab.NewFactory(), inmem.NewBuilder(memory.None).Build())
	p := NewPhis(eval, config.Default)

	pred := &ir.BasicBlock{Name: "pred"}
	succ := &ir.BasicBlock{Name: "succ"}
	succ.Preds = []*ir.BasicBlock{pred}

	x := ir.NewParameter("x", i32())
	phi := ir.NewPhi("r", i32(), 1)
	phi.Edges[0] = x
	succ.Instrs = []ir.Instruction{phi}

	edge := &cfgir.Node{}
	p.Lower(edge, pred, succ)

	require.Len(t, edge.Stmts, 1)
	assign, ok := edge.Stmts[0].(cfgir.Assign)
	require.True(t, ok)
	assert.Equal(t, eval.SymVar(phi), assign.Dst)
}

func TestPhisLowerHavocsWhenIncomingUntracked(t *testing.T) {
	eval := symeval.New(symtab.NewFactory(), inmem.NewBuilder(memory.None).Build())
	p := NewPhis(eval, config.Default)

	pred := &ir.BasicBlock{Name: "pred"}
	succ := &ir.BasicBlock{Name: "succ"}
	succ.Preds = []*ir.BasicBlock{pred}

	undef := ir.NewUndef(i32())
	phi := ir.NewPhi("r", i32(), 1)
	phi.Edges[0] = undef
	succ.Instrs = []ir.Instruction{phi}

	edge := &cfgir.Node{}
	p.Lower(edge, pred, succ)

	require.Len(t, edge.Stmts, 1)
	_, ok := edge.Stmts[0].(cfgir.Havoc)
	assert.True(t, ok)
}

func TestPhisLowerSwapProblemUsesSnapshot(t *testing.T) {
	eval := symeval.New(symtab.NewFactory(), inmem.NewBuilder(memory.None).Build())
	p := NewPhis(eval, config.Default)

	pred := &ir.BasicBlock{Name: "loop"}
	succ := &ir.BasicBlock{Name: "loop"}
	succ.Preds = []*ir.BasicBlock{pred}

	// phiA := phiB, phiB := phiA (the classic parallel-swap hazard).
	phiA := ir.NewPhi("a", i32(), 1)
	phiB := ir.NewPhi("b", i32(), 1)
	phiA.Edges[0] = phiB
	phiB.Edges[0] = phiA
	succ.Instrs = []ir.Instruction{phiA, phiB}

	edge := &cfgir.Node{}
	p.Lower(edge, pred, succ)

	require.Len(t, edge.Stmts, 4, "both phis get snapshotted before either is overwritten, then both are assigned")

	snapshotOf := func(v symtab.Name) cfgir.Assign {
		for _, s := range edge.Stmts[:2] {
			a := s.(cfgir.Assign)
			if a.Expr.String() == v.String() {
				return a
			}
		}
		t.Fatalf("no snapshot found for %s", v)
		return cfgir.Assign{}
	}

	bSnapshot := snapshotOf(eval.SymVar(phiB))
	aSnapshot := snapshotOf(eval.SymVar(phiA))

	aAssign := edge.Stmts[2].(cfgir.Assign)
	assert.Equal(t, eval.SymVar(phiA), aAssign.Dst)
	assert.Equal(t, bSnapshot.Dst.String(), aAssign.Expr.String(), "phiA must read phiB's pre-swap snapshot, not its post-swap value")

	bAssign := edge.Stmts[3].(cfgir.Assign)
	assert.Equal(t, eval.SymVar(phiB), bAssign.Dst)
	assert.Equal(t, aSnapshot.Dst.String(), bAssign.Expr.String(), "phiB must read phiA's pre-swap snapshot, not its post-swap value")
}

func TestPhisLowerSkipsPointerPhiUnderDisablePointerArith(t *testing.T) {
	eval := symeval.New(symtab.NewFactory(), inmem.NewBuilder(memory.Registers).Build())
	p := NewPhis(eval, config.Options{DisablePointerArith: true})

	pred := &ir.BasicBlock{Name: "pred"}
	succ := &ir.BasicBlock{Name: "succ"}
	succ.Preds = []*ir.BasicBlock{pred}

	ptr := ir.NewParameter("p", &ir.PointerType{Elem: i32()})
	phi := ir.NewPhi("r", &ir.PointerType{Elem: i32()}, 1)
	phi.Edges[0] = ptr
	succ.Instrs = []ir.Instruction{phi}

	edge := &cfgir.Node{}
	p.Lower(edge, pred, succ)

	assert.Empty(t, edge.Stmts)
}
