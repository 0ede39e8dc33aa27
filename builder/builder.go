// Package builder orchestrates per-function translation, following a
// seven-step procedure: lay out CFG nodes, lower each block's body and
// terminator, unify returns, run the global-initializer prelude, run the
// new-region prelude, and (in inter-procedural mode) emit the function's
// declaration and bind its ref formals.
package builder

import (
	"math/big"

	"github.com/z971586668/ssacfg/cfgir"
	"github.com/z971586668/ssacfg/config"
	"github.com/z971586668/ssacfg/diag"
	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/lexpr"
	"github.com/z971586668/ssacfg/lower"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/symeval"
	"github.com/z971586668/ssacfg/symtab"
)

// Builder drives translation of a Module's functions into CFGs. It owns,
// for the duration of one function's translation, that function's
// symtab.Factory and cfgir.Graph; the memory.Oracle is read-only.
type Builder struct {
	Module          *ir.Module
	Oracle          memory.Oracle
	Options         config.Options
	Diag            diag.Sink
	InterProcedural bool
}

// New returns a Builder over module, reading memory facts from oracle and
// honoring opts. A nil sink defaults to diag.Discard.
func New(module *ir.Module, oracle memory.Oracle, opts config.Options, sink diag.Sink, interProcedural bool) *Builder {
	if sink == nil {
		sink = diag.Discard{}
	}
	return &Builder{Module: module, Oracle: oracle, Options: opts, Diag: sink, InterProcedural: interProcedural}
}

// BuildAll translates every function of the module, in declared order.
func (b *Builder) BuildAll() []*cfgir.Graph {
	graphs := make([]*cfgir.Graph, 0, len(b.Module.Functions))
	for _, fn := range b.Module.Functions {
		graphs = append(graphs, b.BuildFunction(fn))
	}
	return graphs
}

// BuildFunction runs the seven-step orchestration for a single function.
func (b *Builder) BuildFunction(fn *ir.Function) *cfgir.Graph {
	factory := symtab.NewFactory()
	eval := symeval.New(factory, b.Oracle)
	graph := cfgir.NewGraph(fn.Name())

	if fn.Declaration() {
		if b.InterProcedural {
			graph.Decl = b.declFor(fn, eval)
		}
		return graph
	}

	uses := lower.BuildUseInfo(fn)
	cond := lower.NewConditions(eval, uses)
	phis := lower.NewPhis(eval, b.Options)
	instrs := lower.NewInstructions(eval, uses, b.Options, cond, b.Diag, b.Module.Layout)
	instrs.InterProcedural = b.InterProcedural

	// Step 1: one CFG node per IR block.
	nodeOf := make(map[*ir.BasicBlock]*cfgir.Node, len(fn.Blocks))
	for _, blk := range fn.Blocks {
		nodeOf[blk] = graph.NewNode(blk.Name)
	}
	graph.Entry = nodeOf[fn.Entry()]

	var returning []*cfgir.Node

	// Step 2.
	for _, blk := range fn.Blocks {
		node := nodeOf[blk]
		body := nonTerminatorBody(blk)
		for _, instr := range body {
			instrs.Lower(node, fn, instr)
		}

		switch term := blk.Control().(type) {
		case *ir.Return:
			instrs.LowerReturn(node, fn, term)
			returning = append(returning, node)
		case *ir.Unreachable:
			instrs.LowerUnreachable(node)
		case *ir.Jump:
			b.materializeEdge(graph, nodeOf, blk, node, nil, false, term.Target, cond, phis)
		case *ir.If:
			b.materializeEdge(graph, nodeOf, blk, node, term, true, term.TrueBlk, cond, phis)
			b.materializeEdge(graph, nodeOf, blk, node, term, false, term.FalseBlk, cond, phis)
		}
	}

	// Step 3: unify returns.
	switch len(returning) {
	case 0:
	case 1:
		graph.Exit = returning[0]
	default:
		exit := graph.NewNode("unify.exit")
		for _, r := range returning {
			graph.AddEdge(r, exit)
		}
		graph.Exit = exit
	}

	// Step 4: global-initializer prelude (main, ARRAYS mode only).
	if fn.Name() == "main" && b.Oracle.TrackLevel() == memory.Arrays {
		b.globalInitializerPrelude(graph, eval)
	}

	// Step 5: per-function new-region prelude.
	b.newRegionPrelude(fn, graph, eval)

	// Step 6: inter-procedural function declaration + ref-array binding.
	if b.InterProcedural {
		graph.Decl = b.declFor(fn, eval)
		b.bindRefFormals(fn, graph, eval)
	}

	return graph
}

// nonTerminatorBody returns blk's instructions with the leading phis and
// the trailing terminator stripped; phi lowering and edge materialization
// handle those.
func nonTerminatorBody(blk *ir.BasicBlock) []ir.Instruction {
	phis := blk.Phis()
	body := blk.Instrs[len(phis):]
	if len(body) == 0 {
		return nil
	}
	switch body[len(body)-1].(type) {
	case *ir.Jump, *ir.If, *ir.Return, *ir.Unreachable:
		return body[:len(body)-1]
	default:
		return body
	}
}

// materializeEdge materializes one CFG edge between basic blocks: a
// conditional branch gets a synthetic edge block carrying its branch
// constraints; an unconditional jump reuses the source block directly as
// the phi-lowering target.
func (b *Builder) materializeEdge(
	graph *cfgir.Graph,
	nodeOf map[*ir.BasicBlock]*cfgir.Node,
	srcBlock *ir.BasicBlock,
	srcNode *cfgir.Node,
	ifInstr *ir.If,
	isTrueEdge bool,
	dstBlock *ir.BasicBlock,
	cond *lower.Conditions,
	phis *lower.Phis,
) {
	dstNode := nodeOf[dstBlock]

	if ifInstr == nil {
		graph.AddEdge(srcNode, dstNode)
		phis.Lower(srcNode, srcBlock, dstBlock)
		return
	}

	edge := graph.NewNode(srcNode.Label + ".edge")
	graph.AddEdge(srcNode, edge)
	graph.AddEdge(edge, dstNode)

	// Polarity is true iff dstBlock is the branch's false successor.
	polarity := !isTrueEdge

	if c, ok := ifInstr.Cond.(*ir.Const); ok && !c.Undef {
		taken := c.Value.Sign() != 0
		if taken != isTrueEdge {
			edge.Emit(cfgir.Unreachable{})
			phis.Lower(edge, srcBlock, dstBlock)
			return
		}
	}

	cond.Lower(edge, ifInstr.Cond, polarity)
	phis.Lower(edge, srcBlock, dstBlock)
}

func (b *Builder) globalInitializerPrelude(graph *cfgir.Graph, eval *symeval.Eval) {
	if graph.Entry == nil {
		return
	}
	var prelude []cfgir.Stmt
	for _, g := range b.Module.Globals {
		a := b.Oracle.ArrayID(nil, g)
		if !a.Valid() {
			continue
		}
		switch init := g.Initializer.(type) {
		case *ir.ZeroAggregate:
			prelude = append(prelude, cfgir.AssumeArray{Array: eval.SymVarArray(a), Value: big.NewInt(0)})
		case *ir.DataSequence:
			prelude = append(prelude, cfgir.ArrayInit{Array: eval.SymVarArray(a), Values: init.Values})
		}
	}
	graph.Entry.Stmts = append(prelude, graph.Entry.Stmts...)
}

func (b *Builder) newRegionPrelude(fn *ir.Function, graph *cfgir.Graph, eval *symeval.Eval) {
	if graph.Entry == nil {
		return
	}
	rmn := b.Oracle.RefModNewForFunction(fn)
	if len(rmn.News) == 0 {
		return
	}
	prelude := make([]cfgir.Stmt, 0, len(rmn.News))
	for _, a := range rmn.News {
		prelude = append(prelude, cfgir.AssumeArray{Array: eval.SymVarArray(a), Value: big.NewInt(0)})
	}
	graph.Entry.Stmts = append(prelude, graph.Entry.Stmts...)
}

// declFor builds the inter-procedural FuncDecl: scalar formals followed by
// the ref-in / ref-out / new arrays.
func (b *Builder) declFor(fn *ir.Function, eval *symeval.Eval) *cfgir.FuncDecl {
	rmn := b.Oracle.RefModNewForFunction(fn)

	var params []cfgir.Param
	for _, p := range fn.Params {
		params = append(params, cfgir.Param{Name: eval.SymVar(p), Kind: cfgir.ParamScalar})
	}
	for _, a := range rmn.Refs {
		params = append(params, cfgir.Param{Name: eval.SymVarArrayIn(a), Kind: cfgir.ParamRefIn})
		params = append(params, cfgir.Param{Name: eval.SymVarArray(a), Kind: cfgir.ParamRefOut})
	}
	for _, a := range rmn.News {
		params = append(params, cfgir.Param{Name: eval.SymVarArray(a), Kind: cfgir.ParamNew})
	}

	return &cfgir.FuncDecl{
		Name:         fn.Name(),
		Params:       params,
		ReturnsValue: fn.ReturnType != nil && ir.IsInteger(fn.ReturnType),
	}
}

// bindRefFormals prepends, for each ref array, the assignment a := a_in
// binding the working array to its input snapshot.
func (b *Builder) bindRefFormals(fn *ir.Function, graph *cfgir.Graph, eval *symeval.Eval) {
	if graph.Entry == nil {
		return
	}
	rmn := b.Oracle.RefModNewForFunction(fn)
	if len(rmn.Refs) == 0 {
		return
	}
	prelude := make([]cfgir.Stmt, 0, len(rmn.Refs))
	for _, a := range rmn.Refs {
		prelude = append(prelude, cfgir.Assign{Dst: eval.SymVarArray(a), Expr: lexpr.Var(eval.SymVarArrayIn(a))})
	}
	graph.Entry.Stmts = append(prelude, graph.Entry.Stmts...)
}
