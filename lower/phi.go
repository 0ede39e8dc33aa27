package lower

import (
	"github.com/z971586668/ssacfg/cfgir"
	"github.com/z971586668/ssacfg/config"
	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/lexpr"
	"github.com/z971586668/ssacfg/symeval"
	"github.com/z971586668/ssacfg/symtab"
)

// Phis lowers phis: it translates all phis of a successor block into a
// parallel assignment emitted on the predecessor's edge block.
type Phis struct {
	eval *symeval.Eval
	opts config.Options
}

// NewPhis returns a Phis lowering pass backed by eval, honoring opts'
// DisablePointerArith setting for non-integer phis.
func NewPhis(eval *symeval.Eval, opts config.Options) *Phis {
	return &Phis{eval: eval, opts: opts}
}

// Lower appends to edge, for every leading phi of succ, an assignment
// sym_var(phi) := lookup(incoming_value_for_pred), preserving parallel
// phi semantics: a first pass snapshots any same-block phi used as another
// phi's incoming value into a fresh name before any second-pass assignment
// can overwrite it.
func (p *Phis) Lower(edge *cfgir.Node, pred *ir.BasicBlock, succ *ir.BasicBlock) {
	phis := succ.Phis()
	if len(phis) == 0 {
		return
	}

	predIndex := -1
	for i, pb := range succ.Preds {
		if pb == pred {
			predIndex = i
			break
		}
	}
	if predIndex < 0 {
		return
	}

	phiSet := make(map[*ir.Phi]bool, len(phis))
	for _, ph := range phis {
		phiSet[ph] = true
	}

	scratch := make(map[*ir.Phi]symtab.Name)

	// First pass: for every phi whose incoming value along this edge is
	// itself a same-block phi with a currently known expression, snapshot
	// that expression into a fresh name before anything is overwritten.
	for _, ph := range phis {
		if p.skip(ph) {
			continue
		}
		incoming := ph.Edges[predIndex]
		srcPhi, ok := incoming.(*ir.Phi)
		if !ok || !phiSet[srcPhi] {
			continue
		}
		expr, ok := p.eval.Lookup(srcPhi)
		if !ok {
			continue
		}
		fresh := p.eval.Fresh()
		edge.Emit(cfgir.Assign{Dst: fresh, Expr: expr})
		scratch[srcPhi] = fresh
	}

	// Second pass: assign every phi's symbolic variable, preferring the
	// scratch snapshot over a direct lookup, and havocking if neither
	// yields an expression.
	for _, ph := range phis {
		if p.skip(ph) {
			continue
		}
		incoming := ph.Edges[predIndex]
		dst := p.eval.SymVar(ph)

		if srcPhi, ok := incoming.(*ir.Phi); ok {
			if snap, ok := scratch[srcPhi]; ok {
				edge.Emit(cfgir.Assign{Dst: dst, Expr: lexpr.Var(snap)})
				continue
			}
		}
		if expr, ok := p.eval.Lookup(incoming); ok {
			edge.Emit(cfgir.Assign{Dst: dst, Expr: expr})
			continue
		}
		edge.Emit(cfgir.Havoc{Dst: dst})
	}
}

func (p *Phis) skip(ph *ir.Phi) bool {
	if !p.eval.IsTracked(ph) {
		return true
	}
	if p.opts.DisablePointerArith && !ir.IsInteger(ph.Type()) {
		return true
	}
	return false
}
