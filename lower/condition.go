package lower

import (
	"math/big"

	"github.com/z971586668/ssacfg/cfgir"
	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/lexpr"
	"github.com/z971586668/ssacfg/symeval"
)

// Conditions lowers branch conditions: it appends assume statements to a
// CFG block equivalent to (polarity ? ¬cond : cond), restricted to the
// conjunctive fragment an If's condition can take.
type Conditions struct {
	eval *symeval.Eval
	uses *UseInfo
}

// NewConditions returns a Conditions lowering pass backed by eval and the
// per-function use index uses.
func NewConditions(eval *symeval.Eval, uses *UseInfo) *Conditions {
	return &Conditions{eval: eval, uses: uses}
}

// normalizeCmp rewrites a compare with a strict-greater or not-less
// predicate by swapping operands, so only EQ, NE, SLT, SLE, ULT, ULE
// remain.
func normalizeCmp(cmp *ir.Cmp) (x, y ir.Value, pred ir.Predicate) {
	x, y, pred = cmp.X, cmp.Y, cmp.Pred
	switch pred {
	case ir.PredSGT:
		x, y, pred = y, x, ir.PredSLT
	case ir.PredSGE:
		x, y, pred = y, x, ir.PredSLE
	case ir.PredUGT:
		x, y, pred = y, x, ir.PredULT
	case ir.PredUGE:
		x, y, pred = y, x, ir.PredULE
	}
	return x, y, pred
}

// Lower is Conditions' entry point: lower cond into target with the
// given polarity.
func (c *Conditions) Lower(target *cfgir.Node, cond ir.Value, polarity bool) {
	switch v := cond.(type) {
	case *ir.Cmp:
		c.lowerCompare(target, v, polarity)
	case *ir.BinOp:
		if c.isShortCircuitTrigger(v, polarity) {
			x, xok := v.X.(*ir.Cmp)
			y, yok := v.Y.(*ir.Cmp)
			if xok && yok {
				c.lowerCompare(target, x, polarity)
				c.lowerCompare(target, y, polarity)
				return
			}
		}
		c.conservativeFallback(target, cond, polarity)
	default:
		c.conservativeFallback(target, cond, polarity)
	}
}

// isShortCircuitTrigger reports the De Morgan trigger: AND with
// non-negated polarity, or OR with negated polarity.
func (c *Conditions) isShortCircuitTrigger(v *ir.BinOp, polarity bool) bool {
	switch v.Op {
	case ir.And:
		return !polarity
	case ir.Or:
		return polarity
	default:
		return false
	}
}

// conservativeFallback is "any other combination": if cond
// is tracked and has additional non-branch uses, pin its symbolic variable
// to the polarity's boolean value instead of attempting decomposition.
func (c *Conditions) conservativeFallback(target *cfgir.Node, cond ir.Value, polarity bool) {
	if !c.eval.IsTracked(cond) {
		return
	}
	if c.uses.NumUses(cond) < 2 {
		return
	}
	val := int64(0)
	if !polarity {
		val = 1
	}
	target.Emit(cfgir.Assign{
		Dst:  c.eval.SymVar(cond),
		Expr: lexpr.ConstantInt64(val),
	})
}

func (c *Conditions) lowerCompare(target *cfgir.Node, cmp *ir.Cmp, polarity bool) {
	x, y, pred := normalizeCmp(cmp)
	xExpr, xok := c.eval.Lookup(x)
	yExpr, yok := c.eval.Lookup(y)
	if !xok || !yok {
		c.emitCompareExtraUses(target, cmp, polarity)
		return
	}
	for _, cst := range genConstraints(xExpr, yExpr, pred, polarity) {
		target.Emit(cfgir.Assume{Constraint: cst})
	}
	c.emitCompareExtraUses(target, cmp, polarity)
}

// emitCompareExtraUses is compare-with-extra-uses rule:
// after emitting compare constraints, if the compare has >= 2 uses, also
// pin its own symbolic variable to a consistent boolean value.
func (c *Conditions) emitCompareExtraUses(target *cfgir.Node, cmp *ir.Cmp, polarity bool) {
	if c.uses.NumUses(cmp) < 2 {
		return
	}
	val := int64(0)
	if !polarity {
		val = 1
	}
	target.Emit(cfgir.Assign{
		Dst:  c.eval.SymVar(cmp),
		Expr: lexpr.ConstantInt64(val),
	})
}

// genConstraints builds the constraint set for pred/polarity over xExpr
// and yExpr. ULT/ULE deliberately fall through into the SLT/SLE logic
// after adding non-negativity constraints, regardless of polarity: an
// unsigned comparison over two non-negative operands is exactly the
// signed comparison, so the non-negativity assumptions are what make the
// fall-through sound.
func genConstraints(xExpr, yExpr lexpr.LinearExpression, pred ir.Predicate, polarity bool) []lexpr.Constraint {
	var out []lexpr.Constraint

	switch pred {
	case ir.PredULT, ir.PredULE:
		if xExpr.IsVar() {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.GEQ, lexpr.ConstantInt64(0)))
		}
		if yExpr.IsVar() {
			out = append(out, lexpr.NewConstraint(yExpr, lexpr.GEQ, lexpr.ConstantInt64(0)))
		}
		if pred == ir.PredULT {
			pred = ir.PredSLT
		} else {
			pred = ir.PredSLE
		}
	}

	switch pred {
	case ir.PredEQ:
		if !polarity {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.EQ, yExpr))
		} else {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.NEQ, yExpr))
		}
	case ir.PredNE:
		if !polarity {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.NEQ, yExpr))
		} else {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.EQ, yExpr))
		}
	case ir.PredSLT:
		if !polarity {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.LEQ, yExpr.AddConst(big.NewInt(-1))))
		} else {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.GEQ, yExpr))
		}
	case ir.PredSLE:
		if !polarity {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.LEQ, yExpr))
		} else {
			out = append(out, lexpr.NewConstraint(xExpr, lexpr.GEQ, yExpr.AddConst(big.NewInt(1))))
		}
	}
	return out
}
