// Package lexpr holds the linear-expression and linear-constraint value
// types the output CFG is built from: Σ kᵢ·vᵢ + c over arbitrary-precision
// integer coefficients, and a handful of relational constraints over them.
// These are plain value types keyed by symtab.Name; nothing here touches
// the IR or the CFG. Coefficients and constants use math/big rather than
// int64 so folding never silently overflows.
package lexpr

import (
	"fmt"
	"go/token"
	"sort"
	"strings"

	"math/big"

	"github.com/z971586668/ssacfg/symtab"
)

// LinearExpression is Σ kᵢ·vᵢ + c. A nil or empty Terms map with a non-nil
// Const is a pure constant expression; IsVar reports the special case of a
// single variable with coefficient 1 and constant 0.
type LinearExpression struct {
	Terms map[symtab.Name]*big.Int
	Const *big.Int
}

// Constant builds the constant linear expression c.
func Constant(c *big.Int) LinearExpression {
	return LinearExpression{Const: new(big.Int).Set(c)}
}

// ConstantInt64 builds the constant linear expression c, for callers that
// don't already hold a *big.Int.
func ConstantInt64(c int64) LinearExpression {
	return LinearExpression{Const: big.NewInt(c)}
}

// Var builds the single-variable linear expression 1·v + 0.
func Var(v symtab.Name) LinearExpression {
	return LinearExpression{
		Terms: map[symtab.Name]*big.Int{v: big.NewInt(1)},
		Const: big.NewInt(0),
	}
}

func (e LinearExpression) constOrZero() *big.Int {
	if e.Const == nil {
		return new(big.Int)
	}
	return e.Const
}

// IsConstant reports whether e has no variable terms.
func (e LinearExpression) IsConstant() bool {
	for _, k := range e.Terms {
		if k.Sign() != 0 {
			return false
		}
	}
	return true
}

// IsVar reports whether e is exactly one variable with coefficient 1 and
// constant 0.
func (e LinearExpression) IsVar() bool {
	if e.constOrZero().Sign() != 0 {
		return false
	}
	var nonzero int
	for _, k := range e.Terms {
		if k.Sign() != 0 {
			nonzero++
		}
	}
	if nonzero != 1 {
		return false
	}
	for _, k := range e.Terms {
		if k.Sign() != 0 {
			return k.Cmp(big.NewInt(1)) == 0
		}
	}
	return false
}

// Add returns e + f.
func (e LinearExpression) Add(f LinearExpression) LinearExpression {
	terms := make(map[symtab.Name]*big.Int, len(e.Terms)+len(f.Terms))
	for v, k := range e.Terms {
		terms[v] = new(big.Int).Set(k)
	}
	for v, k := range f.Terms {
		if cur, ok := terms[v]; ok {
			terms[v] = new(big.Int).Add(cur, k)
		} else {
			terms[v] = new(big.Int).Set(k)
		}
	}
	return LinearExpression{Terms: terms, Const: new(big.Int).Add(e.constOrZero(), f.constOrZero())}
}

// Sub returns e - f.
func (e LinearExpression) Sub(f LinearExpression) LinearExpression {
	return e.Add(f.Scale(big.NewInt(-1)))
}

// Scale returns k*e.
func (e LinearExpression) Scale(k *big.Int) LinearExpression {
	terms := make(map[symtab.Name]*big.Int, len(e.Terms))
	for v, c := range e.Terms {
		terms[v] = new(big.Int).Mul(c, k)
	}
	return LinearExpression{Terms: terms, Const: new(big.Int).Mul(e.constOrZero(), k)}
}

// AddConst returns e + c.
func (e LinearExpression) AddConst(c *big.Int) LinearExpression {
	return e.Add(Constant(c))
}

// String renders e deterministically, sorting variable terms by Name order
// so that printouts are byte-identical across runs — golden-file
// comparisons depend on this, not just the statement stream's own
// ordering.
func (e LinearExpression) String() string {
	type term struct {
		v symtab.Name
		k *big.Int
	}
	terms := make([]term, 0, len(e.Terms))
	for v, k := range e.Terms {
		if k.Sign() != 0 {
			terms = append(terms, term{v, k})
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].v.Less(terms[j].v) })

	var b strings.Builder
	for i, t := range terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		if t.k.Cmp(big.NewInt(1)) == 0 {
			b.WriteString(t.v.String())
		} else {
			fmt.Fprintf(&b, "%s*%s", t.k.String(), t.v.String())
		}
	}
	if c := e.constOrZero(); c.Sign() != 0 || b.Len() == 0 {
		if b.Len() > 0 {
			if c.Sign() > 0 {
				b.WriteString(" + ")
			} else {
				b.WriteString(" - ")
				c = new(big.Int).Neg(c)
			}
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// Rel is a relational operator over a LinearExpression, reusing go/token's
// comparison-operator tokens to flip and negate bounds instead of
// declaring its own enum.
type Rel token.Token

const (
	EQ  = Rel(token.EQL)
	NEQ = Rel(token.NEQ)
	LEQ = Rel(token.LEQ)
	GEQ = Rel(token.GEQ)
	LSS = Rel(token.LSS)
	GTR = Rel(token.GTR)
)

func (r Rel) String() string { return token.Token(r).String() }

// negated maps each Rel to its logical negation.
var negated = map[Rel]Rel{
	EQ:  NEQ,
	NEQ: EQ,
	LEQ: GTR,
	GEQ: LSS,
	LSS: GEQ,
	GTR: LEQ,
}

// Constraint is `Expr ⊙ 0`.
type Constraint struct {
	Expr LinearExpression
	Op   Rel
}

// NewConstraint builds the constraint lhs ⊙ rhs, normalized to the
// `Expr ⊙ 0` representation by moving rhs to the left.
func NewConstraint(lhs LinearExpression, op Rel, rhs LinearExpression) Constraint {
	return Constraint{Expr: lhs.Sub(rhs), Op: op}
}

// Negate returns the logical negation of c.
func (c Constraint) Negate() Constraint {
	return Constraint{Expr: c.Expr, Op: negated[c.Op]}
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s 0", c.Expr.String(), c.Op.String())
}
