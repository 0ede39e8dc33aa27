package cfgir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/lexpr"
	"github.com/z971586668/ssacfg/symtab"
)

func freshName(f *symtab.Factory) symtab.Name { return f.Fresh() }

func TestAssignString(t *testing.T) {
	f := symtab.NewFactory()
	dst := freshName(f)
	s := Assign{Dst: dst, Expr: lexpr.ConstantInt64(5)}
	assert.Equal(t, dst.String()+" := 5", s.String())
}

func TestArithString(t *testing.T) {
	f := symtab.NewFactory()
	dst := freshName(f)
	s := Arith{Dst: dst, Op: ir.Add, X: lexpr.ConstantInt64(1), Y: lexpr.ConstantInt64(2)}
	assert.Equal(t, dst.String()+" := add(1, 2)", s.String())
}

func TestHavocString(t *testing.T) {
	f := symtab.NewFactory()
	dst := freshName(f)
	assert.Equal(t, "havoc("+dst.String()+")", Havoc{Dst: dst}.String())
}

func TestAssumeString(t *testing.T) {
	c := lexpr.NewConstraint(lexpr.ConstantInt64(1), lexpr.EQ, lexpr.ConstantInt64(1))
	assert.Equal(t, "assume(0 == 0)", Assume{Constraint: c}.String())
}

func TestSelectStringVariants(t *testing.T) {
	f := symtab.NewFactory()
	dst := freshName(f)
	v := freshName(f)

	byVar := Select{Dst: dst, Cond: SelectCond{Var: &v}, X: lexpr.ConstantInt64(1), Y: lexpr.ConstantInt64(2)}
	assert.Contains(t, byVar.String(), "select(")

	c := lexpr.NewConstraint(lexpr.ConstantInt64(0), lexpr.EQ, lexpr.ConstantInt64(0))
	byConstraint := Select{Dst: dst, Cond: SelectCond{Constraint: &c}, X: lexpr.ConstantInt64(1), Y: lexpr.ConstantInt64(2)}
	assert.Contains(t, byConstraint.String(), "0 == 0")

	unknown := Select{Dst: dst, X: lexpr.ConstantInt64(1), Y: lexpr.ConstantInt64(2)}
	assert.Contains(t, unknown.String(), "?")
}

func TestArrayLoadStoreString(t *testing.T) {
	f := symtab.NewFactory()
	dst := freshName(f)
	arr := freshName(f)

	load := ArrayLoad{Dst: dst, Array: arr, Index: lexpr.ConstantInt64(0), ElemSize: 4}
	assert.Equal(t, dst.String()+" := array_load("+arr.String()+", 0)", load.String())

	store := ArrayStore{Array: arr, Index: lexpr.ConstantInt64(0), Val: lexpr.ConstantInt64(9), ElemSize: 4}
	assert.Equal(t, "array_store("+arr.String()+", 0, 9)", store.String())
}

func TestAssumeArrayAndArrayInitString(t *testing.T) {
	f := symtab.NewFactory()
	arr := freshName(f)

	aa := AssumeArray{Array: arr, Value: big.NewInt(0)}
	assert.Equal(t, "assume_array("+arr.String()+", 0)", aa.String())

	init := ArrayInit{Array: arr, Values: []*big.Int{big.NewInt(1), big.NewInt(2)}}
	assert.Equal(t, "array_init("+arr.String()+", [1, 2])", init.String())
}

func TestCallsiteStringWithAndWithoutResult(t *testing.T) {
	f := symtab.NewFactory()
	dst := freshName(f)
	scalar := lexpr.ConstantInt64(1)

	withResult := Callsite{Dst: &dst, Callee: "f", Args: []CallActual{{Scalar: &scalar}}}
	assert.Equal(t, dst.String()+" := call f(1)", withResult.String())

	noResult := Callsite{Callee: "g"}
	assert.Equal(t, "call g()", noResult.String())
}

func TestReturnString(t *testing.T) {
	assert.Equal(t, "return", Return{}.String())

	v := lexpr.ConstantInt64(3)
	assert.Equal(t, "return 3", Return{Val: &v}.String())
}

func TestUnreachableString(t *testing.T) {
	assert.Equal(t, "unreachable", Unreachable{}.String())
}
