package cfgir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z971586668/ssacfg/internal/diff/myers"
)

// assertNoDiff compares want and got line by line, failing with a
// unified-diff-style message (built from myers.ComputeEdits) on the first
// mismatch instead of testify's single-line string dump.
func assertNoDiff(t *testing.T, want, got string) {
	t.Helper()
	for _, op := range myers.ComputeEdits(want, got) {
		if op.Kind != myers.Equal {
			t.Fatalf("unexpected %s:\n%s", op.Kind, op.String())
		}
	}
}

func TestNewNodeUniquifiesCollidingLabels(t *testing.T) {
	g := NewGraph("f")
	a := g.NewNode("bb")
	b := g.NewNode("bb")
	c := g.NewNode("bb")

	assert.Equal(t, "bb", a.Label)
	assert.Equal(t, "bb.1", b.Label)
	assert.Equal(t, "bb.2", c.Label)
}

func TestAddEdgeAndRemoveEdge(t *testing.T) {
	g := NewGraph("f")
	a := g.NewNode("a")
	b := g.NewNode("b")

	g.AddEdge(a, b)
	require.Equal(t, []*Node{b}, a.Succs)
	require.Equal(t, []*Node{a}, b.Preds())

	g.RemoveEdge(a, b)
	assert.Empty(t, a.Succs)
	assert.Empty(t, b.Preds())
}

func TestNodeNamed(t *testing.T) {
	g := NewGraph("f")
	n := g.NewNode("entry")
	assert.Same(t, n, g.NodeNamed("entry"))
	assert.Nil(t, g.NodeNamed("missing"))
}

func TestSimplifyRemovesEmptyPassThroughNode(t *testing.T) {
	g := NewGraph("f")
	entry := g.NewNode("entry")
	middle := g.NewNode("middle")
	exit := g.NewNode("exit")

	g.AddEdge(entry, middle)
	g.AddEdge(middle, exit)
	g.Entry = entry
	g.Exit = exit

	g.Simplify()

	assert.Equal(t, []*Node{exit}, entry.Succs)
	assert.Nil(t, g.NodeNamed("middle"))
}

func TestSimplifyKeepsNodeWithStatements(t *testing.T) {
	g := NewGraph("f")
	entry := g.NewNode("entry")
	middle := g.NewNode("middle")
	exit := g.NewNode("exit")
	middle.Emit(Unreachable{})

	g.AddEdge(entry, middle)
	g.AddEdge(middle, exit)
	g.Entry = entry
	g.Exit = exit

	g.Simplify()

	assert.NotNil(t, g.NodeNamed("middle"))
}

func TestSimplifyNeverRemovesEntryOrExit(t *testing.T) {
	g := NewGraph("f")
	only := g.NewNode("only")
	g.Entry = only
	g.Exit = only

	g.Simplify()

	assert.NotNil(t, g.NodeNamed("only"))
}

func TestGraphStringIncludesDecl(t *testing.T) {
	g := NewGraph("f")
	g.Decl = &FuncDecl{Name: "f"}
	n := g.NewNode("entry")
	n.Emit(Unreachable{})

	out := g.String()
	assert.Contains(t, out, "declare f()")
	assert.Contains(t, out, "entry:")
	assert.Contains(t, out, "unreachable")
}

func TestGraphStringExactRenderingMatchesGolden(t *testing.T) {
	g := NewGraph("f")
	g.Decl = &FuncDecl{Name: "f"}
	entry := g.NewNode("entry")
	entry.Emit(Unreachable{})

	want := "declare f()\nentry:\n  unreachable\n"
	assertNoDiff(t, want, g.String())
}

func TestFuncDeclStringOrdersParams(t *testing.T) {
	d := &FuncDecl{
		Name: "helper",
		Params: []Param{
			{Kind: ParamScalar},
			{Kind: ParamRefIn},
		},
	}
	assert.Contains(t, d.String(), "declare helper(")
}
