package cfgir

import (
	"sort"
	"strings"

	"github.com/z971586668/ssacfg/symtab"
)

// Node is one basic block of the output CFG: a unique label, an ordered
// statement list appended once during translation, and an explicit
// successor set. Synthetic edge blocks and the unified-exit block are Nodes
// like any other; their labels are owned by the Graph that created them.
type Node struct {
	Label string
	Stmts []Stmt
	Succs []*Node

	preds []*Node
}

// Emit appends stmt to n.
func (n *Node) Emit(stmt Stmt) { n.Stmts = append(n.Stmts, stmt) }

// Preds returns n's predecessor nodes.
func (n *Node) Preds() []*Node { return n.preds }

func (n *Node) String() string {
	var b strings.Builder
	b.WriteString(n.Label)
	b.WriteString(":\n")
	for _, s := range n.Stmts {
		b.WriteString("  ")
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	return b.String()
}

// ParamKind distinguishes the four shapes a FuncDecl's formal can take, in
// declared order: scalar actuals, then ref-in, then ref-out, then new
// arrays.
type ParamKind int

const (
	ParamScalar ParamKind = iota
	ParamRefIn
	ParamRefOut
	ParamNew
)

// Param is one formal of a FuncDecl.
type Param struct {
	Name symtab.Name
	Kind ParamKind
}

// FuncDecl is the inter-procedural function declaration the builder emits:
// the scalar formals followed by the ref-in / ref-out / new arrays.
type FuncDecl struct {
	Name         string
	Params       []Param
	ReturnsValue bool
}

func (d *FuncDecl) String() string {
	var b strings.Builder
	b.WriteString("declare ")
	b.WriteString(d.Name)
	b.WriteString("(")
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name.String())
	}
	b.WriteString(")")
	return b.String()
}

// Graph is the CFG for a single function: the builder's output. The
// Graph owns every Node it creates; NewNode is the only way to add one.
type Graph struct {
	Function string
	Decl     *FuncDecl // nil in intra-procedural mode, or for a declaration-only input function

	Nodes []*Node
	Entry *Node
	Exit  *Node // nil when the function has no return

	labels map[string]int
}

// NewGraph returns an empty Graph for the named function.
func NewGraph(function string) *Graph {
	return &Graph{Function: function, labels: make(map[string]int)}
}

// NewNode creates and registers a new Node. If label collides with an
// existing one (e.g. a synthetic edge-block name derived from an IR block
// that already carries that name), a numeric suffix is appended so that
// every label stays unique within the function.
func (g *Graph) NewNode(label string) *Node {
	n := &Node{Label: g.uniqueLabel(label)}
	g.Nodes = append(g.Nodes, n)
	return n
}

func (g *Graph) uniqueLabel(label string) string {
	if _, used := g.labels[label]; !used {
		g.labels[label] = 0
		return label
	}
	for {
		g.labels[label]++
		candidate := label + "." + itoa(g.labels[label])
		if _, used := g.labels[candidate]; !used {
			g.labels[candidate] = 0
			return candidate
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// AddEdge records a directed edge from -> to.
func (g *Graph) AddEdge(from, to *Node) {
	from.Succs = append(from.Succs, to)
	to.preds = append(to.preds, from)
}

// RemoveEdge removes a single from->to edge, if present.
func (g *Graph) RemoveEdge(from, to *Node) {
	from.Succs = removeOne(from.Succs, to)
	to.preds = removeOne(to.preds, from)
}

func removeOne(nodes []*Node, target *Node) []*Node {
	for i, n := range nodes {
		if n == target {
			return append(nodes[:i:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// String renders the whole Graph in declared node order, for golden-file
// comparisons and --print-cfg output. Determinism is not this method's job
// to enforce beyond preserving that order: callers must not reorder
// g.Nodes after construction.
func (g *Graph) String() string {
	var b strings.Builder
	if g.Decl != nil {
		b.WriteString(g.Decl.String())
		b.WriteString("\n")
	}
	for _, n := range g.Nodes {
		b.WriteString(n.String())
	}
	return b.String()
}

// Simplify applies the CFG's own post-translation simplification
// (config.Options.SimplifyCFG): it removes empty pass-through nodes — a
// non-entry, non-exit node with no statements and exactly one successor —
// by splicing its predecessors directly onto that successor. This can
// never fire on a synthetic edge block carrying branch constraints,
// because those always have at least one assume statement.
func (g *Graph) Simplify() {
	changed := true
	for changed {
		changed = false
		for i := 0; i < len(g.Nodes); i++ {
			n := g.Nodes[i]
			if n == g.Entry || n == g.Exit {
				continue
			}
			if len(n.Stmts) != 0 || len(n.Succs) != 1 {
				continue
			}
			succ := n.Succs[0]
			if succ == n {
				continue
			}
			for _, p := range append([]*Node(nil), n.preds...) {
				g.RemoveEdge(p, n)
				g.AddEdge(p, succ)
			}
			g.Nodes = append(g.Nodes[:i:i], g.Nodes[i+1:]...)
			changed = true
			break
		}
	}
}

// NodeNamed returns the Node with the given label, or nil.
func (g *Graph) NodeNamed(label string) *Node {
	for _, n := range g.Nodes {
		if n.Label == label {
			return n
		}
	}
	return nil
}

// SortedNames is a small helper used by callers (e.g. the callsite
// mod-set havocking step) that need a stable iteration order over a set of
// symtab.Name keys when constructing diagnostic output.
func SortedNames(names []symtab.Name) []symtab.Name {
	out := append([]symtab.Name(nil), names...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
