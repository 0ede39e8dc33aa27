// Package fixture loads a JSON-encoded test module into the ir data model,
// for driving cmd/cfgtranslate and package tests without a real frontend.
// Parsing the source IR is explicitly out of this translator's scope; this
// loader exists only to manufacture ir.Module values from fixture files, not
// to read any particular compiler's on-disk format.
package fixture

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/memory"
	"github.com/z971586668/ssacfg/memory/inmem"
)

// Module is the top-level JSON document.
type Module struct {
	PointerBits int          `json:"pointer_bits"`
	Globals     []Global     `json:"globals"`
	Functions   []Function   `json:"functions"`
	Oracle      *OracleSpec  `json:"oracle"`
}

// OracleSpec is the JSON encoding of an inmem.Oracle, scoped to the module
// it travels with: function and value references are resolved against the
// module being decoded in the same call.
type OracleSpec struct {
	TrackLevel         string              `json:"track_level"` // "none", "registers", "arrays"
	ArrayIDs           []ArrayIDSpec       `json:"array_ids"`
	Singletons         []SingletonSpec     `json:"singletons"`
	CallRefModNew      []CallRefModNewSpec `json:"call_ref_mod_new"`
	FunctionRefModNew  []FuncRefModNewSpec `json:"function_ref_mod_new"`
}

type ArrayIDSpec struct {
	Function string `json:"function"` // empty for a global-scoped id
	Global   string `json:"global"`
	Value    string `json:"value"`
	ID       int    `json:"id"`
}

type SingletonSpec struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

type CallRefModNewSpec struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	RefModNewSpec
}

type FuncRefModNewSpec struct {
	Function string `json:"function"`
	RefModNewSpec
}

type RefModNewSpec struct {
	Refs []int `json:"refs"`
	Mods []int `json:"mods"`
	News []int `json:"news"`
}

func (r RefModNewSpec) resolve() memory.RefModNew {
	toIDs := func(ints []int) []memory.ArrayID {
		ids := make([]memory.ArrayID, len(ints))
		for i, n := range ints {
			ids[i] = memory.ArrayID(n)
		}
		return ids
	}
	return memory.RefModNew{Refs: toIDs(r.Refs), Mods: toIDs(r.Mods), News: toIDs(r.News)}
}

type Global struct {
	Name string   `json:"name"`
	Type TypeSpec `json:"type"`
	Init *Init    `json:"init"`
}

type Init struct {
	Kind   string   `json:"kind"` // "zero", "data", "const"
	Value  string   `json:"value"`
	Values []string `json:"values"`
}

type Function struct {
	Name       string    `json:"name"`
	Variadic   bool      `json:"variadic"`
	Params     []Param   `json:"params"`
	ReturnType *TypeSpec `json:"return_type"`
	Blocks     []Block   `json:"blocks"`
}

type Param struct {
	Name string   `json:"name"`
	Type TypeSpec `json:"type"`
}

type Block struct {
	Name   string  `json:"name"`
	Instrs []Instr `json:"instrs"`
}

// Instr is a loosely typed instruction record; Op selects which of the
// remaining fields apply. Operand strings are resolved in a second pass,
// once every value in the function has a registered name, so backward and
// forward references (loop-carried phis) both work.
type Instr struct {
	Name string   `json:"name"`
	Op   string   `json:"op"`
	Type TypeSpec `json:"type"`

	X        string         `json:"x"`
	Y        string         `json:"y"`
	Cond     string         `json:"cond"`
	Addr     string         `json:"addr"`
	Val      string         `json:"val"`
	Base     string         `json:"base"`
	Pred     string         `json:"pred"`
	CastKind string         `json:"cast"`
	Edges    []string       `json:"edges"` // parallel to the owning block's Preds, in order
	Indices  []GepIndexSpec `json:"indices"`
	Callee   *CalleeSpec    `json:"callee"`
	Args     []string       `json:"args"`
	Variadic bool           `json:"variadic"`
	Target   string         `json:"target"`
	True     string         `json:"true"`
	False    string         `json:"false"`
}

type GepIndexSpec struct {
	Kind     string   `json:"kind"` // "field" or "elem"
	Field    int      `json:"field"`
	Elem     string   `json:"elem"`
	ElemType TypeSpec `json:"elem_type"`
}

type CalleeSpec struct {
	Fn       string `json:"fn"`
	Extern   string `json:"extern"`
	Indirect string `json:"indirect"`
}

// TypeSpec is the JSON encoding of an ir.Type.
type TypeSpec struct {
	Kind   string      `json:"kind"`
	Bits   int         `json:"bits"`
	Elem   *TypeSpec   `json:"elem"`
	Len    int64       `json:"len"`
	Fields []FieldSpec `json:"fields"`
	Name   string      `json:"name"`
}

type FieldSpec struct {
	Name string   `json:"name"`
	Type TypeSpec `json:"type"`
}

func (t TypeSpec) resolve() ir.Type {
	switch t.Kind {
	case "int":
		return &ir.IntType{Bits: t.Bits}
	case "float":
		return &ir.FloatType{Bits: t.Bits}
	case "ptr":
		return &ir.PointerType{Elem: t.Elem.resolve()}
	case "array":
		return &ir.ArrayType{Elem: t.Elem.resolve(), Len: t.Len}
	case "struct":
		fields := make([]ir.StructField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = ir.StructField{Name: f.Name, Type: f.Type.resolve()}
		}
		return &ir.StructType{Fields: fields}
	case "void":
		return &ir.OpaqueType{Name: "void"}
	default:
		return &ir.OpaqueType{Name: t.Name}
	}
}

// Load reads and decodes the module fixture at path, discarding any
// embedded oracle spec. Use LoadWithOracle to get both.
func Load(path string) (*ir.Module, error) {
	mod, _, err := LoadWithOracle(path)
	return mod, err
}

// Decode parses a JSON module document into an ir.Module, discarding any
// embedded oracle spec.
func Decode(data []byte) (*ir.Module, error) {
	mod, _, err := DecodeWithOracle(data)
	return mod, err
}

// LoadWithOracle reads and decodes path into both the module and the
// memory.Oracle described by its embedded "oracle" section. oracle is nil
// if the fixture carries none.
func LoadWithOracle(path string) (*ir.Module, memory.Oracle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return DecodeWithOracle(data)
}

// DecodeWithOracle is LoadWithOracle over an already-read document.
func DecodeWithOracle(data []byte) (*ir.Module, memory.Oracle, error) {
	var doc Module
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("fixture: %w", err)
	}
	b := newBuilder(&doc)
	mod, err := b.build()
	if err != nil {
		return nil, nil, err
	}
	if doc.Oracle == nil {
		return mod, nil, nil
	}
	oracle, err := b.buildOracle(doc.Oracle)
	if err != nil {
		return nil, nil, fmt.Errorf("oracle: %w", err)
	}
	return mod, oracle, nil
}

type builder struct {
	doc     *Module
	globals map[string]*ir.Global
	funcs   map[string]*ir.Function

	// per-function, reset by buildFunction; retained afterward so the
	// embedded oracle spec can resolve "%name" references by function.
	values         map[string]ir.Value
	valuesByFunc   map[string]map[string]ir.Value
}

func newBuilder(doc *Module) *builder {
	return &builder{
		doc:          doc,
		globals:      map[string]*ir.Global{},
		funcs:        map[string]*ir.Function{},
		valuesByFunc: map[string]map[string]ir.Value{},
	}
}

func (b *builder) build() (*ir.Module, error) {
	mod := &ir.Module{Layout: ir.DataLayout{PointerBits: b.doc.PointerBits}}

	for _, g := range b.doc.Globals {
		elemType := g.Type.resolve()
		var init ir.Constant
		if g.Init != nil {
			var err error
			init, err = resolveInit(*g.Init, elemType)
			if err != nil {
				return nil, fmt.Errorf("global %s: %w", g.Name, err)
			}
		}
		gv := ir.NewGlobal(g.Name, elemType, init)
		b.globals[g.Name] = gv
		mod.Globals = append(mod.Globals, gv)
	}

	// Functions are pre-registered by name first so a Call's Callee can
	// resolve a forward reference to a function defined later in Functions.
	for _, fnSpec := range b.doc.Functions {
		b.funcs[fnSpec.Name] = &ir.Function{Nam: fnSpec.Name, Variadic: fnSpec.Variadic}
	}
	for _, fnSpec := range b.doc.Functions {
		f := b.funcs[fnSpec.Name]
		if err := b.buildFunction(f, fnSpec); err != nil {
			return nil, fmt.Errorf("function %s: %w", fnSpec.Name, err)
		}
		mod.Functions = append(mod.Functions, f)
	}

	return mod, nil
}

func resolveInit(in Init, elemType ir.Type) (ir.Constant, error) {
	switch in.Kind {
	case "zero":
		return ir.NewZeroAggregate(elemType), nil
	case "data":
		vals := make([]*big.Int, len(in.Values))
		for i, s := range in.Values {
			n, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, fmt.Errorf("bad data value %q", s)
			}
			vals[i] = n
		}
		return ir.NewDataSequence(elemType, vals), nil
	case "const":
		n, ok := new(big.Int).SetString(in.Value, 10)
		if !ok {
			return nil, fmt.Errorf("bad const value %q", in.Value)
		}
		return ir.NewIntConst(elemType, n), nil
	default:
		return nil, fmt.Errorf("unknown init kind %q", in.Kind)
	}
}

func (b *builder) buildFunction(f *ir.Function, spec Function) error {
	if spec.ReturnType != nil {
		f.ReturnType = spec.ReturnType.resolve()
	}

	b.values = map[string]ir.Value{}
	b.valuesByFunc[spec.Name] = b.values
	for _, p := range spec.Params {
		param := ir.NewParameter(p.Name, p.Type.resolve())
		f.Params = append(f.Params, param)
		b.values[p.Name] = param
	}
	if len(spec.Blocks) == 0 {
		return nil // declaration only
	}

	blockByName := map[string]*ir.BasicBlock{}
	for _, bs := range spec.Blocks {
		blockByName[bs.Name] = f.AddBlock(bs.Name)
	}

	// Pass 1: create every instruction with its result registered, leaving
	// value operand fields for pass 2 so later-defined values can be
	// referenced (loop-carried phis, forward calls). Terminators' block
	// targets are resolved here instead, since blockByName is complete.
	type pending struct {
		instr ir.Instruction
		spec  Instr
	}
	var work []pending

	for _, bs := range spec.Blocks {
		blk := blockByName[bs.Name]
		for _, is := range bs.Instrs {
			instr, err := b.allocate(is, blockByName)
			if err != nil {
				return fmt.Errorf("block %s: %w", bs.Name, err)
			}
			blk.AddInstr(instr)
			if v, ok := instr.(ir.Value); ok && is.Name != "" {
				b.values[is.Name] = v
			}
			work = append(work, pending{instr: instr, spec: is})
		}
	}

	for _, bs := range spec.Blocks {
		blk := blockByName[bs.Name]
		for _, is := range bs.Instrs {
			switch is.Op {
			case "jmp":
				ir.AddEdge(blk, blockByName[is.Target])
			case "br":
				ir.AddEdge(blk, blockByName[is.True])
				ir.AddEdge(blk, blockByName[is.False])
			}
		}
	}

	for _, p := range work {
		if err := b.resolveOperands(p.instr, p.spec); err != nil {
			return fmt.Errorf("instr %s: %w", p.spec.Op, err)
		}
	}

	return nil
}

// allocate builds the zero-value-operand shell for one instruction: its
// result name and type (if any), and for terminators, their already
// resolvable block targets.
func (b *builder) allocate(is Instr, blockByName map[string]*ir.BasicBlock) (ir.Instruction, error) {
	t := is.Type.resolve()
	switch is.Op {
	case "add", "sub", "mul", "sdiv", "udiv", "srem", "urem", "shl", "ashr", "lshr", "and", "or", "xor":
		op, err := binOpCode(is.Op)
		if err != nil {
			return nil, err
		}
		return ir.NewBinOp(is.Name, t, op), nil
	case "icmp":
		pred, err := predicateOf(is.Pred)
		if err != nil {
			return nil, err
		}
		return ir.NewCmp(is.Name, t, pred), nil
	case "phi":
		return ir.NewPhi(is.Name, t, len(is.Edges)), nil
	case "cast":
		kind, err := castKindOf(is.CastKind)
		if err != nil {
			return nil, err
		}
		return ir.NewConvert(is.Name, t, kind), nil
	case "alloca":
		return ir.NewAlloc(is.Name, t), nil
	case "load":
		return ir.NewLoad(is.Name, t), nil
	case "store":
		return ir.NewStore(), nil
	case "gep":
		return ir.NewGep(is.Name, t, len(is.Indices)), nil
	case "select":
		return ir.NewSelect(is.Name, t), nil
	case "call":
		return ir.NewCall(is.Name, t, is.Variadic, len(is.Args)), nil
	case "jmp":
		return ir.NewJump(blockByName[is.Target]), nil
	case "br":
		return ir.NewIf(nil, blockByName[is.True], blockByName[is.False]), nil
	case "ret":
		return ir.NewReturn(nil), nil
	case "unreachable":
		return ir.NewUnreachable(), nil
	default:
		return nil, fmt.Errorf("unknown opcode %q", is.Op)
	}
}

func (b *builder) resolveOperands(instr ir.Instruction, is Instr) error {
	operand := func(s string) (ir.Value, error) { return b.resolveValue(s, is.Type.resolve()) }

	switch v := instr.(type) {
	case *ir.BinOp:
		x, err := operand(is.X)
		if err != nil {
			return err
		}
		y, err := operand(is.Y)
		if err != nil {
			return err
		}
		v.X, v.Y = x, y
	case *ir.Cmp:
		x, err := b.resolveValue(is.X, nil)
		if err != nil {
			return err
		}
		y, err := b.resolveValue(is.Y, x.Type())
		if err != nil {
			return err
		}
		v.X, v.Y = x, y
	case *ir.Phi:
		for i, e := range is.Edges {
			val, err := operand(e)
			if err != nil {
				return err
			}
			v.Edges[i] = val
		}
	case *ir.Convert:
		x, err := b.resolveValue(is.X, nil)
		if err != nil {
			return err
		}
		v.X = x
	case *ir.Load:
		addr, err := b.resolveValue(is.Addr, nil)
		if err != nil {
			return err
		}
		v.Addr = addr
	case *ir.Store:
		addr, err := b.resolveValue(is.Addr, nil)
		if err != nil {
			return err
		}
		val, err := b.resolveValue(is.Val, nil)
		if err != nil {
			return err
		}
		v.Addr, v.Val = addr, val
	case *ir.Gep:
		base, err := b.resolveValue(is.Base, nil)
		if err != nil {
			return err
		}
		v.Base = base
		for i, gi := range is.Indices {
			switch gi.Kind {
			case "field":
				v.Indices[i] = ir.GepIndex{Kind: ir.GepField, Field: gi.Field, ElemType: gi.ElemType.resolve()}
			case "elem":
				elemType := gi.ElemType.resolve()
				elem, err := b.resolveValue(gi.Elem, &ir.IntType{Bits: 64})
				if err != nil {
					return err
				}
				v.Indices[i] = ir.GepIndex{Kind: ir.GepElement, Elem: elem, ElemType: elemType}
			default:
				return fmt.Errorf("unknown gep index kind %q", gi.Kind)
			}
		}
	case *ir.Select:
		cond, err := b.resolveValue(is.Cond, &ir.IntType{Bits: 1})
		if err != nil {
			return err
		}
		x, err := operand(is.X)
		if err != nil {
			return err
		}
		y, err := operand(is.Y)
		if err != nil {
			return err
		}
		v.Cond, v.X, v.Y = cond, x, y
	case *ir.Call:
		callee, err := b.resolveCallee(is.Callee)
		if err != nil {
			return err
		}
		v.Callee = callee
		for i, a := range is.Args {
			val, err := b.resolveValue(a, nil)
			if err != nil {
				return err
			}
			v.Args[i] = val
		}
	case *ir.If:
		cond, err := b.resolveValue(is.Cond, &ir.IntType{Bits: 1})
		if err != nil {
			return err
		}
		v.Cond = cond
	case *ir.Return:
		if is.Val != "" {
			val, err := b.resolveValue(is.Val, nil)
			if err != nil {
				return err
			}
			v.Val = val
		}
	case *ir.Jump, *ir.Unreachable, *ir.Alloc:
		// no value operands to resolve
	}
	return nil
}

// resolveValue resolves a JSON operand string. "%name" and bare names look
// up a previously registered local value or parameter; "@name" looks up a
// global; anything else is parsed as an integer constant of fallbackType
// ("undef" produces the undef sentinel).
func (b *builder) resolveValue(s string, fallbackType ir.Type) (ir.Value, error) {
	if s == "" {
		return nil, fmt.Errorf("missing operand")
	}
	if s[0] == '@' {
		g, ok := b.globals[s[1:]]
		if !ok {
			return nil, fmt.Errorf("unknown global %q", s)
		}
		return g, nil
	}
	name := s
	if s[0] == '%' {
		name = s[1:]
	}
	if v, ok := b.values[name]; ok {
		return v, nil
	}
	if s == "undef" {
		return ir.NewUndef(fallbackType), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("unresolved operand %q", s)
	}
	return ir.NewIntConst(fallbackType, n), nil
}

// buildOracle constructs the inmem.Oracle the embedded "oracle" section of
// a fixture describes, resolving its function/value/global references
// against the module just built.
func (b *builder) buildOracle(spec *OracleSpec) (*inmem.Oracle, error) {
	level, err := trackLevelOf(spec.TrackLevel)
	if err != nil {
		return nil, err
	}
	ob := inmem.NewBuilder(level)

	resolveIn := func(fnName, name string) (ir.Value, error) {
		if name == "" {
			return nil, fmt.Errorf("missing value reference")
		}
		if name[0] == '@' {
			g, ok := b.globals[name[1:]]
			if !ok {
				return nil, fmt.Errorf("unknown global %q", name)
			}
			return g, nil
		}
		key := name
		if name[0] == '%' {
			key = name[1:]
		}
		values, ok := b.valuesByFunc[fnName]
		if !ok {
			return nil, fmt.Errorf("unknown function %q", fnName)
		}
		v, ok := values[key]
		if !ok {
			return nil, fmt.Errorf("unknown value %q in function %q", name, fnName)
		}
		return v, nil
	}

	for _, a := range spec.ArrayIDs {
		switch {
		case a.Global != "":
			g, ok := b.globals[a.Global]
			if !ok {
				return nil, fmt.Errorf("unknown global %q", a.Global)
			}
			ob.SetGlobalArrayID(g, memory.ArrayID(a.ID))
		case a.Function != "":
			fn, ok := b.funcs[a.Function]
			if !ok {
				return nil, fmt.Errorf("unknown function %q", a.Function)
			}
			v, err := resolveIn(a.Function, a.Value)
			if err != nil {
				return nil, err
			}
			ob.SetArrayID(fn, v, memory.ArrayID(a.ID))
		default:
			return nil, fmt.Errorf("array id entry needs a function or a global")
		}
	}

	for _, s := range spec.Singletons {
		// A singleton's value is module-global in scope (it is keyed only
		// by array id), so it is looked up across every function's table.
		var v ir.Value
		var found bool
		for fnName := range b.valuesByFunc {
			if val, err := resolveIn(fnName, s.Value); err == nil {
				v, found = val, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown singleton value %q", s.Value)
		}
		ob.SetSingleton(memory.ArrayID(s.ID), v)
	}

	for _, c := range spec.CallRefModNew {
		caller, ok := b.funcs[c.Caller]
		if !ok {
			return nil, fmt.Errorf("unknown caller %q", c.Caller)
		}
		callee, ok := b.funcs[c.Callee]
		if !ok {
			return nil, fmt.Errorf("unknown callee %q", c.Callee)
		}
		ob.SetCallRefModNew(caller, callee, c.RefModNewSpec.resolve())
	}

	for _, fr := range spec.FunctionRefModNew {
		fn, ok := b.funcs[fr.Function]
		if !ok {
			return nil, fmt.Errorf("unknown function %q", fr.Function)
		}
		ob.SetFunctionRefModNew(fn, fr.RefModNewSpec.resolve())
	}

	return ob.Build(), nil
}

func trackLevelOf(s string) (memory.TrackLevel, error) {
	switch s {
	case "", "none":
		return memory.None, nil
	case "registers":
		return memory.Registers, nil
	case "arrays":
		return memory.Arrays, nil
	default:
		return 0, fmt.Errorf("unknown track level %q", s)
	}
}

func (b *builder) resolveCallee(spec *CalleeSpec) (ir.Callee, error) {
	if spec == nil {
		return ir.Callee{}, fmt.Errorf("missing callee")
	}
	switch {
	case spec.Fn != "":
		fn, ok := b.funcs[spec.Fn]
		if !ok {
			return ir.Callee{}, fmt.Errorf("unknown function %q", spec.Fn)
		}
		return ir.Callee{Fn: fn}, nil
	case spec.Extern != "":
		return ir.Callee{Extern: spec.Extern}, nil
	case spec.Indirect != "":
		v, err := b.resolveValue(spec.Indirect, nil)
		if err != nil {
			return ir.Callee{}, err
		}
		return ir.Callee{Indirect: v}, nil
	default:
		return ir.Callee{}, fmt.Errorf("empty callee spec")
	}
}

func binOpCode(s string) (ir.BinOpCode, error) {
	switch s {
	case "add":
		return ir.Add, nil
	case "sub":
		return ir.Sub, nil
	case "mul":
		return ir.Mul, nil
	case "sdiv":
		return ir.SDiv, nil
	case "udiv":
		return ir.UDiv, nil
	case "srem":
		return ir.SRem, nil
	case "urem":
		return ir.URem, nil
	case "shl":
		return ir.Shl, nil
	case "ashr":
		return ir.AShr, nil
	case "lshr":
		return ir.LShr, nil
	case "and":
		return ir.And, nil
	case "or":
		return ir.Or, nil
	case "xor":
		return ir.Xor, nil
	default:
		return 0, fmt.Errorf("unknown binop %q", s)
	}
}

func predicateOf(s string) (ir.Predicate, error) {
	switch s {
	case "eq":
		return ir.PredEQ, nil
	case "ne":
		return ir.PredNE, nil
	case "slt":
		return ir.PredSLT, nil
	case "sle":
		return ir.PredSLE, nil
	case "sgt":
		return ir.PredSGT, nil
	case "sge":
		return ir.PredSGE, nil
	case "ult":
		return ir.PredULT, nil
	case "ule":
		return ir.PredULE, nil
	case "ugt":
		return ir.PredUGT, nil
	case "uge":
		return ir.PredUGE, nil
	default:
		return 0, fmt.Errorf("unknown predicate %q", s)
	}
}

func castKindOf(s string) (ir.CastKind, error) {
	switch s {
	case "zext":
		return ir.ZExt, nil
	case "sext":
		return ir.SExt, nil
	case "trunc":
		return ir.Trunc, nil
	case "bitcast":
		return ir.BitCast, nil
	case "ptrtoint":
		return ir.PtrToInt, nil
	case "inttoptr":
		return ir.IntToPtr, nil
	default:
		return 0, fmt.Errorf("unknown cast kind %q", s)
	}
}
