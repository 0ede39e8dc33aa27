package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z971586668/ssacfg/ir"
	"github.com/z971586668/ssacfg/memory"
)

func TestDecodeSimpleFunctionResolvesOperandsAndReturn(t *testing.T) {
	doc := []byte(`{
		"pointer_bits": 64,
		"functions": [
			{
				"name": "add",
				"params": [
					{"name": "x", "type": {"kind": "int", "bits": 32}},
					{"name": "y", "type": {"kind": "int", "bits": 32}}
				],
				"return_type": {"kind": "int", "bits": 32},
				"blocks": [
					{"name": "entry", "instrs": [
						{"name": "r", "op": "add", "type": {"kind": "int", "bits": 32}, "x": "%x", "y": "%y"},
						{"op": "ret", "val": "%r"}
					]}
				]
			}
		]
	}`)

	mod, err := Decode(doc)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)

	fn := mod.Functions[0]
	assert.Equal(t, "add", fn.Name())
	require.Len(t, fn.Params, 2)
	require.Len(t, fn.Blocks, 1)
	require.Len(t, fn.Blocks[0].Instrs, 2)

	add, ok := fn.Blocks[0].Instrs[0].(*ir.BinOp)
	require.True(t, ok)
	assert.Equal(t, ir.Add, add.Op)
	assert.Same(t, fn.Params[0], add.X)
	assert.Same(t, fn.Params[1], add.Y)

	ret, ok := fn.Blocks[0].Instrs[1].(*ir.Return)
	require.True(t, ok)
	assert.Same(t, add, ret.Val)
}

func TestDecodeWithOracleResolvesArrayIDsAndRefModNew(t *testing.T) {
	doc := []byte(`{
		"pointer_bits": 64,
		"globals": [
			{"name": "g", "type": {"kind": "int", "bits": 32}, "init": {"kind": "zero"}}
		],
		"functions": [
			{
				"name": "f",
				"params": [
					{"name": "p", "type": {"kind": "ptr", "elem": {"kind": "int", "bits": 32}}}
				],
				"blocks": [
					{"name": "entry", "instrs": [{"op": "ret"}]}
				]
			}
		],
		"oracle": {
			"track_level": "arrays",
			"array_ids": [
				{"function": "f", "value": "%p", "id": 0},
				{"global": "g", "id": 1}
			],
			"function_ref_mod_new": [
				{"function": "f", "refs": [1], "news": [2]}
			]
		}
	}`)

	mod, oracle, err := DecodeWithOracle(doc)
	require.NoError(t, err)
	require.NotNil(t, oracle)

	fn := mod.Functions[0]
	assert.Equal(t, memory.Arrays, oracle.TrackLevel())
	assert.Equal(t, memory.ArrayID(0), oracle.ArrayID(fn, fn.Params[0]))
	assert.Equal(t, memory.ArrayID(1), oracle.ArrayID(nil, mod.Globals[0]))

	rmn := oracle.RefModNewForFunction(fn)
	assert.Equal(t, []memory.ArrayID{memory.ArrayID(1)}, rmn.Refs)
	assert.Equal(t, []memory.ArrayID{memory.ArrayID(2)}, rmn.News)
}

func TestDecodePhiEdgesFollowDeclaredPredecessorOrder(t *testing.T) {
	doc := []byte(`{
		"pointer_bits": 64,
		"functions": [
			{
				"name": "f",
				"params": [{"name": "c", "type": {"kind": "int", "bits": 32}}],
				"return_type": {"kind": "int", "bits": 32},
				"blocks": [
					{"name": "entry", "instrs": [
						{"op": "br", "cond": "%c", "true": "left", "false": "right"}
					]},
					{"name": "left", "instrs": [
						{"op": "jmp", "target": "h"}
					]},
					{"name": "right", "instrs": [
						{"op": "jmp", "target": "h"}
					]},
					{"name": "h", "instrs": [
						{"name": "merged", "op": "phi", "type": {"kind": "int", "bits": 32}, "edges": ["1", "2"]},
						{"op": "ret", "val": "%merged"}
					]}
				]
			}
		]
	}`)

	mod, err := Decode(doc)
	require.NoError(t, err)

	fn := mod.Functions[0]
	h := fn.Blocks[3]
	require.Len(t, h.Preds, 2)
	assert.Equal(t, "left", h.Preds[0].Name)
	assert.Equal(t, "right", h.Preds[1].Name)

	phi := h.Instrs[0].(*ir.Phi)
	require.Len(t, phi.Edges, 2)

	c0, ok := phi.Edges[0].(*ir.Const)
	require.True(t, ok)
	assert.Equal(t, "1", c0.Value.String())

	c1, ok := phi.Edges[1].(*ir.Const)
	require.True(t, ok)
	assert.Equal(t, "2", c1.Value.String())
}

func TestDecodeGlobalsWithZeroAndDataInitializers(t *testing.T) {
	doc := []byte(`{
		"pointer_bits": 64,
		"globals": [
			{"name": "z", "type": {"kind": "int", "bits": 32}, "init": {"kind": "zero"}},
			{"name": "d", "type": {"kind": "int", "bits": 32}, "init": {"kind": "data", "values": ["1", "2", "3"]}}
		]
	}`)

	mod, err := Decode(doc)
	require.NoError(t, err)
	require.Len(t, mod.Globals, 2)

	_, ok := mod.Globals[0].Initializer.(*ir.ZeroAggregate)
	assert.True(t, ok)

	seq, ok := mod.Globals[1].Initializer.(*ir.DataSequence)
	require.True(t, ok)
	require.Len(t, seq.Values, 3)
	assert.Equal(t, "2", seq.Values[1].String())
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not valid json`))
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	doc := []byte(`{
		"functions": [
			{"name": "f", "blocks": [
				{"name": "entry", "instrs": [{"op": "frobnicate"}]}
			]}
		]
	}`)
	_, err := Decode(doc)
	assert.Error(t, err)
}

func TestDecodeDeclarationOnlyFunctionHasNoBlocks(t *testing.T) {
	doc := []byte(`{
		"functions": [
			{"name": "memcpy", "params": [
				{"name": "dst", "type": {"kind": "ptr", "elem": {"kind": "int", "bits": 8}}}
			]}
		]
	}`)
	mod, err := Decode(doc)
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)
	assert.True(t, mod.Functions[0].Declaration())
}
