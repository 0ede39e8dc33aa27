package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addFixture = `{
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
}`

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestRunTranslatePrintsCFGWhenRequested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.json")
	require.NoError(t, os.WriteFile(path, []byte(addFixture), 0o644))

	flagPrintCFG = true
	flagInterProcedural = false
	flagConfigDir = ""
	defer func() { flagPrintCFG, flagInterProcedural, flagConfigDir = false, false, "" }()

	out := captureStdout(t, func() {
		err := runTranslate(nil, []string{path})
		require.NoError(t, err)
	})

	assert.Contains(t, out, "entry:")
	assert.Contains(t, out, "return")
}

func TestRunTranslateSilentWithoutPrintFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.json")
	require.NoError(t, os.WriteFile(path, []byte(addFixture), 0o644))

	flagPrintCFG = false
	flagInterProcedural = false
	flagConfigDir = ""

	out := captureStdout(t, func() {
		err := runTranslate(nil, []string{path})
		require.NoError(t, err)
	})

	assert.Empty(t, out)
}

func TestRunTranslateErrorsOnMissingFixture(t *testing.T) {
	flagPrintCFG = false
	flagInterProcedural = false
	flagConfigDir = ""

	err := runTranslate(nil, []string{filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
