package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configName), []byte(body), 0o644))
}

func TestLoadWithNoFilesReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	opts, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default, opts)
}

func TestLoadMergesSingleFileOverDefault(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "print_cfg = true\n")

	opts, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, opts.PrintCFG)
	assert.Equal(t, Default.SimplifyCFG, opts.SimplifyCFG, "unset keys fall back to the default layer")
}

func TestLoadNearestFileWins(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, "simplify_cfg = false\ninclude_havoc = true\n")

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeConf(t, nested, "simplify_cfg = true\n")

	opts, err := Load(nested)
	require.NoError(t, err)

	assert.True(t, opts.SimplifyCFG, "nearest file's explicit key must win over a farther ancestor")
	assert.True(t, opts.IncludeHavoc, "key unset in the nearest file must still inherit from a farther ancestor")
}

func TestLoadKeyUnsetInAnyFileFallsBackToDefault(t *testing.T) {
	root := t.TempDir()
	writeConf(t, root, "simplify_cfg = false\n")

	opts, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, Default.DisablePointerArith, opts.DisablePointerArith)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConf(t, dir, "this is not valid toml =====")

	_, err := Load(dir)
	assert.Error(t, err)
}
