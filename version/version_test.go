package version

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestVersionFallsBackToDevelWithoutAReleaseTag(t *testing.T) {
	v, release := version()
	assert.False(t, release)
	assert.NotEmpty(t, v)
}

func TestPrintDoesNotPanicAndWritesSomething(t *testing.T) {
	out := captureStdout(t, Print)
	assert.NotEmpty(t, out)
}

func TestVerboseIncludesGoRuntimeVersion(t *testing.T) {
	out := captureStdout(t, Verbose)
	assert.Contains(t, out, "Compiled with Go version:")
}
