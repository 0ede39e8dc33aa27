package diag

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStderrFormatsWarning(t *testing.T) {
	var buf bytes.Buffer
	s := &Stderr{logger: log.New(&buf, "", 0)}

	s.Warn(UnsoundConstantPattern, "main", "udiv %s by zero constant", "%t1")

	out := buf.String()
	assert.Contains(t, out, "unsound constant pattern")
	assert.Contains(t, out, "main")
	assert.Contains(t, out, "%t1")
}

func TestDiscardDropsEverything(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard{}.Warn(UnrepresentableConstruct, "f", "indirect call through %s", "%fp")
	})
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unsound constant pattern", UnsoundConstantPattern.String())
	assert.Equal(t, "unrepresentable construct", UnrepresentableConstruct.String())
}
