// Package diag is the translator's diagnostic sink: the route by which
// warnings about unsound constant patterns and unrepresentable constructs
// reach the outside world. It writes through stdlib log rather than a
// structured logger, since nothing in this module's dependency set covers
// structured logging.
package diag

import (
	"fmt"
	"log"
	"os"
)

// Kind classifies a diagnostic: the cases that are reported rather than
// silently absorbed or ignored.
type Kind int

const (
	// UnsoundConstantPattern covers the "UDIV/UREM with both operands
	// constant" case and similar: the constant-folder upstream was
	// expected to have simplified this away.
	UnsoundConstantPattern Kind = iota
	// UnrepresentableConstruct is a silently-abstracted construct that
	// is nonetheless worth a low-volume note (e.g. an indirect call
	// through an unresolved function pointer).
	UnrepresentableConstruct
)

func (k Kind) String() string {
	switch k {
	case UnsoundConstantPattern:
		return "unsound constant pattern"
	case UnrepresentableConstruct:
		return "unrepresentable construct"
	default:
		return "diagnostic"
	}
}

// Sink receives diagnostics emitted during translation.
type Sink interface {
	Warn(kind Kind, fn, format string, args ...interface{})
}

// Stderr is the default Sink: one line per warning to os.Stderr, prefixed
// with the function name and diagnostic kind.
type Stderr struct {
	logger *log.Logger
}

// NewStderr returns a Stderr sink writing through a stdlib *log.Logger
// with no timestamp prefix: plain messages, no structured fields.
func NewStderr() *Stderr {
	return &Stderr{logger: log.New(os.Stderr, "", 0)}
}

func (s *Stderr) Warn(kind Kind, fn, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.logger.Printf("cfgtranslate: %s: in %s: %s", kind, fn, msg)
}

// Discard is a Sink that drops every diagnostic, for tests that don't want
// warnings on stderr cluttering output.
type Discard struct{}

func (Discard) Warn(Kind, string, string, ...interface{}) {}
