package failure

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	ToolNotFound
	SpawnFailure
	IOFailure
	EncodeFailure
)

func (k Kind) String() string {
	switch k {
	case ToolNotFound:
		return "tool not found"
	case SpawnFailure:
		return "spawn failure"
	case IOFailure:
		return "io failure"
	case EncodeFailure:
		return "encode failure"
	default:
		return "unknown failure"
	}
}

// Error is the single fatal error a job returns. Rendition, ExitCode and
// Diagnostics are only set for EncodeFailure.
type Error struct {
	Kind        Kind
	Op          string
	Rendition   string
	ExitCode    int
	Diagnostics string
	err         error
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	b.WriteString(e.Kind.String())

	if e.Kind == EncodeFailure {
		fmt.Fprintf(&b, " for %s: exit code %d", e.Rendition, e.ExitCode)
	}

	if e.err != nil {
		b.WriteString(": ")
		b.WriteString(e.err.Error())
	}

	if e.Diagnostics != "" {
		b.WriteString(": ")
		b.WriteString(strings.TrimRight(e.Diagnostics, "\n"))
	}

	return b.String()
}

func (e *Error) Cause() error  { return e.err }
func (e *Error) Unwrap() error { return e.err }

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, err: err}
}

func Encode(op, rendition string, exitCode int, diagnostics string) *Error {
	return &Error{
		Kind:        EncodeFailure,
		Op:          op,
		Rendition:   rendition,
		ExitCode:    exitCode,
		Diagnostics: diagnostics,
	}
}

// As finds the first *Error in err's chain, following both pkg/errors causes
// and stdlib wrapping.
func As(err error) (*Error, bool) {
	for err != nil {
		var fe *Error
		if stderrors.As(err, &fe) {
			return fe, true
		}

		cause := errors.Cause(err)
		if cause == err {
			return nil, false
		}
		err = cause
	}

	return nil, false
}

func Is(err error, kind Kind) bool {
	fe, ok := As(err)
	return ok && fe.Kind == kind
}

// KindOf returns Unknown when err carries no *Error.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return Unknown
}
