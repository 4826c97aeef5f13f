package maybenot

import "fmt"

// Kind classifies a construction-time Error. Runtime paths (TriggerEvents,
// state sampling, limit checks) never return an error: they degrade to
// "unchanged" or "no action" instead, per the framework's steady-state
// contract.
type Kind int

const (
	// KindPaddingLimit marks a padding fraction outside [0,1].
	KindPaddingLimit Kind = iota
	// KindBlockingLimit marks a blocking fraction outside [0,1].
	KindBlockingLimit
	// KindMachine marks a structurally invalid machine: empty or
	// oversized state vector, a bad transition target, a duplicate
	// target, a probability or probability sum outside (0,1], or an
	// invalid embedded distribution.
	KindMachine
	// KindDistribution marks an invalid distribution: inverted range,
	// negative stdev, or unsupported family.
	KindDistribution
	// KindSerialization marks a version mismatch, truncated input,
	// decompression overflow, or trailing garbage during decode.
	KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindPaddingLimit:
		return "padding limit"
	case KindBlockingLimit:
		return "blocking limit"
	case KindMachine:
		return "machine"
	case KindDistribution:
		return "distribution"
	case KindSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by every constructor in this
// package. Wrap with fmt.Errorf("...: %w", err) as usual; errors.Is/As both
// work against a Kind via Is.
type Error struct {
	Kind   Kind
	Detail string
	err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same Kind, letting callers
// write errors.Is(err, maybenot.ErrKind(KindMachine)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ErrKind builds a sentinel *Error usable with errors.Is to test only the
// Kind, e.g. errors.Is(err, maybenot.ErrKind(maybenot.KindMachine)).
func ErrKind(k Kind) *Error { return &Error{Kind: k} }

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Detail: fmt.Sprintf(format, args...)}
}

func wrapError(k Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: k, Detail: fmt.Sprintf(format, args...), err: err}
}
