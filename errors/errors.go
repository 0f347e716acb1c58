package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the compilation pipeline the error occurred.
type Phase string

const (
	PhaseLoad     Phase = "load"     // binary parsing
	PhaseValidate Phase = "validate" // module validation
	PhaseCompile  Phase = "compile"  // IR translation
	PhaseOptimize Phase = "optimize" // optimisation passes
	PhaseEmit     Phase = "emit"     // IR rendering / object emission
)

// Kind categorizes the error.
type Kind string

const (
	KindUnsupported  Kind = "unsupported"   // configuration error: unsupported proposal
	KindNotValidated Kind = "not_validated" // input error: module not validated
	KindInvalidData  Kind = "invalid_data"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindTypeMismatch Kind = "type_mismatch"
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
)

// Error is the structured error type used throughout the compiler.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unsupported creates a configuration error for an unsupported proposal or
// feature.
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotValidated creates an input error for an unvalidated module.
func NotValidated() *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindNotValidated,
		Detail: "module is not validated",
	}
}

// OutOfBounds creates an out of bounds error.
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
	}
}

// TypeMismatch creates a type mismatch error.
func TypeMismatch(phase Phase, path []string, got, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("got %s, want %s", got, want),
	}
}

// NotFound creates a not-found error.
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Load creates a module loading error.
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
