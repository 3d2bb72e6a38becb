// Package launcherrors defines the uniform error taxonomy shared by every
// component of the launcher. Every fallible operation returns an *Error (or
// wraps one) so the orchestrator can map a failure to a fatal state and an
// exit code without inspecting component-specific error types.
package launcherrors

import "fmt"

// Kind discriminates the category of a launcher failure.
type Kind int

const (
	// Io wraps an otherwise uncategorized OS-level error.
	Io Kind = iota
	// InvalidJSON indicates the descriptor could not be deserialized.
	InvalidJSON
	// Signature indicates descriptor signature verification failed or was
	// required but absent, or present but unsupported.
	Signature
	// Security indicates a hard, unrecoverable safety violation such as a
	// path-traversal attempt in an artifact path.
	Security
	// Download indicates an HTTP fetch or streaming transfer failed.
	Download
	// Storage indicates a filesystem operation (create, rename, walk) failed.
	Storage
	// Validation indicates a validator pipeline rejected an artifact.
	Validation
	// Splash indicates the splash renderer failed to start or crashed.
	Splash
	// RuntimeExecution indicates the embedded VM runtime failed to load or
	// its entry point returned an error.
	RuntimeExecution
)

// String returns the human-readable name of the error kind.
func (k Kind) String() string {
	switch k {
	case Io:
		return "Io"
	case InvalidJSON:
		return "InvalidJSON"
	case Signature:
		return "Signature"
	case Security:
		return "Security"
	case Download:
		return "Download"
	case Storage:
		return "Storage"
	case Validation:
		return "Validation"
	case Splash:
		return "Splash"
	case RuntimeExecution:
		return "RuntimeExecution"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the uniform result type carrying a Kind discriminator, a
// human-readable message, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New creates an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given kind that wraps an existing error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to traverse to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether err carries the given Kind, unwrapping through
// intermediate wrapping as needed.
func Is(err error, kind Kind) bool {
	var le *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			le = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return le != nil && le.Kind == kind
}
