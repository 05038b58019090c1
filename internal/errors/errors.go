// Package errors provides the structured error type used across sitectl.
//
// Every failure surfaced to the operator carries a Kind that places it in one
// of three categories:
//
//   - KindValidation: rejected input or pre-flight state. Nothing has been
//     written, so nothing is rolled back.
//   - KindOperation: a site operation (write, enable, test, reload) failed.
//     Inside the commit stage this triggers a rollback.
//   - KindExecution: an external command exited non-zero. The failing
//     command line is kept on the error.
//
// A Code further narrows the failure for programmatic checks:
//
//	if errors.Is(err, errors.ErrReservedPort) {
//	    // port 443 and friends
//	}
//
//	var e *errors.Error
//	if errors.As(err, &e) {
//	    fmt.Println(e.Kind, e.Command)
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the top-level failure category.
type Kind int

// Failure categories.
const (
	KindUnknown Kind = iota
	KindValidation
	KindOperation
	KindExecution
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindOperation:
		return "operation"
	case KindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// ErrorCode narrows an error within its kind.
type ErrorCode string

// Error codes.
const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"      // Site definition not found
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS" // Site definition already exists
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"  // Field validation failed
	ErrCodeInvalidPort   ErrorCode = "INVALID_PORT"   // Port not numeric or out of range
	ErrCodeReservedPort  ErrorCode = "RESERVED_PORT"  // Port in the reserved set
	ErrCodeNotListening  ErrorCode = "NOT_LISTENING"  // Backend not running
	ErrCodePrivileged    ErrorCode = "PRIVILEGED"     // Running as root
	ErrCodeSystem        ErrorCode = "SYSTEM"         // Host pre-flight check failed
	ErrCodeConfig        ErrorCode = "CONFIG"         // sitectl settings invalid
	ErrCodeSSL           ErrorCode = "SSL"            // certbot related
)

// Error is the structured error returned by sitectl packages.
type Error struct {
	Kind       Kind
	Code       ErrorCode
	Op         string   // step or operation name, e.g. "enable"
	Message    string   // human-readable summary
	Identifier string   // site identifier, if any
	Command    string   // failing command line for KindExecution
	Details    []string // aggregated validation messages
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Identifier != "" {
		fmt.Fprintf(&b, "site %s: ", e.Identifier)
	}

	msg := e.Message
	switch {
	case e.Command != "" && msg != "":
		msg = fmt.Sprintf("command %q failed: %s", e.Command, msg)
	case e.Command != "":
		msg = fmt.Sprintf("command %q failed", e.Command)
	case msg == "" && e.Op != "":
		msg = e.Op + " failed"
	}
	b.WriteString(msg)

	if len(e.Details) > 0 {
		if msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// A target with a Code matches on code, otherwise on kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return e.Code == t.Code
	}
	return t.Kind != KindUnknown && e.Kind == t.Kind
}

// Sentinel errors for errors.Is checks.
var (
	// ErrValidation matches any validation failure.
	ErrValidation = &Error{Kind: KindValidation}

	// ErrOperation matches any operation failure.
	ErrOperation = &Error{Kind: KindOperation}

	// ErrExecution matches any failed external command.
	ErrExecution = &Error{Kind: KindExecution}

	// ErrNotFound indicates the site definition does not exist.
	ErrNotFound = &Error{Kind: KindOperation, Code: ErrCodeNotFound, Message: "site not found"}

	// ErrSiteExists indicates a definition with the same identifier exists.
	ErrSiteExists = &Error{Kind: KindValidation, Code: ErrCodeAlreadyExists, Message: "site already exists"}

	// ErrInvalidPort indicates a port that is not an integer in [1,65535].
	ErrInvalidPort = &Error{Kind: KindValidation, Code: ErrCodeInvalidPort, Message: "invalid port"}

	// ErrReservedPort indicates a port in the reserved set.
	ErrReservedPort = &Error{Kind: KindValidation, Code: ErrCodeReservedPort, Message: "reserved port"}

	// ErrNotListening indicates no backend answered the liveness probe.
	ErrNotListening = &Error{Kind: KindValidation, Code: ErrCodeNotListening, Message: "backend not listening"}

	// ErrPrivileged indicates sitectl was started as root.
	ErrPrivileged = &Error{Kind: KindValidation, Code: ErrCodePrivileged, Message: "running as root is not allowed"}

	// ErrSSLNotInstalled indicates certbot is not installed.
	ErrSSLNotInstalled = &Error{Kind: KindOperation, Code: ErrCodeSSL, Message: "certbot not installed"}
)

// Validation creates a validation error with optional aggregated details.
func Validation(msg string, details ...string) error {
	return &Error{
		Kind:    KindValidation,
		Code:    ErrCodeInvalidInput,
		Message: msg,
		Details: details,
	}
}

// ValidationCode creates a validation error with a specific code.
func ValidationCode(code ErrorCode, msg string) error {
	return &Error{
		Kind:    KindValidation,
		Code:    code,
		Message: msg,
	}
}

// AlreadyExists creates an error for a site that is already defined.
func AlreadyExists(identifier string) error {
	return &Error{
		Kind:       KindValidation,
		Code:       ErrCodeAlreadyExists,
		Message:    "site already exists",
		Identifier: identifier,
	}
}

// NotFound creates an error for a site that is not defined.
func NotFound(identifier string) error {
	return &Error{
		Kind:       KindOperation,
		Code:       ErrCodeNotFound,
		Message:    "site not found",
		Identifier: identifier,
	}
}

// Operation wraps a failure of the named site operation.
func Operation(op, identifier string, err error) error {
	return &Error{
		Kind:       KindOperation,
		Op:         op,
		Message:    op + " failed",
		Identifier: identifier,
		Err:        err,
	}
}

// Execution creates an error for a command that exited non-zero.
// stderr, when non-empty, becomes the message.
func Execution(command, stderr string, err error) error {
	return &Error{
		Kind:    KindExecution,
		Message: strings.TrimSpace(stderr),
		Command: command,
		Err:     err,
	}
}

// Wrap creates an error with the given kind, code, message and cause.
func Wrap(kind Kind, code ErrorCode, msg string, err error) error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CommandOf returns the failing command line recorded anywhere in err's chain.
func CommandOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Command != "" {
			return e.Command
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As

// New is a re-export of errors.New.
var New = errors.New
