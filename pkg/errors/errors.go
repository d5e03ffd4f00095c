// Package errors provides the error taxonomy shared by every embedview
// package, plus a pluggable handler for failures that cannot be returned
// to a caller (native callbacks, fire-and-forget dispatches).
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the category of an error.
type Kind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindUnsupportedPlatform indicates a build target with no adaptation rule.
	KindUnsupportedPlatform
	// KindInvalidWindowHandle indicates a zero or unrecognized parent handle.
	KindInvalidWindowHandle
	// KindNotFound indicates an unknown or destroyed instance identifier.
	KindNotFound
	// KindWrongThread indicates access from a thread other than the owner.
	KindWrongThread
	// KindEngine indicates a failure reported by the rendering engine.
	KindEngine
	// KindPlatformInit indicates the platform toolkit failed to initialize.
	KindPlatformInit
	// KindInternal indicates an invariant violation or a recovered panic.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedPlatform:
		return "unsupported_platform"
	case KindInvalidWindowHandle:
		return "invalid_window_handle"
	case KindNotFound:
		return "not_found"
	case KindWrongThread:
		return "wrong_thread"
	case KindEngine:
		return "engine"
	case KindPlatformInit:
		return "platform_init"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// EmbedError is the structured error returned by every public operation.
type EmbedError struct {
	// Op is the operation that failed (e.g., "webview.LoadURL").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// ID is the instance identifier involved, or 0.
	ID uint64
	// Err is the underlying error, if any.
	Err error
	// StackTrace is set for recovered panics.
	StackTrace string
	// Timestamp is set when the error is reported.
	Timestamp time.Time
}

func (e *EmbedError) Error() string {
	msg := e.Kind.String()
	switch e.Kind {
	case KindNotFound:
		msg = fmt.Sprintf("webview %d not found", e.ID)
	case KindWrongThread:
		msg = fmt.Sprintf("webview %d accessed from the wrong thread", e.ID)
	case KindInvalidWindowHandle:
		msg = "invalid window handle"
	case KindUnsupportedPlatform:
		msg = "unsupported platform"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Op, e.Kind, msg)
	}
	return msg
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *EmbedError of the same kind. It lets
// callers compare against the sentinels below with [errors.Is].
func (e *EmbedError) Is(target error) bool {
	t, ok := target.(*EmbedError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.ID == 0 || t.ID == e.ID)
}

// Sentinels for use with errors.Is. They match any error of their kind.
var (
	ErrUnsupportedPlatform = &EmbedError{Kind: KindUnsupportedPlatform}
	ErrInvalidWindowHandle = &EmbedError{Kind: KindInvalidWindowHandle}
	ErrNotFound            = &EmbedError{Kind: KindNotFound}
	ErrWrongThread         = &EmbedError{Kind: KindWrongThread}
	ErrEngine              = &EmbedError{Kind: KindEngine}
	ErrPlatformInit        = &EmbedError{Kind: KindPlatformInit}
	ErrInternal            = &EmbedError{Kind: KindInternal}
)

// KindOf returns the kind of the first *EmbedError in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var e *EmbedError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NotFound returns an error for an unknown or destroyed identifier.
func NotFound(op string, id uint64) error {
	return &EmbedError{Op: op, Kind: KindNotFound, ID: id}
}

// WrongThread returns an error for access from a non-owning thread.
func WrongThread(op string, id uint64) error {
	return &EmbedError{Op: op, Kind: KindWrongThread, ID: id}
}

// InvalidWindowHandle returns an error for a rejected parent handle.
func InvalidWindowHandle(op string) error {
	return &EmbedError{Op: op, Kind: KindInvalidWindowHandle}
}

// UnsupportedPlatform returns an error for a build with no platform rule.
func UnsupportedPlatform(op string) error {
	return &EmbedError{Op: op, Kind: KindUnsupportedPlatform}
}

// Engine wraps a failure reported by the rendering engine. The original
// message is preserved. Errors that already carry a kind pass through.
func Engine(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &EmbedError{Op: op, Kind: KindEngine, Err: err}
}

// PlatformInit wraps a toolkit initialization failure.
func PlatformInit(op string, err error) error {
	return &EmbedError{Op: op, Kind: KindPlatformInit, Err: err}
}

// Internal returns an invariant-violation error with a formatted message.
func Internal(op, format string, args ...any) error {
	return &EmbedError{Op: op, Kind: KindInternal, Err: fmt.Errorf(format, args...)}
}

// ErrorHandler receives errors that have no caller to return to.
type ErrorHandler interface {
	// HandleError is called for a reported error.
	HandleError(err *EmbedError)
}
