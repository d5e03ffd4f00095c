package errors

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultHandler is the global error handler.
	// It defaults to LogHandler with verbose=false.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler configures the global error handler.
// Pass nil to restore the default LogHandler.
func SetHandler(h ErrorHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		DefaultHandler = &LogHandler{}
	} else {
		DefaultHandler = h
	}
}

func getHandler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return DefaultHandler
}

// Report sends an error to the global handler. Plain errors are wrapped as
// KindUnknown under op. If the timestamp is zero, it is set to now.
func Report(op string, err error) {
	if err == nil {
		return
	}
	e, ok := err.(*EmbedError)
	if !ok {
		e = &EmbedError{Op: op, Kind: KindOf(err), Err: err}
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if h := getHandler(); h != nil {
		h.HandleError(e)
	}
}

// Recover converts a panic into a KindInternal error stored in *errp.
// Usage: defer errors.Recover("dispatch.Run", &err)
//
// A nil errp reports the panic to the global handler instead.
func Recover(op string, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	e := &EmbedError{
		Op:         op,
		Kind:       KindInternal,
		Err:        fmt.Errorf("panic: %v", r),
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
	if errp == nil {
		Report(op, e)
		return
	}
	*errp = e
}

// CaptureStack returns the current call stack as a string.
// It skips the first few frames to exclude the CaptureStack call itself.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}
