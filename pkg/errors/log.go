package errors

import (
	"fmt"

	"github.com/go-drift/embedview/pkg/logging"
)

// LogHandler is an ErrorHandler that writes errors to the logging sink.
// Errors are written even when diagnostic logging is disabled.
type LogHandler struct {
	// Verbose enables stack traces in the output.
	Verbose bool
}

// HandleError writes an EmbedError to the logging sink.
func (h *LogHandler) HandleError(err *EmbedError) {
	if err == nil {
		return
	}
	logging.Write(fmt.Sprintf("error %v", err))
	if h.Verbose && err.StackTrace != "" {
		logging.Write("stack trace:\n" + err.StackTrace)
	}
}
