package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-drift/embedview/pkg/logging"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindUnsupportedPlatform, "unsupported_platform"},
		{KindInvalidWindowHandle, "invalid_window_handle"},
		{KindNotFound, "not_found"},
		{KindWrongThread, "wrong_thread"},
		{KindEngine, "engine"},
		{KindPlatformInit, "platform_init"},
		{KindInternal, "internal"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestEmbedErrorString(t *testing.T) {
	got := NotFound("webview.LoadURL", 3).Error()
	want := "webview.LoadURL [not_found]: webview 3 not found"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	got = Engine("webview.SetCookie", fmt.Errorf("cookie rejected")).Error()
	if !strings.Contains(got, "cookie rejected") {
		t.Errorf("engine error should preserve the original message, got %q", got)
	}
}

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NotFound("op", 1), ErrNotFound},
		{"wrong thread", WrongThread("op", 2), ErrWrongThread},
		{"invalid handle", InvalidWindowHandle("op"), ErrInvalidWindowHandle},
		{"unsupported", UnsupportedPlatform("op"), ErrUnsupportedPlatform},
		{"engine", Engine("op", errors.New("boom")), ErrEngine},
		{"platform init", PlatformInit("op", errors.New("gtk")), ErrPlatformInit},
		{"internal", Internal("op", "bad state %d", 1), ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("wrapped error lost its kind")
			}
		})
	}

	if errors.Is(NotFound("op", 1), ErrWrongThread) {
		t.Error("NotFound must not match ErrWrongThread")
	}
}

func TestIsMatchesID(t *testing.T) {
	err := NotFound("op", 5)
	if !errors.Is(err, &EmbedError{Kind: KindNotFound, ID: 5}) {
		t.Error("expected match on same id")
	}
	if errors.Is(err, &EmbedError{Kind: KindNotFound, ID: 6}) {
		t.Error("expected no match on different id")
	}
}

func TestEngineKeepsKind(t *testing.T) {
	inner := NotFound("registry.WithEntry", 9)
	if got := Engine("webview.Reload", inner); got != inner {
		t.Errorf("Engine should pass through typed errors, got %v", got)
	}
	if Engine("op", nil) != nil {
		t.Error("Engine(nil) should be nil")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v", got)
	}
	if got := KindOf(fmt.Errorf("x: %w", WrongThread("op", 1))); got != KindWrongThread {
		t.Errorf("KindOf(wrapped) = %v", got)
	}
}

func TestReport(t *testing.T) {
	var captured *EmbedError
	handler := &testHandler{onError: func(err *EmbedError) { captured = err }}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Report("webview.SetBounds", errors.New("native failure"))

	if captured == nil {
		t.Fatal("expected error to be captured")
	}
	if captured.Op != "webview.SetBounds" {
		t.Errorf("Op = %q", captured.Op)
	}
	if captured.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportNil(t *testing.T) {
	called := false
	oldHandler := DefaultHandler
	SetHandler(&testHandler{onError: func(*EmbedError) { called = true }})
	defer SetHandler(oldHandler)

	Report("op", nil)
	if called {
		t.Error("Report(nil) must not invoke the handler")
	}
}

func TestRecoverIntoError(t *testing.T) {
	run := func() (err error) {
		defer Recover("dispatch.Run", &err)
		panic("lock poisoned")
	}
	err := run()
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	var e *EmbedError
	if !errors.As(err, &e) || e.StackTrace == "" {
		t.Error("expected stack trace on recovered panic")
	}
}

func TestRecoverReports(t *testing.T) {
	var captured *EmbedError
	oldHandler := DefaultHandler
	SetHandler(&testHandler{onError: func(err *EmbedError) { captured = err }})
	defer SetHandler(oldHandler)

	func() {
		defer Recover("dispatch.Post", nil)
		panic("boom")
	}()

	if captured == nil || captured.Kind != KindInternal {
		t.Errorf("expected reported internal error, got %v", captured)
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", DefaultHandler)
	}
}

func TestLogHandlerWritesToSink(t *testing.T) {
	var lines []string
	logging.SetSink(logging.SinkFunc(func(line string) { lines = append(lines, line) }))
	defer logging.SetSink(nil)

	h := &LogHandler{Verbose: true}
	h.HandleError(&EmbedError{Op: "op", Kind: KindInternal, Err: errors.New("x"), StackTrace: "frame"})

	if len(lines) != 2 {
		t.Fatalf("expected error line and stack line, got %v", lines)
	}
	if !strings.Contains(lines[0], "op [internal]") {
		t.Errorf("unexpected line %q", lines[0])
	}
}

type testHandler struct {
	onError func(*EmbedError)
}

func (h *testHandler) HandleError(err *EmbedError) {
	if h.onError != nil {
		h.onError(err)
	}
}
