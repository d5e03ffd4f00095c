// Package handle converts the opaque numeric window handle supplied by a
// host toolkit into a platform-native window reference that a web view can
// be embedded into.
//
// The conversion rule is fixed per build target. A resolved [NativeWindow]
// is only valid for the duration of the creation call that requested it.
package handle

import (
	"fmt"

	"github.com/go-drift/embedview/pkg/errors"
	"github.com/go-drift/embedview/pkg/logging"
)

// Kind identifies the windowing system a NativeWindow belongs to.
type Kind int

const (
	// KindWin32 is an HWND.
	KindWin32 Kind = iota + 1
	// KindAppKit is an NSView pointer.
	KindAppKit
	// KindXlib is an X11 window id.
	KindXlib
)

func (k Kind) String() string {
	switch k {
	case KindWin32:
		return "Win32"
	case KindAppKit:
		return "AppKit"
	case KindXlib:
		return "Xlib"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// NativeWindow is a parent window reference usable to embed a child widget.
type NativeWindow struct {
	Kind   Kind
	Handle uintptr
}

func (w NativeWindow) String() string {
	return fmt.Sprintf("%s=0x%x", w.Kind, w.Handle)
}

// Resolve converts a host-supplied handle into a NativeWindow.
// Zero always fails with an invalid-window-handle error; targets without an
// adaptation rule fail with an unsupported-platform error.
func Resolve(h uint64) (NativeWindow, error) {
	if h == 0 {
		return NativeWindow{}, errors.InvalidWindowHandle("handle.Resolve")
	}
	w, err := resolvePlatform(h)
	if err != nil {
		return NativeWindow{}, err
	}
	logging.Logf("raw_window_handle %s", w)
	return w, nil
}
