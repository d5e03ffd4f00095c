package handle

import (
	"github.com/go-drift/embedview/pkg/errors"
	"github.com/go-drift/embedview/pkg/logging"
)

// AppKit class names the narrowing rule checks against.
const (
	ClassNSWindow = "NSWindow"
	ClassNSView   = "NSView"
)

// Introspector inspects Objective-C objects at runtime.
type Introspector interface {
	// ClassName returns the runtime class name of obj.
	ClassName(obj uintptr) string
	// IsKindOfClass reports whether obj is an instance of the named class
	// or one of its subclasses. It returns false if the class is unknown.
	IsKindOfClass(obj uintptr, class string) bool
	// ContentView returns the contentView of an NSWindow, or 0.
	ContentView(window uintptr) uintptr
}

// ResolveAppKit applies the AppKit narrowing rule: an NSWindow is narrowed
// to its content view, an NSView is used directly, anything else is
// rejected.
func ResolveAppKit(h uint64, in Introspector) (NativeWindow, error) {
	const op = "handle.ResolveAppKit"
	if h == 0 || in == nil {
		return NativeWindow{}, errors.InvalidWindowHandle(op)
	}
	obj := uintptr(h)
	logging.Logf("appkit handle class=%s", in.ClassName(obj))

	if in.IsKindOfClass(obj, ClassNSWindow) {
		view := in.ContentView(obj)
		if view == 0 {
			return NativeWindow{}, errors.InvalidWindowHandle(op)
		}
		logging.Logf("appkit handle is NSWindow, contentView=0x%x", view)
		return NativeWindow{Kind: KindAppKit, Handle: view}, nil
	}
	if in.IsKindOfClass(obj, ClassNSView) {
		return NativeWindow{Kind: KindAppKit, Handle: obj}, nil
	}
	return NativeWindow{}, errors.InvalidWindowHandle(op)
}
