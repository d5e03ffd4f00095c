// Package engine defines the capability a web rendering engine provides to
// embedview. The engine itself (navigation, DOM, script execution) lives
// outside this module; embedview only manages handles to it and the thread
// discipline around them.
//
// Implementations are not required to be safe for concurrent use. Every
// method of a [WebView] is called on the thread that built it.
package engine

import (
	"net/http"

	"github.com/go-drift/embedview/pkg/handle"
)

// Bounds is a position and size in logical pixels relative to the parent.
type Bounds struct {
	X, Y          int
	Width, Height int
}

// MakeBounds returns bounds with width and height clamped to at least 1.
// Native toolkits misbehave on zero-sized children.
func MakeBounds(x, y, width, height int) Bounds {
	return Bounds{
		X:      x,
		Y:      y,
		Width:  max(width, 1),
		Height: max(height, 1),
	}
}

// WebView is a live native web view embedded in a parent window.
type WebView interface {
	// SetBounds moves and resizes the view.
	SetBounds(b Bounds) error

	// Bounds returns the current position and size.
	Bounds() Bounds

	// LoadURL navigates to url, sending the extra request headers if any.
	LoadURL(url string, headers http.Header) error

	// LoadHTML replaces the document with the given markup.
	LoadHTML(html string) error

	// EvaluateScript runs script in the page. If onResult is non-nil it is
	// called asynchronously with the textual result.
	EvaluateScript(script string, onResult func(result string)) error

	// Focus moves keyboard focus into the view.
	Focus() error

	// Cookies returns every cookie in the view's store.
	Cookies() ([]Cookie, error)

	// CookiesForURL returns the cookies that would be sent to url.
	CookiesForURL(url string) ([]Cookie, error)

	// SetCookie stores a cookie.
	SetCookie(c Cookie) error

	// DeleteCookie removes a cookie matching name, domain and path.
	DeleteCookie(c Cookie) error

	// Destroy detaches the view from its parent and releases it.
	Destroy() error
}

// Options configures a view at build time.
type Options struct {
	// URL is the initial page.
	URL string

	// UserAgent overrides the engine default when non-empty.
	UserAgent string

	// Bounds is the initial position and size.
	Bounds Bounds

	// NavigationHandler is consulted before every navigation; returning
	// false cancels it. It is called on the engine's internal thread.
	NavigationHandler func(url string) bool

	// Events receives native events. Engines send on it from whatever
	// thread they use internally and must not block indefinitely when the
	// receiver has gone away; see [Emit].
	Events chan<- Event

	// Done is closed when the receiver of Events stops listening.
	Done <-chan struct{}
}

// Factory builds views as children of a native window.
type Factory interface {
	Build(parent handle.NativeWindow, opts Options) (WebView, error)
}

// Scripts used to implement navigation controls on engines that expose no
// direct API for them.
const (
	ScriptStop    = "window.stop && window.stop();"
	ScriptBack    = "window.history.back()"
	ScriptForward = "window.history.forward()"
	ScriptReload  = "window.location.reload()"
	ScriptFocus   = "document.documentElement.focus(); window.focus();"
)
