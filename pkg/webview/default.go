package webview

import (
	"context"
	"sync"

	"github.com/go-drift/embedview/pkg/engine"
	"github.com/go-drift/embedview/pkg/logging"
)

var (
	defaultMu   sync.Mutex
	defaultOpts Options

	defaultOnce    sync.Once
	defaultService *Service
)

// SetDefaultOptions configures the service returned by Default. It has no
// effect once Default has been called.
func SetDefaultOptions(opts Options) {
	defaultMu.Lock()
	defaultOpts = opts
	defaultMu.Unlock()
}

// Default returns the process-wide service, creating it on first use.
func Default() *Service {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		opts := defaultOpts
		defaultMu.Unlock()
		defaultService = New(opts)
	})
	return defaultService
}

// SetLoggingEnabled turns diagnostic logging on or off for the process.
func SetLoggingEnabled(on bool) {
	logging.SetEnabled(on)
}

// SetLogSink routes diagnostic lines to sink. Nil restores the default.
func SetLogSink(sink logging.Sink) {
	logging.SetSink(sink)
}

// Create embeds a view using the default service. See [Service.Create].
func Create(ctx context.Context, parent uint64, width, height int, url string, nav NavigationHandler) (uint64, error) {
	return Default().Create(ctx, parent, width, height, url, nav)
}

// CreateWithUserAgent is [Create] with a custom user agent.
func CreateWithUserAgent(ctx context.Context, parent uint64, width, height int, url, userAgent string, nav NavigationHandler) (uint64, error) {
	return Default().CreateWithUserAgent(ctx, parent, width, height, url, userAgent, nav)
}

// SetBounds moves and resizes a view of the default service.
func SetBounds(ctx context.Context, id uint64, x, y, width, height int) error {
	return Default().SetBounds(ctx, id, x, y, width, height)
}

// LoadURL navigates a view of the default service to url.
func LoadURL(ctx context.Context, id uint64, url string) error {
	return Default().LoadURL(ctx, id, url)
}

// LoadURLWithHeaders is [LoadURL] with extra request headers.
func LoadURLWithHeaders(ctx context.Context, id uint64, url string, headers engine.HeaderList) error {
	return Default().LoadURLWithHeaders(ctx, id, url, headers)
}

// LoadHTML replaces the document of a view of the default service.
func LoadHTML(ctx context.Context, id uint64, html string) error {
	return Default().LoadHTML(ctx, id, html)
}

// StopLoading cancels the load in progress.
func StopLoading(ctx context.Context, id uint64) error { return Default().StopLoading(ctx, id) }

// GoBack moves one entry back in history.
func GoBack(ctx context.Context, id uint64) error { return Default().GoBack(ctx, id) }

// GoForward moves one entry forward in history.
func GoForward(ctx context.Context, id uint64) error { return Default().GoForward(ctx, id) }

// Reload reloads the current page.
func Reload(ctx context.Context, id uint64) error { return Default().Reload(ctx, id) }

// Focus moves keyboard focus into the view.
func Focus(ctx context.Context, id uint64) error { return Default().Focus(ctx, id) }

// EvaluateScript runs script in the page. See [Service.EvaluateScript].
func EvaluateScript(ctx context.Context, id uint64, script string, cb ScriptCallback) error {
	return Default().EvaluateScript(ctx, id, script, cb)
}

// URL returns the last URL the view reported.
func URL(id uint64) (string, error) { return Default().URL(id) }

// IsLoading reports whether a load is in progress.
func IsLoading(id uint64) (bool, error) { return Default().IsLoading(id) }

// Title returns the page title.
func Title(id uint64) (string, error) { return Default().Title(id) }

// CanGoBack reports whether GoBack has an entry to move to.
func CanGoBack(id uint64) (bool, error) { return Default().CanGoBack(id) }

// CanGoForward reports whether GoForward has an entry to move to.
func CanGoForward(id uint64) (bool, error) { return Default().CanGoForward(id) }

// DrainMessages returns and clears the messages the page posted.
func DrainMessages(id uint64) ([]string, error) { return Default().DrainMessages(id) }

// CookiesForURL returns the cookies the view would send to url.
func CookiesForURL(ctx context.Context, id uint64, url string) ([]engine.Cookie, error) {
	return Default().CookiesForURL(ctx, id, url)
}

// ClearCookiesForURL deletes every cookie that would be sent to url.
func ClearCookiesForURL(ctx context.Context, id uint64, url string) error {
	return Default().ClearCookiesForURL(ctx, id, url)
}

// ClearAllCookies empties the view's cookie store.
func ClearAllCookies(ctx context.Context, id uint64) error {
	return Default().ClearAllCookies(ctx, id)
}

// SetCookie stores c in the view's cookie store.
func SetCookie(ctx context.Context, id uint64, c engine.Cookie) error {
	return Default().SetCookie(ctx, id, c)
}

// Destroy removes the view. Unknown identifiers succeed.
func Destroy(ctx context.Context, id uint64) error { return Default().Destroy(ctx, id) }

// Flush waits until events already emitted for id are visible to queries.
func Flush(id uint64) error { return Default().Flush(id) }

// Pump drains work queued for the platform thread. See [Service.Pump].
func Pump() { Default().Pump() }
