// Package webview is the public surface of embedview: identifier-based
// operations that create native web views inside a foreign window and drive
// them from any goroutine.
//
// Every mutating operation is marshalled onto the platform thread, resolves
// its identifier there with an ownership check, calls the engine and updates
// the instance's state mirror. Queries (URL, IsLoading, Title, history and
// messages) read the mirror directly and never block on the platform thread.
package webview

import (
	"context"
	"strings"

	"github.com/go-drift/embedview/pkg/dispatch"
	"github.com/go-drift/embedview/pkg/engine"
	"github.com/go-drift/embedview/pkg/errors"
	"github.com/go-drift/embedview/pkg/handle"
	"github.com/go-drift/embedview/pkg/logging"
	"github.com/go-drift/embedview/pkg/registry"
	"github.com/go-drift/embedview/pkg/state"
)

// NavigationHandler is consulted before each navigation. Returning false
// cancels it. It runs on the engine's thread and must not call back into
// the service synchronously.
type NavigationHandler func(url string) bool

// ScriptCallback receives the textual result of EvaluateScript.
type ScriptCallback func(result string)

// Options configures a Service.
type Options struct {
	// Thread runs every native call. Defaults to dispatch.Platform().
	Thread dispatch.Thread

	// Factory builds the engine views. Required.
	Factory engine.Factory

	// Resolver turns raw parent handles into native windows. Defaults to
	// handle.Resolve.
	Resolver func(h uint64) (handle.NativeWindow, error)

	// AsyncBounds makes SetBounds from other threads fire-and-forget.
	AsyncBounds bool

	// Metrics observes the number of live views. May be nil.
	Metrics registry.Metrics
}

// Service owns a registry of views bound to one platform thread.
type Service struct {
	thread   dispatch.Thread
	factory  engine.Factory
	resolve  func(h uint64) (handle.NativeWindow, error)
	async    bool
	registry *registry.Registry
}

// New returns a service for opts.
func New(opts Options) *Service {
	s := &Service{
		thread:   opts.Thread,
		factory:  opts.Factory,
		resolve:  opts.Resolver,
		async:    opts.AsyncBounds,
		registry: registry.New(opts.Metrics),
	}
	if s.thread == nil {
		s.thread = dispatch.Platform()
	}
	if s.resolve == nil {
		s.resolve = handle.Resolve
	}
	return s
}

// Thread returns the thread the service dispatches to.
func (s *Service) Thread() dispatch.Thread { return s.thread }

// Registry returns the service's instance registry.
func (s *Service) Registry() *registry.Registry { return s.registry }

// Create embeds a new view of width x height into the window behind parent
// and starts loading url. It returns the view's identifier.
func (s *Service) Create(ctx context.Context, parent uint64, width, height int, url string, nav NavigationHandler) (uint64, error) {
	return s.create(ctx, parent, width, height, url, "", nav)
}

// CreateWithUserAgent is Create with a custom user agent. A blank agent
// keeps the engine default.
func (s *Service) CreateWithUserAgent(ctx context.Context, parent uint64, width, height int, url, userAgent string, nav NavigationHandler) (uint64, error) {
	return s.create(ctx, parent, width, height, url, userAgent, nav)
}

func (s *Service) create(ctx context.Context, parent uint64, width, height int, url, userAgent string, nav NavigationHandler) (uint64, error) {
	userAgent = strings.TrimSpace(userAgent)
	return dispatch.Call(ctx, s.thread, func(ctx context.Context) (uint64, error) {
		ua := userAgent
		if ua == "" {
			ua = "<default>"
		}
		logging.Logf("create_webview handle=0x%x size=%dx%d url=%s user_agent=%s", parent, width, height, url, ua)

		if s.factory == nil {
			return 0, errors.UnsupportedPlatform("webview.Create")
		}
		win, err := s.resolve(parent)
		if err != nil {
			return 0, err
		}

		mirror := state.NewMirror(url)
		mirror.Start()
		if url != "" {
			mirror.SetLoading(true)
		}
		opts := engine.Options{
			URL:       url,
			UserAgent: userAgent,
			Bounds:    engine.MakeBounds(0, 0, width, height),
			Events:    mirror.Events(),
			Done:      mirror.Done(),

			NavigationHandler: nav,
		}
		view, err := s.factory.Build(win, opts)
		if err != nil {
			mirror.SetLoading(false)
			mirror.Close()
			return 0, errors.Engine("webview.Create", err)
		}

		id := s.registry.Register(ctx, view, mirror)
		logging.Logf("create_webview success id=%d", id)
		return id, nil
	})
}

// withView runs fn on the platform thread against the view for id.
func (s *Service) withView(ctx context.Context, op string, id uint64, fn func(e *registry.Entry) error) error {
	return s.thread.Run(ctx, func(ctx context.Context) error {
		return s.registry.WithEntry(ctx, id, true, func(e *registry.Entry) error {
			return errors.Engine(op, fn(e))
		})
	})
}

// SetBounds moves and resizes the view. Width and height are clamped to at
// least 1. With AsyncBounds set, a call from another thread is posted and
// returns at once; failures then go to the error handler.
func (s *Service) SetBounds(ctx context.Context, id uint64, x, y, width, height int) error {
	apply := func(ctx context.Context) error {
		logging.Logf("set_bounds id=%d pos=(%d, %d) size=%dx%d", id, x, y, width, height)
		b := engine.MakeBounds(x, y, width, height)
		return s.registry.WithEntry(ctx, id, true, func(e *registry.Entry) error {
			return errors.Engine("webview.SetBounds", e.View.SetBounds(b))
		})
	}
	if s.async && !s.thread.IsCurrent(ctx) {
		s.thread.Post(ctx, func(ctx context.Context) {
			errors.Report("webview.SetBounds", apply(ctx))
		})
		return nil
	}
	return s.thread.Run(ctx, apply)
}

// LoadURL navigates to url.
func (s *Service) LoadURL(ctx context.Context, id uint64, url string) error {
	return s.withView(ctx, "webview.LoadURL", id, func(e *registry.Entry) error {
		logging.Logf("load_url id=%d url=%s", id, url)
		e.Mirror.SetLoading(true)
		return e.View.LoadURL(url, nil)
	})
}

// LoadURLWithHeaders navigates to url sending extra request headers.
// Invalid header names or values are rejected before any native work.
func (s *Service) LoadURLWithHeaders(ctx context.Context, id uint64, url string, headers engine.HeaderList) error {
	h, err := headers.Header()
	if err != nil {
		return err
	}
	return s.withView(ctx, "webview.LoadURLWithHeaders", id, func(e *registry.Entry) error {
		logging.Logf("load_url_with_headers id=%d url=%s headers=%d", id, url, len(headers))
		e.Mirror.SetLoading(true)
		return e.View.LoadURL(url, h)
	})
}

// LoadHTML replaces the document with html.
func (s *Service) LoadHTML(ctx context.Context, id uint64, html string) error {
	return s.withView(ctx, "webview.LoadHTML", id, func(e *registry.Entry) error {
		logging.Logf("load_html id=%d bytes=%d", id, len(html))
		e.Mirror.SetLoading(true)
		return e.View.LoadHTML(html)
	})
}

// StopLoading cancels the load in progress.
func (s *Service) StopLoading(ctx context.Context, id uint64) error {
	return s.withView(ctx, "webview.StopLoading", id, func(e *registry.Entry) error {
		logging.Logf("stop_loading id=%d", id)
		e.Mirror.SetLoading(false)
		return e.View.EvaluateScript(engine.ScriptStop, nil)
	})
}

// GoBack moves one entry back in history.
func (s *Service) GoBack(ctx context.Context, id uint64) error {
	return s.traverse(ctx, "webview.GoBack", id, -1, engine.ScriptBack)
}

// GoForward moves one entry forward in history.
func (s *Service) GoForward(ctx context.Context, id uint64) error {
	return s.traverse(ctx, "webview.GoForward", id, 1, engine.ScriptForward)
}

func (s *Service) traverse(ctx context.Context, op string, id uint64, delta int, script string) error {
	return s.withView(ctx, op, id, func(e *registry.Entry) error {
		logging.Logf("%s id=%d", historyLogName(delta), id)
		e.Mirror.SetLoading(true)
		e.Mirror.BeginTraversal(delta)
		return e.View.EvaluateScript(script, nil)
	})
}

func historyLogName(delta int) string {
	if delta < 0 {
		return "go_back"
	}
	return "go_forward"
}

// Reload reloads the current page.
func (s *Service) Reload(ctx context.Context, id uint64) error {
	return s.withView(ctx, "webview.Reload", id, func(e *registry.Entry) error {
		logging.Logf("reload id=%d", id)
		e.Mirror.SetLoading(true)
		return e.View.EvaluateScript(engine.ScriptReload, nil)
	})
}

// Focus moves keyboard focus into the view, then focuses the document
// from script.
func (s *Service) Focus(ctx context.Context, id uint64) error {
	return s.withView(ctx, "webview.Focus", id, func(e *registry.Entry) error {
		logging.Logf("focus id=%d", id)
		if err := e.View.Focus(); err != nil {
			return err
		}
		return e.View.EvaluateScript(engine.ScriptFocus, nil)
	})
}

// EvaluateScript runs script in the page. cb, if non-nil, is called
// asynchronously with the result on a thread chosen by the engine.
func (s *Service) EvaluateScript(ctx context.Context, id uint64, script string, cb ScriptCallback) error {
	return s.withView(ctx, "webview.EvaluateScript", id, func(e *registry.Entry) error {
		logging.Logf("evaluate_javascript id=%d bytes=%d", id, len(script))
		return e.View.EvaluateScript(script, cb)
	})
}

// URL returns the last URL the view reported.
func (s *Service) URL(id uint64) (string, error) {
	m, err := s.registry.Mirror(id)
	if err != nil {
		return "", err
	}
	return m.URL(), nil
}

// IsLoading reports whether a load is in progress.
func (s *Service) IsLoading(id uint64) (bool, error) {
	m, err := s.registry.Mirror(id)
	if err != nil {
		return false, err
	}
	return m.Loading(), nil
}

// Title returns the page title.
func (s *Service) Title(id uint64) (string, error) {
	m, err := s.registry.Mirror(id)
	if err != nil {
		return "", err
	}
	return m.Title(), nil
}

// CanGoBack reports whether GoBack has an entry to move to.
func (s *Service) CanGoBack(id uint64) (bool, error) {
	m, err := s.registry.Mirror(id)
	if err != nil {
		return false, err
	}
	return m.CanGoBack(), nil
}

// CanGoForward reports whether GoForward has an entry to move to.
func (s *Service) CanGoForward(id uint64) (bool, error) {
	m, err := s.registry.Mirror(id)
	if err != nil {
		return false, err
	}
	return m.CanGoForward(), nil
}

// DrainMessages returns and clears the messages the page posted, oldest
// first.
func (s *Service) DrainMessages(id uint64) ([]string, error) {
	m, err := s.registry.Mirror(id)
	if err != nil {
		return nil, err
	}
	return m.Drain(), nil
}

// Flush waits until every native event emitted for id so far is visible to
// the query methods.
func (s *Service) Flush(id uint64) error {
	m, err := s.registry.Mirror(id)
	if err != nil {
		return err
	}
	m.Flush()
	return nil
}

// CookiesForURL returns the cookies the view would send to url.
func (s *Service) CookiesForURL(ctx context.Context, id uint64, url string) ([]engine.Cookie, error) {
	var out []engine.Cookie
	err := s.withView(ctx, "webview.CookiesForURL", id, func(e *registry.Entry) error {
		logging.Logf("get_cookies_for_url id=%d url=%s", id, url)
		cookies, err := e.View.CookiesForURL(url)
		out = cookies
		return err
	})
	return out, err
}

// ClearCookiesForURL deletes every cookie that would be sent to url.
func (s *Service) ClearCookiesForURL(ctx context.Context, id uint64, url string) error {
	return s.withView(ctx, "webview.ClearCookiesForURL", id, func(e *registry.Entry) error {
		logging.Logf("clear_cookies_for_url id=%d url=%s", id, url)
		cookies, err := e.View.CookiesForURL(url)
		if err != nil {
			return err
		}
		return deleteAll(e.View, cookies)
	})
}

// ClearAllCookies empties the view's cookie store.
func (s *Service) ClearAllCookies(ctx context.Context, id uint64) error {
	return s.withView(ctx, "webview.ClearAllCookies", id, func(e *registry.Entry) error {
		logging.Logf("clear_all_cookies id=%d", id)
		cookies, err := e.View.Cookies()
		if err != nil {
			return err
		}
		return deleteAll(e.View, cookies)
	})
}

func deleteAll(v engine.WebView, cookies []engine.Cookie) error {
	for _, c := range cookies {
		if err := v.DeleteCookie(c); err != nil {
			return err
		}
	}
	return nil
}

// SetCookie stores c. A cookie without a domain is scoped to the host of
// the current page.
func (s *Service) SetCookie(ctx context.Context, id uint64, c engine.Cookie) error {
	return s.withView(ctx, "webview.SetCookie", id, func(e *registry.Entry) error {
		logging.Logf("set_cookie id=%d name=%s", id, c.Name)
		return e.View.SetCookie(c)
	})
}

// Destroy removes the view and releases the native widget. Destroying an
// unknown or already destroyed identifier succeeds.
func (s *Service) Destroy(ctx context.Context, id uint64) error {
	return s.thread.Run(ctx, func(ctx context.Context) error {
		logging.Logf("destroy_webview id=%d", id)
		err := s.registry.Unregister(ctx, id)
		if errors.KindOf(err) == errors.KindNotFound {
			return nil
		}
		return err
	})
}

// Pump runs work queued for the platform thread on the calling thread. Hosts
// whose platform has no integrated event loop call it at regular intervals
// from their UI thread.
func (s *Service) Pump() {
	s.thread.Pump()
}
