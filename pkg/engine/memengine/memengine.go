// Package memengine is a headless, in-memory implementation of
// [engine.Factory]. It renders nothing, but models navigation history,
// load events, titles, script messages and a cookie store, so the thread
// and lifetime discipline of embedview can be exercised without a native
// toolkit.
package memengine

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/go-drift/embedview/pkg/engine"
	"github.com/go-drift/embedview/pkg/handle"
)

// ErrDestroyed is returned by every method of a destroyed View.
var ErrDestroyed = errors.New("memengine: view destroyed")

// BlankURL is the URL reported for documents loaded with LoadHTML.
const BlankURL = "about:blank"

// Factory builds in-memory views and remembers them for inspection.
type Factory struct {
	mu    sync.Mutex
	views []*View

	// AutoFinish completes every load immediately. When false, loads stay
	// pending until [View.FinishLoad] is called.
	AutoFinish bool

	// Evaluate computes script results. The default returns "null" for
	// unknown scripts.
	Evaluate func(v *View, script string) string

	// BuildErr, when set, makes Build fail with it.
	BuildErr error

	// Cookies is shared by every view, like a browser profile. A nil store
	// is replaced by an empty one on first Build.
	Cookies *CookieStore
}

// NewFactory returns a factory with a fresh cookie store.
func NewFactory() *Factory {
	return &Factory{Cookies: NewCookieStore()}
}

// Build creates a view as a child of parent.
func (f *Factory) Build(parent handle.NativeWindow, opts engine.Options) (engine.WebView, error) {
	f.mu.Lock()
	if f.BuildErr != nil {
		err := f.BuildErr
		f.mu.Unlock()
		return nil, err
	}
	if f.Cookies == nil {
		f.Cookies = NewCookieStore()
	}
	v := &View{
		factory: f,
		parent:  parent,
		opts:    opts,
		bounds:  opts.Bounds,
		index:   -1,
	}
	f.views = append(f.views, v)
	f.mu.Unlock()

	if opts.URL != "" {
		if err := v.LoadURL(opts.URL, nil); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Views returns every view built so far, including destroyed ones.
func (f *Factory) Views() []*View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*View(nil), f.views...)
}

// Last returns the most recently built view, or nil.
func (f *Factory) Last() *View {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.views) == 0 {
		return nil
	}
	return f.views[len(f.views)-1]
}

// View is an in-memory web view.
type View struct {
	factory *Factory
	parent  handle.NativeWindow
	opts    engine.Options

	mu          sync.Mutex
	bounds      engine.Bounds
	history     []string
	index       int
	pending     string // URL of the load in progress, "" when idle
	html        string
	title       string
	headers     http.Header
	focused     bool
	destroyed   bool
	boundsCalls int
	scripts     []string
}

// Parent returns the native window the view was embedded into.
func (v *View) Parent() handle.NativeWindow { return v.parent }

// UserAgent returns the user agent the view was built with.
func (v *View) UserAgent() string { return v.opts.UserAgent }

func (v *View) emit(ev engine.Event) {
	engine.Emit(v.opts.Events, v.opts.Done, ev)
}

func (v *View) SetBounds(b engine.Bounds) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return ErrDestroyed
	}
	v.bounds = b
	v.boundsCalls++
	return nil
}

func (v *View) Bounds() engine.Bounds {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

// BoundsCalls returns how many times SetBounds succeeded.
func (v *View) BoundsCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.boundsCalls
}

func (v *View) LoadURL(rawURL string, headers http.Header) error {
	if _, err := url.Parse(rawURL); err != nil {
		return err
	}
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}
	v.headers = headers
	v.html = ""
	v.mu.Unlock()

	if !v.allow(rawURL) {
		return nil
	}

	v.mu.Lock()
	v.history = append(v.history[:v.index+1], rawURL)
	v.index = len(v.history) - 1
	v.mu.Unlock()
	v.startLoad(rawURL)
	return nil
}

func (v *View) LoadHTML(doc string) error {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}
	v.html = doc
	v.history = append(v.history[:v.index+1], BlankURL)
	v.index = len(v.history) - 1
	v.mu.Unlock()
	v.startLoad(BlankURL)
	return nil
}

// allow consults the navigation handler and reports whether navigation
// may proceed.
func (v *View) allow(target string) bool {
	if h := v.opts.NavigationHandler; h != nil {
		return h(target)
	}
	v.emit(engine.Event{Kind: engine.EventNavigationStarted, URL: target})
	return true
}

func (v *View) startLoad(target string) {
	v.mu.Lock()
	v.pending = target
	auto := v.factory.AutoFinish
	v.mu.Unlock()

	v.emit(engine.Event{Kind: engine.EventLoadStarted, URL: target})
	if auto {
		v.FinishLoad()
	}
}

// FinishLoad completes the pending load, emitting load-finished and, for
// HTML documents with a <title>, title-changed. It is a no-op when idle.
func (v *View) FinishLoad() {
	v.mu.Lock()
	target := v.pending
	v.pending = ""
	title := ""
	if v.html != "" {
		title = parseTitle(v.html)
	}
	if title != "" {
		v.title = title
	}
	v.mu.Unlock()
	if target == "" {
		return
	}
	v.emit(engine.Event{Kind: engine.EventLoadFinished, URL: target})
	if title != "" {
		v.emit(engine.Event{Kind: engine.EventTitleChanged, Title: title})
	}
}

// SetTitle simulates the document title changing.
func (v *View) SetTitle(title string) {
	v.mu.Lock()
	v.title = title
	v.mu.Unlock()
	v.emit(engine.Event{Kind: engine.EventTitleChanged, Title: title})
}

// PostMessage simulates page script posting a message to the host.
func (v *View) PostMessage(msg string) {
	v.mu.Lock()
	origin := v.currentLocked()
	v.mu.Unlock()
	v.emit(engine.Event{Kind: engine.EventMessage, URL: origin, Message: msg})
}

// Loading reports whether a load is pending.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending != ""
}

// Current returns the URL of the current history entry.
func (v *View) Current() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentLocked()
}

func (v *View) currentLocked() string {
	if v.index < 0 {
		return ""
	}
	return v.history[v.index]
}

// Headers returns the request headers sent with the last LoadURL.
func (v *View) Headers() http.Header {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.headers
}

// Focused reports whether Focus (or the focus script) ran.
func (v *View) Focused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focused
}

// Scripts returns every script evaluated so far.
func (v *View) Scripts() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.scripts...)
}

// Destroyed reports whether Destroy ran.
func (v *View) Destroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

func (v *View) EvaluateScript(script string, onResult func(string)) error {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}
	v.scripts = append(v.scripts, script)
	v.mu.Unlock()

	result := "null"
	switch strings.TrimSpace(script) {
	case engine.ScriptStop:
		v.mu.Lock()
		v.pending = ""
		v.mu.Unlock()
	case engine.ScriptBack:
		v.traverse(-1)
	case engine.ScriptForward:
		v.traverse(1)
	case engine.ScriptReload:
		if cur := v.Current(); cur != "" {
			v.startLoad(cur)
		}
	case engine.ScriptFocus:
		v.mu.Lock()
		v.focused = true
		v.mu.Unlock()
	case "document.title":
		v.mu.Lock()
		result = quote(v.title)
		v.mu.Unlock()
	case "window.location.href":
		result = quote(v.Current())
	default:
		if v.factory.Evaluate != nil {
			result = v.factory.Evaluate(v, script)
		}
	}

	if onResult != nil {
		go onResult(result)
	}
	return nil
}

func (v *View) traverse(delta int) {
	v.mu.Lock()
	next := v.index + delta
	if next < 0 || next >= len(v.history) {
		v.mu.Unlock()
		return
	}
	target := v.history[next]
	v.mu.Unlock()

	if !v.allow(target) {
		return
	}
	v.mu.Lock()
	v.index = next
	v.mu.Unlock()
	v.startLoad(target)
}

func (v *View) Focus() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return ErrDestroyed
	}
	v.focused = true
	return nil
}

func (v *View) Cookies() ([]engine.Cookie, error) {
	if v.Destroyed() {
		return nil, ErrDestroyed
	}
	return v.factory.Cookies.All(), nil
}

func (v *View) CookiesForURL(rawURL string) ([]engine.Cookie, error) {
	if v.Destroyed() {
		return nil, ErrDestroyed
	}
	return v.factory.Cookies.ForURL(rawURL)
}

func (v *View) SetCookie(c engine.Cookie) error {
	if v.Destroyed() {
		return ErrDestroyed
	}
	host := ""
	if u, err := url.Parse(v.Current()); err == nil {
		host = u.Hostname()
	}
	return v.factory.Cookies.Set(c, host)
}

func (v *View) DeleteCookie(c engine.Cookie) error {
	if v.Destroyed() {
		return ErrDestroyed
	}
	v.factory.Cookies.Delete(c)
	return nil
}

func (v *View) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return ErrDestroyed
	}
	v.destroyed = true
	v.pending = ""
	return nil
}

// parseTitle returns the text of the first <title> element in doc.
func parseTitle(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	inTitle := false
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && string(name) == "title" {
				return strings.TrimSpace(b.String())
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		}
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
