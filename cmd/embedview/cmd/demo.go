package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-drift/embedview/pkg/config"
	"github.com/go-drift/embedview/pkg/dispatch"
	"github.com/go-drift/embedview/pkg/engine"
	"github.com/go-drift/embedview/pkg/engine/memengine"
	"github.com/go-drift/embedview/pkg/errors"
	"github.com/go-drift/embedview/pkg/handle"
	"github.com/go-drift/embedview/pkg/logging"
	"github.com/go-drift/embedview/pkg/registry"
	"github.com/go-drift/embedview/pkg/webview"
)

const defaultDemoURL = "https://example.com"

// demoParent stands in for a host window handle.
const demoParent = 0xE1B

func init() {
	RegisterCommand(&Command{
		Name:  "demo",
		Short: "Run a headless web view session",
		Long: `Run a scripted session against the in-memory engine.

The session creates a view, navigates, walks history, resizes, stores
cookies, evaluates script, drains page messages and destroys the view. Every
call goes through the platform dispatch thread exactly as a host toolkit
would drive it, and each state transition is printed.

Settings are read from embedview.yaml in the current directory or the
nearest parent that has one.`,
		Usage: "embedview demo [url]",
		Run:   runDemo,
	})
}

func runDemo(args []string) error {
	url := defaultDemoURL
	if len(args) > 0 {
		url = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc := configure(cfg, nil)
	return pumpUntilDone(svc, cfg.PumpInterval, func() error {
		return runSession(context.Background(), stdout, svc, url, cfg.UserAgent)
	})
}

func loadConfig() (*config.Resolved, error) {
	dir, err := config.FindConfigDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// configure applies cfg to the process-wide runtime and returns the default
// service. m receives dispatch and registry statistics when non-nil.
func configure(cfg *config.Resolved, m interface {
	dispatch.Metrics
	registry.Metrics
}) *webview.Service {
	webview.SetLoggingEnabled(cfg.LogEnabled)
	errors.SetHandler(&errors.LogHandler{Verbose: cfg.LogVerbose})
	dispatch.SetPlatformQueueSize(cfg.QueueSize)

	opts := webview.Options{
		Factory:     newDemoFactory(),
		Resolver:    headlessWindow,
		AsyncBounds: cfg.AsyncBounds,
	}
	if m != nil {
		dispatch.SetPlatformMetrics(m)
		opts.Metrics = m
	}
	webview.SetDefaultOptions(opts)
	return webview.Default()
}

// headlessWindow accepts any non-zero handle; the memory engine never
// touches it.
func headlessWindow(h uint64) (handle.NativeWindow, error) {
	if h == 0 {
		return handle.NativeWindow{}, errors.InvalidWindowHandle("demo.resolve")
	}
	return handle.NativeWindow{Kind: handle.KindXlib, Handle: uintptr(h)}, nil
}

func newDemoFactory() *memengine.Factory {
	f := memengine.NewFactory()
	f.AutoFinish = true
	f.Evaluate = func(v *memengine.View, script string) string {
		const post = "window.ipc.postMessage("
		if strings.HasPrefix(script, post) && strings.HasSuffix(script, ")") {
			msg := strings.Trim(script[len(post):len(script)-1], `"'`)
			v.PostMessage(msg)
		}
		return "null"
	}
	return f
}

// pumpUntilDone runs fn in its own goroutine and pumps the platform thread
// on the calling goroutine until fn returns.
func pumpUntilDone(svc *webview.Service, interval time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			svc.Pump()
		}
	}
}

// demoSetCookie is stored as if the page had sent it.
const demoSetCookie = "session=demo; HttpOnly; SameSite=Lax"

// runSession drives one view through its lifecycle, printing each state.
func runSession(ctx context.Context, out io.Writer, svc *webview.Service, url, userAgent string) error {
	nav := func(target string) bool {
		fmt.Fprintf(out, "  navigate -> %s\n", target)
		return true
	}
	id, err := svc.CreateWithUserAgent(ctx, demoParent, 800, 600, url, userAgent, nav)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	fmt.Fprintf(out, "created webview id=%d on thread %q\n", id, svc.Thread().Name())

	step := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := svc.Flush(id); err != nil {
			return err
		}
		return printState(out, svc, id, name)
	}

	if err := step("initial load", nil); err != nil {
		return err
	}
	if err := step("load html", svc.LoadHTML(ctx, id, "<html><head><title>embedview demo</title></head></html>")); err != nil {
		return err
	}
	next := strings.TrimSuffix(url, "/") + "/about"
	if err := step("load url", svc.LoadURL(ctx, id, next)); err != nil {
		return err
	}
	if err := step("go back", svc.GoBack(ctx, id)); err != nil {
		return err
	}
	if err := step("go forward", svc.GoForward(ctx, id)); err != nil {
		return err
	}

	if err := svc.SetBounds(ctx, id, 0, 0, 0, 0); err != nil {
		return fmt.Errorf("set bounds: %w", err)
	}
	if err := svc.SetBounds(ctx, id, 10, 10, 640, 480); err != nil {
		return fmt.Errorf("set bounds: %w", err)
	}
	if err := svc.Focus(ctx, id); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	fmt.Fprintln(out, "resized to 640x480 and focused")

	hc, err := http.ParseSetCookie(demoSetCookie)
	if err != nil {
		return fmt.Errorf("parse cookie: %w", err)
	}
	if err := svc.SetCookie(ctx, id, engine.FromHTTPCookie(hc)); err != nil {
		return fmt.Errorf("set cookie: %w", err)
	}
	cookies, err := svc.CookiesForURL(ctx, id, next)
	if err != nil {
		return fmt.Errorf("cookies: %w", err)
	}
	for _, c := range cookies {
		fmt.Fprintf(out, "cookie %s\n", c.HTTPCookie())
	}
	if err := svc.ClearAllCookies(ctx, id); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}

	results := make(chan string, 1)
	if err := svc.EvaluateScript(ctx, id, "document.title", func(r string) { results <- r }); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	select {
	case r := <-results:
		fmt.Fprintf(out, "document.title = %s\n", r)
	case <-time.After(5 * time.Second):
		return fmt.Errorf("evaluate: no result")
	}

	for _, msg := range []string{"ready", "clicked"} {
		script := fmt.Sprintf("window.ipc.postMessage(%q)", msg)
		if err := svc.EvaluateScript(ctx, id, script, nil); err != nil {
			return fmt.Errorf("post message: %w", err)
		}
	}
	if err := svc.Flush(id); err != nil {
		return err
	}
	msgs, err := svc.DrainMessages(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "messages %q\n", msgs)

	if err := svc.Destroy(ctx, id); err != nil {
		return fmt.Errorf("destroy: %w", err)
	}
	if err := svc.Destroy(ctx, id); err != nil {
		return fmt.Errorf("destroy again: %w", err)
	}
	_, err = svc.URL(id)
	fmt.Fprintf(out, "destroyed id=%d, lookup now fails: %v\n", id, err)
	logging.Logf("demo finished id=%d", id)
	return nil
}

func printState(out io.Writer, svc *webview.Service, id uint64, label string) error {
	url, err := svc.URL(id)
	if err != nil {
		return err
	}
	title, _ := svc.Title(id)
	loading, _ := svc.IsLoading(id)
	back, _ := svc.CanGoBack(id)
	fwd, _ := svc.CanGoForward(id)
	fmt.Fprintf(out, "%-13s url=%s title=%q loading=%v back=%v forward=%v\n", label+":", url, title, loading, back, fwd)
	return nil
}
