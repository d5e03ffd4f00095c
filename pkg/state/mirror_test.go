package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-drift/embedview/pkg/engine"
)

func started(t *testing.T, url string) *Mirror {
	t.Helper()
	m := NewMirror(url)
	m.Start()
	t.Cleanup(m.Close)
	return m
}

func send(m *Mirror, evs ...engine.Event) {
	for _, ev := range evs {
		engine.Emit(m.Events(), m.Done(), ev)
	}
	m.Flush()
}

func TestMirrorLoadLifecycle(t *testing.T) {
	m := started(t, "https://example.com")
	if m.URL() != "https://example.com" {
		t.Errorf("URL() = %q", m.URL())
	}

	send(m, engine.Event{Kind: engine.EventLoadStarted, URL: "https://example.com"})
	if !m.Loading() {
		t.Error("expected loading after load started")
	}

	send(m,
		engine.Event{Kind: engine.EventLoadFinished, URL: "https://example.com/home"},
		engine.Event{Kind: engine.EventTitleChanged, Title: "Home"},
	)
	if m.Loading() {
		t.Error("expected not loading after load finished")
	}
	if m.URL() != "https://example.com/home" {
		t.Errorf("URL() = %q", m.URL())
	}
	if m.Title() != "Home" {
		t.Errorf("Title() = %q", m.Title())
	}
}

func TestMirrorNavigationStarted(t *testing.T) {
	m := started(t, "")
	send(m, engine.Event{Kind: engine.EventNavigationStarted, URL: "https://next.test"})
	if !m.Loading() || m.URL() != "https://next.test" {
		t.Errorf("loading=%v url=%q", m.Loading(), m.URL())
	}
}

func TestDrainIsNotRestartable(t *testing.T) {
	m := started(t, "")
	send(m,
		engine.Event{Kind: engine.EventMessage, Message: "a"},
		engine.Event{Kind: engine.EventMessage, Message: "b"},
		engine.Event{Kind: engine.EventMessage, Message: "c"},
	)

	got := m.Drain()
	if fmt.Sprint(got) != "[a b c]" {
		t.Errorf("Drain() = %v, want [a b c]", got)
	}
	if again := m.Drain(); again == nil || len(again) != 0 {
		t.Errorf("second Drain() = %#v, want empty slice", again)
	}
	if again := m.Drain(); len(again) != 0 {
		t.Errorf("third Drain() = %v", again)
	}
}

func TestHistoryShadow(t *testing.T) {
	m := started(t, "")
	finish := func(u string) engine.Event { return engine.Event{Kind: engine.EventLoadFinished, URL: u} }

	send(m, finish("https://a.test"))
	if m.CanGoBack() || m.CanGoForward() {
		t.Error("single entry should allow no traversal")
	}

	send(m, finish("https://b.test"), finish("https://c.test"))
	if !m.CanGoBack() || m.CanGoForward() {
		t.Errorf("back=%v forward=%v", m.CanGoBack(), m.CanGoForward())
	}

	m.BeginTraversal(-1)
	send(m, finish("https://b.test"))
	if !m.CanGoBack() || !m.CanGoForward() {
		t.Errorf("after back: back=%v forward=%v", m.CanGoBack(), m.CanGoForward())
	}

	// Reload of the current entry does not grow history.
	send(m, finish("https://b.test"))
	if !m.CanGoForward() {
		t.Error("reload must keep forward history")
	}

	send(m, finish("https://d.test"))
	if m.CanGoForward() {
		t.Error("new navigation must truncate forward history")
	}
}

func TestMirrorConcurrentAccess(t *testing.T) {
	m := started(t, "")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Push(fmt.Sprintf("%d-%d", i, j))
				m.SetURL("https://x.test")
				_ = m.Title()
				_ = m.Loading()
			}
		}(i)
	}
	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		total += len(m.Drain())
		select {
		case <-done:
			total += len(m.Drain())
			if total != 800 {
				t.Errorf("drained %d messages, want 800", total)
			}
			return
		default:
		}
	}
}

func TestCloseReleasesSenders(t *testing.T) {
	m := NewMirror("")
	m.Start()
	m.Close()
	m.Close()

	for i := 0; i < eventBuffer+10; i++ {
		engine.Emit(m.Events(), m.Done(), engine.Event{Kind: engine.EventMessage, Message: "x"})
	}
	m.Flush()
}
