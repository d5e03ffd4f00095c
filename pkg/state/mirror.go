// Package state keeps a thread-safe shadow of each web view's attributes
// (URL, title, loading flag, history position, inbound script messages) so
// they can be queried from any thread without touching the native widget.
//
// The mirror is eventually consistent with the widget: it reflects a native
// change once the corresponding event has been applied.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/go-drift/embedview/pkg/engine"
	"github.com/go-drift/embedview/pkg/logging"
)

// eventBuffer bounds how far an engine can run ahead of the consumer
// before Emit blocks.
const eventBuffer = 256

// Mirror is the per-instance state shared between the facade and the
// engine's callback threads. All methods are safe for concurrent use.
type Mirror struct {
	loading atomic.Bool

	mu      sync.Mutex
	url     string
	title   string
	history []string
	index   int
	travel  int // pending history traversal: -1 back, +1 forward, 0 none

	msgMu    sync.Mutex
	messages []string

	events  chan engine.Event
	flushes chan chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewMirror returns a mirror whose URL starts at initialURL.
// Call [Mirror.Start] to begin consuming events.
func NewMirror(initialURL string) *Mirror {
	return &Mirror{
		url:     initialURL,
		index:   -1,
		events:  make(chan engine.Event, eventBuffer),
		flushes: make(chan chan struct{}),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Events returns the channel engines send native events on.
func (m *Mirror) Events() chan<- engine.Event { return m.events }

// Done is closed once the mirror stops consuming events.
func (m *Mirror) Done() <-chan struct{} { return m.done }

// Start launches the consumer goroutine. It must be called once.
func (m *Mirror) Start() {
	go m.consume()
}

func (m *Mirror) consume() {
	defer close(m.stopped)
	for {
		select {
		case ev := <-m.events:
			m.Apply(ev)
		case ack := <-m.flushes:
			// Apply everything already queued before acknowledging.
			for drained := false; !drained; {
				select {
				case ev := <-m.events:
					m.Apply(ev)
				default:
					drained = true
				}
			}
			close(ack)
		case <-m.done:
			return
		}
	}
}

// Flush blocks until every event sent before the call has been applied.
// It returns immediately once the mirror is closed.
func (m *Mirror) Flush() {
	ack := make(chan struct{})
	select {
	case m.flushes <- ack:
	case <-m.done:
		return
	}
	select {
	case <-ack:
	case <-m.stopped:
	}
}

// Close stops the consumer. Engines sending afterwards are released via
// Done. Close is idempotent.
func (m *Mirror) Close() {
	m.once.Do(func() { close(m.done) })
}

// Apply updates the mirror for one native event.
func (m *Mirror) Apply(ev engine.Event) {
	switch ev.Kind {
	case engine.EventNavigationStarted:
		logging.Logf("navigation_handler url=%s", ev.URL)
		m.loading.Store(true)
		m.SetURL(ev.URL)
	case engine.EventLoadStarted:
		logging.Logf("page_load_handler event=Started url=%s", ev.URL)
		m.loading.Store(true)
	case engine.EventLoadFinished:
		logging.Logf("page_load_handler event=Finished url=%s", ev.URL)
		m.loading.Store(false)
		m.SetURL(ev.URL)
		m.commit(ev.URL)
	case engine.EventTitleChanged:
		logging.Logf("title_changed title=%s", ev.Title)
		m.SetTitle(ev.Title)
	case engine.EventMessage:
		logging.Logf("ipc url=%s body_len=%d", ev.URL, len(ev.Message))
		m.Push(ev.Message)
	}
}

// URL returns the current URL.
func (m *Mirror) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// SetURL replaces the current URL.
func (m *Mirror) SetURL(u string) {
	m.mu.Lock()
	m.url = u
	m.mu.Unlock()
}

// Title returns the page title.
func (m *Mirror) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// SetTitle replaces the page title.
func (m *Mirror) SetTitle(t string) {
	m.mu.Lock()
	m.title = t
	m.mu.Unlock()
}

// Loading reports whether a load is in progress.
func (m *Mirror) Loading() bool {
	return m.loading.Load()
}

// SetLoading sets the loading flag.
func (m *Mirror) SetLoading(on bool) {
	m.loading.Store(on)
}

// BeginTraversal marks the next finished load as a history move by delta
// (-1 back, +1 forward) rather than a new entry.
func (m *Mirror) BeginTraversal(delta int) {
	m.mu.Lock()
	m.travel = delta
	m.mu.Unlock()
}

// commit records a finished load in the history shadow.
func (m *Mirror) commit(u string) {
	if u == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	travel := m.travel
	m.travel = 0
	if travel != 0 {
		next := m.index + travel
		if next >= 0 && next < len(m.history) && m.history[next] == u {
			m.index = next
			return
		}
	}
	if m.index >= 0 && m.history[m.index] == u {
		return
	}
	m.history = append(m.history[:m.index+1], u)
	m.index = len(m.history) - 1
}

// CanGoBack reports whether history has an entry behind the current one.
func (m *Mirror) CanGoBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index > 0
}

// CanGoForward reports whether history has an entry ahead of the current
// one.
func (m *Mirror) CanGoForward() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index >= 0 && m.index < len(m.history)-1
}

// Push appends an inbound message.
func (m *Mirror) Push(msg string) {
	m.msgMu.Lock()
	m.messages = append(m.messages, msg)
	m.msgMu.Unlock()
}

// Drain atomically empties the message queue and returns its contents in
// arrival order. A drain with nothing queued returns an empty, non-nil
// slice.
func (m *Mirror) Drain() []string {
	m.msgMu.Lock()
	msgs := m.messages
	m.messages = nil
	m.msgMu.Unlock()
	if msgs == nil {
		return []string{}
	}
	return msgs
}
