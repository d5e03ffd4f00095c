package engine

// EventKind identifies a native event.
type EventKind int

const (
	// EventNavigationStarted fires before the engine commits to a new URL.
	EventNavigationStarted EventKind = iota + 1
	// EventLoadStarted fires when a page starts loading.
	EventLoadStarted
	// EventLoadFinished fires when a page finishes loading.
	EventLoadFinished
	// EventTitleChanged fires when the document title changes.
	EventTitleChanged
	// EventMessage carries a message posted by page script.
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventNavigationStarted:
		return "navigation_started"
	case EventLoadStarted:
		return "load_started"
	case EventLoadFinished:
		return "load_finished"
	case EventTitleChanged:
		return "title_changed"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is a native callback delivered over a channel.
type Event struct {
	Kind EventKind

	// URL is set for navigation and load events, and is the page origin
	// for messages.
	URL string

	// Title is set for title changes.
	Title string

	// Message is the body of a script message.
	Message string
}

// Emit sends ev on events unless done is closed first. It reports whether
// the event was delivered.
func Emit(events chan<- Event, done <-chan struct{}, ev Event) bool {
	if events == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
	}
	select {
	case events <- ev:
		return true
	case <-done:
		return false
	}
}
