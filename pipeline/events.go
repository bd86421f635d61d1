package pipeline

// Event is published on pipeline completion or failure, for consumption
// by external tooling such as a live-reload mechanism.
type Event struct {
	// Name is the event name ("compile.done", "pipeline.error", ...).
	Name string
	// Path is the payload path pattern the event refers to.
	Path string
	// RunID identifies the originating run.
	RunID string
	// Err is set on error events.
	Err error
}

// Suffixes appended to the operation name to form event names.
const (
	EventSuffixDone = ".done"
	EventFailed     = "pipeline.error"
)

// Notifier receives pipeline events. Implementations must not block:
// Publish is called on the pipeline's goroutine.
type Notifier interface {
	Publish(Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

func (f NotifierFunc) Publish(e Event) { f(e) }

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Publish(Event) {}

// ChanNotifier delivers events on a buffered channel. If the consumer
// falls behind and the buffer fills, events are dropped rather than
// blocking the pipeline.
type ChanNotifier struct {
	ch chan Event
}

// NewChanNotifier creates a ChanNotifier with the given buffer size.
func NewChanNotifier(buffer int) *ChanNotifier {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChanNotifier{ch: make(chan Event, buffer)}
}

// Events returns the channel events are delivered on.
func (n *ChanNotifier) Events() <-chan Event { return n.ch }

// Publish delivers the event, dropping it if the buffer is full.
func (n *ChanNotifier) Publish(e Event) {
	select {
	case n.ch <- e:
	default:
	}
}

// MultiNotifier fans an event out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Publish(e Event) {
	for _, n := range m {
		n.Publish(e)
	}
}
