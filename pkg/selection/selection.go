// Package selection fans a selected entity name out to every view that
// highlights it.
//
// A Broadcaster is a fire-and-forget topic: handlers registered when Emit is
// called see the event, later subscribers never do. A failing handler is
// isolated so the remaining views still update.
package selection

import (
	"fmt"
	"sync"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// DefaultTopic is the event name the views agree on.
const DefaultTopic = "countrySelected"

// Handler reacts to a selected name. A returned error is reported but does
// not stop delivery to other handlers.
type Handler func(name string) error

// HandlerError describes one failed delivery.
type HandlerError struct {
	Topic string
	Key   string
	Name  string
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler %q failed for %q: %v", e.Topic, e.Key, e.Name, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithOnError sets a callback for failed deliveries. It runs on the emitting
// goroutine.
func WithOnError(fn func(*HandlerError)) Option {
	return func(b *Broadcaster) { b.onError = fn }
}

type entry struct {
	key string
	h   Handler
}

// Broadcaster is safe for concurrent use.
type Broadcaster struct {
	topic   string
	onError func(*HandlerError)

	mu       sync.Mutex
	handlers []entry
}

// New creates a Broadcaster. An empty topic means DefaultTopic.
func New(topic string, opts ...Option) *Broadcaster {
	if topic == "" {
		topic = DefaultTopic
	}
	b := &Broadcaster{topic: topic}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Topic returns the event name.
func (b *Broadcaster) Topic() string {
	return b.topic
}

// Subscribe registers h under key. Handlers run in registration order;
// subscribing an existing key replaces its handler and keeps its position.
// The returned function removes whatever handler is registered under key.
func (b *Broadcaster) Subscribe(key string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	replaced := false
	for i := range b.handlers {
		if b.handlers[i].key == key {
			b.handlers[i].h = h
			replaced = true
			break
		}
	}
	if !replaced {
		b.handlers = append(b.handlers, entry{key: key, h: h})
	}
	debug.Log("selection: %s subscribed %q (%d handlers)", b.topic, key, len(b.handlers))

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(key) })
	}
}

func (b *Broadcaster) unsubscribe(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.handlers {
		if b.handlers[i].key == key {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered handlers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// Emit delivers name to every handler registered at the time of the call,
// in order. It returns after all of them ran.
func (b *Broadcaster) Emit(name string) {
	defer metrics.Timer(metrics.SelectionDispatch)()

	b.mu.Lock()
	snapshot := make([]entry, len(b.handlers))
	copy(snapshot, b.handlers)
	b.mu.Unlock()

	debug.Log("selection: %s %q -> %d handlers", b.topic, name, len(snapshot))
	for _, e := range snapshot {
		if err := b.deliver(e, name); err != nil {
			herr := &HandlerError{Topic: b.topic, Key: e.key, Name: name, Err: err}
			debug.Warn("%v", herr)
			if b.onError != nil {
				b.onError(herr)
			}
		}
	}
}

func (b *Broadcaster) deliver(e entry, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.h(name)
}
