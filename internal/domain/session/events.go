package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a normalized lifecycle event.
type Event struct {
	Kind       EventKind
	Identifier Identifier
	QR         string
	Reason     string
	Err        error
	Identity   *Identity
	Message    *InboundMessage
	At         time.Time
}

// Listener receives events on the goroutine that published them.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// Bus fans events out to subscribers. Listeners run synchronously on the
// publishing goroutine, so events for one identifier arrive in order.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	all       []subscription
	byKind    map[EventKind][]subscription
	bySession map[Identifier][]subscription
	log       zerolog.Logger
}

// NewBus creates an empty event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		byKind:    make(map[EventKind][]subscription),
		bySession: make(map[Identifier][]subscription),
		log:       log.With().Str("component", "session-events").Logger(),
	}
}

// Subscribe registers fn for one event kind.
func (b *Bus) Subscribe(kind EventKind, fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := b.newSubscription(fn)
	b.byKind[kind] = append(b.byKind[kind], sub)
	return b.unsubscriber(func() {
		b.byKind[kind] = without(b.byKind[kind], sub.id)
		if len(b.byKind[kind]) == 0 {
			delete(b.byKind, kind)
		}
	})
}

// SubscribeAll registers fn for every event.
func (b *Bus) SubscribeAll(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := b.newSubscription(fn)
	b.all = append(b.all, sub)
	return b.unsubscriber(func() {
		b.all = without(b.all, sub.id)
	})
}

// SubscribeSession registers fn for events of one identifier. The
// subscription is dropped when the session is removed.
func (b *Bus) SubscribeSession(id Identifier, fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := b.newSubscription(fn)
	b.bySession[id] = append(b.bySession[id], sub)
	return b.unsubscriber(func() {
		b.bySession[id] = without(b.bySession[id], sub.id)
		if len(b.bySession[id]) == 0 {
			delete(b.bySession, id)
		}
	})
}

// Publish delivers ev to every matching listener.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	targets := make([]Listener, 0, len(b.all)+len(b.byKind[ev.Kind])+len(b.bySession[ev.Identifier]))
	for _, sub := range b.all {
		targets = append(targets, sub.fn)
	}
	for _, sub := range b.byKind[ev.Kind] {
		targets = append(targets, sub.fn)
	}
	for _, sub := range b.bySession[ev.Identifier] {
		targets = append(targets, sub.fn)
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		b.deliver(fn, ev)
	}
}

// DropSession removes every per-session subscription of id.
func (b *Bus) DropSession(id Identifier) {
	b.mu.Lock()
	delete(b.bySession, id)
	b.mu.Unlock()
}

func (b *Bus) deliver(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event", string(ev.Kind)).
				Str("phone_number", ev.Identifier.String()).
				Msg("event listener panicked")
		}
	}()
	fn(ev)
}

func (b *Bus) newSubscription(fn Listener) subscription {
	b.nextID++
	return subscription{id: b.nextID, fn: fn}
}

func (b *Bus) unsubscriber(remove func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			remove()
		})
	}
}

func without(subs []subscription, id uint64) []subscription {
	out := subs[:0]
	for _, sub := range subs {
		if sub.id != id {
			out = append(out, sub)
		}
	}
	return out
}
