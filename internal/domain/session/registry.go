package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry maps identifiers to sessions. It is the only place sessions are
// created or destroyed, and holds at most one session per identifier.
type Registry struct {
	mu       sync.RWMutex
	sessions map[Identifier]*Session
	locks    *keyedMutex

	factory ClientFactory
	store   RemoteStore
	qr      QRCache
	bus     *Bus
	root    string
	log     zerolog.Logger
}

// NewRegistry creates a registry whose sessions persist under remoteDataPath.
func NewRegistry(factory ClientFactory, store RemoteStore, qr QRCache, bus *Bus, remoteDataPath string, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[Identifier]*Session),
		locks:    newKeyedMutex(),
		factory:  factory,
		store:    store,
		qr:       qr,
		bus:      bus,
		root:     strings.Trim(strings.TrimSpace(remoteDataPath), "/"),
		log:      log.With().Str("component", "session-registry").Logger(),
	}
}

// RootPrefix returns the remote prefix that holds every session namespace.
func (r *Registry) RootPrefix() string {
	if r.root == "" {
		return ""
	}
	return r.root + "/"
}

// Namespace returns the remote prefix owned by id.
func (r *Registry) Namespace(id Identifier) string {
	return r.RootPrefix() + id.String() + "/"
}

// GetOrCreate returns the session for raw, creating it if needed.
func (r *Registry) GetOrCreate(ctx context.Context, raw string) (*Session, error) {
	id := Normalize(raw)
	if id.Empty() {
		return nil, ErrInvalidIdentifier
	}

	r.locks.Lock(id)
	defer r.locks.Unlock(id)

	return r.getOrCreateLocked(ctx, id)
}

func (r *Registry) getOrCreateLocked(ctx context.Context, id Identifier) (*Session, error) {
	if sess, ok := r.lookup(id); ok {
		return sess, nil
	}

	if err := r.store.Enabled(); err != nil {
		return nil, err
	}

	namespace := r.Namespace(id)
	client, err := r.factory.NewClient(ctx, id, namespace)
	if err != nil {
		return nil, fmt.Errorf("create client for %s: %w", id, err)
	}

	sess := newSession(id, namespace, client)

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	go r.pump(sess)

	r.log.Info().
		Str("phone_number", id.String()).
		Str("namespace", namespace).
		Msg("session created")
	r.bus.Publish(Event{Kind: EventSessionCreated, Identifier: id})

	return sess, nil
}

// Lookup returns the session registered for raw.
func (r *Registry) Lookup(raw string) (*Session, bool) {
	return r.lookup(Normalize(raw))
}

func (r *Registry) lookup(id Identifier) (*Session, bool) {
	if id.Empty() {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// List returns a sorted snapshot of registered identifiers.
func (r *Registry) List() []Identifier {
	r.mu.RLock()
	ids := make([]Identifier, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Sessions returns a snapshot of registered sessions ordered by identifier.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Remove destroys and unregisters the session for raw. It is idempotent and
// reports whether a session was present.
func (r *Registry) Remove(ctx context.Context, raw string) bool {
	id := Normalize(raw)
	if id.Empty() {
		return false
	}

	r.locks.Lock(id)
	defer r.locks.Unlock(id)

	return r.removeLocked(ctx, id)
}

func (r *Registry) removeLocked(ctx context.Context, id Identifier) bool {
	sess, ok := r.lookup(id)
	if !ok {
		return false
	}

	sess.markRemoved()

	if err := sess.client.Destroy(ctx); err != nil {
		removalErr := &RemovalError{Identifier: id, Err: err}
		r.log.Warn().Err(removalErr).Str("phone_number", id.String()).Msg("client did not release resources cleanly")
	}

	r.mu.Lock()
	if current, exists := r.sessions[id]; exists && current == sess {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if err := r.qr.Delete(ctx, id); err != nil {
		r.log.Warn().Err(err).Str("phone_number", id.String()).Msg("failed to clear cached qr code")
	}

	r.bus.Publish(Event{Kind: EventSessionRemoved, Identifier: id})
	r.bus.DropSession(id)

	r.log.Info().Str("phone_number", id.String()).Msg("session removed")
	return true
}

// Shutdown destroys every local session. Remote state is left untouched so
// the next boot can restore it.
func (r *Registry) Shutdown(ctx context.Context) {
	for _, id := range r.List() {
		r.Remove(ctx, id.String())
	}
}

func (r *Registry) pump(sess *Session) {
	events := sess.client.Events()
	for {
		select {
		case <-sess.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.dispatch(sess, ev)
		}
	}
}

// dispatch applies a client event to session state and republishes it.
func (r *Registry) dispatch(sess *Session, ev ClientEvent) {
	if sess.isRemoved() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := Event{Kind: ev.Kind, Identifier: sess.id, Reason: ev.Reason, Err: ev.Err}

	switch ev.Kind {
	case EventQR:
		sess.clearFault()
		sess.setAwaitingQR(true)
		active := sess.whileActive(func() {
			if err := r.qr.Set(ctx, sess.id, ev.QR); err != nil {
				r.log.Warn().Err(err).Str("phone_number", sess.id.String()).Msg("failed to cache qr code")
			}
		})
		if !active {
			return
		}
		out.QR = ev.QR
	case EventAuthenticated:
		sess.clearFault()
		sess.setAwaitingQR(false)
	case EventReady:
		sess.clearFault()
		sess.setAwaitingQR(false)
		if err := r.qr.Delete(ctx, sess.id); err != nil {
			r.log.Warn().Err(err).Str("phone_number", sess.id.String()).Msg("failed to clear cached qr code")
		}
		out.Identity = sess.identity()
	case EventRemoteSessionSaved:
	case EventAuthFailure:
		sess.setFault(StateError, ev.Reason)
	case EventDisconnected:
		sess.setFault(StateDisconnected, ev.Reason)
	case EventError:
		reason := ev.Reason
		if reason == "" && ev.Err != nil {
			reason = ev.Err.Error()
		}
		sess.recordError(reason)
	case EventMessage:
		if ev.Message == nil || ownMessage(sess.id, ev.Message) {
			return
		}
		out.Message = ev.Message
	default:
		r.log.Debug().Str("event", string(ev.Kind)).Str("phone_number", sess.id.String()).Msg("ignoring unknown client event")
		return
	}

	r.bus.Publish(out)
}

func ownMessage(id Identifier, msg *InboundMessage) bool {
	return msg.FromMe || Normalize(msg.From) == id
}
