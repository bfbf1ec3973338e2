package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeClient struct {
	id Identifier

	mu           sync.Mutex
	identity     *IdentityFuture
	startErr     error
	probeErr     error
	probePanic   bool
	logoutErr    error
	destroyErr   error
	sendErr      error
	startCalls   int
	destroyCalls int
	logoutCalls  int
	sent         []string
	onStart      func(c *fakeClient)

	events chan ClientEvent
}

func newFakeClient(id Identifier) *fakeClient {
	return &fakeClient{id: id, events: make(chan ClientEvent, 32)}
}

func (c *fakeClient) Start(ctx context.Context) error {
	c.mu.Lock()
	c.startCalls++
	err := c.startErr
	hook := c.onStart
	c.mu.Unlock()
	if err == nil && hook != nil {
		hook(c)
	}
	return err
}

func (c *fakeClient) Identity() *IdentityFuture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *fakeClient) Send(ctx context.Context, to, body string) (*SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	c.sent = append(c.sent, to+":"+body)
	return &SendResult{MessageID: "msg-1", To: to}, nil
}

func (c *fakeClient) Probe(ctx context.Context) error {
	c.mu.Lock()
	panicking, err := c.probePanic, c.probeErr
	c.mu.Unlock()
	if panicking {
		panic("page closed")
	}
	return err
}

func (c *fakeClient) Destroy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyCalls++
	return c.destroyErr
}

func (c *fakeClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logoutCalls++
	return c.logoutErr
}

func (c *fakeClient) Events() <-chan ClientEvent {
	return c.events
}

func (c *fakeClient) emit(ev ClientEvent) {
	c.events <- ev
}

func (c *fakeClient) becomeReady() {
	c.mu.Lock()
	c.identity = ResolvedIdentity(Identity{WID: c.id.String() + "@c.us", PushName: "Jan"})
	c.mu.Unlock()
	c.emit(ClientEvent{Kind: EventReady})
}

func (c *fakeClient) counts() (start, destroy, logout int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startCalls, c.destroyCalls, c.logoutCalls
}

type fakeFactory struct {
	mu        sync.Mutex
	created   map[Identifier][]*fakeClient
	calls     atomic.Int32
	delay     time.Duration
	configure func(c *fakeClient)
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{created: make(map[Identifier][]*fakeClient)}
}

func (f *fakeFactory) NewClient(ctx context.Context, id Identifier, namespace string) (Client, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	c := newFakeClient(id)
	if f.configure != nil {
		f.configure(c)
	}
	f.mu.Lock()
	f.created[id] = append(f.created[id], c)
	f.mu.Unlock()
	return c, nil
}

func (f *fakeFactory) clients(id Identifier) []*fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeClient(nil), f.created[id]...)
}

type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	disabled  bool
	deleteErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Enabled() error {
	if s.disabled {
		return &ConfigurationError{Missing: []string{"AWS_S3_BUCKET_NAME"}}
	}
	return nil
}

func (s *memoryStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

func (s *memoryStore) Head(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memoryStore) ListByPrefix(ctx context.Context, prefix string) (*Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing := &Listing{}
	seen := map[string]bool{}
	for key := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if idx := strings.Index(rest, "/"); idx >= 0 {
			common := prefix + rest[:idx+1]
			if !seen[common] {
				seen[common] = true
				listing.CommonPrefixes = append(listing.CommonPrefixes, common)
			}
			continue
		}
		listing.Keys = append(listing.Keys, key)
	}
	sort.Strings(listing.Keys)
	sort.Strings(listing.CommonPrefixes)
	return listing, nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memoryStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	count := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
			count++
		}
	}
	return count, nil
}

func (s *memoryStore) Health(ctx context.Context) error { return nil }

func (s *memoryStore) keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

type mapQRCache struct {
	mu    sync.Mutex
	codes map[Identifier]string
}

func newMapQRCache() *mapQRCache {
	return &mapQRCache{codes: make(map[Identifier]string)}
}

func (c *mapQRCache) Set(ctx context.Context, id Identifier, qr string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[id] = qr
	return nil
}

func (c *mapQRCache) Get(ctx context.Context, id Identifier) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	qr, ok := c.codes[id]
	return qr, ok
}

func (c *mapQRCache) Delete(ctx context.Context, id Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.codes, id)
	return nil
}

type harness struct {
	bus        *Bus
	store      *memoryStore
	qr         *mapQRCache
	factory    *fakeFactory
	registry   *Registry
	controller *Controller
	reconciler *Reconciler
	service    Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	h := &harness{
		bus:     NewBus(log),
		store:   newMemoryStore(),
		qr:      newMapQRCache(),
		factory: newFakeFactory(),
	}
	h.registry = NewRegistry(h.factory, h.store, h.qr, h.bus, "whatsapp-sessions/", log)
	h.controller = NewController(h.registry, ControllerOptions{
		ReadyWaitTimeout: 200 * time.Millisecond,
		SoftRetryDelay:   10 * time.Millisecond,
	}, log)
	h.reconciler = NewReconciler(h.controller, ReconcilerOptions{Concurrency: 4}, log)
	h.service = NewService(h.registry, h.controller, h.reconciler, log)
	t.Cleanup(func() { h.registry.Shutdown(context.Background()) })
	return h
}

// expectEvent subscribes before the triggering action and returns a waiter.
func expectEvent(t *testing.T, bus *Bus, id Identifier, kind EventKind) func() Event {
	t.Helper()
	ch := make(chan Event, 8)
	unsubscribe := bus.SubscribeSession(id, func(ev Event) {
		if ev.Kind == kind {
			select {
			case ch <- ev:
			default:
			}
		}
	})
	t.Cleanup(unsubscribe)
	return func() Event {
		t.Helper()
		select {
		case ev := <-ch:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s event on %s", kind, id)
			return Event{}
		}
	}
}

var errBoom = errors.New("boom")
