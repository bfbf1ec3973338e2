package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Identifier
	}{
		{"+55 (11) 99999-9999", "5511999999999"},
		{"5511999999999", "5511999999999"},
		{"5511999999999@c.us", "5511999999999"},
		{"abc", ""},
		{"", ""},
		{"１２3", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got.String()), "normalize must be idempotent")
		})
	}
}

func TestChatID(t *testing.T) {
	assert.Equal(t, "5511999999999@c.us", ChatID("+55 11 99999-9999"))
	assert.Equal(t, "5511999999999@c.us", ChatID("5511999999999@c.us"))
}

func TestNamespace(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "whatsapp-sessions/", h.registry.RootPrefix())
	assert.Equal(t, "whatsapp-sessions/5511/", h.registry.Namespace("5511"))

	bare := NewRegistry(h.factory, h.store, h.qr, h.bus, "", h.registry.log)
	assert.Equal(t, "5511/", bare.Namespace("5511"))
}

func TestGetOrCreateEquivalentNumbersShareSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.registry.GetOrCreate(ctx, "+55 (11) 99999-9999")
	require.NoError(t, err)
	second, err := h.registry.GetOrCreate(ctx, "5511999999999")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, Identifier("5511999999999"), first.Identifier())
	assert.Equal(t, "whatsapp-sessions/5511999999999/", first.Namespace())
	assert.Equal(t, []Identifier{"5511999999999"}, h.registry.List())
	assert.Equal(t, int32(1), h.factory.calls.Load())
}

func TestGetOrCreateConcurrentCallersGetOneClient(t *testing.T) {
	h := newHarness(t)
	h.factory.delay = 5 * time.Millisecond

	const callers = 50
	results := make([]*Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := h.registry.GetOrCreate(context.Background(), "5511999999999")
			assert.NoError(t, err)
			results[i] = sess
		}(i)
	}
	wg.Wait()

	for _, sess := range results {
		assert.Same(t, results[0], sess)
	}
	assert.Equal(t, int32(1), h.factory.calls.Load())
}

func TestGetOrCreateRequiresStoreConfiguration(t *testing.T) {
	h := newHarness(t)
	h.store.disabled = true

	_, err := h.registry.GetOrCreate(context.Background(), "5511")

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Missing, "AWS_S3_BUCKET_NAME")
	assert.Empty(t, h.registry.List())
	assert.Equal(t, int32(0), h.factory.calls.Load())
}

func TestGetOrCreateRejectsEmptyIdentifier(t *testing.T) {
	h := newHarness(t)
	_, err := h.registry.GetOrCreate(context.Background(), "no digits")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestRemoveIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.registry.GetOrCreate(ctx, "5511")
	require.NoError(t, err)
	require.NoError(t, h.qr.Set(ctx, "5511", "qr-payload"))

	assert.True(t, h.registry.Remove(ctx, "5511"))
	assert.False(t, h.registry.Remove(ctx, "5511"))

	client := sess.Client().(*fakeClient)
	_, destroyed, _ := client.counts()
	assert.Equal(t, 1, destroyed)
	assert.Equal(t, StateRemoved, sess.State())
	assert.Empty(t, h.registry.List())

	_, hasQR := h.qr.Get(ctx, "5511")
	assert.False(t, hasQR)
}

func TestRemoveProceedsWhenDestroyFails(t *testing.T) {
	h := newHarness(t)
	h.factory.configure = func(c *fakeClient) { c.destroyErr = errBoom }
	ctx := context.Background()

	_, err := h.registry.GetOrCreate(ctx, "5511")
	require.NoError(t, err)

	assert.True(t, h.registry.Remove(ctx, "5511"))
	_, ok := h.registry.Lookup("5511")
	assert.False(t, ok)
}

func TestRemovePublishesAndDropsSessionListeners(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.registry.GetOrCreate(ctx, "5511")
	require.NoError(t, err)

	removed := expectEvent(t, h.bus, "5511", EventSessionRemoved)
	h.registry.Remove(ctx, "5511")
	removed()

	h.bus.mu.RLock()
	defer h.bus.mu.RUnlock()
	assert.Empty(t, h.bus.bySession["5511"])
}

func TestShutdownDestroysAllSessionsAndKeepsRemoteState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.Put(ctx, "whatsapp-sessions/1/session.zip.zst", []byte("x")))

	for _, raw := range []string{"1", "2", "3"} {
		_, err := h.registry.GetOrCreate(ctx, raw)
		require.NoError(t, err)
	}

	h.registry.Shutdown(ctx)

	assert.Empty(t, h.registry.List())
	assert.Len(t, h.store.keys("whatsapp-sessions/1/"), 1)
	for _, raw := range []Identifier{"1", "2", "3"} {
		_, destroyed, _ := h.factory.clients(raw)[0].counts()
		assert.Equal(t, 1, destroyed)
	}
}

// gatedQRCache blocks Set until release is closed.
type gatedQRCache struct {
	*mapQRCache
	entered chan struct{}
	release chan struct{}
}

func (c *gatedQRCache) Set(ctx context.Context, id Identifier, qr string) error {
	c.entered <- struct{}{}
	<-c.release
	return c.mapQRCache.Set(ctx, id, qr)
}

func TestRemoveWaitsForInFlightQRCaching(t *testing.T) {
	h := newHarness(t)
	cache := &gatedQRCache{
		mapQRCache: newMapQRCache(),
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	h.registry = NewRegistry(h.factory, h.store, cache, h.bus, "whatsapp-sessions/", zerolog.Nop())
	ctx := context.Background()

	sess, err := h.registry.GetOrCreate(ctx, "5511")
	require.NoError(t, err)
	sess.Client().(*fakeClient).emit(ClientEvent{Kind: EventQR, QR: "qr-late"})

	select {
	case <-cache.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("qr code was never cached")
	}

	removed := make(chan bool, 1)
	go func() { removed <- h.registry.Remove(ctx, "5511") }()
	select {
	case <-removed:
		t.Fatal("remove finished while a qr code was being cached")
	case <-time.After(50 * time.Millisecond):
	}

	close(cache.release)
	assert.True(t, <-removed)
	_, hasQR := cache.Get(ctx, "5511")
	assert.False(t, hasQR, "removal clears a qr code cached concurrently")
}
