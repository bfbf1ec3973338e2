package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusRouting(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var all, qrOnly, session []EventKind
	unsubAll := bus.SubscribeAll(func(ev Event) { all = append(all, ev.Kind) })
	unsubQR := bus.Subscribe(EventQR, func(ev Event) { qrOnly = append(qrOnly, ev.Kind) })
	unsubSession := bus.SubscribeSession("1", func(ev Event) { session = append(session, ev.Kind) })

	bus.Publish(Event{Kind: EventQR, Identifier: "1"})
	bus.Publish(Event{Kind: EventReady, Identifier: "2"})

	assert.Equal(t, []EventKind{EventQR, EventReady}, all)
	assert.Equal(t, []EventKind{EventQR}, qrOnly)
	assert.Equal(t, []EventKind{EventQR}, session)

	unsubAll()
	unsubQR()
	unsubSession()
	unsubSession()

	bus.Publish(Event{Kind: EventQR, Identifier: "1"})
	assert.Len(t, all, 2)
	assert.Len(t, qrOnly, 1)
	assert.Len(t, session, 1)
}

func TestBusDropSession(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	calls := 0
	bus.SubscribeSession("1", func(Event) { calls++ })

	bus.DropSession("1")
	bus.Publish(Event{Kind: EventReady, Identifier: "1"})

	assert.Zero(t, calls)
}

func TestBusRecoversListenerPanic(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	delivered := false
	bus.SubscribeAll(func(Event) { panic("listener bug") })
	bus.SubscribeAll(func(Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Publish(Event{Kind: EventReady}) })
	assert.True(t, delivered)
}

func TestBusStampsEvents(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	var got Event
	bus.SubscribeAll(func(ev Event) { got = ev })

	bus.Publish(Event{Kind: EventReady})
	assert.False(t, got.At.IsZero())
}

func TestIdentityFuture(t *testing.T) {
	var nilFuture *IdentityFuture
	_, state, _ := nilFuture.Result()
	assert.Equal(t, FuturePending, state)

	f := NewIdentityFuture()
	_, state, _ = f.Result()
	assert.Equal(t, FuturePending, state)

	assert.True(t, f.Resolve(Identity{WID: "1@c.us"}))
	assert.False(t, f.Resolve(Identity{WID: "2@c.us"}), "single assignment")
	assert.False(t, f.Fail(errBoom))

	identity, state, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, FutureResolved, state)
	assert.Equal(t, "1@c.us", identity.WID)

	failed := NewIdentityFuture()
	failed.Fail(errBoom)
	_, state, err = failed.Result()
	assert.Equal(t, FutureFailed, state)
	assert.ErrorIs(t, err, errBoom)
}

func TestIdentityFutureWait(t *testing.T) {
	f := NewIdentityFuture()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Resolve(Identity{WID: "1@c.us"})
	}()

	identity, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1@c.us", identity.WID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = NewIdentityFuture().Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
