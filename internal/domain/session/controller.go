package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ControllerOptions tunes readiness waits.
type ControllerOptions struct {
	// ReadyWaitTimeout bounds how long IsReadyAsync waits on an in-flight identity.
	ReadyWaitTimeout time.Duration
	// SoftRetryDelay is the single pause SendMessage takes on a not-ready session.
	SoftRetryDelay time.Duration
}

// Controller drives session lifecycle transitions and answers readiness and
// connectivity queries.
type Controller struct {
	registry *Registry
	store    RemoteStore
	qr       QRCache
	bus      *Bus
	opts     ControllerOptions
	log      zerolog.Logger
}

// NewController creates a lifecycle controller over registry.
func NewController(registry *Registry, opts ControllerOptions, log zerolog.Logger) *Controller {
	return &Controller{
		registry: registry,
		store:    registry.store,
		qr:       registry.qr,
		bus:      registry.bus,
		opts:     opts,
		log:      log.With().Str("component", "session-controller").Logger(),
	}
}

// Initialize ensures a started client exists for raw. With forceRecreate any
// existing session is torn down first and a new client is always built.
func (c *Controller) Initialize(ctx context.Context, raw string, forceRecreate bool) (Client, error) {
	id := Normalize(raw)
	if id.Empty() {
		return nil, ErrInvalidIdentifier
	}

	c.registry.locks.Lock(id)
	defer c.registry.locks.Unlock(id)

	if forceRecreate {
		if c.registry.removeLocked(ctx, id) {
			c.log.Debug().Str("phone_number", id.String()).Msg("previous session removed before initialize")
		}
	}

	sess, err := c.registry.getOrCreateLocked(ctx, id)
	if err != nil {
		return nil, err
	}

	if identityResolved(sess.client.Identity()) {
		return sess.client, nil
	}

	sess.markStarted()
	if err := sess.client.Start(ctx); err != nil {
		sess.setFault(StateError, err.Error())
		return nil, fmt.Errorf("start session %s: %w", id, err)
	}

	c.log.Info().
		Str("phone_number", id.String()).
		Bool("force_recreate", forceRecreate).
		Msg("session initialized")

	return sess.client, nil
}

// IsReady reports readiness without waiting.
func (c *Controller) IsReady(raw string) bool {
	sess, ok := c.registry.Lookup(raw)
	if !ok {
		return false
	}
	return sess.Ready()
}

// IsReadyAsync waits for an in-flight identity resolution before answering.
// A failed or timed out resolution is reported as not ready.
func (c *Controller) IsReadyAsync(ctx context.Context, raw string) bool {
	sess, ok := c.registry.Lookup(raw)
	if !ok {
		return false
	}

	if future := sess.client.Identity(); future != nil && c.opts.ReadyWaitTimeout > 0 {
		if _, state, _ := future.Result(); state == FuturePending {
			waitCtx, cancel := context.WithTimeout(ctx, c.opts.ReadyWaitTimeout)
			_, _ = future.Wait(waitCtx)
			cancel()
		}
	}

	return sess.Ready()
}

// IsConnected reports whether the session is ready and its transport answers
// a probe. Probe errors and panics count as disconnected.
func (c *Controller) IsConnected(ctx context.Context, raw string) (connected bool) {
	sess, ok := c.registry.Lookup(raw)
	if !ok || !sess.Ready() {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Warn().
				Interface("panic", r).
				Str("phone_number", sess.id.String()).
				Msg("connectivity probe panicked")
			connected = false
		}
	}()

	if err := sess.client.Probe(ctx); err != nil {
		c.log.Debug().Err(err).Str("phone_number", sess.id.String()).Msg("connectivity probe failed")
		return false
	}
	return true
}

// Logout unlinks the device, unregisters the session and prunes its remote
// namespace. Absent sessions are a no-op.
func (c *Controller) Logout(ctx context.Context, raw string) error {
	id := Normalize(raw)
	if id.Empty() {
		return ErrInvalidIdentifier
	}

	c.registry.locks.Lock(id)
	defer c.registry.locks.Unlock(id)

	sess, ok := c.registry.lookup(id)
	if !ok {
		return nil
	}

	if err := sess.client.Logout(ctx); err != nil {
		return &TransportError{Identifier: id, Op: "logout", Err: err}
	}

	c.registry.removeLocked(ctx, id)

	if _, err := c.store.DeleteByPrefix(ctx, sess.namespace); err != nil {
		c.log.Warn().Err(err).Str("phone_number", id.String()).Msg("failed to prune remote session after logout")
	}

	c.log.Info().Str("phone_number", id.String()).Msg("session logged out")
	return nil
}

// SendMessage sends body from the session raw to the destination to.
func (c *Controller) SendMessage(ctx context.Context, raw, to, body string) (*SendResult, error) {
	id := Normalize(raw)
	if id.Empty() {
		return nil, ErrInvalidIdentifier
	}

	sess, ok := c.registry.lookup(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	if !c.IsReadyAsync(ctx, raw) {
		select {
		case <-time.After(c.opts.SoftRetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if !c.IsReadyAsync(ctx, raw) {
			return nil, ErrNotReady
		}
	}

	if !c.IsConnected(ctx, raw) {
		return nil, &TransportError{Identifier: id, Op: "send", Err: ErrNoTransport}
	}

	chatID := ChatID(to)
	result, err := sess.client.Send(ctx, chatID, body)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return nil, err
		}
		return nil, &TransportError{Identifier: id, Op: "send", Err: err}
	}
	if result == nil {
		result = &SendResult{}
	}
	result.From = id.String()
	if result.To == "" {
		result.To = chatID
	}
	if result.Body == "" {
		result.Body = body
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	c.log.Info().
		Str("phone_number", id.String()).
		Str("to", chatID).
		Msg("message sent")

	return result, nil
}

// QRCode returns the cached QR payload for raw.
func (c *Controller) QRCode(ctx context.Context, raw string) (string, bool) {
	id := Normalize(raw)
	if id.Empty() {
		return "", false
	}
	return c.qr.Get(ctx, id)
}

// WaitQRCode returns the cached QR payload, waiting up to timeout for the
// next one. It returns early when the session becomes ready.
func (c *Controller) WaitQRCode(ctx context.Context, raw string, timeout time.Duration) (string, bool) {
	id := Normalize(raw)
	if id.Empty() {
		return "", false
	}

	signal := make(chan struct{}, 1)
	unsubscribe := c.bus.SubscribeSession(id, func(ev Event) {
		if ev.Kind == EventQR || ev.Kind == EventReady || ev.Kind == EventSessionRemoved {
			select {
			case signal <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if qr, ok := c.qr.Get(ctx, id); ok {
		return qr, true
	}
	if c.IsReady(raw) || timeout <= 0 {
		return "", false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-signal:
		return c.qr.Get(ctx, id)
	case <-timer.C:
		return c.qr.Get(ctx, id)
	case <-ctx.Done():
		return "", false
	}
}

// Status describes raw whether or not a session is registered.
func (c *Controller) Status(ctx context.Context, raw string) (*StatusView, error) {
	id := Normalize(raw)
	if id.Empty() {
		return nil, ErrInvalidIdentifier
	}

	view := &StatusView{Identifier: id, State: StateNotInitialized}
	_, view.HasQR = c.qr.Get(ctx, id)

	sess, ok := c.registry.lookup(id)
	if !ok {
		return view, nil
	}

	view.HasClient = true
	view.Ready = c.IsReadyAsync(ctx, raw)
	view.State = sess.State()
	if view.HasQR && view.State == StateInitializing {
		view.State = StateWaitingQR
	}
	if view.Ready {
		view.Identity = sess.identity()
	}
	return view, nil
}

// Summaries lists every registered session.
func (c *Controller) Summaries(ctx context.Context) []Summary {
	sessions := c.registry.Sessions()
	out := make([]Summary, 0, len(sessions))
	for _, sess := range sessions {
		_, hasQR := c.qr.Get(ctx, sess.id)
		out = append(out, Summary{
			Identifier: sess.id,
			State:      sess.State(),
			Ready:      sess.Ready(),
			HasQR:      hasQR,
			CreatedAt:  sess.createdAt,
		})
	}
	return out
}
