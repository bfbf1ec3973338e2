package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ReconcilerOptions tunes a restore run.
type ReconcilerOptions struct {
	// Concurrency caps parallel restore attempts. Zero or less is unbounded.
	Concurrency int
	// ReadyTimeout, when positive, requires each restored session to reach
	// READY within the window.
	ReadyTimeout time.Duration
}

// Reconciler restores every session persisted in the remote store and prunes
// the ones that cannot be restored.
type Reconciler struct {
	controller *Controller
	registry   *Registry
	store      RemoteStore
	bus        *Bus
	opts       ReconcilerOptions
	log        zerolog.Logger
}

// NewReconciler creates a reconciler driving controller.
func NewReconciler(controller *Controller, opts ReconcilerOptions, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		controller: controller,
		registry:   controller.registry,
		store:      controller.store,
		bus:        controller.bus,
		opts:       opts,
		log:        log.With().Str("component", "session-reconciler").Logger(),
	}
}

// ListAvailable returns identifiers with a namespace in the remote store.
// Prefixes whose last segment is not purely numeric are skipped.
func (r *Reconciler) ListAvailable(ctx context.Context) ([]Identifier, error) {
	if err := r.store.Enabled(); err != nil {
		r.log.Warn().Err(err).Msg("remote store not configured; no sessions to list")
		return nil, nil
	}

	listing, err := r.store.ListByPrefix(ctx, r.registry.RootPrefix())
	if err != nil {
		return nil, fmt.Errorf("list remote sessions: %w", err)
	}

	ids := make([]Identifier, 0, len(listing.CommonPrefixes))
	for _, prefix := range listing.CommonPrefixes {
		segment := strings.TrimSuffix(prefix, "/")
		if idx := strings.LastIndex(segment, "/"); idx >= 0 {
			segment = segment[idx+1:]
		}
		if !isDigits(segment) {
			continue
		}
		ids = append(ids, Identifier(segment))
	}

	r.log.Debug().Int("count", len(ids)).Msg("remote sessions listed")
	return ids, nil
}

// RestoreAll restores every remote session. Failures never abort the batch;
// a failed session is removed locally and its remote namespace is pruned.
func (r *Reconciler) RestoreAll(ctx context.Context) *RestoreResult {
	ctx, span := otel.Tracer("whatsapp-api/session").Start(ctx, "session.RestoreAll")
	defer span.End()

	result := &RestoreResult{Errors: []string{}}

	ids, err := r.ListAvailable(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to enumerate remote sessions")
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	span.SetAttributes(attribute.Int("sessions.available", len(ids)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}

	for _, id := range ids {
		g.Go(func() error {
			err := r.restoreOne(gctx, id)
			if err == nil {
				mu.Lock()
				result.SuccessCount++
				mu.Unlock()
				r.bus.Publish(Event{Kind: EventRestored, Identifier: id})
				return nil
			}

			restoreErr := &RestoreError{Identifier: id, Err: err}
			r.log.Warn().Err(err).Str("phone_number", id.String()).Msg("session restore failed")
			r.bus.Publish(Event{Kind: EventRestoreFailed, Identifier: id, Err: restoreErr})

			pruned := false
			if retainRemote(gctx, err) {
				r.registry.Remove(gctx, id.String())
				r.log.Warn().Str("phone_number", id.String()).Msg("remote session kept; failure was not caused by its credentials")
			} else {
				pruned = r.prune(gctx, id)
			}

			mu.Lock()
			result.FailedCount++
			result.Errors = append(result.Errors, restoreErr.Error())
			if pruned {
				result.RemovedCount++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("sessions.restored", result.SuccessCount),
		attribute.Int("sessions.failed", result.FailedCount),
		attribute.Int("sessions.removed", result.RemovedCount),
	)

	r.log.Info().
		Int("restored", result.SuccessCount).
		Int("failed", result.FailedCount).
		Int("removed", result.RemovedCount).
		Msg("session restore completed")

	return result
}

func (r *Reconciler) restoreOne(ctx context.Context, id Identifier) error {
	if r.opts.ReadyTimeout <= 0 {
		_, err := r.controller.Initialize(ctx, id.String(), false)
		return err
	}

	outcome := make(chan error, 1)
	unsubscribe := r.bus.SubscribeSession(id, func(ev Event) {
		var res error
		switch ev.Kind {
		case EventReady:
		case EventAuthFailure:
			res = fmt.Errorf("authentication failed: %s", ev.Reason)
		case EventQR:
			res = errors.New("stored credentials rejected; qr code requested")
		default:
			return
		}
		select {
		case outcome <- res:
		default:
		}
	})
	defer unsubscribe()

	if _, err := r.controller.Initialize(ctx, id.String(), false); err != nil {
		return err
	}
	if r.controller.IsReady(id.String()) {
		return nil
	}

	timer := time.NewTimer(r.opts.ReadyTimeout)
	defer timer.Stop()

	select {
	case err := <-outcome:
		return err
	case <-timer.C:
		return fmt.Errorf("not ready after %s", r.opts.ReadyTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retainRemote reports whether err came from the environment rather than
// from the stored credentials. Such sessions stay in the remote store so a
// later restore can pick them up.
func retainRemote(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrNoTransport) || errors.Is(err, ErrStoreUnavailable) {
		return true
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}

// prune removes the local session and every remote blob of id.
func (r *Reconciler) prune(ctx context.Context, id Identifier) bool {
	r.registry.Remove(ctx, id.String())

	deleted, err := r.store.DeleteByPrefix(ctx, r.registry.Namespace(id))
	if err != nil {
		r.log.Error().Err(err).Str("phone_number", id.String()).Msg("failed to prune remote session")
		return false
	}

	r.log.Info().
		Str("phone_number", id.String()).
		Int("objects", deleted).
		Msg("remote session pruned")
	r.bus.Publish(Event{Kind: EventPruned, Identifier: id})
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
