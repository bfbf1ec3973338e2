package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/infrastructure/metrics"
)

const (
	eventBuffer  = 64
	writeTimeout = 10 * time.Second
)

var errClientDestroyed = errors.New("client destroyed")

// commandError is a result frame the worker answered with ok=false.
type commandError struct {
	op  Op
	msg string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("%s: %s", e.op, e.msg)
}

// Options tunes a bridge client.
type Options struct {
	URL              string
	DialTimeout      time.Duration
	RequestTimeout   time.Duration
	SnapshotInterval time.Duration
}

// Client drives one WhatsApp account through a bridge worker connection.
type Client struct {
	id        session.Identifier
	opts      Options
	dialer    *websocket.Dialer
	snapshots snapshots
	log       zerolog.Logger

	startMu sync.Mutex

	mu       sync.Mutex
	conn     *websocket.Conn
	closed   chan struct{}
	pending  map[string]chan frame
	identity *session.IdentityFuture

	writeMu sync.Mutex

	// saves tracks in-flight snapshot uploads; savesOff stops new ones.
	saves    sync.WaitGroup
	savesOff bool

	events      chan session.ClientEvent
	destroyed   chan struct{}
	destroyOnce sync.Once
}

// NewClient builds a client for id persisting credentials under namespace.
func NewClient(id session.Identifier, namespace string, store session.RemoteStore, opts Options, log zerolog.Logger) *Client {
	return &Client{
		id:        id,
		opts:      opts,
		dialer:    &websocket.Dialer{HandshakeTimeout: opts.DialTimeout},
		snapshots: snapshots{store: store, namespace: namespace},
		log:       log.With().Str("component", "bridge-client").Str("phone_number", id.String()).Logger(),
		events:    make(chan session.ClientEvent, eventBuffer),
		destroyed: make(chan struct{}),
	}
}

// Events delivers lifecycle events in emission order.
func (c *Client) Events() <-chan session.ClientEvent {
	return c.events
}

// Identity returns the current identity resolution, nil before authentication.
func (c *Client) Identity() *session.IdentityFuture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Start connects to the worker and asks it to launch the session, restoring
// the stored credential archive if one exists. It is a no-op while connected.
func (c *Client) Start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.isDestroyed() {
		return errClientDestroyed
	}
	if c.connected() {
		return nil
	}

	archive, err := c.snapshots.load(ctx)
	if err != nil {
		return err
	}

	dialCtx := ctx
	if c.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.opts.DialTimeout)
		defer cancel()
	}
	conn, _, err := c.dialer.DialContext(dialCtx, c.opts.URL, nil)
	if err != nil {
		return &session.TransportError{Identifier: c.id, Op: "start", Err: fmt.Errorf("dial bridge: %w", err)}
	}

	closed := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.closed = closed
	c.pending = make(map[string]chan frame)
	c.savesOff = false
	c.mu.Unlock()

	go c.readLoop(conn, closed)

	data := startData{BackupSyncIntervalMs: c.opts.SnapshotInterval.Milliseconds()}
	if archive != nil {
		data.Snapshot = base64.StdEncoding.EncodeToString(archive)
	}
	if _, err := c.call(ctx, OpStart, data); err != nil {
		c.dropConn(conn)
		var rejected *commandError
		if errors.As(err, &rejected) {
			return err
		}
		return &session.TransportError{Identifier: c.id, Op: "start", Err: err}
	}

	c.log.Debug().Bool("restored", archive != nil).Msg("bridge session started")
	return nil
}

// Send delivers body to the chat id to.
func (c *Client) Send(ctx context.Context, to, body string) (*session.SendResult, error) {
	raw, err := c.call(ctx, OpSend, sendData{To: to, Body: body})
	if err != nil {
		return nil, &session.TransportError{Identifier: c.id, Op: "send", Err: err}
	}

	var reply sendReply
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &reply); err != nil {
			return nil, fmt.Errorf("decode send reply: %w", err)
		}
	}
	return &session.SendResult{
		MessageID: reply.ID,
		From:      reply.From,
		To:        reply.To,
		Body:      reply.Body,
		Timestamp: unixOrNow(reply.Timestamp),
	}, nil
}

// Probe pings the worker, which checks the browser page is alive.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.call(ctx, OpPing, nil)
	return err
}

// Logout unlinks the device and deletes the stored archive. Uploads already
// in flight finish before the archive is deleted.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.savesOff = true
	c.mu.Unlock()

	if c.connected() {
		if _, err := c.call(ctx, OpLogout, nil); err != nil {
			c.mu.Lock()
			c.savesOff = false
			c.mu.Unlock()
			return err
		}
	}
	c.saves.Wait()
	if err := c.snapshots.delete(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.identity = nil
	c.mu.Unlock()
	return nil
}

// Destroy asks the worker to close the browser and drops the connection.
// Subsequent calls return nil.
func (c *Client) Destroy(ctx context.Context) error {
	var err error
	c.destroyOnce.Do(func() {
		c.mu.Lock()
		close(c.destroyed)
		conn := c.conn
		c.mu.Unlock()
		defer c.saves.Wait()
		if conn == nil {
			return
		}

		if _, callErr := c.call(ctx, OpDestroy, nil); callErr != nil && !errors.Is(callErr, session.ErrNoTransport) {
			err = callErr
		}
		c.dropConn(conn)
	})
	return err
}

func (c *Client) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) isDestroyed() bool {
	select {
	case <-c.destroyed:
		return true
	default:
		return false
	}
}

// call sends a command and waits for its result frame.
func (c *Client) call(ctx context.Context, op Op, data any) (json.RawMessage, error) {
	c.mu.Lock()
	conn, closed := c.conn, c.closed
	if conn == nil {
		c.mu.Unlock()
		return nil, session.ErrNoTransport
	}
	id := uuid.NewString()
	reply := make(chan frame, 1)
	c.pending[id] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.pending != nil {
			delete(c.pending, id)
		}
		c.mu.Unlock()
	}()

	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(command{ID: id, Op: op, Session: c.id.String(), Data: data})
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("write %s command: %w", op, err)
	}

	select {
	case f := <-reply:
		if !f.OK {
			if f.Error == "" {
				f.Error = "command rejected"
			}
			return nil, &commandError{op: op, msg: f.Error}
		}
		return f.Data, nil
	case <-closed:
		return nil, fmt.Errorf("%s: %w", op, session.ErrNoTransport)
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// dropConn closes conn and forgets it if it is still current.
func (c *Client) dropConn(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}

func (c *Client) readLoop(conn *websocket.Conn, closed chan struct{}) {
	var readErr error
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			readErr = err
			break
		}

		switch f.Type {
		case frameResult:
			c.mu.Lock()
			reply, ok := c.pending[f.ID]
			c.mu.Unlock()
			if !ok {
				break
			}
			select {
			case reply <- f:
			default:
				c.log.Warn().Str("id", f.ID).Msg("dropping duplicate bridge result")
			}
		case frameEvent:
			c.handleEvent(f)
		default:
			c.log.Debug().Str("type", f.Type).Msg("ignoring unknown bridge frame")
		}
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	close(closed)
	_ = conn.Close()

	if c.isDestroyed() {
		return
	}
	reason := "connection closed"
	if readErr != nil && !websocket.IsCloseError(readErr, websocket.CloseNormalClosure) {
		reason = readErr.Error()
	}
	c.emit(session.ClientEvent{Kind: session.EventDisconnected, Reason: reason})
}

func (c *Client) handleEvent(f frame) {
	switch session.EventKind(f.Event) {
	case session.EventQR:
		var p qrPayload
		if c.decode(f, &p) {
			c.emit(session.ClientEvent{Kind: session.EventQR, QR: p.QR})
		}

	case session.EventAuthenticated:
		c.mu.Lock()
		if _, state, _ := c.identity.Result(); c.identity == nil || state == session.FutureFailed {
			c.identity = session.NewIdentityFuture()
		}
		c.mu.Unlock()
		c.emit(session.ClientEvent{Kind: session.EventAuthenticated})

	case session.EventReady:
		var p readyPayload
		if !c.decode(f, &p) {
			return
		}
		identity := session.Identity{WID: p.WID, PushName: p.PushName, Platform: p.Platform}
		c.mu.Lock()
		if c.identity == nil {
			c.identity = session.NewIdentityFuture()
		}
		if !c.identity.Resolve(identity) {
			if _, state, _ := c.identity.Result(); state == session.FutureFailed {
				c.identity = session.ResolvedIdentity(identity)
			}
		}
		c.mu.Unlock()
		c.emit(session.ClientEvent{Kind: session.EventReady})

	case session.EventAuthFailure:
		var p reasonPayload
		c.decode(f, &p)
		err := fmt.Errorf("authentication failed: %s", p.text())
		c.mu.Lock()
		if c.identity == nil {
			c.identity = session.NewIdentityFuture()
		}
		c.identity.Fail(err)
		c.mu.Unlock()
		c.emit(session.ClientEvent{Kind: session.EventAuthFailure, Reason: p.text(), Err: err})

	case session.EventDisconnected:
		var p reasonPayload
		c.decode(f, &p)
		c.emit(session.ClientEvent{Kind: session.EventDisconnected, Reason: p.text()})

	case session.EventError:
		var p reasonPayload
		c.decode(f, &p)
		c.emit(session.ClientEvent{Kind: session.EventError, Reason: p.text(), Err: errors.New(p.text())})

	case session.EventMessage:
		var p messagePayload
		if c.decode(f, &p) {
			c.emit(session.ClientEvent{Kind: session.EventMessage, Message: p.toMessage()})
		}

	case eventSnapshot:
		var p snapshotPayload
		if c.decode(f, &p) {
			c.startSave(p.Archive)
		}

	default:
		c.log.Debug().Str("event", f.Event).Msg("ignoring unknown bridge event")
	}
}

// startSave uploads an archive in the background unless the client is
// logging out or destroyed.
func (c *Client) startSave(encoded string) {
	c.mu.Lock()
	if c.savesOff || c.isDestroyed() {
		c.mu.Unlock()
		metrics.RecordSnapshotSave("skipped")
		return
	}
	c.saves.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.saves.Done()
		c.saveSnapshot(encoded)
	}()
}

// saveSnapshot failures are logged only; a failed backup does not change the
// session's lifecycle state.
func (c *Client) saveSnapshot(encoded string) {
	archive, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		c.log.Warn().Err(err).Msg("undecodable credential snapshot")
		metrics.RecordSnapshotSave("failed")
		return
	}

	timeout := c.opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if c.isDestroyed() {
		metrics.RecordSnapshotSave("skipped")
		return
	}
	if err := c.snapshots.save(ctx, archive); err != nil {
		c.log.Warn().Err(err).Msg("credential snapshot upload failed")
		metrics.RecordSnapshotSave("failed")
		return
	}
	metrics.RecordSnapshotSave("saved")
	c.emit(session.ClientEvent{Kind: session.EventRemoteSessionSaved})
}

func (c *Client) decode(f frame, v any) bool {
	if len(f.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		c.log.Warn().Err(err).Str("event", f.Event).Msg("malformed bridge event")
		return false
	}
	return true
}

func (c *Client) emit(ev session.ClientEvent) {
	select {
	case c.events <- ev:
	case <-c.destroyed:
	}
}
