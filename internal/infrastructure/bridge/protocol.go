package bridge

import (
	"encoding/json"
	"time"

	"jan-server/services/whatsapp-api/internal/domain/session"
)

// Op names a command understood by the bridge worker.
type Op string

const (
	OpStart   Op = "start"
	OpSend    Op = "send"
	OpPing    Op = "ping"
	OpLogout  Op = "logout"
	OpDestroy Op = "destroy"
)

const (
	frameResult = "result"
	frameEvent  = "event"

	eventSnapshot = "session_snapshot"
)

// command is written to the worker.
type command struct {
	ID      string `json:"id"`
	Op      Op     `json:"op"`
	Session string `json:"session"`
	Data    any    `json:"data,omitempty"`
}

// frame is anything read from the worker: a command result or an event.
type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	OK    bool            `json:"ok,omitempty"`
	Error string          `json:"error,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type startData struct {
	// Snapshot is the base64 encoded credential archive, empty on first link.
	Snapshot             string `json:"snapshot,omitempty"`
	BackupSyncIntervalMs int64  `json:"backup_sync_interval_ms,omitempty"`
}

type sendData struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendReply struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

type qrPayload struct {
	QR string `json:"qr"`
}

type readyPayload struct {
	WID      string `json:"wid"`
	PushName string `json:"pushname"`
	Platform string `json:"platform"`
}

type reasonPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (p reasonPayload) text() string {
	if p.Reason != "" {
		return p.Reason
	}
	return p.Message
}

type messagePayload struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	FromMe    bool   `json:"from_me"`
	Timestamp int64  `json:"timestamp"`
}

func (p messagePayload) toMessage() *session.InboundMessage {
	return &session.InboundMessage{
		ID:        p.ID,
		From:      p.From,
		To:        p.To,
		Body:      p.Body,
		FromMe:    p.FromMe,
		Timestamp: unixOrNow(p.Timestamp),
	}
}

type snapshotPayload struct {
	Archive string `json:"archive"`
}

func unixOrNow(ts int64) time.Time {
	if ts <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(ts, 0).UTC()
}
