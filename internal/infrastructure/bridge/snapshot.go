package bridge

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"jan-server/services/whatsapp-api/internal/domain/session"
)

// SnapshotObject is the object name of a session's credential archive within
// its namespace.
const SnapshotObject = "session.zip.zst"

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// snapshots persists one session's credential archive under its namespace.
type snapshots struct {
	store     session.RemoteStore
	namespace string
}

func (s snapshots) key() string {
	return s.namespace + SnapshotObject
}

// load returns the decompressed archive, or nil when none is stored.
func (s snapshots) load(ctx context.Context) ([]byte, error) {
	exists, err := s.store.Head(ctx, s.key())
	if err != nil {
		return nil, fmt.Errorf("check snapshot: %w: %w", session.ErrStoreUnavailable, err)
	}
	if !exists {
		return nil, nil
	}

	compressed, err := s.store.Get(ctx, s.key())
	if err != nil {
		return nil, fmt.Errorf("download snapshot: %w: %w", session.ErrStoreUnavailable, err)
	}
	archive, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return archive, nil
}

func (s snapshots) save(ctx context.Context, archive []byte) error {
	if err := s.store.Put(ctx, s.key(), encoder.EncodeAll(archive, nil)); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

func (s snapshots) delete(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key()); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
