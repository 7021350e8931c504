package db

import (
	"context"
	"errors"
)

// Storage keys. The durable document, the session table and the sync
// outbox live in separate entries so each can follow its own lifecycle.
const (
	KeyDocument = "document"
	KeySessions = "sessions"
	KeyOutbox   = "outbox"
)

// ErrNotFound is returned by Get when nothing is stored under a key
var ErrNotFound = errors.New("key not found")

// Backend defines the interface for persisting serialized blobs by key.
// The file, sqlite and postgres backends all implement this interface.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
