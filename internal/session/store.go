package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/tobilabs/salesbot/internal/config"
)

// ErrEmptySessionID is returned when the caller supplies a blank id.
// Session ids are otherwise opaque; no further format validation happens.
var ErrEmptySessionID = errors.New("session id must be non-empty")

// ErrSessionNotFound is returned by Get for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Store owns per-session conversation state. The engine assumes at most
// one in-flight turn per session id; stores perform no concurrent-writer
// merging. A store failure is fatal for the current turn only.
type Store interface {
	// GetOrCreate returns the session for id, creating it in the
	// greeting state when unseen. At most one session exists per id.
	GetOrCreate(ctx context.Context, id string) (*Session, error)

	// Get returns the session for id, or ErrSessionNotFound. It never
	// creates one.
	Get(ctx context.Context, id string) (*Session, error)

	// Save persists the full session state, overwriting what was there.
	Save(ctx context.Context, sess *Session) error

	// Close releases store resources.
	Close() error
}

// New selects and constructs the store driver named in configuration.
func New(cfg config.SessionConfig) (Store, error) {
	switch cfg.Driver {
	case config.SessionMemory:
		return NewMemoryStore(), nil
	case config.SessionSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.SessionRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisDB), nil
	default:
		return nil, fmt.Errorf("unknown session driver: %s", cfg.Driver)
	}
}
