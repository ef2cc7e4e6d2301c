package badger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

const (
	// DefaultSessionTTL is how long an idle session is kept.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultMaxTurns caps the number of turns kept per session.
	DefaultMaxTurns = 200
)

// SessionRepository stores one session record per project. Every write
// rewrites the whole record and refreshes its TTL, so idle sessions expire
// and active ones never grow beyond MaxTurns.
type SessionRepository struct {
	// mu serializes writers so read-modify-write cycles never conflict.
	mu          sync.Mutex
	backend     *Backend
	ownsBackend bool
	ttl         time.Duration
	maxTurns    int
	now         func() time.Time
	logger      *slog.Logger
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// SessionOption configures a SessionRepository.
type SessionOption func(*SessionRepository) error

// WithSessionTTL sets how long a session survives without writes.
// Zero disables expiry.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(r *SessionRepository) error {
		if ttl < 0 {
			return errors.New("session ttl cannot be negative")
		}
		r.ttl = ttl
		return nil
	}
}

// WithMaxTurns caps the history length. Oldest turns are dropped in
// question/answer pairs once the cap is exceeded. Zero disables the cap.
func WithMaxTurns(n int) SessionOption {
	return func(r *SessionRepository) error {
		if n < 0 {
			return errors.New("max turns cannot be negative")
		}
		r.maxTurns = n
		return nil
	}
}

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(r *SessionRepository) error {
		if now != nil {
			r.now = now
		}
		return nil
	}
}

// WithSessionLogger sets a custom logger.
// Default is slog.Default().
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(r *SessionRepository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewSessionRepository creates a SessionRepository on top of backend.
// The caller keeps ownership of backend.
func NewSessionRepository(backend *Backend, opts ...SessionOption) (*SessionRepository, error) {
	if backend == nil {
		return nil, errors.New("badger backend is required")
	}
	r := &SessionRepository{
		backend:  backend,
		ttl:      DefaultSessionTTL,
		maxTurns: DefaultMaxTurns,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "session-store")
	return r, nil
}

// Close closes the backend if the repository opened it.
func (r *SessionRepository) Close() error {
	if r.ownsBackend {
		return r.backend.Close()
	}
	return nil
}

// Get retrieves the session of a project.
func (r *SessionRepository) Get(ctx context.Context, projectID string) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var session *core.Session
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		session, err = readSession(tx, projectID)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, storage.ErrNotFound
	}
	return session, nil
}

// Append adds turns to a project's history, creating the session on first use.
func (r *SessionRepository) Append(ctx context.Context, projectID string, turns ...core.Turn) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	for _, t := range turns {
		if err := core.ValidateRole(t.Role); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var updated *core.Session
	err := r.backend.Update(func(tx *badger.Txn) error {
		session, err := readSession(tx, projectID)
		if err != nil {
			return err
		}
		now := r.now().UTC()
		if session == nil {
			session = &core.Session{
				ProjectID: projectID,
				SessionID: uuid.NewString(),
				CreatedAt: now,
			}
			r.logger.Debug("session created", "project", projectID, "session", session.SessionID)
		}

		for _, t := range turns {
			if t.At.IsZero() {
				t.At = now
			}
			session.History = append(session.History, t)
		}
		session.History = r.trim(session.History)
		session.UpdatedAt = now

		entry := badger.NewEntry(makeSessionKey(projectID), storage.MarshalSession(session))
		if r.ttl > 0 {
			entry = entry.WithTTL(r.ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a project's session.
func (r *SessionRepository) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Update(func(tx *badger.Txn) error {
		return tx.Delete(makeSessionKey(projectID))
	})
}

// trim drops the oldest turns in pairs until history fits maxTurns.
func (r *SessionRepository) trim(history []core.Turn) []core.Turn {
	if r.maxTurns <= 0 || len(history) <= r.maxTurns {
		return history
	}
	excess := len(history) - r.maxTurns
	if excess%2 == 1 {
		excess++
	}
	if excess > len(history) {
		excess = len(history)
	}
	r.logger.Debug("trimming session history", "dropped", excess)
	return append([]core.Turn(nil), history[excess:]...)
}

// readSession returns nil without error when the project has no session.
func readSession(tx *badger.Txn, projectID string) (*core.Session, error) {
	item, err := tx.Get(makeSessionKey(projectID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var session *core.Session
	err = item.Value(func(val []byte) error {
		var err error
		session, err = storage.UnmarshalSession(val)
		return err
	})
	return session, err
}
