// Package sqlite is the durable kvstore backend. Every key is one row of the
// kv_entries table and Set is an upsert, so a write replaces the whole value.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"task-list/internal/errors"
	"task-list/internal/kvstore"
	"task-list/internal/kvstore/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DefaultQueryTimeout bounds each statement when no timeout is configured.
const DefaultQueryTimeout = 10 * time.Second

var _ kvstore.Store = (*Store)(nil)

// Store implements kvstore.Store on SQLite
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithQueryTimeout bounds every statement issued by the store.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithLogger sets the logger used for statement diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens (creating if needed) the database at dbPath and runs migrations
func New(dbPath string, opts ...Option) (*Store, error) {
	s := &Store{
		queryTimeout: DefaultQueryTimeout,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}
	// One connection serialises the background writer with foreground reads.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	if err := migrations.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	s.db = db
	s.logger.Debug("opened sqlite kv store", zap.String("path", dbPath))
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.Entry(ctx, key)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value, true, nil
}

// Entry returns the full row stored under key, or a not found error
func (s *Store) Entry(ctx context.Context, key string) (*Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
	SELECT key, value, updated_at
	FROM kv_entries
	WHERE key = ?`

	entry, err := QuerySingle(ctx, s.db, query, ScanEntry, "kv entry", key, key)
	if err != nil {
		return nil, s.checkTimeout(ctx, "get "+key, err)
	}
	return entry, nil
}

// Set stores value under key, replacing any previous value
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if value == nil {
		value = []byte{}
	}

	query := `
	INSERT INTO kv_entries (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	err := ExecuteWithRowsAffected(ctx, s.db, query, "kv entry", key, key, value, FormatTimeForDB(s.now()))
	if err != nil {
		return s.checkTimeout(ctx, "set "+key, err)
	}

	s.logger.Debug("kv entry written", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Entries lists every stored entry ordered by key
func (s *Store) Entries(ctx context.Context) ([]*Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
	SELECT key, value, updated_at
	FROM kv_entries
	ORDER BY key ASC`

	entries, err := QueryMultiple(ctx, s.db, query, ScanEntries, "kv entries")
	if err != nil {
		return nil, s.checkTimeout(ctx, "list entries", err)
	}
	return entries, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Store) checkTimeout(ctx context.Context, operation string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewTimeoutError(operation, s.queryTimeout.String())
	}
	return err
}
