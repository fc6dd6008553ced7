// Package taskstore owns the authoritative in-memory task list and mirrors
// every change to a key-value store.
//
// Mutations update memory synchronously and hand a full-list snapshot to a
// background writer; callers never wait for storage. Lifecycle is explicit:
// New, Load, mutate, Close.
package taskstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"task-list/internal/config"
	"task-list/internal/domain"
	"task-list/internal/errors"
	"task-list/internal/kvstore"
	"task-list/internal/persist"
	"task-list/internal/validation"
)

// LoadResult describes the outcome of Load. Err is informational only; the
// store is usable whatever it holds.
type LoadResult struct {
	Found bool
	Count int
	Err   error
}

// Store is the task list with write-behind persistence
type Store struct {
	kv        kvstore.Store
	key       string
	logger    *zap.Logger
	validator *validation.TaskValidator
	ids       *domain.IDGenerator
	writer    *persist.Writer

	mu    sync.RWMutex
	tasks domain.TaskList
}

type options struct {
	key          string
	logger       *zap.Logger
	validator    *validation.TaskValidator
	clock        func() time.Time
	writeTimeout time.Duration
	initial      domain.TaskList
}

// Option configures a Store
type Option func(*options)

// WithKey overrides the storage key the snapshot lives under.
func WithKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.key = key
		}
	}
}

// WithLogger sets the logger for load and write diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithValidator replaces the default task validator.
func WithValidator(v *validation.TaskValidator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithClock sets the clock used to derive task ids.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithWriteTimeout bounds each background write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// WithInitialTasks seeds the in-memory list used until Load finds saved data.
func WithInitialTasks(list domain.TaskList) Option {
	return func(o *options) {
		o.initial = list.Clone()
	}
}

// FromConfig applies the storage, validation and timeout settings.
func FromConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg.Storage.Key != "" {
			o.key = cfg.Storage.Key
		}
		o.writeTimeout = cfg.Database.WriteTimeout
		o.validator = validation.NewTaskValidatorWithConfig(cfg)
	}
}

// New creates a store backed by kv and starts its background writer. The
// list starts empty; call Load to hydrate it. Close must be called to stop
// the writer.
func New(kv kvstore.Store, opts ...Option) *Store {
	o := options{
		key:     config.DefaultStorageKey,
		initial: domain.TaskList{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.validator == nil {
		o.validator = validation.NewTaskValidator()
	}

	s := &Store{
		kv:        kv,
		key:       o.key,
		logger:    o.logger,
		validator: o.validator,
		ids:       domain.NewIDGenerator(o.clock),
		tasks:     o.initial,
	}

	s.writer = persist.NewWriter(s.write, o.logger,
		persist.WithKey(o.key),
		persist.WithWriteTimeout(o.writeTimeout),
	)
	// Start only fails when called twice.
	_ = s.writer.Start(context.Background())

	return s
}

// Key returns the storage key the snapshot is written under.
func (s *Store) Key() string {
	return s.key
}

// Load replaces the in-memory list with the saved snapshot, if there is one.
// Missing data leaves the list as it is. Read and parse failures are logged
// and reported in the result but never returned as an error.
func (s *Store) Load(ctx context.Context) LoadResult {
	data, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return s.loadFailed(err)
	}
	if !found {
		s.logger.Debug("no saved task list", zap.String("key", s.key))
		return LoadResult{Count: s.Len()}
	}

	tasks, err := domain.DecodeSnapshot(data)
	if err != nil {
		return s.loadFailed(err)
	}

	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()

	s.logger.Debug("loaded task list", zap.String("key", s.key), zap.Int("count", len(tasks)))
	return LoadResult{Found: true, Count: len(tasks)}
}

func (s *Store) loadFailed(cause error) LoadResult {
	readErr := errors.NewPersistenceReadError(s.key, cause)
	s.logger.Warn("failed to load saved task list; keeping current list",
		zap.String("key", s.key),
		zap.Error(readErr))
	return LoadResult{Count: s.Len(), Err: readErr}
}

// Add validates candidate and appends a new, not-done task. Name and
// description are trimmed. A rejected candidate leaves the list unchanged.
func (s *Store) Add(candidate domain.TaskCandidate) (domain.TaskList, error) {
	if err := s.validator.ValidateCandidate(candidate); err != nil {
		return nil, errors.NewValidationError("invalid task", err)
	}
	candidate = s.validator.CleanCandidate(candidate)

	s.mu.Lock()
	defer s.mu.Unlock()

	task := domain.NewTask(s.ids.Next(s.tasks), candidate)
	next := make(domain.TaskList, 0, len(s.tasks)+1)
	next = append(next, s.tasks...)
	s.tasks = append(next, task)

	s.logger.Debug("task added", zap.String("id", task.ID))
	s.persistLocked()
	return s.tasks.Clone(), nil
}

// ToggleDone flips the done flag of the task with the given id. An unknown
// id leaves the list unchanged and nothing is written.
func (s *Store) ToggleDone(id string) domain.TaskList {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.tasks.IndexOf(id)
	if i < 0 {
		s.logger.Debug("toggle of unknown task ignored", zap.String("id", id))
		return s.tasks.Clone()
	}

	next := s.tasks.Clone()
	next[i].IsDone = !next[i].IsDone
	s.tasks = next

	s.persistLocked()
	return s.tasks.Clone()
}

// Delete removes the task with the given id. An unknown id leaves the list
// unchanged and nothing is written: rewriting the same list would store the
// same snapshot bytes, so skipping it is not observable in storage.
func (s *Store) Delete(id string) domain.TaskList {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.tasks.IndexOf(id)
	if i < 0 {
		s.logger.Debug("delete of unknown task ignored", zap.String("id", id))
		return s.tasks.Clone()
	}

	next := make(domain.TaskList, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:i]...)
	s.tasks = append(next, s.tasks[i+1:]...)

	s.persistLocked()
	return s.tasks.Clone()
}

// Persist replaces the list with list and queues a full overwrite of the
// saved snapshot. A list breaking the invariants is rejected.
func (s *Store) Persist(list domain.TaskList) error {
	if err := list.Validate(); err != nil {
		return errors.NewValidationError("invalid task list", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = list.Clone()
	s.persistLocked()
	return nil
}

// Tasks returns a copy of the current list
func (s *Store) Tasks() domain.TaskList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Clone()
}

// Get returns the task with the given id
func (s *Store) Get(id string) (domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Find(id)
}

// Contains reports whether a task with the given id exists
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.Contains(id)
}

// Len returns the number of tasks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// WriteStats reports background writer activity
func (s *Store) WriteStats() persist.Stats {
	return s.writer.Stats()
}

// Flush waits until every queued snapshot has been attempted
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close drains pending writes and stops the background writer. The
// key-value store itself stays open; its owner closes it.
func (s *Store) Close(ctx context.Context) error {
	return s.writer.Close(ctx)
}

// persistLocked snapshots the list and queues it. Callers hold s.mu, which
// keeps queue order identical to mutation order.
func (s *Store) persistLocked() {
	data, err := domain.EncodeSnapshot(s.tasks)
	if err != nil {
		s.logger.Error("failed to encode task list", zap.Error(err))
		return
	}
	s.writer.Submit(data)
}

func (s *Store) write(ctx context.Context, snapshot []byte) error {
	return s.kv.Set(ctx, s.key, snapshot)
}
