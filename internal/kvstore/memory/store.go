// Package memory is an in-process kvstore backend. It backs the "memory"
// storage setting and lets tests inject read and write failures.
package memory

import (
	"context"
	"errors"
	"sync"

	apperrors "task-list/internal/errors"
	"task-list/internal/kvstore"
)

var _ kvstore.Store = (*Store)(nil)

// Store keeps values in a map. Values are copied on the way in and out.
type Store struct {
	mu      sync.RWMutex
	m       map[string][]byte
	history map[string][][]byte
	getErr  error
	setErr  error
	closed  bool
}

// New returns an empty store
func New() *Store {
	return &Store{
		m:       make(map[string][]byte),
		history: make(map[string][][]byte),
	}
}

// NewWithData returns a store preloaded with data.
func NewWithData(data map[string][]byte) *Store {
	s := New()
	for k, v := range data {
		s.m[k] = clone(v)
	}
	return s
}

// Get returns the value stored under key
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, apperrors.NewDatabaseError("get "+key, errClosed)
	}
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

// Set stores value under key, replacing any previous value
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.NewDatabaseError("set "+key, errClosed)
	}
	if s.setErr != nil {
		return s.setErr
	}
	s.m[key] = clone(value)
	s.history[key] = append(s.history[key], clone(value))
	return nil
}

// Close marks the store closed. Later calls fail with a database error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FailGets makes every Get return err. A nil err clears the failure.
func (s *Store) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

// FailSets makes every Set return err. A nil err clears the failure.
func (s *Store) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}

// Writes returns every value successfully written under key, oldest first.
func (s *Store) Writes(key string) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]byte, len(s.history[key]))
	for i, v := range s.history[key] {
		out[i] = clone(v)
	}
	return out
}

var errClosed = errors.New("store is closed")

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
