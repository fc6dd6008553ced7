// Package persist runs the single background writer that saves task list
// snapshots. Callers hand over a snapshot and return immediately. Pending
// snapshots coalesce so only the newest one is written, and writes happen
// strictly in submission order, so the last completed write always reflects
// the last submitted state.
package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "task-list/internal/errors"
)

var (
	// ErrNotRunning is returned by Flush when Start has not been called.
	ErrNotRunning = errors.New("persist: writer not running")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("persist: writer already started")
)

// Sink writes one complete snapshot to durable storage.
type Sink func(ctx context.Context, snapshot []byte) error

// Stats is a point-in-time view of writer activity.
type Stats struct {
	Submitted    uint64
	Written      uint64
	Failed       uint64
	Coalesced    uint64
	Dropped      uint64
	LastSequence uint64
	LastError    error
}

type job struct {
	seq  uint64
	data []byte
}

// Writer serialises snapshot writes through one goroutine.
type Writer struct {
	sink         Sink
	logger       *zap.Logger
	key          string
	writeTimeout time.Duration

	mu            sync.Mutex
	pending       *job
	nextSeq       uint64
	lastAttempted uint64
	progress      chan struct{}
	started       bool
	closed        bool
	stats         Stats

	wake   chan struct{}
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Option configures a Writer
type Option func(*Writer)

// WithWriteTimeout bounds each sink call. Zero means no bound.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *Writer) {
		w.writeTimeout = d
	}
}

// WithKey labels log lines and errors with the storage key being written.
func WithKey(key string) Option {
	return func(w *Writer) {
		w.key = key
	}
}

// NewWriter returns a writer that is not yet running. A nil logger is
// replaced with a no-op logger.
func NewWriter(sink Sink, logger *zap.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{
		sink:     sink,
		logger:   logger,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the writer goroutine. It stops when ctx is cancelled or
// Close is called.
func (w *Writer) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	w.group, ctx = errgroup.WithContext(ctx)
	w.group.Go(func() error {
		return w.run(ctx)
	})
	return nil
}

// Submit queues snapshot for writing and returns its sequence number. It
// never blocks on storage. A snapshot still waiting when a newer one
// arrives is replaced. Submissions after Close are dropped and return 0.
func (w *Writer) Submit(snapshot []byte) uint64 {
	w.mu.Lock()
	if w.closed {
		w.stats.Dropped++
		w.mu.Unlock()
		w.logger.Warn("snapshot submitted after writer closed; dropping", zap.String("key", w.key))
		return 0
	}

	w.nextSeq++
	seq := w.nextSeq
	if w.pending != nil {
		w.stats.Coalesced++
		w.logger.Debug("coalescing pending snapshot",
			zap.Uint64("replaced", w.pending.seq),
			zap.Uint64("sequence", seq))
	}
	w.pending = &job{seq: seq, data: snapshot}
	w.stats.Submitted++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return seq
}

// Flush blocks until every snapshot submitted before the call has been
// attempted, or ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.nextSeq
	started := w.started
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.lastAttempted >= target {
			w.mu.Unlock()
			return nil
		}
		ch := w.progress
		w.mu.Unlock()

		if !started {
			return ErrNotRunning
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting snapshots, waits for queued ones to be written and
// stops the goroutine. If ctx expires first, unwritten snapshots are lost.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.started
	w.mu.Unlock()

	if !started {
		return nil
	}

	flushErr := w.Flush(ctx)
	w.cancel()
	if err := w.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return flushErr
}

// Stats returns a snapshot of the writer counters
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.wake:
		}

		for {
			w.mu.Lock()
			next := w.pending
			w.pending = nil
			w.mu.Unlock()

			if next == nil {
				break
			}
			w.write(ctx, next)
		}
	}
}

func (w *Writer) write(ctx context.Context, j *job) {
	writeCtx := ctx
	if w.writeTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, w.writeTimeout)
		defer cancel()
	}

	err := w.sink(writeCtx, j.data)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		appErr := apperrors.NewPersistenceWriteError(w.key, j.seq, err)
		w.stats.Failed++
		w.stats.LastError = appErr
		w.logger.Error("failed to persist snapshot",
			zap.String("key", w.key),
			zap.Uint64("sequence", j.seq),
			zap.Error(appErr))
	} else {
		w.stats.Written++
		w.logger.Debug("snapshot persisted",
			zap.String("key", w.key),
			zap.Uint64("sequence", j.seq),
			zap.Int("bytes", len(j.data)))
	}

	w.lastAttempted = j.seq
	w.stats.LastSequence = j.seq
	close(w.progress)
	w.progress = make(chan struct{})
}
