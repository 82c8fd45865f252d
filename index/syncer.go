// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recall/core"
)

const (
	defaultPoolSize       = 10
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 200 * time.Millisecond
	asyncSyncTimeout      = 60 * time.Second
)

// Syncer keeps the vector index consistent with note storage. Sync is
// idempotent: a note whose indexable text already matches the stored
// record is skipped without re-embedding.
type Syncer struct {
	idx            Index
	pool           *ants.Pool
	locks          sync.Map // note ID -> *sync.Mutex
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer) error

// WithPoolSize sets the worker pool size for async and bulk syncs.
// Default is 10.
func WithPoolSize(size int) SyncerOption {
	return func(s *Syncer) error {
		if size < 1 {
			return ErrInvalidPoolSize
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithMaxRetries sets the retry attempts for bulk sync operations.
// Default is 3.
func WithMaxRetries(n int) SyncerOption {
	return func(s *Syncer) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		s.maxRetries = n
		return nil
	}
}

// WithRetryBaseDelay sets the base delay for retry backoff.
// Default is 200ms.
func WithRetryBaseDelay(d time.Duration) SyncerOption {
	return func(s *Syncer) error {
		s.retryBaseDelay = d
		return nil
	}
}

// WithSyncerLogger sets a custom logger. Default is slog.Default().
func WithSyncerLogger(logger *slog.Logger) SyncerOption {
	return func(s *Syncer) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSyncer creates a Syncer over the given index.
func NewSyncer(idx Index, opts ...SyncerOption) (*Syncer, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	s := &Syncer{
		idx:            idx,
		pool:           pool,
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
		logger:         slog.Default().With("component", "index-syncer"),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.pool.Release()
			return nil, optErr
		}
	}

	return s, nil
}

// Release stops the worker pool. Pending async syncs are abandoned.
func (s *Syncer) Release() {
	s.pool.Release()
}

// lockNote acquires the per-note mutex, serializing concurrent syncs
// of the same note.
func (s *Syncer) lockNote(noteID string) func() {
	mu, _ := s.locks.LoadOrStore(noteID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// Sync brings the index entry for one note up to date. A note whose
// text is unchanged is skipped; a note with empty indexable text is
// removed from the index.
func (s *Syncer) Sync(ctx context.Context, note *core.Note) (core.SyncResult, error) {
	if note == nil || note.ID == "" || note.OwnerID == "" {
		return 0, ErrInvalidRecord
	}

	unlock := s.lockNote(note.ID)
	defer unlock()

	text := note.IndexableText()
	if text == "" {
		if err := s.idx.Delete(ctx, note.OwnerID, note.ID); err != nil {
			return 0, err
		}
		s.logger.Debug("removed empty note from index", "note", note.ID)
		return core.SyncSkipped, nil
	}

	stored, err := s.idx.Fetch(ctx, note.OwnerID, note.ID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return 0, err
	}
	if stored != nil && stored.Text == text {
		return core.SyncSkipped, nil
	}

	record := &Record{NoteID: note.ID, OwnerID: note.OwnerID, Text: text}
	if err := s.idx.Upsert(ctx, record); err != nil {
		return 0, err
	}

	return core.SyncUpserted, nil
}

// Remove deletes a note's index entry.
func (s *Syncer) Remove(ctx context.Context, ownerID, noteID string) error {
	if noteID == "" || ownerID == "" {
		return ErrInvalidRecord
	}

	unlock := s.lockNote(noteID)
	defer unlock()

	return s.idx.Delete(ctx, ownerID, noteID)
}

// SyncAsync schedules a sync on the worker pool. Errors are logged but
// not returned; callers that need the result should use Sync.
func (s *Syncer) SyncAsync(note *core.Note) {
	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncSyncTimeout)
		defer cancel()

		result, err := s.Sync(ctx, note)
		if err != nil {
			s.logger.Error("async sync failed", "note", note.ID, "err", err)
			return
		}
		s.logger.Debug("async sync finished", "note", note.ID, "result", result.String())
	})
	if err != nil {
		s.logger.Error("failed to submit async sync", "note", note.ID, "err", err)
	}
}

// BulkResult summarizes a BulkSync run.
type BulkResult struct {
	Synced  int
	Skipped int
	Failed  int
}

// BulkSync syncs a batch of notes concurrently on the worker pool,
// retrying transient failures with backoff. A nil progress tracker
// disables progress reporting. Individual note failures are counted
// and logged but do not abort the batch.
func (s *Syncer) BulkSync(ctx context.Context, notes []*core.Note, progress *ProgressTracker) (BulkResult, error) {
	var synced, skipped, failed atomic.Int64
	var wg sync.WaitGroup

	for _, note := range notes {
		note := note
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()

			var result core.SyncResult
			err := RetryWithBackoff(ctx, func() error {
				var syncErr error
				result, syncErr = s.Sync(ctx, note)
				return syncErr
			}, s.maxRetries, s.retryBaseDelay)

			if err != nil {
				failed.Add(1)
				s.logger.Error("bulk sync failed for note", "note", note.ID, "err", err)
			} else if result == core.SyncUpserted {
				synced.Add(1)
			} else {
				skipped.Add(1)
			}

			if progress != nil {
				progress.Increment(1)
			}
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			s.logger.Error("failed to submit bulk sync task", "note", note.ID, "err", err)
		}
	}

	wg.Wait()

	result := BulkResult{
		Synced:  int(synced.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
