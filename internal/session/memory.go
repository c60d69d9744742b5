package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps session records in process memory. Records expire after
// the configured idle timeout; a background goroutine sweeps them out so the
// map does not grow without bound across abandoned authorization attempts.
type MemoryStore struct {
	records       map[string]*Record
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
	cleanupDone   chan bool
	ttl           time.Duration
	logger        *slog.Logger
}

// DefaultSessionTTL is the idle timeout applied when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// NewMemoryStore creates a memory store with the default TTL and logger.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithLogger(DefaultSessionTTL, slog.Default())
}

// NewMemoryStoreWithLogger creates a memory store with custom TTL and logger.
func NewMemoryStoreWithLogger(ttl time.Duration, logger *slog.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &MemoryStore{
		records:       make(map[string]*Record),
		cleanupTicker: time.NewTicker(10 * time.Minute),
		cleanupDone:   make(chan bool),
		ttl:           ttl,
		logger:        logger,
	}

	// Start cleanup goroutine
	go s.cleanupExpired()

	return s
}

// Get returns a copy of the record and refreshes its last-access time.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.LastAccess = time.Now()

	// Hand out a copy so callers persist changes through Set, keeping the
	// interface honest for backends that serialize records.
	cp := *rec
	return &cp, nil
}

// Set creates or replaces the record keyed by its ID.
func (s *MemoryStore) Set(_ context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New("record must have an ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.LastAccess = time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.LastAccess
	}
	s.records[rec.ID] = &cp
	return nil
}

// Delete removes the record for the given identifier.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Len returns the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// cleanupExpired periodically removes idle sessions.
func (s *MemoryStore) cleanupExpired() {
	for {
		select {
		case <-s.cleanupTicker.C:
			if expiredCount := s.sweepExpired(time.Now()); expiredCount > 0 {
				s.logger.Info("Cleaned up expired sessions", "count", expiredCount)
			}
		case <-s.cleanupDone:
			return
		}
	}
}

// sweepExpired removes records idle longer than the TTL as of now and
// returns the number removed.
func (s *MemoryStore) sweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiredCount := 0
	for id, rec := range s.records {
		if now.Sub(rec.LastAccess) > s.ttl {
			delete(s.records, id)
			expiredCount++
		}
	}
	return expiredCount
}

// Stop stops the cleanup goroutine.
func (s *MemoryStore) Stop() {
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}
	if s.cleanupDone != nil {
		close(s.cleanupDone)
	}
}
