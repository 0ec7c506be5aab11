// Package store holds extracted carpool records in memory, keyed by session.
//
// The store is volatile: its lifecycle is tied to the running process.
// Sessions expire after a period of inactivity and are removed by a
// background janitor.
package store

import (
	"sync"
	"time"

	"github.com/chat2carpool/carpoold/internal/extraction"
	"go.uber.org/zap"
)

// session accumulates records for one extraction session.
type session struct {
	records      []extraction.Record
	createdAt    time.Time
	lastActivity time.Time
}

// Stats summarizes store contents.
type Stats struct {
	Sessions     int `json:"sessions"`
	TotalRecords int `json:"total_records"`
}

// Store is an in-memory session store. Append is exclusive per store;
// readers get copies.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ttl    time.Duration
	logger *zap.Logger

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// New creates a session store. Sessions idle longer than ttl are removed by
// the janitor, which runs every cleanupInterval until Close is called.
func New(ttl, cleanupInterval time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		sessions:    make(map[string]*session),
		ttl:         ttl,
		logger:      logger,
		janitorStop: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.janitor(cleanupInterval)
	}

	return s
}

// Append adds records to the session, creating it on first use.
func (s *Store) Append(sessionID string, records []extraction.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{createdAt: now}
		s.sessions[sessionID] = sess
	}
	sess.records = append(sess.records, records...)
	sess.lastActivity = now
}

// Records returns a copy of the session's accumulated records. The boolean
// is false for unknown sessions.
func (s *Store) Records(sessionID string) ([]extraction.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	sess.lastActivity = time.Now()

	out := make([]extraction.Record, len(sess.records))
	copy(out, sess.records)
	return out, true
}

// Touch creates the session if missing without adding records, so that an
// extraction that found nothing still registers the session.
func (s *Store) Touch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastActivity = now
		return
	}
	s.sessions[sessionID] = &session{createdAt: now, lastActivity: now}
}

// Sessions returns the IDs of all live sessions, in no particular order.
func (s *Store) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Stats returns current store statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, sess := range s.sessions {
		total += len(sess.records)
	}
	return Stats{Sessions: len(s.sessions), TotalRecords: total}
}

// Close stops the background janitor. Safe to call more than once.
func (s *Store) Close() {
	s.janitorOnce.Do(func() {
		close(s.janitorStop)
	})
}

// janitor removes expired sessions on a ticker until Close.
func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.removeExpired(); n > 0 {
				s.logger.Info("cleaned up expired sessions", zap.Int("count", n))
			}
		case <-s.janitorStop:
			return
		}
	}
}

// removeExpired deletes sessions idle longer than the TTL and reports how
// many were removed.
func (s *Store) removeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
