// Package memory implements every repository interface on in-process
// maps. It backs the unit tests and the Redis-less development mode;
// semantics match the Postgres implementations, including the atomicity
// of the capacity ledger, which here is a per-session mutex instead of a
// conditional UPDATE.
package memory

import (
	"sync"

	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/session"
)

// Store is the shared backing state for all in-memory repositories.
// The coarse mutex guards the maps; ledger operations additionally take
// a per-session mutex so a reserve and a release for the same session
// serialize exactly as the Postgres row lock would.
type Store struct {
	mu sync.RWMutex

	sessions     map[string]*session.Session
	enrollments  map[string]*enrollment.Enrollment
	queueEntries map[string]*enrollment.QueueEntry
	attempts     map[string]*exam.Attempt
	certificates map[string]*certificate.Certificate

	// nextQueuePos mirrors the next_queue_position column: one counter
	// per session, never reset.
	nextQueuePos map[string]int

	sessionLocks map[string]*sync.Mutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions:     make(map[string]*session.Session),
		enrollments:  make(map[string]*enrollment.Enrollment),
		queueEntries: make(map[string]*enrollment.QueueEntry),
		attempts:     make(map[string]*exam.Attempt),
		certificates: make(map[string]*certificate.Certificate),
		nextQueuePos: make(map[string]int),
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the per-session ledger mutex, creating it on
// first use.
func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.sessionLocks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.sessionLocks[sessionID] = l
	}
	return l
}
