package service

import (
	"sync"
	"time"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// Session is one timetable editing session. All access to the session's
// pool, grid and negotiation state goes through its mutex; busy marks a
// placement or confirm request in flight so a second drop cannot race the
// first. Each session owns its own lock, so unrelated screens are never
// blocked by one another.
type Session struct {
	ID          string
	TimetableID string

	mu   sync.Mutex
	busy bool

	state    models.NegotiationState
	pool     *Pool
	grid     *Grid
	drag     *models.DragPayload
	target   *models.SlotRef
	conflict *models.ConflictResolution

	// pending holds the exam entries a successful placement will insert,
	// computed at drop time. Nothing lands on the grid while a conflict is
	// open; the entries are applied only on confirmed success.
	pending []models.ScheduledExamEntry

	// unclassified keeps the exams whose time windows matched no canonical
	// slot on the last load, surfaced to the caller rather than dropped.
	unclassified []models.FlatExam

	createdAt time.Time

	// lastUsed is written under mu by every service operation; the store's
	// janitor reads it through idleFor so it takes the same lock.
	lastUsed time.Time
}

// idleFor reports how long the session has gone without use.
func (s *Session) idleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastUsed)
}

// clearNegotiation drops the drag payload, target cell and conflict state in
// one step; every drop/confirm/cancel cycle ends here.
func (s *Session) clearNegotiation() {
	s.drag = nil
	s.target = nil
	s.conflict = nil
	s.pending = nil
	s.state = models.StateIdle
}

// sessionStore keeps live sessions in memory with TTL expiry.
type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*Session
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]*Session),
	}
}

func (s *sessionStore) Save(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.ID] = session
}

func (s *sessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if session.idleFor() > s.ttl {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *sessionStore) purgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.items {
		if session.idleFor() > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
