// Package session keeps one view controller per browser client.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/view"
)

// Factory builds the controller of a new session.
type Factory func() *view.Controller

// Store is a concurrent-safe LRU of sessions with idle expiry. Evicted
// controllers are closed.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	factory    Factory
	created    atomic.Int64
	evicted    atomic.Int64

	nowFunc func() time.Time
}

type entry struct {
	controller *view.Controller
	lastSeen   time.Time
}

// Stats contains store statistics.
type Stats struct {
	Active     int   `json:"active"`
	MaxEntries int   `json:"max_entries"`
	Created    int64 `json:"created"`
	Evicted    int64 `json:"evicted"`
}

// NewStore creates a Store holding up to maxEntries sessions, each expiring
// after ttl without access.
func NewStore(maxEntries int, ttl time.Duration, factory Factory) *Store {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		factory:    factory,
		nowFunc:    time.Now,
	}
}

// Create starts a session and returns its id.
func (s *Store) Create() (string, *view.Controller) {
	id := uuid.NewString()
	c := s.factory()

	s.mu.Lock()
	var victims []*view.Controller
	for len(s.entries) >= s.maxEntries && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		victims = append(victims, s.entries[oldest].controller)
		delete(s.entries, oldest)
	}
	s.entries[id] = &entry{controller: c, lastSeen: s.nowFunc()}
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.created.Add(1)
	s.close(victims, "capacity")
	return id, c
}

// Get returns the session's controller and refreshes its expiry.
func (s *Store) Get(id string) (*view.Controller, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	if s.nowFunc().Sub(e.lastSeen) > s.ttl {
		delete(s.entries, id)
		s.removeFromOrder(id)
		s.mu.Unlock()
		s.close([]*view.Controller{e.controller}, "expired")
		return nil, false
	}
	e.lastSeen = s.nowFunc()
	s.removeFromOrder(id)
	s.order = append(s.order, id)
	s.mu.Unlock()
	return e.controller, true
}

// Delete ends a session.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
		s.removeFromOrder(id)
	}
	s.mu.Unlock()
	if ok {
		s.close([]*view.Controller{e.controller}, "deleted")
	}
	return ok
}

// Sweep removes every expired session and returns how many it removed.
func (s *Store) Sweep() int {
	now := s.nowFunc()

	s.mu.Lock()
	var victims []*view.Controller
	remaining := s.order[:0]
	for _, id := range s.order {
		e := s.entries[id]
		if now.Sub(e.lastSeen) > s.ttl {
			victims = append(victims, e.controller)
			delete(s.entries, id)
			continue
		}
		remaining = append(remaining, id)
	}
	s.order = remaining
	s.mu.Unlock()

	s.close(victims, "expired")
	return len(victims)
}

// Close ends every session.
func (s *Store) Close() {
	s.mu.Lock()
	victims := make([]*view.Controller, 0, len(s.entries))
	for _, e := range s.entries {
		victims = append(victims, e.controller)
	}
	s.entries = make(map[string]*entry)
	s.order = nil
	s.mu.Unlock()

	s.close(victims, "shutdown")
}

// Stats returns store statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	active := len(s.entries)
	s.mu.Unlock()
	return Stats{
		Active:     active,
		MaxEntries: s.maxEntries,
		Created:    s.created.Load(),
		Evicted:    s.evicted.Load(),
	}
}

func (s *Store) close(victims []*view.Controller, reason string) {
	for _, c := range victims {
		c.Close()
	}
	if len(victims) > 0 {
		s.evicted.Add(int64(len(victims)))
		zap.L().Debug("session: evicted", zap.Int("count", len(victims)), zap.String("reason", reason))
	}
}

// removeFromOrder removes a key from the LRU order slice.
func (s *Store) removeFromOrder(id string) {
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
