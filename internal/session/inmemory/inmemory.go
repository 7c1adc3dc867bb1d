// Package inmemory is the default session store: a mutex-guarded map with a
// cron-scheduled janitor sweeping expired entries.
package inmemory

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"tripweaver/internal/session"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store keeps sessions in memory. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	logger   *log.Logger

	sched *cronexpr.Expression
	stop  chan struct{}
	once  sync.Once

	// now is the clock; tests pin it
	now func() time.Time
}

// New creates an in-memory store. sweepSchedule is a cron expression for the
// janitor; empty disables background sweeping (expired sessions are still
// invisible to Get).
func New(ttl time.Duration, sweepSchedule string, logger *log.Logger) (*Store, error) {
	s := &Store{
		sessions: make(map[string]entry),
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	if sweepSchedule != "" {
		sched, err := cronexpr.Parse(sweepSchedule)
		if err != nil {
			return nil, err
		}
		s.sched = sched
		go s.janitor()
	}
	return s, nil
}

// Get implements session.Store. The returned session is a private copy.
func (s *Store) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expiresAt) {
		return nil, nil
	}
	var sess session.Session
	if err := json.Unmarshal(e.data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Put implements session.Store, refreshing the TTL.
func (s *Store) Put(_ context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[sess.ID] = entry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Delete implements session.Store.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) janitor() {
	for {
		next := s.sched.Next(s.now())
		if next.IsZero() {
			return
		}
		select {
		case <-time.After(time.Until(next)):
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Store) sweep() {
	now := s.now()
	s.mu.Lock()
	var removed int
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()
	if removed > 0 && s.logger != nil {
		s.logger.Printf("session sweep: removed %d expired, %d live", removed, remaining)
	}
}
