// Package session holds session-scoped elicitation state: each session owns
// its record collection and at most one active record.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/josephgoksu/ReqWing/internal/project"
)

// ErrNoActiveProject is returned when an operation needs an active record.
var ErrNoActiveProject = errors.New("no active project")

// Session is the context object the presentation layer owns and passes to
// the workflow engine.
type Session struct {
	ID        string
	CreatedAt time.Time

	// act serializes actions on this session and is held for a whole
	// transition, including the step call. mu guards the fields below and
	// is only held briefly, so readers never wait on a step.
	act      sync.Mutex
	mu       sync.Mutex
	projects *project.Collection
	active   *project.Record
	lastUsed time.Time
	inFlight bool
}

// New creates an empty session with a random id.
func New() *Session {
	return NewWithID(uuid.New().String())
}

// NewWithID creates an empty session with the given id.
func NewWithID(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		projects:  project.NewCollection(),
		lastUsed:  now,
	}
}

// Projects returns the session's record collection.
func (s *Session) Projects() *project.Collection { return s.projects }

// Active returns a copy of the active record, or nil.
func (s *Session) Active() *project.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Clone()
}

// Transact runs fn against a working copy of the active record (nil when no
// record is active). If fn returns a record without error it becomes the
// active record and is upserted into the collection; otherwise nothing changes.
func (s *Session) Transact(fn func(current *project.Record) (*project.Record, error)) (*project.Record, error) {
	s.act.Lock()
	defer s.act.Unlock()

	s.mu.Lock()
	s.lastUsed = time.Now()
	s.inFlight = true
	working := s.active.Clone()
	s.mu.Unlock()

	next, err := fn(working)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.lastUsed = time.Now()
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, errors.New("transaction produced no record")
	}
	if err := s.projects.Upsert(next); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	s.active = next
	return next.Clone(), nil
}

// NewProject saves the active record and clears it so the next submission
// starts a fresh record.
func (s *Session) NewProject() error {
	s.act.Lock()
	defer s.act.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	if err := s.saveLocked(); err != nil {
		return err
	}
	s.active = nil
	return nil
}

// Load saves the active record, then makes the record with the given id active.
func (s *Session) Load(id int64) (*project.Record, error) {
	s.act.Lock()
	defer s.act.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	r, err := s.projects.Get(id)
	if err != nil {
		return nil, err
	}
	s.active = r
	return r.Clone(), nil
}

// Save upserts the active record, if any.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	if s.active == nil {
		return nil
	}
	if err := s.projects.Upsert(s.active); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// Idle reports whether the session has had no action for longer than ttl.
// A session with a transition in flight is never idle.
func (s *Session) Idle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.inFlight && now.Sub(s.lastUsed) > ttl
}
