package project

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("project not found")

// Collection holds the records of one session, newest first.
// Records are stored and returned as copies.
type Collection struct {
	mu      sync.RWMutex
	records []*Record
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Upsert stores r keyed by id: an existing record is replaced in place,
// a new one is inserted at the front. The title is recomputed on every save.
func (c *Collection) Upsert(r *Record) error {
	if r == nil {
		return errors.New("upsert nil record")
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid record %d: %w", r.ID, err)
	}
	r.Title = r.DeriveTitle()
	stored := r.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.records {
		if existing.ID == r.ID {
			c.records[i] = stored
			return nil
		}
	}
	c.records = append([]*Record{stored}, c.records...)
	return nil
}

// Get returns a copy of the record with the given id.
func (c *Collection) Get(id int64) (*Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.records {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// List returns copies of all records in history order (newest first).
func (c *Collection) List() []*Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Record, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of stored records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
