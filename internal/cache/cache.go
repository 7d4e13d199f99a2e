// Package cache tracks the per-session load state of every content-bearing
// section.
package cache

import (
	"errors"
	"fmt"
)

// State is the load state of one section's content.
type State int

const (
	Absent  State = iota // never requested
	Pending              // fetch in flight
	Ready                // content available for the rest of the session
	Failed               // last fetch failed; retry clears it
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when a state change is not allowed from
// the entry's current state.
var ErrInvalidTransition = errors.New("invalid cache transition")

// Entry is the cached state of one section.
type Entry struct {
	State   State
	Content string // set when Ready
	Message string // set when Failed
}

// Cache maps section ids to entries. It is owned by a single session loop
// and is not safe for concurrent use.
type Cache struct {
	entries map[string]Entry
}

// New returns an empty cache; every id starts Absent.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Get returns the entry for id. Unknown ids are Absent.
func (c *Cache) Get(id string) Entry {
	return c.entries[id]
}

// SetPending moves id from Absent or Failed to Pending and reports whether
// it did. A false return means a fetch is already in flight or the content
// is Ready, so the caller must not start another fetch.
func (c *Cache) SetPending(id string) bool {
	switch c.entries[id].State {
	case Absent, Failed:
		c.entries[id] = Entry{State: Pending}
		return true
	default:
		return false
	}
}

// SetReady stores content for a Pending id.
func (c *Cache) SetReady(id, content string) error {
	if err := c.expect(id, Pending, Ready); err != nil {
		return err
	}
	c.entries[id] = Entry{State: Ready, Content: content}
	return nil
}

// SetFailed records a fetch failure for a Pending id.
func (c *Cache) SetFailed(id, message string) error {
	if err := c.expect(id, Pending, Failed); err != nil {
		return err
	}
	c.entries[id] = Entry{State: Failed, Message: message}
	return nil
}

// Clear resets a Failed id to Absent so it can be fetched again. It is the
// only way to force a re-fetch. Pending and Ready entries cannot be cleared.
func (c *Cache) Clear(id string) error {
	switch st := c.entries[id].State; st {
	case Absent:
		return nil
	case Failed:
		delete(c.entries, id)
		return nil
	default:
		return fmt.Errorf("clear %s (%s): %w", id, st, ErrInvalidTransition)
	}
}

// Len returns the number of non-Absent entries.
func (c *Cache) Len() int { return len(c.entries) }

func (c *Cache) expect(id string, from, to State) error {
	if st := c.entries[id].State; st != from {
		return fmt.Errorf("%s: %s -> %s: %w", id, st, to, ErrInvalidTransition)
	}
	return nil
}
