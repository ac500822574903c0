package identity

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIDCollision reports that two distinct names hashed to the same NodeID.
// With a 64-bit digest this is vanishingly unlikely, but an undetected
// collision would silently merge two resources, so insertion checks for it.
var ErrIDCollision = errors.New("node id collision")

// CollisionError carries both names involved in an id collision.
type CollisionError struct {
	Name     string // name being inserted
	Existing string // name already bound to the id
	ID       NodeID
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("node id collision: %q and %q both hash to %d", e.Name, e.Existing, e.ID)
}

func (e *CollisionError) Unwrap() error { return ErrIDCollision }

// Map is a bidirectional name/id registry. Ids are always derived with
// HashName, so the forward direction never conflicts; the reverse direction
// conflicts exactly when two names collide, which Insert rejects.
//
// Map is not safe for concurrent mutation. It is owned by a single writer
// (the query collection); concurrent reads after construction are fine.
type Map struct {
	forward map[string]NodeID
	reverse map[NodeID]string
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{
		forward: make(map[string]NodeID),
		reverse: make(map[NodeID]string),
	}
}

// Insert registers name under its hashed id and returns the id.
// Re-inserting a known name is a no-op. A collision with a different
// name returns a *CollisionError and leaves the map unchanged.
func (m *Map) Insert(name string) (NodeID, error) {
	id := HashName(name)
	if err := m.insert(name, id); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertID registers an explicit name/id pair. Callers normally want Insert;
// InsertID exists so tests can exercise collision handling with synthetic ids.
func (m *Map) InsertID(name string, id NodeID) error {
	return m.insert(name, id)
}

func (m *Map) insert(name string, id NodeID) error {
	if existing, ok := m.reverse[id]; ok {
		if existing == name {
			return nil
		}
		return &CollisionError{Name: name, Existing: existing, ID: id}
	}
	m.forward[name] = id
	m.reverse[id] = name
	return nil
}

// IDOf returns the id registered for name.
func (m *Map) IDOf(name string) (NodeID, bool) {
	id, ok := m.forward[name]
	return id, ok
}

// NameOf returns the name registered for id.
func (m *Map) NameOf(id NodeID) (string, bool) {
	name, ok := m.reverse[id]
	return name, ok
}

// Len returns the number of registered names.
func (m *Map) Len() int { return len(m.forward) }

// Names returns all registered names in sorted order.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.forward))
	for name := range m.forward {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
