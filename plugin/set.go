package plugin

import (
	"fmt"
	"io"

	"github.com/leeforge/essentials/json"
)

// Set owns the discovered plugin descriptors, keyed by id.
// Iteration follows declaration order.
type Set struct {
	byID  map[string]*Descriptor
	order []string
}

// NewSet creates a set from the given descriptors. Duplicate ids are rejected.
func NewSet(descriptors ...*Descriptor) (*Set, error) {
	s := &Set{byID: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if err := s.Add(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNewSet creates a set, panicking on duplicate ids.
func MustNewSet(descriptors ...*Descriptor) *Set {
	s, err := NewSet(descriptors...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add stores a descriptor. Returns error if the id is empty or already present.
func (s *Set) Add(d *Descriptor) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("plugin descriptor without id")
	}
	if _, exists := s.byID[d.ID]; exists {
		return fmt.Errorf("plugin %q already registered", d.ID)
	}
	s.byID[d.ID] = d
	s.order = append(s.order, d.ID)
	return nil
}

// Get returns the shared descriptor for id.
func (s *Set) Get(id string) (*Descriptor, bool) {
	if s == nil {
		return nil, false
	}
	d, ok := s.byID[id]
	return d, ok
}

// All returns the descriptors in declaration order.
func (s *Set) All() []*Descriptor {
	if s == nil {
		return nil
	}
	out := make([]*Descriptor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Len returns the number of plugins.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// catalog is the on-disk shape of a plugin catalog.
type catalog struct {
	Plugins []*Descriptor `json:"plugins"`
}

// Decode reads a JSON plugin catalog of the form {"plugins": [...]}.
func Decode(r io.Reader) (*Set, error) {
	var c catalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode plugin catalog: %w", err)
	}
	return NewSet(c.Plugins...)
}
