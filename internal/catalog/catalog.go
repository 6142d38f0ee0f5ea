// Package catalog holds the in-memory student roster and its identity
// indexes. Derived artifacts (attribute vectors, interaction matrix, fitted
// models) live in their own packages and key their caches on the catalog
// version.
package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"peermatch/internal/domain"
)

// Catalog is the full, ordered student roster. Mutation is limited to Add;
// reads and the single writer are coordinated with an RWMutex so that a
// reader never observes a half-applied mutation.
type Catalog struct {
	mu       sync.RWMutex
	students []domain.Student
	byID     map[int]int // id -> index into students
	version  uint64
}

// New validates the roster and builds the catalog. A teammate reference that
// does not resolve, or a duplicate identifier, fails the whole load with
// ErrDataIntegrity: no partial catalog is exposed.
func New(students []domain.Student) (*Catalog, error) {
	byID := make(map[int]int, len(students))
	for i, s := range students {
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", domain.ErrDataIntegrity, s.ID)
		}
		if s.Interactions < 0 {
			return nil, fmt.Errorf("%w: student %d has negative interaction count", domain.ErrDataIntegrity, s.ID)
		}
		byID[s.ID] = i
	}
	for _, s := range students {
		for _, mate := range s.Teammates {
			if _, ok := byID[mate]; !ok {
				return nil, fmt.Errorf("%w: student %d references unknown teammate %d",
					domain.ErrDataIntegrity, s.ID, mate)
			}
		}
	}
	c := &Catalog{
		students: append([]domain.Student(nil), students...),
		byID:     byID,
		version:  1,
	}
	return c, nil
}

// Version is the current catalog generation. It increments on every Add;
// dependents cache derived artifacts alongside the version they were built
// from and rebuild when stale.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Len returns the number of students.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.students)
}

// Get returns the student with the given id.
func (c *Catalog) Get(id int) (domain.Student, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return domain.Student{}, fmt.Errorf("%w: id %d", domain.ErrUnknownStudent, id)
	}
	return c.students[i], nil
}

// All returns the students in roster order. The returned slice is a copy.
func (c *Catalog) All() []domain.Student {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Student(nil), c.students...)
}

// Find matches students by exact id (when the query parses as one) or by
// case-insensitive substring of the name. An empty query matches nothing.
func (c *Catalog) Find(query string) []domain.Student {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, err := strconv.Atoi(query); err == nil {
		if i, ok := c.byID[id]; ok {
			return []domain.Student{c.students[i]}
		}
		return nil
	}
	needle := strings.ToLower(query)
	var out []domain.Student
	for _, s := range c.students {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			out = append(out, s)
		}
	}
	return out
}

// Add appends a student. A zero ID is assigned the next unused identifier
// (max existing + 1, or 1 on an empty roster); a caller-supplied ID that
// collides fails with ErrDuplicateID. The record is held to the same
// integrity rules as a loaded roster so a bad add can never poison the
// persisted store. Returns the stored student.
func (c *Catalog) Add(s domain.Student) (domain.Student, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.ID == 0 {
		s.ID = c.nextIDLocked()
	} else if _, exists := c.byID[s.ID]; exists {
		return domain.Student{}, fmt.Errorf("%w: id %d", domain.ErrDuplicateID, s.ID)
	}
	if s.Interactions < 0 {
		return domain.Student{}, fmt.Errorf("%w: negative interaction count", domain.ErrDataIntegrity)
	}
	for _, mate := range s.Teammates {
		if mate == s.ID {
			return domain.Student{}, fmt.Errorf("%w: student cannot list itself as a teammate", domain.ErrDataIntegrity)
		}
		if _, ok := c.byID[mate]; !ok {
			return domain.Student{}, fmt.Errorf("%w: unknown teammate %d", domain.ErrDataIntegrity, mate)
		}
	}
	c.students = append(c.students, s)
	c.byID[s.ID] = len(c.students) - 1
	c.version++
	return s, nil
}

func (c *Catalog) nextIDLocked() int {
	next := 1
	for id := range c.byID {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// IDs returns all identifiers in ascending order.
func (c *Catalog) IDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
