// Package similarity computes content similarity between students from
// their declared skill and interest tags.
package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"peermatch/internal/catalog"
	"peermatch/internal/domain"
)

// Engine builds binary attribute vectors over the catalog-wide tag universe
// and ranks students by cosine similarity. Vectors are rebuilt lazily when
// the catalog version changes; a rebuild replaces the previous snapshot
// atomically.
type Engine struct {
	catalog *catalog.Catalog

	mu       sync.RWMutex
	built    uint64 // catalog version the snapshot was built from
	universe map[string]int
	vectors  map[int][]float64
	students map[int]domain.Student
}

func NewEngine(c *catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Similarity returns the cosine similarity between two students' attribute
// vectors, 0 when either student has no attributes.
func (e *Engine) Similarity(a, b int) (float64, error) {
	snap, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	va, ok := snap.vectors[a]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", domain.ErrUnknownStudent, a)
	}
	vb, ok := snap.vectors[b]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", domain.ErrUnknownStudent, b)
	}
	return cosine(va, vb), nil
}

// TopSimilar ranks up to n students by similarity to the given student,
// excluding the student itself, descending by score with ascending-ID
// tie-break.
func (e *Engine) TopSimilar(id int, n int) ([]domain.ScoredStudent, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	query, ok := snap.vectors[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrUnknownStudent, id)
	}
	results := make([]domain.ScoredStudent, 0, len(snap.vectors)-1)
	for other, vec := range snap.vectors {
		if other == id {
			continue
		}
		results = append(results, domain.ScoredStudent{
			Student: snap.students[other],
			Score:   cosine(query, vec),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Student.ID < results[j].Student.ID
	})
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Dimension returns the current tag-universe size.
func (e *Engine) Dimension() (int, error) {
	snap, err := e.snapshot()
	if err != nil {
		return 0, err
	}
	return len(snap.universe), nil
}

type snapshot struct {
	universe map[string]int
	vectors  map[int][]float64
	students map[int]domain.Student
}

// snapshot returns the current vectors, rebuilding them first if the catalog
// has moved on. Readers either see the old complete snapshot or the new one.
func (e *Engine) snapshot() (snapshot, error) {
	version := e.catalog.Version()
	e.mu.RLock()
	if e.built == version {
		s := snapshot{universe: e.universe, vectors: e.vectors, students: e.students}
		e.mu.RUnlock()
		return s, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built == version {
		return snapshot{universe: e.universe, vectors: e.vectors, students: e.students}, nil
	}
	students := e.catalog.All()
	universe := buildUniverse(students)
	vectors := make(map[int][]float64, len(students))
	byID := make(map[int]domain.Student, len(students))
	for _, s := range students {
		vectors[s.ID] = vectorize(s, universe)
		byID[s.ID] = s
	}
	e.universe = universe
	e.vectors = vectors
	e.students = byID
	e.built = version
	return snapshot{universe: universe, vectors: vectors, students: byID}, nil
}

// buildUniverse collects the union of all skill and interest tags across the
// roster, lowercased, with a sorted stable index per tag.
func buildUniverse(students []domain.Student) map[string]int {
	seen := make(map[string]struct{})
	for _, s := range students {
		for _, tag := range s.Skills {
			seen[normalizeTag(tag)] = struct{}{}
		}
		for _, tag := range s.Interests {
			seen[normalizeTag(tag)] = struct{}{}
		}
	}
	delete(seen, "")
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	universe := make(map[string]int, len(terms))
	for i, term := range terms {
		universe[term] = i
	}
	return universe
}

func vectorize(s domain.Student, universe map[string]int) []float64 {
	vec := make([]float64, len(universe))
	for _, tag := range s.Skills {
		if idx, ok := universe[normalizeTag(tag)]; ok {
			vec[idx] = 1
		}
	}
	for _, tag := range s.Interests {
		if idx, ok := universe[normalizeTag(tag)]; ok {
			vec[idx] = 1
		}
	}
	return vec
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// cosine computes the cosine similarity of two equal-length vectors,
// 0 when either norm is 0.
func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return dot / denominator
}
