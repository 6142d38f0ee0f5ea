// Package interaction derives the sparse student-pair interaction matrix
// consumed by the collaborative models.
package interaction

import (
	"sort"

	"peermatch/internal/domain"
)

// Matrix is the sparse symmetric pair->strength mapping. Pairs with zero
// derived strength are absent. Immutable once built.
type Matrix struct {
	strengths map[domain.Pair]float64
	neighbors map[int]map[int]float64
}

// Build derives the matrix from a roster snapshot: +1 per teammate relation,
// +1 per shared community. When weightInteractions is set, each pair
// strength is additionally scaled by 1 + (nA+nB)/(2*maxN) over the two
// students' interaction counts. Identical input always yields an identical
// matrix.
func Build(students []domain.Student, weightInteractions bool) *Matrix {
	strengths := make(map[domain.Pair]float64)
	byID := make(map[int]domain.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}

	// Teammate relations are undirected; either side's declaration counts
	// once per pair.
	mates := make(map[domain.Pair]struct{})
	for _, s := range students {
		for _, mate := range s.Teammates {
			if mate == s.ID {
				continue
			}
			if _, ok := byID[mate]; !ok {
				continue
			}
			mates[orient(s.ID, mate)] = struct{}{}
		}
	}
	for p := range mates {
		strengths[p]++
	}

	// One unit per shared community.
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for i := 0; i < len(ids); i++ {
		a := byID[ids[i]]
		communities := make(map[string]struct{}, len(a.Communities))
		for _, c := range a.Communities {
			communities[c] = struct{}{}
		}
		for j := i + 1; j < len(ids); j++ {
			b := byID[ids[j]]
			shared := 0
			for _, c := range b.Communities {
				if _, ok := communities[c]; ok {
					shared++
				}
			}
			if shared > 0 {
				strengths[orient(a.ID, b.ID)] += float64(shared)
			}
		}
	}

	if weightInteractions {
		maxN := 0
		for _, s := range students {
			if s.Interactions > maxN {
				maxN = s.Interactions
			}
		}
		if maxN > 0 {
			for p, v := range strengths {
				nA := byID[p.A].Interactions
				nB := byID[p.B].Interactions
				strengths[p] = v * (1 + float64(nA+nB)/float64(2*maxN))
			}
		}
	}

	neighbors := make(map[int]map[int]float64)
	addNeighbor := func(from, to int, w float64) {
		m, ok := neighbors[from]
		if !ok {
			m = make(map[int]float64)
			neighbors[from] = m
		}
		m[to] = w
	}
	for p, w := range strengths {
		addNeighbor(p.A, p.B, w)
		addNeighbor(p.B, p.A, w)
	}
	return &Matrix{strengths: strengths, neighbors: neighbors}
}

// FromRecords rebuilds a matrix from an explicit record subset, used by the
// evaluation harness to fit models on a train split.
func FromRecords(records []domain.InteractionRecord) *Matrix {
	strengths := make(map[domain.Pair]float64, len(records))
	neighbors := make(map[int]map[int]float64)
	for _, r := range records {
		if r.Strength == 0 {
			continue
		}
		strengths[r.Pair] = r.Strength
		for _, side := range [2][2]int{{r.Pair.A, r.Pair.B}, {r.Pair.B, r.Pair.A}} {
			m, ok := neighbors[side[0]]
			if !ok {
				m = make(map[int]float64)
				neighbors[side[0]] = m
			}
			m[side[1]] = r.Strength
		}
	}
	return &Matrix{strengths: strengths, neighbors: neighbors}
}

// Strength returns the derived strength for a pair, 0 if absent.
func (m *Matrix) Strength(a, b int) float64 {
	if a == b {
		return 0
	}
	return m.strengths[orient(a, b)]
}

// Neighbors returns the direct neighbors of a student with their strengths.
// The returned map must not be mutated.
func (m *Matrix) Neighbors(id int) map[int]float64 {
	return m.neighbors[id]
}

// Records returns all observed records ordered by (A, B) for determinism.
func (m *Matrix) Records() []domain.InteractionRecord {
	records := make([]domain.InteractionRecord, 0, len(m.strengths))
	for p, w := range m.strengths {
		records = append(records, domain.InteractionRecord{Pair: p, Strength: w})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Pair.A != records[j].Pair.A {
			return records[i].Pair.A < records[j].Pair.A
		}
		return records[i].Pair.B < records[j].Pair.B
	})
	return records
}

// Students returns the IDs of all students present in the matrix, ascending.
func (m *Matrix) Students() []int {
	ids := make([]int, 0, len(m.neighbors))
	for id := range m.neighbors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of observed pairs.
func (m *Matrix) Len() int { return len(m.strengths) }

func orient(a, b int) domain.Pair {
	if a < b {
		return domain.Pair{A: a, B: b}
	}
	return domain.Pair{A: b, B: a}
}
