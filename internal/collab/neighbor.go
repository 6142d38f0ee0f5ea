package collab

import (
	"sort"

	"peermatch/internal/domain"
)

// neighborModel predicts pair affinity from the K most strongly related
// students of the target. For a target with no direct interactions it can
// borrow neighbors from a content-similarity ranking when one is supplied.
type neighborModel struct {
	k       int
	similar func(id int, n int) []domain.Prediction
	matrix  domain.InteractionMatrix
}

func newNeighborModel(p Params) *neighborModel {
	k := p.Neighbors
	if k <= 0 {
		k = 5
	}
	return &neighborModel{k: k, similar: p.SimilarNeighbors}
}

func (m *neighborModel) Name() string { return string(VariantKNN) }

func (m *neighborModel) Fit(matrix domain.InteractionMatrix) error {
	m.matrix = matrix
	return nil
}

// neighborsOf returns up to K neighbors of id with their weights, by direct
// strength first, falling back to content similarity for isolated students.
// Ordering is descending weight with ascending-ID tie-break.
func (m *neighborModel) neighborsOf(id int) []domain.Prediction {
	direct := m.matrix.Neighbors(id)
	out := make([]domain.Prediction, 0, len(direct))
	for other, w := range direct {
		out = append(out, domain.Prediction{StudentID: other, Score: w})
	}
	if len(out) == 0 && m.similar != nil {
		out = append(out, m.similar(id, m.k)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].StudentID < out[j].StudentID
	})
	if len(out) > m.k {
		out = out[:m.k]
	}
	return out
}

// Predict estimates affinity(a, b) as the weight-averaged strength between
// a's neighbors and b. Neighbors with no observed affinity to b contribute
// nothing; a zero weight sum degrades to the unweighted mean of the observed
// strengths; no neighbors at all yields 0.
func (m *neighborModel) Predict(a, b int) float64 {
	if m.matrix == nil || a == b {
		return 0
	}
	if direct := m.matrix.Strength(a, b); direct != 0 {
		return direct
	}
	var num, den float64
	var known []float64
	for _, nb := range m.neighborsOf(a) {
		if nb.StudentID == b {
			continue
		}
		s := m.matrix.Strength(nb.StudentID, b)
		if s == 0 {
			continue
		}
		known = append(known, s)
		num += nb.Score * s
		den += nb.Score
	}
	if den > 0 {
		return num / den
	}
	if len(known) > 0 {
		sum := 0.0
		for _, s := range known {
			sum += s
		}
		return sum / float64(len(known))
	}
	return 0
}

func (m *neighborModel) Recommend(id int, n int) []domain.Prediction {
	return rankCandidates(m, m.matrix, id, n)
}
