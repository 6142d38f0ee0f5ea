package collab

import (
	"fmt"
	"math/rand"

	"peermatch/internal/domain"
)

// factorizationModel learns one low-rank factor vector per student by
// minimizing squared reconstruction error over the observed matrix entries
// with L2 regularization. Affinity for a pair is the dot product of the two
// factor vectors. The matrix is symmetric, so a single factor set serves
// both sides of every pair.
type factorizationModel struct {
	factors        int
	epochs         int
	learningRate   float64
	regularization float64
	seed           int64

	matrix  domain.InteractionMatrix
	vectors map[int][]float64
}

func newFactorizationModel(p Params) *factorizationModel {
	m := &factorizationModel{
		factors:        p.Factors,
		epochs:         p.Epochs,
		learningRate:   p.LearningRate,
		regularization: p.Regularization,
		seed:           p.Seed,
	}
	if m.factors <= 0 {
		m.factors = 8
	}
	if m.epochs <= 0 {
		m.epochs = 60
	}
	if m.learningRate <= 0 {
		m.learningRate = 0.01
	}
	if m.regularization <= 0 {
		m.regularization = 0.05
	}
	if m.seed == 0 {
		m.seed = 42
	}
	return m
}

func (m *factorizationModel) Name() string { return string(VariantSVD) }

// Fit runs seeded SGD over the observed records. Records() is ordered
// deterministically and the shuffle rng is seeded, so the same seed and
// matrix always produce the same factors.
func (m *factorizationModel) Fit(matrix domain.InteractionMatrix) error {
	records := matrix.Records()
	if len(records) == 0 {
		return fmt.Errorf("factorization fit: %w", domain.ErrInsufficientData)
	}
	rng := rand.New(rand.NewSource(m.seed))

	vectors := make(map[int][]float64)
	for _, id := range matrix.Students() {
		vec := make([]float64, m.factors)
		for f := range vec {
			vec[f] = (rng.Float64() - 0.5) * 0.1
		}
		vectors[id] = vec
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	for epoch := 0; epoch < m.epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		for _, idx := range order {
			r := records[idx]
			pa := vectors[r.Pair.A]
			pb := vectors[r.Pair.B]
			residual := r.Strength - dot(pa, pb)
			for f := 0; f < m.factors; f++ {
				va, vb := pa[f], pb[f]
				pa[f] += m.learningRate * (residual*vb - m.regularization*va)
				pb[f] += m.learningRate * (residual*va - m.regularization*vb)
			}
		}
	}

	m.matrix = matrix
	m.vectors = vectors
	return nil
}

// Predict returns the factor dot product, or a neutral 0 for a student with
// no observed interactions (no basis for factor estimation).
func (m *factorizationModel) Predict(a, b int) float64 {
	if a == b {
		return 0
	}
	pa, ok := m.vectors[a]
	if !ok {
		return 0
	}
	pb, ok := m.vectors[b]
	if !ok {
		return 0
	}
	return dot(pa, pb)
}

func (m *factorizationModel) Recommend(id int, n int) []domain.Prediction {
	return rankCandidates(m, m.matrix, id, n)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
