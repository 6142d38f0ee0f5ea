// Package collab implements the collaborative-filtering models over the
// interaction matrix: a neighbor-based estimator and a factorization-based
// estimator behind the domain.Model interface.
package collab

import (
	"fmt"
	"sort"

	"peermatch/internal/domain"
)

// Variant selects a collaborative model implementation.
type Variant string

const (
	// VariantKNN is the neighbor-based model.
	VariantKNN Variant = "knn"
	// VariantSVD is the factorization-based model.
	VariantSVD Variant = "svd"
)

// Variants lists all known model variants in a stable order.
func Variants() []Variant { return []Variant{VariantKNN, VariantSVD} }

// ParseVariant maps a user-supplied name onto a Variant.
func ParseVariant(name string) (Variant, error) {
	switch Variant(name) {
	case VariantKNN, VariantSVD:
		return Variant(name), nil
	default:
		return "", fmt.Errorf("unknown collaborative variant %q", name)
	}
}

// Params holds the model hyperparameters shared by both variants.
type Params struct {
	// Neighbors is K for the neighbor-based model.
	Neighbors int
	// Factors, Epochs, LearningRate and Regularization drive the
	// factorization model's SGD fit.
	Factors        int
	Epochs         int
	LearningRate   float64
	Regularization float64
	// Seed makes factor initialization and record shuffling reproducible.
	Seed int64
	// SimilarNeighbors, when set, supplies content-similarity neighbors for
	// students with no direct interactions (neighbor model only).
	SimilarNeighbors func(id int, n int) []domain.Prediction
}

// NewModel constructs an unfitted model of the given variant.
func NewModel(v Variant, p Params) (domain.Model, error) {
	switch v {
	case VariantKNN:
		return newNeighborModel(p), nil
	case VariantSVD:
		return newFactorizationModel(p), nil
	default:
		return nil, fmt.Errorf("unknown collaborative variant %q", v)
	}
}

// rankCandidates scores every matrix student against the target and returns
// the top n, descending by score with ascending-ID tie-break.
func rankCandidates(m domain.Model, matrix domain.InteractionMatrix, id, n int) []domain.Prediction {
	if matrix == nil {
		return nil
	}
	var out []domain.Prediction
	for _, candidate := range matrix.Students() {
		if candidate == id {
			continue
		}
		out = append(out, domain.Prediction{StudentID: candidate, Score: m.Predict(id, candidate)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].StudentID < out[j].StudentID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
