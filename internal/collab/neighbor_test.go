package collab

import (
	"math"
	"testing"

	"peermatch/internal/domain"
	"peermatch/internal/interaction"
)

func matrixFrom(records ...domain.InteractionRecord) domain.InteractionMatrix {
	return interaction.FromRecords(records)
}

func rec(a, b int, strength float64) domain.InteractionRecord {
	return domain.InteractionRecord{Pair: domain.Pair{A: a, B: b}, Strength: strength}
}

func TestNeighborPredictDirectStrength(t *testing.T) {
	m := newNeighborModel(Params{Neighbors: 2})
	if err := m.Fit(matrixFrom(rec(1, 2, 3))); err != nil {
		t.Fatal(err)
	}
	if got := m.Predict(1, 2); got != 3 {
		t.Errorf("Predict(1,2) = %v, want direct strength 3", got)
	}
}

func TestNeighborPredictWeightedAverage(t *testing.T) {
	// 1-2 strength 3, 1-4 strength 1; both neighbors also know 3.
	// Predict(1,3) = (3*2 + 1*4) / (3+1) = 2.5
	m := newNeighborModel(Params{Neighbors: 2})
	err := m.Fit(matrixFrom(
		rec(1, 2, 3),
		rec(1, 4, 1),
		rec(2, 3, 2),
		rec(3, 4, 4),
	))
	if err != nil {
		t.Fatal(err)
	}
	want := (3.0*2.0 + 1.0*4.0) / 4.0
	if got := m.Predict(1, 3); math.Abs(got-want) > 1e-12 {
		t.Errorf("Predict(1,3) = %v, want %v", got, want)
	}
}

func TestNeighborPredictRespectsK(t *testing.T) {
	// With K=1 only the strongest neighbor (2, strength 3) is consulted.
	m := newNeighborModel(Params{Neighbors: 1})
	err := m.Fit(matrixFrom(
		rec(1, 2, 3),
		rec(1, 4, 1),
		rec(2, 3, 2),
		rec(3, 4, 4),
	))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Predict(1, 3); got != 2 {
		t.Errorf("Predict(1,3) with K=1 = %v, want 2", got)
	}
}

func TestNeighborPredictNoNeighborsIsZero(t *testing.T) {
	// Student 3 has no interactions at all, so the prediction degrades
	// to 0 rather than failing.
	m := newNeighborModel(Params{Neighbors: 1})
	if err := m.Fit(matrixFrom(rec(1, 2, 1))); err != nil {
		t.Fatal(err)
	}
	if got := m.Predict(3, 1); got != 0 {
		t.Errorf("Predict(3,1) with no neighbors = %v, want 0", got)
	}
}

func TestNeighborSimilarityFallbackSelectsNeighbors(t *testing.T) {
	// Student 5 has no interactions; the content-similarity fallback names
	// student 1 as its neighbor, whose strength to 2 is 3.
	fallback := func(id, n int) []domain.Prediction {
		if id == 5 {
			return []domain.Prediction{{StudentID: 1, Score: 0.9}}
		}
		return nil
	}
	m := newNeighborModel(Params{Neighbors: 2, SimilarNeighbors: fallback})
	if err := m.Fit(matrixFrom(rec(1, 2, 3))); err != nil {
		t.Fatal(err)
	}
	if got := m.Predict(5, 2); got != 3 {
		t.Errorf("Predict(5,2) via fallback neighbor = %v, want 3", got)
	}
}

func TestNeighborFewerThanKNeighbors(t *testing.T) {
	// Only one neighbor exists; K=5 uses what is available.
	m := newNeighborModel(Params{Neighbors: 5})
	err := m.Fit(matrixFrom(
		rec(1, 2, 2),
		rec(2, 3, 4),
	))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Predict(1, 3); got != 4 {
		t.Errorf("Predict(1,3) = %v, want 4", got)
	}
}

func TestNeighborRecommendOrdering(t *testing.T) {
	m := newNeighborModel(Params{Neighbors: 2})
	err := m.Fit(matrixFrom(
		rec(1, 2, 3),
		rec(1, 3, 1),
	))
	if err != nil {
		t.Fatal(err)
	}
	got := m.Recommend(1, 10)
	if len(got) != 2 {
		t.Fatalf("Recommend(1) returned %d candidates, want 2", len(got))
	}
	if got[0].StudentID != 2 || got[1].StudentID != 3 {
		t.Errorf("Recommend(1) order = [%d %d], want [2 3]", got[0].StudentID, got[1].StudentID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not non-increasing: %v then %v", got[i-1].Score, got[i].Score)
		}
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"knn", VariantKNN, false},
		{"svd", VariantSVD, false},
		{"als", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVariant(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVariant(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
