package similarity

import (
	"errors"
	"math"
	"testing"

	"peermatch/internal/catalog"
	"peermatch/internal/domain"
)

func newEngine(t *testing.T, students []domain.Student) (*Engine, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.New(students)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(c), c
}

func sampleRoster() []domain.Student {
	return []domain.Student{
		{ID: 1, Name: "S1", Skills: []string{"python"}, Interests: []string{"ml"}, Teammates: []int{2}},
		{ID: 2, Name: "S2", Skills: []string{"python"}, Interests: []string{"ml"}, Teammates: []int{1}},
		{ID: 3, Name: "S3", Skills: []string{"design"}, Interests: []string{"art"}},
	}
}

func TestSimilarityIdenticalAndDisjointAttributes(t *testing.T) {
	e, _ := newEngine(t, sampleRoster())
	tests := []struct {
		name string
		a, b int
		want float64
	}{
		{"identical attributes", 1, 2, 1.0},
		{"disjoint attributes", 1, 3, 0.0},
		{"self similarity", 1, 1, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Similarity(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Similarity(%d,%d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	e, _ := newEngine(t, []domain.Student{
		{ID: 1, Name: "A", Skills: []string{"go", "sql"}, Interests: []string{"games"}},
		{ID: 2, Name: "B", Skills: []string{"go"}, Interests: []string{"music"}},
		{ID: 3, Name: "C", Skills: []string{"sql", "go"}, Interests: []string{"games", "music"}},
	})
	pairs := [][2]int{{1, 2}, {1, 3}, {2, 3}}
	for _, p := range pairs {
		ab, err := e.Similarity(p[0], p[1])
		if err != nil {
			t.Fatal(err)
		}
		ba, err := e.Similarity(p[1], p[0])
		if err != nil {
			t.Fatal(err)
		}
		if ab != ba {
			t.Errorf("Similarity(%d,%d) = %v but Similarity(%d,%d) = %v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestSimilarityZeroForEmptyAttributes(t *testing.T) {
	e, _ := newEngine(t, []domain.Student{
		{ID: 1, Name: "A", Skills: []string{"go"}},
		{ID: 2, Name: "B"},
	})
	got, err := e.Similarity(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("Similarity with empty vector = %v, want 0", got)
	}
}

func TestSimilarityUnknownStudent(t *testing.T) {
	e, _ := newEngine(t, sampleRoster())
	if _, err := e.Similarity(1, 99); !errors.Is(err, domain.ErrUnknownStudent) {
		t.Errorf("Similarity(1,99) error = %v, want ErrUnknownStudent", err)
	}
	if _, err := e.TopSimilar(99, 3); !errors.Is(err, domain.ErrUnknownStudent) {
		t.Errorf("TopSimilar(99) error = %v, want ErrUnknownStudent", err)
	}
}

func TestTopSimilar(t *testing.T) {
	e, _ := newEngine(t, sampleRoster())
	got, err := e.TopSimilar(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("TopSimilar(1,1) returned %d results, want 1", len(got))
	}
	if got[0].Student.ID != 2 || math.Abs(got[0].Score-1.0) > 1e-12 {
		t.Errorf("TopSimilar(1,1) = (id=%d, score=%v), want (id=2, score=1.0)", got[0].Student.ID, got[0].Score)
	}
}

func TestTopSimilarExcludesSelfAndSortsDescending(t *testing.T) {
	e, _ := newEngine(t, []domain.Student{
		{ID: 1, Name: "A", Skills: []string{"go", "sql", "python"}},
		{ID: 2, Name: "B", Skills: []string{"go", "sql"}},
		{ID: 3, Name: "C", Skills: []string{"go"}},
		{ID: 4, Name: "D", Skills: []string{"rust"}},
	})
	got, err := e.TopSimilar(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range got {
		if r.Student.ID == 1 {
			t.Fatal("TopSimilar includes the query student")
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("scores not non-increasing: %v then %v", got[i-1].Score, got[i].Score)
		}
	}
}

func TestTopSimilarTieBreakByAscendingID(t *testing.T) {
	e, _ := newEngine(t, []domain.Student{
		{ID: 1, Name: "A", Skills: []string{"go"}},
		{ID: 3, Name: "C", Skills: []string{"go"}},
		{ID: 2, Name: "B", Skills: []string{"go"}},
	})
	got, err := e.TopSimilar(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Student.ID != 2 || got[1].Student.ID != 3 {
		ids := make([]int, len(got))
		for i, r := range got {
			ids[i] = r.Student.ID
		}
		t.Errorf("tie-break order = %v, want [2 3]", ids)
	}
}

func TestUniverseGrowsOnAdd(t *testing.T) {
	e, c := newEngine(t, sampleRoster())
	before, err := e.Dimension()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Add(domain.Student{Name: "S4", Skills: []string{"quantum"}}); err != nil {
		t.Fatal(err)
	}
	after, err := e.Dimension()
	if err != nil {
		t.Fatal(err)
	}
	if after != before+1 {
		t.Errorf("dimension after add = %d, want %d", after, before+1)
	}
	// Existing students keep self-similarity 1 in the grown universe.
	sim, err := e.Similarity(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sim-1.0) > 1e-12 {
		t.Errorf("self-similarity after rebuild = %v, want 1.0", sim)
	}
}

func TestTagsAreCaseInsensitive(t *testing.T) {
	e, _ := newEngine(t, []domain.Student{
		{ID: 1, Name: "A", Skills: []string{"Python"}},
		{ID: 2, Name: "B", Skills: []string{"python"}},
	})
	sim, err := e.Similarity(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sim-1.0) > 1e-12 {
		t.Errorf("Similarity with case-differing tags = %v, want 1.0", sim)
	}
}
