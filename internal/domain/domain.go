package domain

// Student is a single roster entry. The ID is stable and unique across the
// catalog; Teammates holds IDs that must resolve to existing students.
type Student struct {
	ID           int
	Name         string
	Skills       []string
	Interests    []string
	Communities  []string
	Teamwork     float64
	Interactions int
	Teammates    []int
}

// ScoredStudent pairs a candidate student with a ranking score.
type ScoredStudent struct {
	Student Student
	Score   float64
}

// RankedStudent pairs a student with their raw interaction count, used by the
// global ranking (no modeling involved).
type RankedStudent struct {
	Student      Student
	Interactions int
}

// Pair identifies an unordered student pair in the interaction matrix.
// Invariant: A < B.
type Pair struct {
	A, B int
}

// InteractionRecord is one observed pair with its derived strength.
type InteractionRecord struct {
	Pair     Pair
	Strength float64
}

// InteractionMatrix is the sparse symmetric pair->strength mapping derived
// from teammate relations and community co-membership. Pairs with zero
// strength are absent.
type InteractionMatrix interface {
	// Strength returns the derived strength for a pair, 0 if absent.
	Strength(a, b int) float64
	// Neighbors returns the direct neighbors of a student with their
	// strengths. The returned map must not be mutated.
	Neighbors(id int) map[int]float64
	// Records returns all observed records in a deterministic order.
	Records() []InteractionRecord
	// Students returns the IDs of all students present in the matrix.
	Students() []int
}

// Prediction pairs a candidate student ID with a predicted affinity. Models
// work purely over IDs; callers resolve them against the catalog.
type Prediction struct {
	StudentID int
	Score     float64
}

// Model is the collaborative-filtering capability. Implementations are fit
// artifacts: immutable once trained, rebuilt after any catalog mutation.
type Model interface {
	Name() string
	Fit(matrix InteractionMatrix) error
	// Predict returns the estimated affinity between two students. It never
	// fails: students without observed interactions yield a neutral 0.
	Predict(a, b int) float64
	// Recommend ranks up to n candidates for a student by predicted affinity,
	// excluding the student itself, descending by score with ascending-ID
	// tie-break.
	Recommend(id int, n int) []Prediction
}

// EvaluationResult reports the accuracy of one fitted model on a held-out
// test subset.
type EvaluationResult struct {
	Model      string
	RMSE       float64
	MAE        float64
	TrainCount int
	TestCount  int
}

// ComparisonReport holds one EvaluationResult per model variant plus the
// winner (lower RMSE, MAE as tie-break).
type ComparisonReport struct {
	Results []EvaluationResult
	Winner  string
}
