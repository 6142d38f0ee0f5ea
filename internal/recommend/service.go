// Package recommend orchestrates the content and collaborative signals into
// ranked peer recommendations.
package recommend

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"peermatch/internal/catalog"
	"peermatch/internal/collab"
	"peermatch/internal/domain"
	"peermatch/internal/evaluation"
	"peermatch/internal/interaction"
	"peermatch/internal/similarity"
)

// Mode selects the ranking strategy for a recommendation request.
type Mode struct {
	// Kind is "content", "collaborative" or "hybrid".
	Kind string
	// Variant is the collaborative model for the collaborative and hybrid
	// kinds.
	Variant collab.Variant
}

// ParseMode accepts "content", "collaborative:<variant>" (bare
// "collaborative" defaults to knn) and "hybrid"/"hybrid:<variant>".
func ParseMode(s string) (Mode, error) {
	kind, variantName, _ := strings.Cut(strings.TrimSpace(strings.ToLower(s)), ":")
	switch kind {
	case "content":
		return Mode{Kind: "content"}, nil
	case "collaborative", "hybrid":
		variant := collab.VariantKNN
		if variantName != "" {
			v, err := collab.ParseVariant(variantName)
			if err != nil {
				return Mode{}, err
			}
			variant = v
		}
		return Mode{Kind: kind, Variant: variant}, nil
	default:
		return Mode{}, fmt.Errorf("unknown recommendation mode %q", s)
	}
}

// Params bundles the engine knobs the service needs.
type Params struct {
	Collab              collab.Params
	WeightInteractions  bool
	ContentWeight       float64
	CollaborativeWeight float64
	SplitRatio          float64
	EvalSeed            int64
}

// Appender persists an added student externally. Implemented by the roster
// stores.
type Appender interface {
	Append(domain.Student) error
}

// Service is the recommendation orchestrator. It owns no roster state of its
// own: the catalog is the source of truth, and the interaction matrix plus
// fitted models are cached alongside the catalog version they were built
// from and rebuilt atomically when stale.
type Service struct {
	catalog  *catalog.Catalog
	engine   *similarity.Engine
	params   Params
	appender Appender

	mu      sync.Mutex
	built   uint64
	matrix  *interaction.Matrix
	models  map[collab.Variant]domain.Model
	fitErrs map[collab.Variant]error
}

// NewService wires the orchestrator. appender may be nil when added students
// need no external persistence (tests, ephemeral rosters).
func NewService(c *catalog.Catalog, engine *similarity.Engine, params Params, appender Appender) *Service {
	if params.ContentWeight == 0 && params.CollaborativeWeight == 0 {
		params.ContentWeight, params.CollaborativeWeight = 0.5, 0.5
	}
	return &Service{catalog: c, engine: engine, params: params, appender: appender}
}

// Search matches students by id or case-insensitive name substring.
func (s *Service) Search(query string) []domain.Student {
	return s.catalog.Find(query)
}

// Get returns one student by id.
func (s *Service) Get(id int) (domain.Student, error) {
	return s.catalog.Get(id)
}

// Add appends a student to the catalog and persists the addition through the
// configured store. The catalog version bump invalidates every cached
// artifact.
func (s *Service) Add(student domain.Student) (domain.Student, error) {
	added, err := s.catalog.Add(student)
	if err != nil {
		return domain.Student{}, err
	}
	if s.appender != nil {
		if err := s.appender.Append(added); err != nil {
			return domain.Student{}, fmt.Errorf("persisting student %d: %w", added.ID, err)
		}
	}
	return added, nil
}

// GlobalRanking returns the top-n students by raw interaction count,
// descending, with ascending-ID tie-break. No modeling involved.
func (s *Service) GlobalRanking(n int) []domain.RankedStudent {
	students := s.catalog.All()
	sort.Slice(students, func(i, j int) bool {
		if students[i].Interactions != students[j].Interactions {
			return students[i].Interactions > students[j].Interactions
		}
		return students[i].ID < students[j].ID
	})
	if n > 0 && len(students) > n {
		students = students[:n]
	}
	out := make([]domain.RankedStudent, len(students))
	for i, st := range students {
		out[i] = domain.RankedStudent{Student: st, Interactions: st.Interactions}
	}
	return out
}

// Recommendations ranks up to n candidates for the given student. A
// collaborative or hybrid request whose model cannot be fit on the current
// data falls back to content-only ranking; the condition is surfaced in the
// warning string rather than failing the request.
func (s *Service) Recommendations(id int, mode Mode, n int) ([]domain.ScoredStudent, string, error) {
	if _, err := s.catalog.Get(id); err != nil {
		return nil, "", err
	}
	switch mode.Kind {
	case "content", "":
		results, err := s.engine.TopSimilar(id, n)
		return results, "", err
	case "collaborative":
		model, err := s.model(mode.Variant)
		if err != nil {
			results, cerr := s.engine.TopSimilar(id, n)
			if cerr != nil {
				return nil, "", cerr
			}
			return results, fallbackWarning(mode.Variant, err), nil
		}
		return s.rankCollaborative(model, id, n), "", nil
	case "hybrid":
		model, err := s.model(mode.Variant)
		if err != nil {
			results, cerr := s.engine.TopSimilar(id, n)
			if cerr != nil {
				return nil, "", cerr
			}
			return results, fallbackWarning(mode.Variant, err), nil
		}
		return s.rankHybrid(model, id, n)
	default:
		return nil, "", fmt.Errorf("unknown recommendation mode %q", mode.Kind)
	}
}

// CompareModels runs the evaluation harness on the current interaction
// matrix.
func (s *Service) CompareModels() (domain.ComparisonReport, error) {
	matrix, _, _ := s.artifacts()
	return evaluation.Compare(matrix, s.params.Collab, s.params.SplitRatio, s.params.EvalSeed)
}

func fallbackWarning(v collab.Variant, err error) string {
	return fmt.Sprintf("collaborative model %s unavailable (%v); using content similarity only", v, err)
}

// rankCollaborative scores every other catalog student with the fitted
// model. Students absent from the matrix predict 0 and sort last by ID.
func (s *Service) rankCollaborative(model domain.Model, id, n int) []domain.ScoredStudent {
	var out []domain.ScoredStudent
	for _, other := range s.catalog.All() {
		if other.ID == id {
			continue
		}
		out = append(out, domain.ScoredStudent{Student: other, Score: model.Predict(id, other.ID)})
	}
	sortScored(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// rankHybrid linearly combines content similarity with the model's
// predictions. Negative predictions clamp to 0 and the rest are divided by
// the maximum over the candidate set so both signals mix on [0,1]; the
// weights are normalized to sum to 1.
func (s *Service) rankHybrid(model domain.Model, id, n int) ([]domain.ScoredStudent, string, error) {
	candidates := s.catalog.All()
	preds := make(map[int]float64, len(candidates))
	maxPred := 0.0
	for _, other := range candidates {
		if other.ID == id {
			continue
		}
		p := model.Predict(id, other.ID)
		if p < 0 {
			p = 0
		}
		preds[other.ID] = p
		if p > maxPred {
			maxPred = p
		}
	}
	wc, wf := s.params.ContentWeight, s.params.CollaborativeWeight
	total := wc + wf
	wc, wf = wc/total, wf/total

	var out []domain.ScoredStudent
	for _, other := range candidates {
		if other.ID == id {
			continue
		}
		sim, err := s.engine.Similarity(id, other.ID)
		if err != nil {
			return nil, "", err
		}
		p := preds[other.ID]
		if maxPred > 0 {
			p /= maxPred
		}
		out = append(out, domain.ScoredStudent{Student: other, Score: wc*sim + wf*p})
	}
	sortScored(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, "", nil
}

func sortScored(out []domain.ScoredStudent) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Student.ID < out[j].Student.ID
	})
}

// model returns the fitted model for a variant, rebuilding the matrix and
// refitting lazily when the catalog has moved on. Fit failures are cached
// per variant for the current version so sparse data does not refit on every
// request.
func (s *Service) model(v collab.Variant) (domain.Model, error) {
	_, models, fitErrs := s.artifacts()
	if err := fitErrs[v]; err != nil {
		return nil, err
	}
	model, ok := models[v]
	if !ok {
		return nil, fmt.Errorf("unknown collaborative variant %q", v)
	}
	return model, nil
}

// artifacts returns the matrix and fitted models for the current catalog
// version, rebuilding them under the lock when stale. The maps are replaced
// wholesale: readers see either the previous complete generation or the new
// one.
func (s *Service) artifacts() (*interaction.Matrix, map[collab.Variant]domain.Model, map[collab.Variant]error) {
	version := s.catalog.Version()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built == version {
		return s.matrix, s.models, s.fitErrs
	}
	matrix := interaction.Build(s.catalog.All(), s.params.WeightInteractions)
	models := make(map[collab.Variant]domain.Model, 2)
	fitErrs := make(map[collab.Variant]error, 2)
	params := s.params.Collab
	params.SimilarNeighbors = s.similarNeighbors
	for _, v := range collab.Variants() {
		model, err := collab.NewModel(v, params)
		if err == nil {
			if matrix.Len() == 0 {
				err = fmt.Errorf("empty interaction matrix: %w", domain.ErrInsufficientData)
			} else {
				err = model.Fit(matrix)
			}
		}
		if err != nil {
			fitErrs[v] = err
			continue
		}
		models[v] = model
	}
	s.matrix = matrix
	s.models = models
	s.fitErrs = fitErrs
	s.built = version
	return matrix, models, fitErrs
}

// similarNeighbors adapts the content engine into the neighbor model's
// fallback feature for students with no direct interactions.
func (s *Service) similarNeighbors(id int, n int) []domain.Prediction {
	results, err := s.engine.TopSimilar(id, n)
	if err != nil {
		return nil
	}
	out := make([]domain.Prediction, 0, len(results))
	for _, r := range results {
		if r.Score <= 0 {
			continue
		}
		out = append(out, domain.Prediction{StudentID: r.Student.ID, Score: r.Score})
	}
	return out
}
