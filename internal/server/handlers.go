package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"peermatch/internal/domain"
	"peermatch/internal/recommend"
)

type studentJSON struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Skills       []string `json:"skills"`
	Interests    []string `json:"interests"`
	Communities  []string `json:"communities"`
	Teammates    []int    `json:"teammates"`
	Teamwork     float64  `json:"teamwork"`
	Interactions int      `json:"interactions"`
}

type scoredJSON struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type recommendationsJSON struct {
	StudentID int          `json:"student_id"`
	Mode      string       `json:"mode"`
	Warning   string       `json:"warning,omitempty"`
	Results   []scoredJSON `json:"results"`
}

type rankedJSON struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Interactions int    `json:"interactions"`
}

type evaluationJSON struct {
	Model      string  `json:"model"`
	RMSE       float64 `json:"rmse"`
	MAE        float64 `json:"mae"`
	TrainCount int     `json:"train_count"`
	TestCount  int     `json:"test_count"`
}

type comparisonJSON struct {
	Results []evaluationJSON `json:"results"`
	Winner  string           `json:"winner"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if !s.auth.enabled() {
		writeError(w, http.StatusNotFound, "authentication not configured")
		return
	}
	token, err := s.auth.login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	students := s.svc.Search(query)
	out := make([]studentJSON, 0, len(students))
	for _, st := range students {
		out = append(out, toStudentJSON(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	student, err := s.svc.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentJSON(student))
}

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req studentJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	added, err := s.svc.Add(domain.Student{
		ID:           req.ID,
		Name:         req.Name,
		Skills:       req.Skills,
		Interests:    req.Interests,
		Communities:  req.Communities,
		Teammates:    req.Teammates,
		Teamwork:     req.Teamwork,
		Interactions: req.Interactions,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentJSON(added))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}
	modeParam := r.URL.Query().Get("mode")
	if modeParam == "" {
		modeParam = "content"
	}
	mode, err := recommend.ParseMode(modeParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n := queryInt(r, "n", 6)
	results, warning, err := s.svc.Recommendations(id, mode, n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := recommendationsJSON{StudentID: id, Mode: modeParam, Warning: warning, Results: make([]scoredJSON, 0, len(results))}
	for _, res := range results {
		out.Results = append(out.Results, scoredJSON{ID: res.Student.ID, Name: res.Student.Name, Score: res.Score})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r, "n", 6)
	ranked := s.svc.GlobalRanking(n)
	out := make([]rankedJSON, 0, len(ranked))
	for _, entry := range ranked {
		out = append(out, rankedJSON{ID: entry.Student.ID, Name: entry.Student.Name, Interactions: entry.Interactions})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompareModels(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.CompareModels()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := comparisonJSON{Winner: report.Winner}
	for _, res := range report.Results {
		out.Results = append(out.Results, evaluationJSON{
			Model:      res.Model,
			RMSE:       res.RMSE,
			MAE:        res.MAE,
			TrainCount: res.TrainCount,
			TestCount:  res.TestCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func toStudentJSON(st domain.Student) studentJSON {
	return studentJSON{
		ID:           st.ID,
		Name:         st.Name,
		Skills:       st.Skills,
		Interests:    st.Interests,
		Communities:  st.Communities,
		Teammates:    st.Teammates,
		Teamwork:     st.Teamwork,
		Interactions: st.Interactions,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// writeDomainError maps the engine's error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownStudent):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrDataIntegrity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorJSON{Error: msg})
}
