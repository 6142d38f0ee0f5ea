// Package csv implements the roster store over a flat CSV file, the format
// the original student dataset ships in. List-valued columns are encoded as
// bracketed literals like ['python', 'ml'].
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"peermatch/internal/domain"
)

var header = []string{"id", "name", "skills", "interests", "communities", "teammates", "teamwork", "interactions"}

// Store reads and rewrites a roster CSV file.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

// Load parses every row. A malformed row fails the whole load: the catalog
// must never be built from a partially read roster.
func (s *Store) Load() ([]domain.Student, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening roster %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", s.path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("roster %s: %w: empty file", s.path, domain.ErrDataIntegrity)
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, fmt.Errorf("roster %s: %w", s.path, err)
	}

	students := make([]domain.Student, 0, len(records)-1)
	for i, row := range records[1:] {
		student, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("roster %s row %d: %w", s.path, i+2, err)
		}
		students = append(students, student)
	}
	return students, nil
}

// Append rewrites the file with the new student included, via a temp file
// and rename so a crash never leaves a truncated roster behind.
func (s *Store) Append(student domain.Student) error {
	students, err := s.Load()
	if err != nil {
		return err
	}
	students = append(students, student)

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	writer := csv.NewWriter(f)
	rows := [][]string{header}
	for _, st := range students {
		rows = append(rows, formatRow(st))
	}
	if err := writer.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

// WriteAll creates a roster file from scratch, used for seeding.
func WriteAll(path string, students []domain.Student) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	writer := csv.NewWriter(f)
	rows := [][]string{header}
	for _, st := range students {
		rows = append(rows, formatRow(st))
	}
	return writer.WriteAll(rows)
}

func checkHeader(row []string) error {
	if len(row) != len(header) {
		return fmt.Errorf("%w: expected %d columns, got %d", domain.ErrDataIntegrity, len(header), len(row))
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(row[i])) != col {
			return fmt.Errorf("%w: missing column %q", domain.ErrDataIntegrity, col)
		}
	}
	return nil
}

func parseRow(row []string) (domain.Student, error) {
	if len(row) != len(header) {
		return domain.Student{}, errors.New("wrong column count")
	}
	id, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return domain.Student{}, fmt.Errorf("parsing id: %w", err)
	}
	teamwork, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
	if err != nil {
		return domain.Student{}, fmt.Errorf("parsing teamwork: %w", err)
	}
	interactions, err := strconv.Atoi(strings.TrimSpace(row[7]))
	if err != nil {
		return domain.Student{}, fmt.Errorf("parsing interactions: %w", err)
	}
	if interactions < 0 {
		return domain.Student{}, fmt.Errorf("%w: negative interaction count", domain.ErrDataIntegrity)
	}
	teammates, err := parseIntList(row[5])
	if err != nil {
		return domain.Student{}, fmt.Errorf("parsing teammates: %w", err)
	}
	return domain.Student{
		ID:           id,
		Name:         strings.TrimSpace(row[1]),
		Skills:       parseStringList(row[2]),
		Interests:    parseStringList(row[3]),
		Communities:  parseStringList(row[4]),
		Teammates:    teammates,
		Teamwork:     teamwork,
		Interactions: interactions,
	}, nil
}

func formatRow(s domain.Student) []string {
	return []string{
		strconv.Itoa(s.ID),
		s.Name,
		formatStringList(s.Skills),
		formatStringList(s.Interests),
		formatStringList(s.Communities),
		formatIntList(s.Teammates),
		strconv.FormatFloat(s.Teamwork, 'g', -1, 64),
		strconv.Itoa(s.Interactions),
	}
}

// parseStringList accepts ['a', 'b'] bracket literals as well as bare
// comma-separated values.
func parseStringList(raw string) []string {
	var out []string
	for _, item := range splitListItems(raw) {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseIntList(raw string) ([]int, error) {
	var out []int
	for _, item := range splitListItems(raw) {
		if item == "" {
			continue
		}
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func splitListItems(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `'" `)
	}
	return parts
}

func formatStringList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatIntList(items []int) string {
	if len(items) == 0 {
		return "[]"
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = strconv.Itoa(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
