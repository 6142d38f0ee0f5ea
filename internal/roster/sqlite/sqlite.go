// Package sqlite implements the roster store over a SQLite database, for
// installs that outgrow a flat file.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"peermatch/internal/domain"
)

// Store wraps a SQLite database holding the roster.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS students (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			skills_json TEXT NOT NULL,
			interests_json TEXT NOT NULL,
			communities_json TEXT NOT NULL,
			teammates_json TEXT NOT NULL,
			teamwork REAL NOT NULL DEFAULT 0,
			interactions INTEGER NOT NULL DEFAULT 0
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Load materializes every student record ordered by id.
func (s *Store) Load() ([]domain.Student, error) {
	rows, err := s.db.Query(`
		SELECT id, name, skills_json, interests_json, communities_json,
			teammates_json, teamwork, interactions
		FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying students: %w", err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		var st domain.Student
		var skills, interests, communities, teammates string
		if err := rows.Scan(&st.ID, &st.Name, &skills, &interests, &communities,
			&teammates, &st.Teamwork, &st.Interactions); err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}
		if err := decodeLists(&st, skills, interests, communities, teammates); err != nil {
			return nil, fmt.Errorf("student %d: %w: %v", st.ID, domain.ErrDataIntegrity, err)
		}
		if st.Interactions < 0 {
			return nil, fmt.Errorf("student %d: %w: negative interaction count", st.ID, domain.ErrDataIntegrity)
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// Append inserts one added student.
func (s *Store) Append(st domain.Student) error {
	skills, interests, communities, teammates, err := encodeLists(st)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO students (id, name, skills_json, interests_json,
			communities_json, teammates_json, teamwork, interactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, skills, interests, communities, teammates,
		st.Teamwork, st.Interactions)
	if err != nil {
		return fmt.Errorf("inserting student %d: %w", st.ID, err)
	}
	return nil
}

// Seed replaces the table contents, used by tests and first-run imports.
func (s *Store) Seed(students []domain.Student) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM students"); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO students (id, name, skills_json, interests_json,
			communities_json, teammates_json, teamwork, interactions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, st := range students {
		skills, interests, communities, teammates, err := encodeLists(st)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(st.ID, st.Name, skills, interests, communities,
			teammates, st.Teamwork, st.Interactions); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func encodeLists(st domain.Student) (skills, interests, communities, teammates string, err error) {
	enc := func(v any) string {
		if err != nil {
			return ""
		}
		var data []byte
		data, err = json.Marshal(v)
		return string(data)
	}
	skills = enc(emptyIfNil(st.Skills))
	interests = enc(emptyIfNil(st.Interests))
	communities = enc(emptyIfNil(st.Communities))
	if st.Teammates == nil {
		teammates = enc([]int{})
	} else {
		teammates = enc(st.Teammates)
	}
	return skills, interests, communities, teammates, err
}

func decodeLists(st *domain.Student, skills, interests, communities, teammates string) error {
	if err := json.Unmarshal([]byte(skills), &st.Skills); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(interests), &st.Interests); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(communities), &st.Communities); err != nil {
		return err
	}
	return json.Unmarshal([]byte(teammates), &st.Teammates)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
