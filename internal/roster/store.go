// Package roster loads and persists the student dataset. The engine depends
// only on the Student shape; the on-disk representation is the store's
// contract.
package roster

import "peermatch/internal/domain"

// Store loads the full roster at startup and appends added students.
type Store interface {
	// Load materializes every student record.
	Load() ([]domain.Student, error)
	// Append persists one added student.
	Append(domain.Student) error
}
