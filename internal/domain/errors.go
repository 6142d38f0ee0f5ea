package domain

import "errors"

var (
	// ErrUnknownStudent reports a lookup for an ID absent from the catalog.
	ErrUnknownStudent = errors.New("unknown student")

	// ErrDuplicateID reports an add with a caller-supplied ID that collides
	// with an existing student.
	ErrDuplicateID = errors.New("duplicate student identifier")

	// ErrInsufficientData reports that a model fit or an evaluation run
	// cannot proceed because the interaction data is too sparse.
	ErrInsufficientData = errors.New("insufficient interaction data")

	// ErrDataIntegrity reports a malformed roster, e.g. a teammate reference
	// that does not resolve to an existing student. Fatal to the catalog
	// load; no partial catalog is exposed.
	ErrDataIntegrity = errors.New("roster data integrity error")
)
