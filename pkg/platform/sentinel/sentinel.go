package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Record stores return these
// (optionally wrapped) so the service layer can translate them into domain
// errors with the right code.
//
// These represent factual states about stored records, not validation
// failures:
// - ErrNotFound: no record under the requested (kind, id)
// - ErrConflict: write collided with existing state
// - ErrInvalidState: record in wrong state for the requested operation
// - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
