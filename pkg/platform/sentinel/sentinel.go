package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and gateways return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: row does not exist, or a conditional update matched nothing
//   - ErrAlreadyUsed: a unique key (mobile, PAN hash, address type, document type) is taken
//   - ErrInvalidState: row exists but is in the wrong state for the mutation
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
