package govdocs

import "github.com/kailas-cloud/govdocs/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery       = domain.ErrInvalidQuery
	ErrNoResults          = domain.ErrNoResults
	ErrServiceUnavailable = domain.ErrServiceUnavailable
	ErrMissingAPIKey      = domain.ErrMissingAPIKey
	ErrStoreUnavailable   = domain.ErrStoreUnavailable
)
