package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals an empty or otherwise unusable search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNoResults signals that every search tier came back empty.
	ErrNoResults = errors.New("no results")

	// ErrServiceUnavailable signals an unreachable or unconfigured upstream (embedding / generation API).
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrMissingAPIKey signals that the AI provider has no API key configured.
	// It matches ErrServiceUnavailable via errors.Is.
	ErrMissingAPIKey = fmt.Errorf("missing api key: %w", ErrServiceUnavailable)
	// ErrInvalidResponse signals an upstream payload without the expected shape.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrStoreUnavailable signals that the document store could not serve a request at all.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrDimensionMismatch signals vectors of different dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// UpstreamError carries the provider status for logging while matching a domain sentinel.
type UpstreamError struct {
	Provider string
	Status   int
	Detail   string
	Kind     error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s upstream error %d: %s: %s", e.Provider, e.Status, e.Detail, e.Kind)
	}
	return fmt.Sprintf("%s upstream error: %s: %s", e.Provider, e.Detail, e.Kind)
}

func (e *UpstreamError) Unwrap() error { return e.Kind }

// IsTransient reports whether err is worth retrying against the AI provider.
// A missing key or a rejected request never becomes valid by waiting.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrMissingAPIKey) {
		return false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status >= 400 && ue.Status < 500 &&
		ue.Status != http.StatusRequestTimeout && ue.Status != http.StatusTooManyRequests {
		return false
	}
	return errors.Is(err, ErrServiceUnavailable)
}
