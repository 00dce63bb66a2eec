package llm

import "errors"

// Kind classifies a provider failure. The tags double as the error_kind
// values surfaced on the HTTP API.
type Kind string

const (
	// KindUnavailable means credentials are missing or the provider is not registered.
	KindUnavailable Kind = "provider_unavailable"

	// KindTimeout means the per-call deadline was exceeded.
	KindTimeout Kind = "provider_timeout"

	// KindBadRequest means the provider rejected the request (4xx other than 429).
	KindBadRequest Kind = "provider_bad_request"

	// KindTransient means a 429, a 5xx, or a network failure.
	KindTransient Kind = "provider_transient"
)

// ProviderError is a provider failure normalized to the error taxonomy.
type ProviderError struct {
	Provider string
	Kind     Kind
	err      error
}

// NewProviderError wraps err with a provider name and failure kind.
func NewProviderError(provider string, kind Kind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, err: err}
}

func (e *ProviderError) Error() string {
	return e.err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.err
}

// Retryable reports whether a caller may retry the call once with back-off.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindTransient
}

// KindOf extracts the failure kind from err, or "" for non-provider errors.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether err is a retry-eligible provider failure.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable()
}
