package analysis

import "fmt"

// ProviderErrorKind distinguishes remote-call failures so each maps to a
// specific user-facing message.
type ProviderErrorKind string

const (
	ProviderTooLarge         ProviderErrorKind = "too_large"
	ProviderRateLimited      ProviderErrorKind = "rate_limited"
	ProviderUnsupportedMedia ProviderErrorKind = "unsupported_media"
	ProviderContentFiltered  ProviderErrorKind = "content_filtered"
	ProviderGeneric          ProviderErrorKind = "generic"
)

// ProviderError is a failure signalled by the AI provider. Never retried
// automatically.
type ProviderError struct {
	Kind ProviderErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedResponseError means the provider replied, but not with JSON
// conforming to the declared schema.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed analysis response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed analysis response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
