package llm

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInvalidProvider Kind = iota + 1
	KindMissingKey
	KindUpstream
	KindEmptyResponse
)

var (
	ErrInvalidProvider = errors.New("invalid provider")
	ErrMissingAPIKey   = errors.New("missing api key")
	ErrUpstream        = errors.New("llm request failed")
	ErrEmptyResponse   = errors.New("empty llm response")
)

// Error is the only failure type Complete returns. Callers branch on Kind
// or use errors.Is with the sentinels above.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "llm error"
	}
	switch e.Kind {
	case KindInvalidProvider:
		return fmt.Sprintf("invalid provider %q: only 'openai' or 'groq' are supported", e.Provider)
	case KindMissingKey:
		return fmt.Sprintf("missing API key for %s: provide it in the form or the environment", displayName(e.Provider))
	case KindEmptyResponse:
		return fmt.Sprintf("%s returned an empty response", displayName(e.Provider))
	default:
		return fmt.Sprintf("%s error: unable to generate response: %v", displayName(e.Provider), e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidProvider:
		return e.Kind == KindInvalidProvider
	case ErrMissingAPIKey:
		return e.Kind == KindMissingKey
	case ErrUpstream:
		return e.Kind == KindUpstream
	case ErrEmptyResponse:
		return e.Kind == KindEmptyResponse
	}
	return false
}

func displayName(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderGroq:
		return "Groq"
	default:
		return provider
	}
}
