package usecase

import (
	"context"
	"encoding/json"
	"errors"
)

// Provider is an OpenAI-compatible chat completion backend.
type Provider interface {
	CreateChatCompletion(ctx context.Context, model string, messages []json.RawMessage) (json.RawMessage, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// CompleteInput mirrors the POST /api/openai body. A nil Messages or Model
// means the field was absent or null. Each message is kept as sent, so
// fields other than role and content, and non-string content, reach the
// provider untouched.
type CompleteInput struct {
	Messages []json.RawMessage `json:"messages"`
	Model    *string           `json:"model"`
}

type CompleteOutput struct {
	// Completion is the provider's completion object, unmodified.
	Completion json.RawMessage
	Model      string
}

// CompletionService forwards chat completion requests to a single provider.
// It keeps no state between calls.
type CompletionService struct {
	provider Provider
	defaults Defaults
}

func NewCompletionService(p Provider, defaults Defaults) (*CompletionService, error) {
	if p == nil {
		return nil, errors.New("usecase: provider must not be nil")
	}
	return &CompletionService{provider: p, defaults: defaults.normalized()}, nil
}

func (s *CompletionService) Complete(ctx context.Context, in CompleteInput) (CompleteOutput, error) {
	messages, model := s.defaults.apply(in)

	raw, err := s.provider.CreateChatCompletion(ctx, model, messages)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return CompleteOutput{Model: model}, newError(ErrorUpstream, "provider_timeout", err)
		}
		if _, ok := upstreamStatusCode(err); ok {
			return CompleteOutput{Model: model}, newError(ErrorUpstream, "provider_status", err)
		}
		return CompleteOutput{Model: model}, newError(ErrorUpstream, "provider_error", err)
	}
	if len(raw) == 0 {
		return CompleteOutput{Model: model}, newError(ErrorUpstream, "provider_empty_response", nil)
	}
	return CompleteOutput{Completion: raw, Model: model}, nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
