package usecase

import (
	"encoding/json"
	"strings"

	"llm-chat/internal/domain"
)

const (
	DefaultModel  = "qwen-plus"
	DefaultPrompt = "帮我简单介绍下next.js"
)

// Defaults fills in fields a caller left out of a completion request.
type Defaults struct {
	Model  string
	Prompt string
}

func (d Defaults) normalized() Defaults {
	if strings.TrimSpace(d.Model) == "" {
		d.Model = DefaultModel
	}
	if strings.TrimSpace(d.Prompt) == "" {
		d.Prompt = DefaultPrompt
	}
	return d
}

// apply substitutes the introductory system prompt for absent messages and
// the default model for an absent model. Present values, even empty ones,
// are kept as sent.
func (d Defaults) apply(in CompleteInput) ([]json.RawMessage, string) {
	messages := in.Messages
	if messages == nil {
		// a Message of two strings always marshals
		prompt, _ := json.Marshal(domain.SystemMessage(d.Prompt))
		messages = []json.RawMessage{prompt}
	}
	model := d.Model
	if in.Model != nil {
		model = *in.Model
	}
	return messages, model
}
