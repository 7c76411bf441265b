package chat

import (
	"context"
	"errors"

	"llm-chat/internal/conversation"
)

// RunOnce submits prompt through the conversation state machine without a
// terminal and waits for the outcome. The returned state carries either the
// assistant reply or the error text. ctx cancellation aborts the call.
func RunOnce(ctx context.Context, c Completer, models []string, model, prompt string) (conversation.State, error) {
	if c == nil {
		return conversation.State{}, errors.New("chat: completer must not be nil")
	}
	s := conversation.New(models, model)
	s, _ = conversation.Reduce(s, conversation.DraftChanged{Text: prompt})

	s, effects := conversation.Reduce(s, conversation.Submitted{})
	var send *conversation.SendRequest
	for _, eff := range effects {
		if sr, ok := eff.(conversation.SendRequest); ok {
			send = &sr
		}
	}
	if send == nil {
		return s, errors.New("chat: nothing to send")
	}

	body, err := c.Complete(ctx, send.Request)
	if err != nil {
		if ctx.Err() != nil {
			s, _ = conversation.Reduce(s, conversation.Aborted{})
			return s, ctx.Err()
		}
		s, _ = conversation.Reduce(s, conversation.RequestFailed{ID: send.ID, Err: err})
		return s, nil
	}
	s, _ = conversation.Reduce(s, conversation.ResponseReceived{ID: send.ID, Reply: conversation.ParseReply(body)})
	return s, nil
}
