package domain

// CompletionRequest is the body of POST /api/openai and of the outbound
// provider call.
type CompletionRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model"`
}

// AppendMessage returns a new transcript with m appended. The input slice is
// never written to, so earlier snapshots of a transcript stay valid.
func AppendMessage(transcript []Message, m Message) []Message {
	out := make([]Message, 0, len(transcript)+1)
	out = append(out, transcript...)
	return append(out, m)
}
