package conversation

import (
	"bytes"
	"encoding/json"
)

// Reply is what the view makes of a successful gateway response. It is
// either ReplyText or Unparseable.
type Reply interface {
	// Content is the text appended to the transcript.
	Content() string
	isReply()
}

// ReplyText holds choices[0].message.content.
type ReplyText struct {
	Text string
}

// Unparseable holds the whole response, compacted, when no reply text could
// be found in it.
type Unparseable struct {
	Raw string
}

func (r ReplyText) Content() string   { return r.Text }
func (u Unparseable) Content() string { return u.Raw }

func (ReplyText) isReply()   {}
func (Unparseable) isReply() {}

type completionShape struct {
	Choices []struct {
		Message *struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseReply reads the assistant text out of a completion object. Anything
// without a string at choices[0].message.content is Unparseable.
func ParseReply(body []byte) Reply {
	var shape completionShape
	if err := json.Unmarshal(body, &shape); err == nil && len(shape.Choices) > 0 && shape.Choices[0].Message != nil {
		var text string
		if err := json.Unmarshal(shape.Choices[0].Message.Content, &text); err == nil && !isNull(shape.Choices[0].Message.Content) {
			return ReplyText{Text: text}
		}
	}
	return Unparseable{Raw: compact(body)}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func compact(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return string(body)
	}
	return buf.String()
}
