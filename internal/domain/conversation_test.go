package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendMessage_DoesNotAliasInput(t *testing.T) {
	base := make([]Message, 1, 8)
	base[0] = UserMessage("first")

	a := AppendMessage(base, AssistantMessage("a"))
	b := AppendMessage(base, AssistantMessage("b"))

	require.Len(t, base, 1)
	require.Equal(t, []Message{UserMessage("first"), AssistantMessage("a")}, a)
	require.Equal(t, []Message{UserMessage("first"), AssistantMessage("b")}, b)
}

func TestAppendMessage_NilTranscript(t *testing.T) {
	out := AppendMessage(nil, UserMessage("hello"))
	require.Equal(t, []Message{{Role: RoleUser, Content: "hello"}}, out)
}
