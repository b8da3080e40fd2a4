// Package message defines the plain-text chat message exchanged with LLM providers.
package message

import (
	"strings"

	"github.com/voxenlabs/voxgate/pkg/chats/role"
)

// Message is one turn in a conversation.
type Message struct {
	Role    role.Role
	Content string
}

// New creates a Message with the given role and content.
func New(r role.Role, content string) Message {
	return Message{Role: r, Content: content}
}

// SystemText returns the content of the first system message, or "" if the
// conversation carries none.
func SystemText(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == role.System {
			return m.Content
		}
	}
	return ""
}

// LastUserText returns the content of the most recent user message, or ""
// if the conversation carries none.
func LastUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role.User {
			return msgs[i].Content
		}
	}
	return ""
}

// Empty reports whether the conversation has no message with non-blank content.
func Empty(msgs []Message) bool {
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) != "" {
			return false
		}
	}
	return true
}
