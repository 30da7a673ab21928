package chat

import (
	"strings"
	"time"
)

// Message is one user or assistant turn. Assistant turns keep the answer
// fragments received so far, so a display layer can re-render the full
// citation-annotated text at any point.
type Message struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Fragments []AnswerFragment `json:"fragments,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleError     = "error"
)

func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

func NewAssistantMessage(content string, fragments []AnswerFragment) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
		Fragments: fragments,
	}
}

func NewErrorMessage(content string) Message {
	return Message{
		Role:      RoleError,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}
