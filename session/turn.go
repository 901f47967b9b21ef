package session

import "time"

// Turn roles. Every turn in a session history is one or the other.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one exchange unit in a conversation. Turns are immutable once
// appended to a history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserTurn builds a user turn stamped with the current time.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// AssistantTurn builds an assistant turn stamped with the current time.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}
