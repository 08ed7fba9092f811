package types

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is the conversation-message shape the routing layer sees.
// Only the textual content matters for token estimation; everything
// else travels opaquely to whichever node executes the work.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
}
