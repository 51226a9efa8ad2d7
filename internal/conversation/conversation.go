package conversation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo/convogen/internal/types"
)

// Message is a single utterance within a conversation. Messages are owned by
// their parent conversation and never shared across conversations.
type Message struct {
	Role      types.Role             `json:"role"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(role types.Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{},
	}
}

// Conversation tracks one simulated exchange from creation to a terminal
// status. It is mutated only by the orchestrator and becomes read-only the
// moment its status leaves active.
type Conversation struct {
	ID               string                 `json:"conversation_id"`
	Messages         []Message              `json:"messages"`
	Status           types.Status           `json:"status"`
	TurnCount        int                    `json:"turn_count"`
	Persona          string                 `json:"persona"`
	ResolutionReason string                 `json:"resolution_reason"`
	CreatedAt        time.Time              `json:"created_at"`
	EndedAt          *time.Time             `json:"ended_at"`
	Metadata         map[string]interface{} `json:"metadata"`
}

// New creates an active conversation bound to the named persona
func New(personaName string, metadata map[string]interface{}) *Conversation {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &Conversation{
		ID:        uuid.New().String(),
		Messages:  make([]Message, 0),
		Status:    types.StatusActive,
		Persona:   personaName,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// Append adds a message during the active phase. The turn count tracks
// representative-authored messages: one completed exchange per representative
// reply.
func (c *Conversation) Append(msg Message) error {
	if c.Status != types.StatusActive {
		return fmt.Errorf("conversation %s is %s and read-only", c.ID, c.Status)
	}
	if msg.Content == "" {
		return fmt.Errorf("conversation %s: message content must not be empty", c.ID)
	}
	if !msg.Role.IsValid() {
		return fmt.Errorf("conversation %s: %w: %q", c.ID, types.ErrInvalidRole, msg.Role)
	}

	// Keep timestamps monotonically non-decreasing within the conversation
	if n := len(c.Messages); n > 0 && msg.Timestamp.Before(c.Messages[n-1].Timestamp) {
		msg.Timestamp = c.Messages[n-1].Timestamp
	}

	c.Messages = append(c.Messages, msg)
	if msg.Role == types.RoleRepresentative {
		c.TurnCount++
	}
	return nil
}

// End transitions the conversation to a terminal status, recording the
// resolution reason and end time exactly once.
func (c *Conversation) End(status types.Status, reason string) error {
	if c.Status != types.StatusActive {
		return fmt.Errorf("conversation %s already ended with status %s", c.ID, c.Status)
	}
	if !status.IsTerminal() {
		return fmt.Errorf("conversation %s: %q is not a terminal status", c.ID, status)
	}

	c.Status = status
	c.ResolutionReason = reason
	now := time.Now().UTC()
	c.EndedAt = &now
	return nil
}

// LastMessage returns the most recent message with the given role, if any
func (c *Conversation) LastMessage(role types.Role) (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == role {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// RecentContent joins the content of the last n messages, oldest first.
// Used to seed knowledge lookups with the conversation's current focus.
func (c *Conversation) RecentContent(n int) string {
	start := len(c.Messages) - n
	if start < 0 {
		start = 0
	}
	var out string
	for _, msg := range c.Messages[start:] {
		if out != "" {
			out += "\n"
		}
		out += msg.Content
	}
	return out
}
