// Package conversation holds the ordered message history for one validation
// run, replayed to the model so later steps see earlier exchanges.
package conversation

import (
	"strings"
	"time"
)

// Role tags the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry in the conversation log.
type Message struct {
	Role    Role
	Content string
	Step    string // originating pipeline step, empty for model replies
	At      time.Time
}

// Conversation is an append-only message log. Messages are never reordered or
// removed; their order is causally significant to the backend context window.
// One instance belongs to exactly one validation run.
type Conversation struct {
	messages []Message
	now      func() time.Time
}

// New returns an empty conversation.
func New() *Conversation {
	return &Conversation{now: time.Now}
}

// AddUserMessage appends an outgoing prompt attributed to a pipeline step.
func (c *Conversation) AddUserMessage(content, step string) {
	c.messages = append(c.messages, Message{
		Role:    RoleUser,
		Content: content,
		Step:    step,
		At:      c.now().UTC(),
	})
}

// AddModelMessage appends a raw model reply.
func (c *Conversation) AddModelMessage(content string) {
	c.messages = append(c.messages, Message{
		Role:    RoleModel,
		Content: content,
		At:      c.now().UTC(),
	})
}

// Messages returns a defensive copy of the history in append order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// FormattedHistory renders a role-prefixed dump for humans and debug logs.
func (c *Conversation) FormattedHistory() string {
	var b strings.Builder
	for i, m := range c.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(string(m.Role))
		if m.Step != "" {
			b.WriteString(" [")
			b.WriteString(m.Step)
			b.WriteString("]")
		}
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
