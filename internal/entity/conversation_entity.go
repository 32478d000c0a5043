package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationTurn struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// Conversation is one chat surface. Turns are append-only until cleared.
type Conversation struct {
	Id        uuid.UUID
	VideoId   string
	Turns     []ConversationTurn
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Conversation) Append(role, content string) {
	now := time.Now()
	c.Turns = append(c.Turns, ConversationTurn{Role: role, Content: content, CreatedAt: now})
	c.UpdatedAt = now
}

func (c *Conversation) Reset(videoId string) {
	c.Turns = nil
	c.VideoId = videoId
	c.UpdatedAt = time.Now()
}
