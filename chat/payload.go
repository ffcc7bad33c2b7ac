package chat

import (
	"time"

	"github.com/CUknot/tasksphere_backend/models"
)

// NewMessage is the payload broadcast to a room for every appended message.
type NewMessage struct {
	ID         string             `json:"id"`
	GroupID    string             `json:"groupId"`
	Sender     models.User        `json:"sender"`
	Content    string             `json:"content"`
	Timestamp  time.Time          `json:"timestamp"`
	Attachment *models.Attachment `json:"attachment,omitempty"`

	seq int64
}

// Sequence is the message's position in the group's history.
func (m NewMessage) Sequence() int64 {
	return m.seq
}

// NewMessageFrom builds the broadcast payload of a stored message.
func NewMessageFrom(m models.Message) NewMessage {
	out := NewMessage{
		ID:        m.ID,
		GroupID:   m.GroupID,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		seq:       m.Seq,
	}
	if !m.Attachment.IsZero() {
		att := m.Attachment
		out.Attachment = &att
	}
	return out
}
