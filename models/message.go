package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Attachment describes the shared file a message announces.
type Attachment struct {
	FileName           string `gorm:"size:255" json:"fileName"`
	CloudinaryURL      string `gorm:"type:text" json:"cloudinaryUrl"`
	CloudinaryPublicID string `gorm:"size:255" json:"cloudinaryPublicId"`
	FileSize           int64  `json:"fileSize"`
	FileType           string `gorm:"size:255" json:"fileType"`
}

// IsZero reports whether no attachment is set.
func (a Attachment) IsZero() bool {
	return a == Attachment{}
}

// Message is one entry of a group's chat history.
type Message struct {
	ID         string     `gorm:"primaryKey;size:24" json:"id"`
	GroupID    string     `gorm:"size:24;not null;uniqueIndex:idx_group_message_seq" json:"groupId"`
	Seq        int64      `gorm:"not null;uniqueIndex:idx_group_message_seq" json:"-"`
	SenderID   string     `gorm:"size:24;not null" json:"-"`
	Sender     User       `gorm:"foreignKey:SenderID" json:"sender"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Timestamp  time.Time  `gorm:"not null" json:"timestamp"`
	Attachment Attachment `gorm:"embedded;embeddedPrefix:attachment_" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}

// MarshalJSON emits the attachment only for file-bearing messages.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	out := struct {
		alias
		Attachment *Attachment `json:"attachment,omitempty"`
	}{alias: alias(m)}
	if !m.Attachment.IsZero() {
		att := m.Attachment
		out.Attachment = &att
	}
	return json.Marshal(out)
}
