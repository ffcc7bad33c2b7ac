package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is the chat and file-sharing room of a project. Messages and
// SharedFiles are append-only and ordered by Seq.
type Group struct {
	ID           string       `gorm:"primaryKey;size:24" json:"id"`
	Name         string       `gorm:"size:255;not null;index" json:"name"`
	Description  string       `gorm:"type:text" json:"description"`
	Members      []User       `gorm:"many2many:group_members;" json:"members"`
	Messages     []Message    `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	SharedFiles  []FileRecord `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"sharedFiles,omitempty"`
	MessageCount int64        `gorm:"not null;default:0" json:"-"`
	FileCount    int64        `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// GroupMember is the join table between groups and users.
type GroupMember struct {
	GroupID string `gorm:"primaryKey;size:24"`
	UserID  string `gorm:"primaryKey;size:24"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = NewID()
	}
	return nil
}

// TableName avoids GROUPS, a keyword in several SQL dialects.
func (Group) TableName() string {
	return "chat_groups"
}
