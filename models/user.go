package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is the identity record synced from the external identity provider.
type User struct {
	ID         string    `gorm:"primaryKey;size:24" json:"id"`
	ExternalID string    `gorm:"size:255;index" json:"externalId,omitempty"`
	Name       string    `gorm:"size:255" json:"name"`
	Email      string    `gorm:"size:255;not null;index" json:"email"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// BeforeSave assigns an id to new users and normalizes the email
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}
