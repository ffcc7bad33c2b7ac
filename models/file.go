package models

import (
	"time"

	"gorm.io/gorm"
)

// FileRecord is a file shared in a group and hosted by the blob service.
type FileRecord struct {
	ID                 string    `gorm:"primaryKey;size:24" json:"id"`
	GroupID            string    `gorm:"size:24;not null;uniqueIndex:idx_group_file_seq" json:"-"`
	Seq                int64     `gorm:"not null;uniqueIndex:idx_group_file_seq" json:"-"`
	UploaderID         string    `gorm:"size:24;not null" json:"-"`
	Uploader           User      `gorm:"foreignKey:UploaderID" json:"uploader"`
	FileName           string    `gorm:"size:255;not null" json:"fileName"`
	FilePath           string    `gorm:"type:text" json:"filePath,omitempty"`
	CloudinaryURL      string    `gorm:"type:text;not null" json:"cloudinaryUrl"`
	CloudinaryPublicID string    `gorm:"size:255;not null;index" json:"cloudinaryPublicId"`
	UploadedAt         time.Time `gorm:"not null" json:"uploadedAt"`
}

func (f *FileRecord) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = NewID()
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now().UTC()
	}
	return nil
}
