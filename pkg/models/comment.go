package models

import (
	"fmt"
	"time"
)

// Comment is one remark attached to a file path. Comments live on the
// path, not the object, so re-uploading a file keeps its thread.
type Comment struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	FilePath    string    `gorm:"not null;size:1024;index" json:"file_path"`
	AuthorEmail string    `gorm:"not null;size:255" json:"author_email"`
	Body        string    `gorm:"not null;size:4000" json:"body"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Comment.
func (Comment) TableName() string {
	return "comments"
}

// Validate checks the comment's required fields.
func (c *Comment) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("comment file path is required")
	}
	if c.Body == "" {
		return fmt.Errorf("comment body is required")
	}
	if c.AuthorEmail == "" {
		return fmt.Errorf("comment author is required")
	}
	return nil
}
