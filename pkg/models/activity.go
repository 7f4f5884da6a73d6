package models

import "time"

// ActivityLog is one append-only audit entry. Writes are best-effort: a
// failed audit write never fails the operation that triggered it.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Action     string    `gorm:"not null;size:50;index" json:"action"`
	Target     string    `gorm:"not null;size:1024" json:"target"`
	ActorEmail string    `gorm:"not null;size:255;index" json:"actor_email"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName returns the table name for ActivityLog.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
