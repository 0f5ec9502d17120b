package models

import (
	"time"
)

// Reminder is a one-time message to deliver to a recipient at DueAt.
// DueAt, CreatedAt and SentAt are civil timestamps in the configured zone.
type Reminder struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Recipient string     `gorm:"column:email;size:255;not null" json:"email"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	DueAt     time.Time  `gorm:"column:remind_at;type:timestamp;not null;index:idx_reminder_due,priority:2" json:"remind_at"`
	Sent      bool       `gorm:"not null;default:false;index:idx_reminder_due,priority:1" json:"sent"`
	SentAt    *time.Time `gorm:"type:timestamp" json:"sent_at,omitempty"`
	CreatedAt time.Time  `gorm:"type:timestamp;not null" json:"created_at"`
}

// TableName specifies the table name for the Reminder model
func (Reminder) TableName() string {
	return "reminder"
}

// IsDue reports whether the reminder should be delivered at civil time now
func (r *Reminder) IsDue(now time.Time) bool {
	return !r.Sent && !r.DueAt.After(now)
}

// CreateReminderRequest is the raw intake payload, as submitted by the form
type CreateReminderRequest struct {
	Email    string `json:"email" form:"email"`
	Message  string `json:"message" form:"message"`
	RemindAt string `json:"remind_at" form:"remind_at"`
}
