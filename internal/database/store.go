package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/models"
)

// ErrNotFound is returned when a reminder does not exist
var ErrNotFound = errors.New("reminder not found")

// StoreError wraps any failure of the underlying storage
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ListFilter narrows List results
type ListFilter struct {
	Sent  *bool
	Limit int
}

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 50

// ReminderStore is the persistence contract used by intake and the scheduler
type ReminderStore interface {
	// Create validates and persists a new unsent reminder
	Create(ctx context.Context, recipient, message string, dueAt time.Time) (*models.Reminder, error)
	// DueReminders returns every unsent reminder with DueAt <= now, oldest id first
	DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	// MarkSent flips sent to true if it is currently false and reports whether it did
	MarkSent(ctx context.Context, id uint) (bool, error)
	Get(ctx context.Context, id uint) (*models.Reminder, error)
	List(ctx context.Context, filter ListFilter) ([]models.Reminder, error)
}

// validateNew checks a reminder before it is persisted and returns the normalized values
func validateNew(zone clock.Zone, now time.Time, recipient, message string, dueAt time.Time) (string, string, time.Time, error) {
	recipient = strings.TrimSpace(recipient)
	message = strings.TrimSpace(message)

	vErr := &models.ValidationError{}
	if recipient == "" {
		vErr.Add(models.ErrMsgEmailRequired)
	}
	if message == "" {
		vErr.Add(models.ErrMsgMessageRequired)
	}

	var due time.Time
	if dueAt.IsZero() {
		vErr.Add(models.ErrMsgTimeRequired)
	} else {
		due = normalize(zone, dueAt)
		if !due.After(now) {
			vErr.Add(models.ErrMsgTimeInPast)
		}
	}

	if vErr.HasProblems() {
		return "", "", time.Time{}, vErr
	}
	return recipient, message, due, nil
}

// normalize brings a timestamp into civil form. Values already labelled UTC
// are taken to be civil; anything carrying another location is converted.
func normalize(zone clock.Zone, t time.Time) time.Time {
	if t.Location() == time.UTC {
		return t.Truncate(time.Microsecond)
	}
	return zone.Civil(t)
}

func listLimit(filter ListFilter) int {
	if filter.Limit <= 0 || filter.Limit > 500 {
		return DefaultListLimit
	}
	return filter.Limit
}
