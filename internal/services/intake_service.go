package services

import (
	"context"
	"log"
	"strings"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/database"
	"smartreminder/internal/models"
)

// ConfirmationLayout formats the due time shown back to the requester
const ConfirmationLayout = "02 Jan 2006 at 03:04 PM"

// IntakeService turns raw reminder requests into stored reminders
type IntakeService struct {
	store database.ReminderStore
	zone  clock.Zone
	clock clock.Clock
}

// NewIntakeService creates an intake service
func NewIntakeService(store database.ReminderStore, zone clock.Zone, c clock.Clock) *IntakeService {
	return &IntakeService{store: store, zone: zone, clock: c}
}

// Scheduled is the result of a successful intake
type Scheduled struct {
	Reminder     *models.Reminder `json:"reminder"`
	Confirmation string           `json:"confirmation"`
}

// Schedule validates req and persists it. Every problem found is reported in
// a single *models.ValidationError.
func (s *IntakeService) Schedule(ctx context.Context, req models.CreateReminderRequest) (*Scheduled, error) {
	email := strings.TrimSpace(req.Email)
	message := strings.TrimSpace(req.Message)
	remindAt := strings.TrimSpace(req.RemindAt)

	vErr := &models.ValidationError{}
	if email == "" {
		vErr.Add(models.ErrMsgEmailRequired)
	}
	if message == "" {
		vErr.Add(models.ErrMsgMessageRequired)
	}
	if remindAt == "" {
		vErr.Add(models.ErrMsgTimeRequired)
	}

	var dueAt time.Time
	if remindAt != "" {
		parsed, err := s.zone.ParseLocal(clock.FormLayout, remindAt)
		switch {
		case err != nil:
			vErr.Add(models.ErrMsgTimeFormat)
		case !parsed.After(s.clock.Now()):
			vErr.Add(models.ErrMsgTimeInPast)
		default:
			dueAt = parsed
		}
	}

	if vErr.HasProblems() {
		return nil, vErr
	}

	reminder, err := s.store.Create(ctx, email, message, dueAt)
	if err != nil {
		return nil, err
	}
	log.Printf("Reminder id=%d scheduled for %s at %s", reminder.ID, reminder.Recipient, reminder.DueAt.Format(clock.FormLayout))

	return &Scheduled{
		Reminder:     reminder,
		Confirmation: s.Confirmation(reminder),
	}, nil
}

// Confirmation renders the message shown after a reminder is accepted
func (s *IntakeService) Confirmation(r *models.Reminder) string {
	return "Reminder set! We'll email " + r.Recipient + " on " + s.zone.Format(r.DueAt, ConfirmationLayout) + "."
}
