package database

import (
	"context"
	"errors"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/models"

	"gorm.io/gorm"
)

// GormStore persists reminders through GORM
type GormStore struct {
	db    *gorm.DB
	clock clock.Clock
	zone  clock.Zone
}

// NewGormStore creates a store over an open connection
func NewGormStore(db *gorm.DB, c clock.Clock, zone clock.Zone) *GormStore {
	return &GormStore{db: db, clock: c, zone: zone}
}

func (s *GormStore) Create(ctx context.Context, recipient, message string, dueAt time.Time) (*models.Reminder, error) {
	now := s.clock.Now()
	recipient, message, due, err := validateNew(s.zone, now, recipient, message, dueAt)
	if err != nil {
		return nil, err
	}

	reminder := models.Reminder{
		Recipient: recipient,
		Message:   message,
		DueAt:     due,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&reminder).Error; err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}
	return &reminder, nil
}

// DuePollPattern identifies the polling query in the SQL log
const DuePollPattern = "AND remind_at <= "

func (s *GormStore) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	var due []models.Reminder
	err := s.db.WithContext(ctx).
		Where("sent = ? AND remind_at <= ?", false, normalize(s.zone, now)).
		Order("id ASC").
		Find(&due).Error
	if err != nil {
		return nil, &StoreError{Op: "due reminders", Err: err}
	}
	return due, nil
}

// MarkSent is a single conditional UPDATE so concurrent callers race safely
func (s *GormStore) MarkSent(ctx context.Context, id uint) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]interface{}{
			"sent":    true,
			"sent_at": s.clock.Now(),
		})
	if result.Error != nil {
		return false, &StoreError{Op: "mark sent", Err: result.Error}
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "get", Err: err}
	}
	return &reminder, nil
}

func (s *GormStore) List(ctx context.Context, filter ListFilter) ([]models.Reminder, error) {
	query := s.db.WithContext(ctx).Model(&models.Reminder{})
	if filter.Sent != nil {
		query = query.Where("sent = ?", *filter.Sent)
	}

	var reminders []models.Reminder
	if err := query.Order("id DESC").Limit(listLimit(filter)).Find(&reminders).Error; err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return reminders, nil
}
