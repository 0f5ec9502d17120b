package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/models"
)

// MemoryStore keeps reminders in process memory. Used by tests and STORE=memory.
type MemoryStore struct {
	mu        sync.RWMutex
	clock     clock.Clock
	zone      clock.Zone
	nextID    uint
	reminders map[uint]*models.Reminder
	order     []uint
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(c clock.Clock, zone clock.Zone) *MemoryStore {
	return &MemoryStore{
		clock:     c,
		zone:      zone,
		reminders: make(map[uint]*models.Reminder),
	}
}

func (s *MemoryStore) Create(ctx context.Context, recipient, message string, dueAt time.Time) (*models.Reminder, error) {
	now := s.clock.Now()
	recipient, message, due, err := validateNew(s.zone, now, recipient, message, dueAt)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r := &models.Reminder{
		ID:        s.nextID,
		Recipient: recipient,
		Message:   message,
		DueAt:     due,
		CreatedAt: now,
	}
	s.reminders[r.ID] = r
	s.order = append(s.order, r.ID)

	copied := *r
	return &copied, nil
}

func (s *MemoryStore) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	now = normalize(s.zone, now)

	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]models.Reminder, 0)
	for _, id := range s.order {
		r := s.reminders[id]
		if r.IsDue(now) {
			due = append(due, *r)
		}
	}
	return due, nil
}

func (s *MemoryStore) MarkSent(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok || r.Sent {
		return false, nil
	}
	sentAt := s.clock.Now()
	r.Sent = true
	r.SentAt = &sentAt
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uint) (*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Reminder, 0)
	for _, id := range s.order {
		r := s.reminders[id]
		if filter.Sent != nil && r.Sent != *filter.Sent {
			continue
		}
		result = append(result, *r)
	}

	// Newest first
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })

	if limit := listLimit(filter); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
