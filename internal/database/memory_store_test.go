package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*MemoryStore, *clock.Fixed) {
	t.Helper()
	zone, err := clock.LoadZone("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	c := clock.NewFixed(testNow)
	return NewMemoryStore(c, zone), c
}

func mustCreate(t *testing.T, s ReminderStore, due time.Time) *models.Reminder {
	t.Helper()
	r, err := s.Create(context.Background(), "user@example.com", "take the cake out", due)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return r
}

func TestCreateAssignsIDsAndTrims(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "  a@example.com ", " first ", testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := mustCreate(t, s, testNow.Add(2*time.Hour))

	if a.ID == 0 || b.ID == 0 || a.ID == b.ID {
		t.Errorf("expected distinct non-zero ids, got %d and %d", a.ID, b.ID)
	}
	if a.Recipient != "a@example.com" || a.Message != "first" {
		t.Errorf("expected trimmed fields, got %q %q", a.Recipient, a.Message)
	}
	if a.Sent {
		t.Error("new reminder must not be sent")
	}
	if !a.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %v, got %v", testNow, a.CreatedAt)
	}
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		recipient string
		message   string
		due       time.Time
		want      string
	}{
		{"empty recipient", "  ", "hi", testNow.Add(time.Hour), models.ErrMsgEmailRequired},
		{"empty message", "a@example.com", "", testNow.Add(time.Hour), models.ErrMsgMessageRequired},
		{"missing time", "a@example.com", "hi", time.Time{}, models.ErrMsgTimeRequired},
		{"due now", "a@example.com", "hi", testNow, models.ErrMsgTimeInPast},
		{"due in past", "a@example.com", "hi", testNow.Add(-time.Second), models.ErrMsgTimeInPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.recipient, tt.message, tt.due)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(vErr.Problems) != 1 || vErr.Problems[0] != tt.want {
				t.Errorf("expected [%s], got %v", tt.want, vErr.Problems)
			}
		})
	}

	list, _ := s.List(ctx, ListFilter{})
	if len(list) != 0 {
		t.Errorf("invalid reminders must not be persisted, found %d", len(list))
	}
}

func TestCreateConvertsZonedDueTime(t *testing.T) {
	s, _ := newTestStore(t)

	// 07:00 UTC is 12:30 IST, 30 minutes after the clock
	instant := time.Date(2026, 3, 15, 7, 0, 0, 0, time.FixedZone("UTC+0", 0))
	r := mustCreate(t, s, instant)

	want := time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)
	if !r.DueAt.Equal(want) {
		t.Errorf("expected civil due %v, got %v", want, r.DueAt)
	}
}

func TestDueRemindersExcludesFutureAndSent(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()

	past := mustCreate(t, s, testNow.Add(time.Minute))
	future := mustCreate(t, s, testNow.Add(time.Hour))
	alsoPast := mustCreate(t, s, testNow.Add(2*time.Minute))

	c.Advance(5 * time.Minute)
	now := c.Now()

	due, err := s.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 2 || due[0].ID != past.ID || due[1].ID != alsoPast.ID {
		t.Fatalf("expected [%d %d] in insertion order, got %+v", past.ID, alsoPast.ID, due)
	}
	for _, r := range due {
		if r.ID == future.ID {
			t.Error("future reminder must not be due")
		}
	}

	if ok, _ := s.MarkSent(ctx, past.ID); !ok {
		t.Fatal("expected first mark to transition")
	}
	due, _ = s.DueReminders(ctx, now)
	if len(due) != 1 || due[0].ID != alsoPast.ID {
		t.Errorf("sent reminder still due: %+v", due)
	}
}

func TestDueRemindersBoundaryIsInclusive(t *testing.T) {
	s, c := newTestStore(t)
	r := mustCreate(t, s, testNow.Add(time.Minute))

	c.Set(r.DueAt)
	due, _ := s.DueReminders(context.Background(), c.Now())
	if len(due) != 1 {
		t.Errorf("reminder due exactly now must be selected, got %d", len(due))
	}
}

func TestMarkSentIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	r := mustCreate(t, s, testNow.Add(time.Minute))

	first, err := s.MarkSent(ctx, r.ID)
	if err != nil || !first {
		t.Fatalf("expected (true, nil), got (%v, %v)", first, err)
	}
	second, err := s.MarkSent(ctx, r.ID)
	if err != nil || second {
		t.Fatalf("expected (false, nil), got (%v, %v)", second, err)
	}

	got, _ := s.Get(ctx, r.ID)
	if !got.Sent || got.SentAt == nil {
		t.Errorf("expected sent with timestamp, got %+v", got)
	}

	if ok, err := s.MarkSent(ctx, 9999); ok || err != nil {
		t.Errorf("unknown id: expected (false, nil), got (%v, %v)", ok, err)
	}
}

func TestMarkSentConcurrentCallersSeeOneTransition(t *testing.T) {
	s, _ := newTestStore(t)
	r := mustCreate(t, s, testNow.Add(time.Minute))

	const callers = 50
	var transitions atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if ok, _ := s.MarkSent(context.Background(), r.ID); ok {
				transitions.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if transitions.Load() != 1 {
		t.Errorf("expected exactly one transition, got %d", transitions.Load())
	}
}

func TestGetAndList(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, testNow.Add(time.Minute))
	b := mustCreate(t, s, testNow.Add(2*time.Minute))
	s.MarkSent(ctx, a.ID)

	if _, err := s.Get(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, _ := s.List(ctx, ListFilter{})
	if len(all) != 2 || all[0].ID != b.ID {
		t.Errorf("expected newest first, got %+v", all)
	}

	unsent := false
	pending, _ := s.List(ctx, ListFilter{Sent: &unsent})
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Errorf("expected only unsent reminder, got %+v", pending)
	}

	limited, _ := s.List(ctx, ListFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestReturnedRemindersAreCopies(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	r := mustCreate(t, s, testNow.Add(time.Minute))

	r.Sent = true
	got, _ := s.Get(ctx, r.ID)
	if got.Sent {
		t.Error("mutating a returned reminder must not change the store")
	}
}
