package services

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/database"
	"smartreminder/internal/models"
)

// DefaultInterval is how often the worker checks for due reminders
const DefaultInterval = 60 * time.Second

// TickErrorKind says what went wrong in a tick
type TickErrorKind string

const (
	TickCrash             TickErrorKind = "tick_crash"
	StoreFailure          TickErrorKind = "store_failure"
	NotifierConfiguration TickErrorKind = "notifier_configuration"
)

// TickError is handed to the error listener
type TickError struct {
	Kind       TickErrorKind
	ReminderID uint
	Err        error
}

func (e TickError) Error() string {
	if e.ReminderID != 0 {
		return fmt.Sprintf("%s (reminder id=%d): %v", e.Kind, e.ReminderID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// ErrorListener is called for failures operators should hear about
type ErrorListener func(TickError)

// LogErrorListener is the default listener
func LogErrorListener(e TickError) {
	log.Printf("ERROR reminder worker: %v", e)
}

// TickReport summarises one tick
type TickReport struct {
	Skipped     bool `json:"skipped"`
	Due         int  `json:"due"`
	Sent        int  `json:"sent"`
	Failed      int  `json:"failed"`
	AlreadySent int  `json:"already_sent"`
}

// ReminderWorkerConfig wires the worker's collaborators
type ReminderWorkerConfig struct {
	Store    database.ReminderStore
	Notifier Notifier
	Clock    clock.Clock
	Interval time.Duration
	OnError  ErrorListener
	// Verbose logs ticks that found nothing to do
	Verbose bool
}

// ReminderWorker polls the store and delivers due reminders.
// At most one tick runs at a time; a tick that would overlap is skipped.
type ReminderWorker struct {
	store    database.ReminderStore
	notifier Notifier
	clock    clock.Clock
	interval time.Duration
	onError  ErrorListener
	verbose  bool

	mu        sync.Mutex
	isRunning bool

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewReminderWorker creates a worker, applying defaults for interval and listener
func NewReminderWorker(cfg ReminderWorkerConfig) *ReminderWorker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	onError := cfg.OnError
	if onError == nil {
		onError = LogErrorListener
	}

	return &ReminderWorker{
		store:    cfg.Store,
		notifier: cfg.Notifier,
		clock:    cfg.Clock,
		interval: interval,
		onError:  onError,
		verbose:  cfg.Verbose,
	}
}

// Interval returns the polling interval
func (w *ReminderWorker) Interval() time.Duration {
	return w.interval
}

// Start launches the polling timer. It is a no-op if already started.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(runCtx)
	log.Printf("Reminder worker started (interval=%v)", w.interval)
}

// Stop halts the timer and waits for an in-flight tick to return
func (w *ReminderWorker) Stop() {
	w.lifecycle.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
	log.Println("Reminder worker stopped")
}

func (w *ReminderWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Each tick gets its own goroutine so a slow tick never holds up
			// the timer; the running flag turns overlapping fires into skips.
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.RunOnce(ctx)
			}()
		}
	}
}

// RunOnce runs a single tick synchronously. If another tick is in flight it
// does nothing and reports Skipped.
func (w *ReminderWorker) RunOnce(ctx context.Context) TickReport {
	if !w.tryAcquire() {
		log.Println("Reminder tick already running, skipping this run")
		return TickReport{Skipped: true}
	}
	defer w.release()

	var report TickReport
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.onError(TickError{
					Kind: TickCrash,
					Err:  fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
				})
			}
		}()
		report = w.tick(ctx)
	}()
	return report
}

func (w *ReminderWorker) tryAcquire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return false
	}
	w.isRunning = true
	return true
}

func (w *ReminderWorker) release() {
	w.mu.Lock()
	w.isRunning = false
	w.mu.Unlock()
}

func (w *ReminderWorker) tick(ctx context.Context) TickReport {
	var report TickReport
	now := w.clock.Now()

	pending, err := w.store.DueReminders(ctx, now)
	if err != nil {
		w.onError(TickError{Kind: StoreFailure, Err: err})
		return report
	}

	report.Due = len(pending)
	if len(pending) == 0 {
		if w.verbose {
			log.Printf("No pending reminders at %s", now.Format("2006-01-02 15:04:05"))
		}
		return report
	}

	for _, reminder := range pending {
		if ctx.Err() != nil {
			log.Printf("Reminder tick interrupted, %d reminders left for the next run", report.Due-report.Sent-report.Failed-report.AlreadySent)
			break
		}

		switch w.deliver(ctx, reminder) {
		case outcomeSent:
			report.Sent++
		case outcomeAlreadySent:
			report.AlreadySent++
		default:
			report.Failed++
		}
	}

	log.Printf("Reminder tick finished: due=%d sent=%d failed=%d already_sent=%d",
		report.Due, report.Sent, report.Failed, report.AlreadySent)
	return report
}

type deliveryOutcome int

const (
	outcomeFailed deliveryOutcome = iota
	outcomeSent
	outcomeAlreadySent
)

// deliver sends one reminder and marks it sent. A panic anywhere in here is
// contained and counted as a failed send.
func (w *ReminderWorker) deliver(ctx context.Context, reminder models.Reminder) (outcome deliveryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Reminder id=%d crashed during delivery (kind=%s): %v", reminder.ID, KindUnknown, r)
			outcome = outcomeFailed
		}
	}()

	log.Printf("Processing reminder id=%d for %s", reminder.ID, reminder.Recipient)

	if err := w.notifier.Send(ctx, reminder.Recipient, reminder.Message); err != nil {
		kind := ClassifyNotifyError(err)
		log.Printf("Failed to send reminder id=%d (kind=%s), will retry next cycle: %v", reminder.ID, kind, err)
		if kind == KindConfiguration {
			w.onError(TickError{Kind: NotifierConfiguration, ReminderID: reminder.ID, Err: err})
		}
		return outcomeFailed
	}

	transitioned, err := w.store.MarkSent(ctx, reminder.ID)
	if err != nil {
		log.Printf("Reminder id=%d was delivered but could not be marked sent: %v", reminder.ID, err)
		return outcomeFailed
	}
	if !transitioned {
		log.Printf("Reminder id=%d was already marked sent", reminder.ID)
		return outcomeAlreadySent
	}

	log.Printf("Reminder id=%d marked as sent", reminder.ID)
	return outcomeSent
}
