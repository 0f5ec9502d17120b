package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

// recordingLogger captures the SQL handed to Trace
type recordingLogger struct {
	logger.Interface
	traced []string
}

func (r *recordingLogger) LogMode(level logger.LogLevel) logger.Interface { return r }

func (r *recordingLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, _ := fc()
	r.traced = append(r.traced, sql)
}

func sqlFunc(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestCustomGormLoggerFiltersPatterns(t *testing.T) {
	rec := &recordingLogger{Interface: logger.Discard}
	l := NewCustomGormLogger(rec, "AND remind_at <= ")

	l.Trace(context.Background(), time.Now(), sqlFunc(`SELECT * FROM "reminder" WHERE (sent = false AND remind_at <= '2026-01-01')`), nil)
	l.Trace(context.Background(), time.Now(), sqlFunc(`INSERT INTO "reminder" ("email") VALUES ('a@b.c')`), nil)

	if len(rec.traced) != 1 {
		t.Fatalf("expected 1 traced query, got %d", len(rec.traced))
	}
	if l.Suppressed() != 1 {
		t.Errorf("expected 1 suppressed query, got %d", l.Suppressed())
	}
}

func TestCustomGormLoggerKeepsFailedQueries(t *testing.T) {
	rec := &recordingLogger{Interface: logger.Discard}
	l := NewCustomGormLogger(rec, "AND remind_at <= ")

	l.Trace(context.Background(), time.Now(), sqlFunc(`SELECT * FROM "reminder" WHERE (sent = false AND remind_at <= 'x')`), errors.New("connection refused"))

	if len(rec.traced) != 1 {
		t.Fatalf("expected failed poll to be logged, got %d entries", len(rec.traced))
	}
}

func TestCustomGormLoggerLogModeSharesCounter(t *testing.T) {
	rec := &recordingLogger{Interface: logger.Discard}
	l := NewCustomGormLogger(rec, "skip-me")

	derived := l.LogMode(logger.Info).(*CustomGormLogger)
	derived.Trace(context.Background(), time.Now(), sqlFunc("skip-me"), nil)

	if l.Suppressed() != 1 {
		t.Errorf("expected counter shared across LogMode, got %d", l.Suppressed())
	}
}
