package utils

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/gorm/logger"
)

// CustomGormLogger drops queries matching any ignored pattern and tags the
// rest with the application function that issued them
type CustomGormLogger struct {
	logger.Interface
	ignoredQueryPatterns []string
	suppressed           *atomic.Int64
}

// NewCustomGormLogger wraps l, ignoring queries that contain any of the patterns
func NewCustomGormLogger(l logger.Interface, ignoredPatterns ...string) *CustomGormLogger {
	return &CustomGormLogger{
		Interface:            l,
		ignoredQueryPatterns: ignoredPatterns,
		suppressed:           &atomic.Int64{},
	}
}

// LogMode implements logger.Interface
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &CustomGormLogger{
		Interface:            l.Interface.LogMode(level),
		ignoredQueryPatterns: l.ignoredQueryPatterns,
		suppressed:           l.suppressed,
	}
}

// Trace implements logger.Interface. Failed queries are always logged.
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	sql, rows := fc()

	if err == nil && l.ignored(sql) {
		l.suppressed.Add(1)
		return
	}

	callerInfo := findCaller()
	wrappedFC := func() (string, int64) {
		if callerInfo != "" {
			return fmt.Sprintf("[Caller: %s] %s", callerInfo, sql), rows
		}
		return sql, rows
	}

	l.Interface.Trace(ctx, begin, wrappedFC, err)
}

// Suppressed returns how many queries have been filtered so far
func (l *CustomGormLogger) Suppressed() int64 {
	return l.suppressed.Load()
}

func (l *CustomGormLogger) ignored(sql string) bool {
	for _, pattern := range l.ignoredQueryPatterns {
		if strings.Contains(sql, pattern) {
			return true
		}
	}
	return false
}

// findCaller walks the stack to the first frame outside GORM and the store
func findCaller() string {
	for i := 2; i < 15; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		if strings.Contains(file, "gorm.io") ||
			strings.Contains(file, "internal/database") ||
			strings.Contains(file, "internal/utils/db_logger.go") {
			continue
		}

		funcName := ""
		if fn := runtime.FuncForPC(pc); fn != nil {
			funcName = fn.Name()
			if idx := strings.LastIndexByte(funcName, '.'); idx != -1 {
				funcName = funcName[idx+1:]
			}
		}

		if funcName != "" {
			return fmt.Sprintf("%s() at %s:%d", funcName, file, line)
		}
		return fmt.Sprintf("%s:%d", file, line)
	}

	return ""
}
