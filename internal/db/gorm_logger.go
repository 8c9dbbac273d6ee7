package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes GORM output through slog. Record-not-found is expected
// on every Get miss and is not logged.
type gormLogger struct {
	log           *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(log *slog.Logger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &gormLogger{log: log, level: level, slowThreshold: slowQueryThreshold}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level
	return &cloned
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level < logger.Info || l.log == nil {
		return
	}
	l.log.InfoContext(ctx, "gorm", "message", fmt.Sprintf(msg, args...))
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level < logger.Warn || l.log == nil {
		return
	}
	l.log.WarnContext(ctx, "gorm", "message", fmt.Sprintf(msg, args...))
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level < logger.Error || l.log == nil {
		return
	}
	l.log.ErrorContext(ctx, "gorm", "message", fmt.Sprintf(msg, args...))
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.log == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.ErrorContext(ctx, "gorm query failed",
			"elapsed", elapsed, "rows", rows, "sql", sql, "err", err)
	case elapsed > l.slowThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.WarnContext(ctx, "gorm slow query",
			"elapsed", elapsed, "rows", rows, "sql", sql, "threshold", l.slowThreshold)
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.InfoContext(ctx, "gorm query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
