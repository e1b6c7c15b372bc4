package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core))
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), query, nil)
	if logs.Len() != 0 {
		t.Fatalf("fast query logged at warn level: %v", logs.All())
	}

	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	if logs.Len() != 0 {
		t.Fatalf("record not found should not be logged: %v", logs.All())
	}

	l.Trace(ctx, time.Now(), query, errors.New("disk I/O error"))
	if got := logs.FilterMessage("query failed").Len(); got != 1 {
		t.Errorf("expected 1 failed query entry, got %d", got)
	}

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	if got := logs.FilterMessage("slow query").Len(); got != 1 {
		t.Errorf("expected 1 slow query entry, got %d", got)
	}

	verbose := l.LogMode(gormlogger.Info)
	verbose.Trace(ctx, time.Now(), query, nil)
	if got := logs.FilterMessage("query").Len(); got != 1 {
		t.Errorf("expected 1 query entry in info mode, got %d", got)
	}

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), query, errors.New("ignored"))
	if got := logs.FilterMessage("query failed").Len(); got != 1 {
		t.Errorf("silent mode logged a failure")
	}
}
