package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/costumerental-backend/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newCapturedQueryLogger(slow time.Duration) (gormlogger.Interface, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "db-test", Output: buf})
	return newQueryLogger(logg, slow), buf
}

func stmt() (string, int64) { return "SELECT * FROM costumes", 3 }

func TestQueryLoggerQuietForFastAndNotFound(t *testing.T) {
	ql, buf := newCapturedQueryLogger(time.Second)
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), stmt, nil)
	ql.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %s", buf.String())
	}
}

func TestQueryLoggerReportsSlowAndFailed(t *testing.T) {
	ql, buf := newCapturedQueryLogger(10 * time.Millisecond)
	ctx := context.Background()

	ql.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	if !strings.Contains(buf.String(), "db.query.slow") || !strings.Contains(buf.String(), "SELECT * FROM costumes") {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now(), stmt, errors.New("relation does not exist"))
	if !strings.Contains(buf.String(), "db.query.failed") {
		t.Fatalf("expected failed query entry, got %s", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now(), stmt, errors.New("UNIQUE constraint failed: customers.phone"))
	if !strings.Contains(buf.String(), "db.query.conflict") {
		t.Fatalf("expected conflict entry, got %s", buf.String())
	}
}

func TestQueryLoggerSilentMode(t *testing.T) {
	ql, buf := newCapturedQueryLogger(time.Millisecond)
	ql = ql.LogMode(gormlogger.Silent)
	ql.Trace(context.Background(), time.Now().Add(-time.Second), stmt, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode should drop everything, got %s", buf.String())
	}
}

func TestNewQueryLoggerWithoutServiceLogger(t *testing.T) {
	if newQueryLogger(nil, time.Second) != gormlogger.Discard {
		t.Fatal("expected discard logger when no service logger is wired")
	}
}
