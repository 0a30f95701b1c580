package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferedGormLogger() (*GormLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewGormLogger(slog.New(h)), &buf
}

func TestGormLogger_Trace(t *testing.T) {
	stmt := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	l, buf := newBufferedGormLogger()
	l.Trace(ctx, time.Now(), stmt, nil)
	assert.Empty(t, buf.String(), "fast statements are quiet at warn level")

	l.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "missing rows are not errors")

	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "slow sql")
	buf.Reset()

	l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
	assert.Contains(t, buf.String(), "sql error")
	assert.Contains(t, buf.String(), "boom")
	buf.Reset()

	silent := l.LogMode(logger.Silent)
	silent.Trace(ctx, time.Now(), stmt, errors.New("boom"))
	assert.Empty(t, buf.String())

	verbose := l.LogMode(logger.Info)
	verbose.Trace(ctx, time.Now(), stmt, nil)
	assert.Contains(t, buf.String(), "SELECT 1")
}
