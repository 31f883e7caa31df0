package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestContextVariantsAttachRunID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	ctx := WithRunID(context.Background(), "run-42")
	l.InfoContext(ctx, "symbol processed", StringField("symbol", "600000.SH"))
	l.ErrorContext(context.Background(), "fetch failed", ErrorField(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "run-42", first["run_id"])
	assert.Equal(t, "600000.SH", first["symbol"])

	second := entries[1].ContextMap()
	_, hasRunID := second["run_id"]
	assert.False(t, hasRunID)
	assert.Equal(t, "boom", second["error"])
}
