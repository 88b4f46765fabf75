package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit_Record(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	audit := NewAudit(zap.New(core))
	ctx := WithOperator(context.Background(), "admin")

	audit.Record(ctx, "settings.reset")
	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "audit", entry.LoggerName)
	assert.Equal(t, "settings.reset", entry.ContextMap()["action"])
	assert.Equal(t, "admin", entry.ContextMap()["operator"])

	audit.SetVerbose(true)
	assert.True(t, audit.Verbose())
	audit.Record(ctx, "company.created", zap.String("company_id", "c1"))
	require.Equal(t, 2, recorded.Len())
	assert.Equal(t, zapcore.InfoLevel, recorded.All()[1].Level)
}

func TestNewAudit_NilBase(t *testing.T) {
	audit := NewAudit(nil)
	assert.NotPanics(t, func() {
		audit.Record(context.Background(), "noop")
	})
}
