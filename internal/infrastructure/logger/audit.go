package logger

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Audit writes audit trail entries to the "audit" logger. Entries are
// emitted at info level while verbose auditing is on and at debug otherwise.
type Audit struct {
	logger  *zap.Logger
	verbose atomic.Bool
}

// NewAudit creates an audit logger derived from base
func NewAudit(base *zap.Logger) *Audit {
	if base == nil {
		base = zap.NewNop()
	}
	return &Audit{logger: base.Named("audit")}
}

// SetVerbose toggles verbose auditing
func (a *Audit) SetVerbose(on bool) {
	a.verbose.Store(on)
}

// Verbose reports whether verbose auditing is on
func (a *Audit) Verbose() bool {
	return a.verbose.Load()
}

// Record writes one audit entry for action
func (a *Audit) Record(ctx context.Context, action string, fields ...zap.Field) {
	l := WithLogger(ctx, a.logger).Zap()
	fields = append([]zap.Field{zap.String("action", action)}, fields...)
	if a.verbose.Load() {
		l.Info("audit", fields...)
		return
	}
	l.Debug("audit", fields...)
}
