package logger

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// TemporalAdapter bridges the Temporal SDK's log.Logger onto zap.
type TemporalAdapter struct {
	sugared *zap.SugaredLogger
}

var _ log.Logger = (*TemporalAdapter)(nil)

// NewTemporalAdapter wraps a zap logger for use as a Temporal client/worker
// logger. The caller-skip keeps file:line pointing at SDK call sites.
func NewTemporalAdapter(l *zap.Logger) *TemporalAdapter {
	return &TemporalAdapter{sugared: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (a *TemporalAdapter) Debug(msg string, keyvals ...interface{}) {
	a.sugared.Debugw(msg, keyvals...)
}

func (a *TemporalAdapter) Info(msg string, keyvals ...interface{}) {
	a.sugared.Infow(msg, keyvals...)
}

func (a *TemporalAdapter) Warn(msg string, keyvals ...interface{}) {
	a.sugared.Warnw(msg, keyvals...)
}

func (a *TemporalAdapter) Error(msg string, keyvals ...interface{}) {
	a.sugared.Errorw(msg, keyvals...)
}
