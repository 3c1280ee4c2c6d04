// Package logging builds the zap logger used across the service and adapts
// it to the upload.Reporter interface.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stefando/zoomSyncAWS/internal/upload"
)

// New returns a JSON production logger at the named level (debug, info,
// warn, error). Unknown levels fall back to info.
func New(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// ParseLevel maps LOG_LEVEL values onto zap levels.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// ZapReporter sends orchestrator reports to a zap logger. Alerts are
// logged at error level and flagged so they can be matched by a log filter.
type ZapReporter struct {
	log *zap.Logger
}

// NewReporter creates a reporter writing to log.
func NewReporter(log *zap.Logger) *ZapReporter {
	return &ZapReporter{log: log}
}

// Report logs msg for recording id at the level matching sev.
func (r *ZapReporter) Report(sev upload.Severity, id, msg string) {
	fields := []zap.Field{zap.String("recording", id)}
	switch sev {
	case upload.SeverityDebug:
		r.log.Debug(msg, fields...)
	case upload.SeverityInfo:
		r.log.Info(msg, fields...)
	case upload.SeverityWarn:
		r.log.Warn(msg, fields...)
	case upload.SeverityAlert:
		r.log.Error(msg, append(fields,
			zap.Bool("alert", true),
			zap.String("action", "manual_abort_required"))...)
	default:
		r.log.Error(msg, fields...)
	}
}
