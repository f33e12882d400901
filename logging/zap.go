package logging

import "go.uber.org/zap"

// ZapAdapter wraps a *zap.SugaredLogger to implement the Logger interface.
// Variadic args are interpreted as alternating key/value pairs, matching the
// slog adapter convention.
type ZapAdapter struct {
	logger *zap.SugaredLogger
}

// NewZapAdapter creates a Logger from a *zap.Logger.
func NewZapAdapter(logger *zap.Logger) Logger {
	return &ZapAdapter{logger: logger.Sugar()}
}

// Debug logs a debug message.
func (z *ZapAdapter) Debug(msg string, args ...any) { z.logger.Debugw(msg, args...) }

// Info logs an informational message.
func (z *ZapAdapter) Info(msg string, args ...any) { z.logger.Infow(msg, args...) }

// Warn logs a warning message.
func (z *ZapAdapter) Warn(msg string, args ...any) { z.logger.Warnw(msg, args...) }

// Error logs an error message.
func (z *ZapAdapter) Error(msg string, args ...any) { z.logger.Errorw(msg, args...) }
