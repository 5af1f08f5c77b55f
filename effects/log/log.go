package log

import (
	"context"

	"go.uber.org/zap"

	"github.com/woodycatliu/Processor/effects"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// LogPayload is the payload structure for logging effect.
// It contains the log level, message string, and optional structured fields.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

// WithZapEffectHandler registers a fire-and-forget log effect handler using zap.Logger.
// The returned context includes the handler under the EffectLog enum.
// The teardown function flushes the logger and returns the parent context.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effects.EffectLog,
		func(ctx context.Context, payload LogPayload) {
			write(logger, payload)
		},
		func() {
			// stdout/stderr sinks report EINVAL on Sync; nothing to do about it
			_ = logger.Sync()
		},
	)
}

// Effect performs a fire-and-forget log effect using the EffectLog handler in the context.
// Without an installed handler the entry is silently dropped.
func Effect(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	effects.FireAndForgetEffect(ctx, effects.EffectLog, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

// TryEffect is Effect for hot paths. The entry is dropped instead of waiting
// when the handler is behind; the result reports whether it was accepted.
func TryEffect(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) bool {
	return effects.TryFireAndForgetEffect(ctx, effects.EffectLog, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

// Enabled reports whether ctx carries a log handler.
func Enabled(ctx context.Context) bool {
	return effects.HasEffectHandler(ctx, effects.EffectLog)
}

func write(logger *zap.Logger, payload LogPayload) {
	fields := make([]zap.Field, 0, len(payload.Fields))
	for k, v := range payload.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch payload.Level {
	case LogInfo:
		logger.Info(payload.Message, fields...)
	case LogWarn:
		logger.Warn(payload.Message, fields...)
	case LogError:
		logger.Error(payload.Message, fields...)
	case LogDebug:
		logger.Debug(payload.Message, fields...)
	default:
		logger.Info(payload.Message, fields...)
	}
}
