package processor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/woodycatliu/Processor/config"
	"github.com/woodycatliu/Processor/metrics"
)

type options struct {
	id            string
	ctx           context.Context
	mailboxSize   int
	shards        int
	logger        *zap.Logger
	tracing       bool
	logBufferSize int
	metrics       metrics.ProcessorMetrics
	closeTimeout  time.Duration
}

func defaultOptions() options {
	cfg := config.Default()
	return options{
		ctx:           context.Background(),
		mailboxSize:   cfg.MailboxSize,
		shards:        cfg.RegistryShards,
		logger:        zap.NewNop(),
		logBufferSize: cfg.LogBufferSize,
		metrics:       metrics.NopProcessorMetrics(),
		closeTimeout:  cfg.CloseTimeout,
	}
}

type Option func(*options)

// WithID sets the diagnostic id. It only shows up in logs and metrics.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithContext sets the parent of every effect context. Cancelling it stops
// all running effects and the mailbox; Close must still be called.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithMailboxSize sets how many effect outputs may wait for the dispatcher
// before emitting effects block.
func WithMailboxSize(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.mailboxSize = n
		}
	}
}

func WithRegistryShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracing logs every dispatched private action at debug level through a
// fire-and-forget log handler.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracing = enabled
	}
}

func WithMetrics(m metrics.ProcessorMetrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithCloseTimeout bounds how long Close waits for effect goroutines.
// Zero waits forever.
func WithCloseTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.closeTimeout = d
		}
	}
}

// WithConfig applies every runtime setting of cfg. The log level is not one
// of them; build the logger with it and pass it to WithLogger.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		WithMailboxSize(cfg.MailboxSize)(o)
		WithRegistryShards(cfg.RegistryShards)(o)
		WithTracing(cfg.Tracing)(o)
		WithCloseTimeout(cfg.CloseTimeout)(o)
		if cfg.LogBufferSize > 0 {
			o.logBufferSize = cfg.LogBufferSize
		}
	}
}
