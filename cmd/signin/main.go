// Command signin runs the sign-in flow against mock services and prints every
// state it goes through.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	promadapter "github.com/woodycatliu/Processor/adapters/prometheus"
	"github.com/woodycatliu/Processor/config"
	"github.com/woodycatliu/Processor/effects/log"
	"github.com/woodycatliu/Processor/internal/signin"
	"github.com/woodycatliu/Processor/processor"
)

const serviceDelay = 300 * time.Millisecond

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "signin: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "signin: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("demo failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	m := promadapter.NewProcessorMetrics(reg)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("metrics server starting", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	env := signin.Env{
		Apple:    &signin.MockApple{Delay: serviceDelay},
		Firebase: &signin.MockFirebase{Delay: serviceDelay},
		KVToken:  &signin.MockKVToken{Delay: serviceDelay},
	}
	p := signin.New(env,
		processor.WithID("signin-demo"),
		processor.WithContext(ctx),
		processor.WithConfig(cfg),
		processor.WithLogger(logger),
		processor.WithMetrics(m),
	)
	defer p.Close()

	states, stop := p.Subscribe(ctx)
	defer stop()

	settled := func(s signin.Status) bool { return s.Kind == signin.SignedIn || s.Kind == signin.Failed }
	ready := func(s signin.Status) bool { return s.Kind == signin.Ready }

	flows := []struct {
		action signin.Action
		until  func(signin.Status) bool
	}{
		{signin.EmailSignIn{Email: "woody@example.com", Password: "password"}, settled},
		{signin.Reset{}, ready},
		{signin.AppleSignIn{}, settled},
	}
	var pr printer
	for _, flow := range flows {
		p.Send(flow.action)
		if err := pr.follow(ctx, states, flow.until); err != nil {
			return err
		}
	}
	return nil
}

// printer prints status changes, skipping repeats.
type printer struct {
	last signin.Status
	seen bool
}

// follow prints every status change until until reports true.
func (pr *printer) follow(ctx context.Context, states <-chan signin.State, until func(signin.Status) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-states:
			if !ok {
				return errors.New("state stream closed")
			}
			if !pr.seen || !s.Status.Equal(pr.last) {
				fmt.Println(s.Status)
				pr.last, pr.seen = s.Status, true
			}
			if until(s.Status) {
				return nil
			}
		}
	}
}
