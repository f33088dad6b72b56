// Command timingcore-demo wires an Axis and a Schedule to a moving
// motion vector, publishes every due crossing onto NATS JetStream, and
// mirrors the same batches to dashboard clients over WebSocket.
//
// Startup order: load configuration, initialize logging, build the
// Prometheus metrics sink, construct the Axis and Schedule, connect the
// event bridge and live-feed hub as Schedule callbacks, build the HTTP
// server, then run the live-feed hub and the HTTP server under the
// bridge group of a two-group supervisor tree until SIGINT/SIGTERM. The
// Axis and Schedule are not supervised services; the Schedule runs on
// its own timers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neevany/timingsrc/axis"
	"github.com/neevany/timingsrc/internal/config"
	"github.com/neevany/timingsrc/internal/eventbridge"
	"github.com/neevany/timingsrc/internal/livefeed"
	"github.com/neevany/timingsrc/internal/logging"
	"github.com/neevany/timingsrc/internal/metrics"
	"github.com/neevany/timingsrc/internal/supervisor"
	"github.com/neevany/timingsrc/internal/supervisor/services"
	"github.com/neevany/timingsrc/interval"
	"github.com/neevany/timingsrc/motion"
	"github.com/neevany/timingsrc/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slogLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	reg := prometheus.NewRegistry()
	sink := metrics.New(reg)

	ax := axis.New(
		axis.WithLogger(logging.Logger()),
		axis.WithMetrics(sink),
	)
	seedDemoCues(ax)

	sched := schedule.New(
		ax,
		motion.NewSystemClock(),
		motion.QuadraticMath{},
		motion.Unbounded(),
		schedule.WithLookahead(cfg.Lookahead.Seconds()),
		schedule.WithLogger(logging.Logger()),
		schedule.WithMetrics(sink),
	)
	sched.SetVector(motion.Vector{Position: 0, Velocity: 1, Acceleration: 0, Timestamp: 0})

	bridgeCfg := eventbridge.DefaultConfig()
	bridgeCfg.URL = cfg.NATSURL
	bridgeCfg.Subject = cfg.JetStreamSubject
	publisher, err := eventbridge.New(bridgeCfg,
		eventbridge.WithLogger(logging.Logger()),
		eventbridge.WithMetrics(sink),
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect event bridge publisher")
	}
	defer publisher.Close()
	sched.AddCallback(publisher.Callback())

	hub := livefeed.NewHub()
	sched.AddCallback(livefeed.Callback(hub))

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Handle("/ws/live", livefeed.NewHandler(hub, nil))

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.New(slogLogger, supervisor.DefaultTreeConfig())
	tree.AddBridge(services.NewLiveFeedService(hub))
	tree.AddBridge(services.NewHTTPService(httpServer, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.HTTPAddr).Str("nats_url", cfg.NATSURL).Msg("starting timingcore-demo")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}
	logging.Info().Msg("timingcore-demo stopped gracefully")
}

// seedDemoCues loads a handful of endpoint cues so the demo has
// something for the moving vector to cross.
func seedDemoCues(ax *axis.Axis) {
	updates := make([]axis.Update, 0, 5)
	for i, pos := range []float64{10, 25, 50, 100, 250} {
		iv := interval.Interval{Low: pos, High: pos, LowClosed: true, HighClosed: true}
		updates = append(updates, axis.Update{
			Key:      fmt.Sprintf("marker-%d", i),
			Interval: &iv,
			Data:     map[string]any{"label": fmt.Sprintf("marker %d", i)},
			HasData:  true,
		})
	}
	if _, err := ax.Update(updates, axis.Options{Check: true}); err != nil {
		logging.Fatal().Err(err).Msg("failed to seed demo cues")
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal", "panic":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
