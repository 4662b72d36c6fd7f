// Command throttle runs the hosted shape of the controller: an HTTP
// API, a NATS-backed remote command source, Prometheus metrics, and
// an InfluxDB telemetry sink, all driven by a single 50Hz tick loop.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironrail/throttle/internal/config"
	"github.com/ironrail/throttle/internal/hal"
	"github.com/ironrail/throttle/internal/hal/simulated"
	"github.com/ironrail/throttle/internal/sharedstate"
	"github.com/ironrail/throttle/internal/telemetry"
	"github.com/ironrail/throttle/internal/throttle"
	"github.com/ironrail/throttle/internal/transport/httpapi"
	"github.com/ironrail/throttle/internal/transport/pubsub"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("loading config", zap.Error(err))
	}

	// TODO: swap the simulated motor/encoder for board-specific
	// drivers once a GPIO backend is selected.
	motor := &simulated.Motor{}
	clock := hal.SystemClock{}

	controller := throttle.New(motor, clock, cfg.LockoutMs, cfg.QueueCapacity)
	shared := sharedstate.New(controller)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry)
	influx := telemetry.NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	defer influx.Close(context.Background())

	natsClient, err := pubsub.Connect(cfg.NATSURL, shared, log)
	if err != nil {
		log.Fatal("connecting to nats", zap.Error(err))
	}
	defer natsClient.Close()

	httpServer := httpapi.NewServer(shared, log)

	if cfg.TickMs > 0 {
		if hr, err := config.NewHotReloader(*configPath, func(t config.Tunable) {
			// The reloaded values are logged only; the running controller
			// keeps the lockout, queue capacity and tick interval it was
			// built with.
			log.Info("config hot reload received", zap.Int64("lockout_ms", t.LockoutMs))
		}, func(err error) {
			log.Warn("config hot reload failed", zap.Error(err))
		}); err == nil {
			defer hr.Close()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runTickLoop(ctx, shared, httpServer, natsClient, metrics, influx, time.Duration(cfg.TickMs)*time.Millisecond)
	})

	g.Go(func() error {
		return serveHTTP(ctx, cfg.HTTPAddr, httpServer.Handler(), log)
	})

	g.Go(func() error {
		return serveMetrics(ctx, cfg.MetricsAddr, registry, log)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Error("service exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func runTickLoop(ctx context.Context, shared *sharedstate.Shared, httpSrv *httpapi.Server, nats *pubsub.Client, metrics *telemetry.Metrics, influx *telemetry.InfluxSink, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			nowMs := now.UnixMilli()
			shared.Update(nowMs)
			snap := shared.State(nowMs)
			metrics.RecordSnapshot(snap)
			if latest, changed := shared.CheckChanges(nowMs); changed {
				influx.WriteSnapshot(latest)
				httpSrv.Broadcast(latest)
				nats.PublishSnapshot(latest)
			}
		}
	}
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", zap.Error(err))
			return err
		}
		return nil
	}
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return serveHTTP(ctx, addr, mux, log)
}
