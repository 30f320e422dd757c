package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/internal/controls"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
	"github.com/signalsfoundry/rf-heatmap/internal/observability"
	"github.com/signalsfoundry/rf-heatmap/internal/panel"
	"github.com/signalsfoundry/rf-heatmap/internal/preview"
	"github.com/signalsfoundry/rf-heatmap/internal/report"
	"github.com/signalsfoundry/rf-heatmap/internal/rpc"
	"github.com/signalsfoundry/rf-heatmap/internal/scene"
	"github.com/signalsfoundry/rf-heatmap/kb"
	"github.com/signalsfoundry/rf-heatmap/model"
)

// Config is everything the heatmap service reads from its flags.
type Config struct {
	ScenePath    string
	SceneDB      string
	GRPCAddr     string
	HTTPAddr     string
	MetricsAddr  string
	RedisAddr    string
	RedisChannel string
	Seed         int64
	Once         bool
	Preview      bool
	Params       model.HeatmapParameters
}

func main() {
	defaults := model.DefaultParameters()
	cfg := Config{}
	flag.StringVar(&cfg.ScenePath, "scene", "configs/scene.json", "JSON scene file to load")
	flag.StringVar(&cfg.SceneDB, "scene-db", "", "SQLite scene database; empty keeps the scene in memory")
	flag.StringVar(&cfg.GRPCAddr, "grpc-addr", ":50051", "TCP address for the gRPC control service; empty disables it")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", ":8080", "HTTP address for the control panel; empty disables it")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9090", "HTTP address for Prometheus /metrics; empty disables it")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address to publish report lines to")
	flag.StringVar(&cfg.RedisChannel, "redis-channel", report.DefaultChannel, "Redis pub/sub channel for report lines")
	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed for reproducible passes; 0 seeds from the clock")
	flag.BoolVar(&cfg.Once, "once", false, "run the initial pass and exit")
	flag.BoolVar(&cfg.Preview, "preview", false, "show a top-down terminal preview")
	flag.Float64Var(&cfg.Params.MaxRange, "max-range", defaults.MaxRange, "initial max signal range in metres")
	flag.Float64Var(&cfg.Params.MinRange, "min-range", defaults.MinRange, "initial min signal range in metres")
	flag.IntVar(&cfg.Params.PointsPerTower, "points", defaults.PointsPerTower, "initial points per tower")
	flag.Float64Var(&cfg.Params.PointSize, "point-size", defaults.PointSize, "initial point size")
	flag.Parse()

	logCfg := logging.Config{
		Level:  os.Getenv("HEATMAP_LOG_LEVEL"),
		Format: os.Getenv("HEATMAP_LOG_FORMAT"),
	}
	if cfg.Preview {
		// The preview owns the terminal.
		logCfg.Output = io.Discard
	}
	log := logging.New(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error(ctx, "heatmap exited with error", logging.Err(err))
		observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
		os.Exit(1)
	}
}

// sceneStore is what run needs from either scene backend.
type sceneStore interface {
	core.SceneStore
	scene.ObjectSink
}

func openStore(ctx context.Context, cfg Config, log logging.Logger) (sceneStore, func(context.Context) (model.PointCloud, bool), func(), error) {
	if cfg.SceneDB == "" {
		mem := kb.NewKnowledgeBase()
		unsubscribe := mem.Subscribe(func(ev kb.Event) {
			if ev.Type != kb.EventPointCloudUpdated {
				log.Debug(context.Background(), "scene changed", logging.String("path", ev.Path))
			}
		})
		cloud := func(context.Context) (model.PointCloud, bool) { return mem.PointCloud(core.DisplayPath) }
		return mem, cloud, unsubscribe, nil
	}

	db, err := scene.OpenSQLite(ctx, cfg.SceneDB)
	if err != nil {
		return nil, nil, nil, err
	}
	cloud := func(ctx context.Context) (model.PointCloud, bool) {
		c, err := db.PointCloud(ctx, core.DisplayPath)
		return c, err == nil
	}
	return db, cloud, func() { _ = db.Close() }, nil
}

func loadScene(ctx context.Context, store sceneStore, path string, log logging.Logger) error {
	if path == "" {
		return nil
	}
	existing, err := store.ListObjects(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info(ctx, "scene store already populated; skipping scene file",
			logging.String("path", path),
			logging.Int("objects", len(existing)),
		)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	sum, err := scene.LoadScene(store, f)
	if err != nil {
		return err
	}
	log.Info(ctx, "loaded scene",
		logging.String("path", path),
		logging.Int("objects", len(sum.Paths)),
		logging.Int("tagged_towers", sum.Tagged),
	)
	return nil
}

func run(ctx context.Context, cfg Config, log logging.Logger, stdout io.Writer) error {
	if log == nil {
		log = logging.Noop()
	}

	store, readCloud, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := loadScene(ctx, store, cfg.ScenePath, log); err != nil {
		return err
	}

	recorder := &report.Recorder{Limit: 500}
	sinks := []core.Reporter{recorder}
	if !cfg.Preview {
		sinks = append(sinks, report.NewWriter(stdout))
	}
	if cfg.RedisAddr != "" {
		client := report.NewRedisClient(cfg.RedisAddr)
		defer client.Close()
		sinks = append(sinks, report.NewRedis(client, cfg.RedisChannel, log))
	}
	reporter := report.Multi(sinks...)

	collector, err := observability.NewHeatmapCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	genOpts := []core.GeneratorOption{
		core.WithReporter(reporter),
		core.WithLogger(log),
		core.WithMetricsRecorder(collector),
	}
	if cfg.Seed != 0 {
		genOpts = append(genOpts, core.WithRandSource(core.NewRandSource(cfg.Seed)))
	}
	scanner := scene.NewScanner(store, scene.WithReporter(reporter), scene.WithLogger(log))
	gen := core.NewGenerator(store, scanner, genOpts...)

	params := cfg.Params
	if params == (model.HeatmapParameters{}) {
		params = model.DefaultParameters()
	}
	ctrl := controls.NewPanel(gen,
		controls.WithInitial(params),
		controls.WithReporter(reporter),
		controls.WithLogger(log),
	)

	for _, line := range startupBanner(cfg) {
		reporter.Log(line)
	}
	if _, err := ctrl.Start(ctx); err != nil {
		return err
	}
	if cfg.Once {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var shutdowns []func(context.Context)

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen for gRPC on %s: %w", cfg.GRPCAddr, err)
		}
		server := rpc.NewServer(ctrl, log, collector)
		log.Info(ctx, "starting control gRPC server", logging.String("addr", lis.Addr().String()))
		go func() {
			if err := server.Serve(lis); err != nil {
				log.Error(ctx, "gRPC server exited", logging.Err(err))
			}
		}()
		shutdowns = append(shutdowns, func(context.Context) { server.GracefulStop() })
	}

	if cfg.HTTPAddr != "" {
		httpPanel := panel.NewServer(ctrl, panel.WithReportLines(recorder), panel.WithLogger(log))
		defer httpPanel.Close()
		go httpPanel.Hub().Run(ctx)
		srv := serveHTTP(cfg.HTTPAddr, httpPanel.Handler(), "control panel", log)
		shutdowns = append(shutdowns, func(ctx context.Context) { _ = srv.Shutdown(ctx) })
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := serveHTTP(cfg.MetricsAddr, mux, "Prometheus metrics", log)
		shutdowns = append(shutdowns, func(ctx context.Context) { _ = srv.Shutdown(ctx) })
	}

	if cfg.Preview {
		screen, err := preview.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal preview: %w", err)
		}
		viewer := preview.NewViewer(screen, func(ctx context.Context) error {
			_, err := ctrl.Trigger(ctx)
			return err
		}, log)
		frame := func(res *core.PassResult) preview.Frame {
			cloud, _ := readCloud(ctx)
			return preview.Frame{Cloud: cloud, Towers: res.Towers}
		}
		remove := ctrl.OnPass(func(res *core.PassResult) { viewer.Update(frame(res)) })
		defer remove()
		// Quitting the preview stops the service.
		viewer.Run(ctx, frame(ctrl.LastResult()))
		cancel()
	}

	<-ctx.Done()
	log.Info(context.Background(), "shutting down heatmap service")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	for _, fn := range shutdowns {
		fn(shutdownCtx)
	}
	return nil
}

func startupBanner(cfg Config) []string {
	rule := strings.Repeat("=", 60)
	lines := []string{rule, "RF HEATMAP - controls available", rule}
	if cfg.Once {
		lines = append(lines, "Single pass mode: no controls are served.")
	}
	if !cfg.Once && cfg.GRPCAddr != "" {
		lines = append(lines, "gRPC control service on "+cfg.GRPCAddr)
	}
	if !cfg.Once && cfg.HTTPAddr != "" {
		lines = append(lines, "HTTP control panel on "+cfg.HTTPAddr)
	}
	if !cfg.Once {
		lines = append(lines, "Adjust the parameters and regenerate to update.")
	}
	return append(lines, rule, "")
}

func serveHTTP(addr string, handler http.Handler, what string, log logging.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), what+" server exited", logging.Err(err))
		}
	}()
	log.Info(context.Background(), "serving "+what, logging.String("addr", addr))
	return srv
}
