package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sightseer/internal/api"
	"sightseer/pkg/arsession"
	"sightseer/pkg/cache"
	"sightseer/pkg/config"
	"sightseer/pkg/core"
	"sightseer/pkg/db"
	"sightseer/pkg/db/maintenance"
	"sightseer/pkg/geo"
	"sightseer/pkg/logging"
	"sightseer/pkg/placement"
	"sightseer/pkg/probe"
	"sightseer/pkg/registry"
	"sightseer/pkg/request"
	"sightseer/pkg/sensor"
	"sightseer/pkg/sensor/mocksensor"
	"sightseer/pkg/sensor/remote"
	"sightseer/pkg/store"
	"sightseer/pkg/tracker"
	"sightseer/pkg/version"
	"sightseer/pkg/wikipedia"
)

const defaultConfigPath = "configs/sightseer.yaml"

// memoryCacheEntries bounds the in-process layer in front of the sqlite cache.
const memoryCacheEntries = 256

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

type services struct {
	db       *db.DB
	store    *store.SQLiteStore
	tracker  *tracker.Tracker
	geodata  *wikipedia.Client
	session  *arsession.Memory
	registry *registry.Registry
	composer *placement.Composer
	sensor   sensor.Sensor
	remote   *remote.Client // nil with the mock provider
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Sightseer Started", "version", version.Version)

	svcs, err := initServices(appCfg)
	if err != nil {
		return err
	}
	defer svcs.db.Close()
	defer svcs.sensor.Close()

	if err := maintenance.Run(ctx, svcs.store, svcs.db, appCfg); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	if err := probe.AnalyzeResults(probe.Run(ctx, startupProbes(appCfg, svcs))); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	hub := api.NewHub(svcs.registry)
	defer hub.Close()

	engine, err := core.NewEngine(appCfg, core.Deps{
		Sensor:    svcs.sensor,
		Session:   svcs.session,
		Geodata:   svcs.geodata,
		Registry:  svcs.registry,
		Composer:  svcs.composer,
		Sightings: svcs.store,
		State:     svcs.store,
		Tracker:   svcs.tracker,
		Sink:      hub,
	})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	engine.AddJob(core.NewTimeJob("Maintenance", time.Duration(appCfg.DB.MaintenanceInterval), func(c context.Context) {
		// The startup pass already ran.
		if last, ok := maintenance.LastRun(c, svcs.store); ok && time.Since(last) < time.Duration(appCfg.DB.MaintenanceInterval) {
			return
		}
		if err := maintenance.Run(c, svcs.store, svcs.db, appCfg); err != nil {
			slog.Error("Maintenance tasks failed", "error", err)
		}
	}))

	engineErr := make(chan error, 1)
	engineStopped := make(chan struct{})
	go func() {
		defer close(engineStopped)
		engineErr <- engine.Run(ctx)
	}()

	err = runServer(ctx, appCfg, svcs, engine, hub, engineErr)

	// The engine writes sightings; stop it before the database closes.
	cancel()
	<-engineStopped
	return err
}

func initServices(cfg *config.Config) (*services, error) {
	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)

	tr := tracker.New()
	reqClient := request.New(cache.NewMemory(memoryCacheEntries, st), tr, &cfg.Request)
	reqClient.SetLogger(logging.RequestLogger)

	composer, err := placement.NewComposer(&cfg.Placement)
	if err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to initialize placement: %w", err)
	}
	policy, err := registry.ParsePolicy(cfg.Registry.Policy)
	if err != nil {
		dbConn.Close()
		return nil, err
	}

	svcs := &services{
		db:       dbConn,
		store:    st,
		tracker:  tr,
		geodata:  wikipedia.NewClient(reqClient, &cfg.Geodata),
		session:  arsession.NewMemory(),
		registry: registry.New(policy),
		composer: composer,
	}

	switch cfg.Sensor.Provider {
	case "remote":
		svcs.remote = remote.NewClient()
		svcs.sensor = svcs.remote
	default:
		slog.Info("Using mock sensor", "lat", cfg.Sensor.Mock.StartLat, "lon", cfg.Sensor.Mock.StartLon)
		svcs.sensor = mocksensor.NewClient(&cfg.Sensor.Mock)
		// Without a tracking client nothing pushes camera poses.
		svcs.session.SetPose(placement.Identity())
	}

	return svcs, nil
}

func startupProbes(cfg *config.Config, svcs *services) []probe.Probe {
	probes := []probe.Probe{
		{
			Name:     "Database",
			Check:    probe.Ping(svcs.db),
			Critical: true,
		},
		{
			Name:  "Log Directory",
			Check: probe.WritableDir(filepath.Dir(cfg.Log.Server.Path)),
		},
	}

	origin, ok := store.LoadOrigin(context.Background(), svcs.store)
	if !ok {
		origin = geo.Point{Lat: cfg.Sensor.Mock.StartLat, Lon: cfg.Sensor.Mock.StartLon}
	}
	probes = append(probes, probe.Probe{
		Name: "Wikipedia Geosearch",
		Check: func(ctx context.Context) error {
			_, err := svcs.geodata.Geosearch(ctx, origin)
			if errors.Is(err, wikipedia.ErrNoResults) {
				return nil
			}
			return err
		},
		// Offline startup is allowed; batches fail until the network returns.
		Critical: false,
		Timeout:  time.Duration(cfg.Request.Timeout),
	})
	return probes
}

func runServer(ctx context.Context, cfg *config.Config, svcs *services, engine *core.Engine, hub *api.Hub, engineErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	handlers := api.Handlers{
		Status:    api.NewStatusHandler(engine),
		Stats:     api.NewStatsHandler(svcs.tracker, svcs.registry, hub),
		Anchors:   api.NewAnchorHandler(svcs.session, svcs.registry),
		Stream:    hub,
		Session:   api.NewSessionHandler(svcs.session),
		Sightings: api.NewSightingsHandler(svcs.store),
	}
	if svcs.remote != nil {
		handlers.Sensor = api.NewSensorHandler(svcs.remote)
	}

	srv := api.NewServer(cfg.Server.Address, handlers, shutdownFunc)
	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit, engineErr)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal, engineErr <-chan error) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("Starting server", "addr", ln.Addr().String())

	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	case err := <-engineErr:
		if err != nil {
			return fmt.Errorf("engine failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
