package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/aisfeed"
	"github.com/ngmaloney/portpal/internal/config"
	"github.com/ngmaloney/portpal/internal/database"
	"github.com/ngmaloney/portpal/internal/geocoding"
	"github.com/ngmaloney/portpal/internal/noaa"
	"github.com/ngmaloney/portpal/internal/notify"
	"github.com/ngmaloney/portpal/internal/portindex"
	"github.com/ngmaloney/portpal/internal/timers"
	"github.com/ngmaloney/portpal/internal/timerstore"
	"github.com/ngmaloney/portpal/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (default $XDG_CONFIG_HOME/portpal/config.yaml)")
	logPath := flag.String("log", filepath.Join("logs", "portpal.log"), "Log file")
	shapefile := flag.String("ports", "", "World Port Index shapefile (.shp or .zip) to build the port index from")
	offline := flag.Bool("offline", false, "Schedule only, no live vessel tracking")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if *shapefile != "" {
		cfg.Ports.Shapefile = *shapefile
	}
	if *offline {
		cfg.UseLiveData = false
	}

	closeLog, err := setupLogging(*logPath, cfg.LogLevel)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, *configPath); err != nil {
		log.Errorf("PortPal exited: %v", err)
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging sends log output to a file so it stays off the alt screen
func setupLogging(path, level string) (func(), error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return func() { f.Close() }, nil
}

func run(cfg config.Config, configPath string) error {
	ctx := context.Background()

	// the port index always lives in SQLite, whatever stores the timers
	db, err := database.Open(cfg.Store.SQLitePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := portindex.ProvisionDB(db, cfg.Ports.Shapefile); err != nil {
		return fmt.Errorf("building port index: %w", err)
	}
	var geocoder portindex.Geocoder
	if cfg.Ports.Geocode {
		geocoder = geocoding.NewGeocoder()
	}
	ports := portindex.NewResolver(db, geocoder)

	store, closeStore, err := openStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := notify.NewLocalScheduler()
	defer sched.CancelAll()

	weather := noaa.NewWeatherClient()
	manager := timers.NewManager(store, sched,
		timers.WithSettings(cfg.Alerts),
		timers.WithWeather(weather, ports.Locate),
	)
	if err := manager.Load(ctx); err != nil {
		return fmt.Errorf("loading timers: %w", err)
	}
	log.Infof("Loaded %d timers", len(manager.Timers()))

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	deps := ui.Deps{
		Manager:      manager,
		Locate:       ports.Locate,
		Nearby:       ports.NearbyPort,
		Alerts:       sched.Deliveries(),
		Advisories:   weather,
		SaveAlerts:   func(s notify.Settings) error { return config.SaveAlerts(configPath, s) },
		Now:          time.Now,
		TickInterval: cfg.Monitor.TickInterval,
	}
	if cfg.UseLiveData {
		if cfg.AIS.APIKey == "" {
			log.Warn("No AIS_STREAM_API_KEY set, positions will be simulated")
		}
		feed := aisfeed.NewClient(cfg.FeedConfig(), aisfeed.WithRegisterer(prometheus.DefaultRegisterer))
		defer feed.Stop()
		deps.Tracker = feed
	}

	p := tea.NewProgram(ui.NewModel(deps), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func openStore(ctx context.Context, cfg config.Config, db *sql.DB) (timerstore.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverRedis:
		store, err := timerstore.NewRedisStore(ctx, timerstore.RedisSettings{
			Addr: cfg.Store.RedisAddr,
			DB:   cfg.Store.RedisDB,
		}, time.Local)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store, err := timerstore.NewSQLiteStore(db, time.Local)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Infof("Serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warnf("Metrics server stopped: %v", err)
	}
}
