package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playlist-widget/internal/database"
	"playlist-widget/internal/feed"
	"playlist-widget/internal/handlers"
	"playlist-widget/internal/logging"
	"playlist-widget/internal/metrics"
	"playlist-widget/internal/middleware"
	"playlist-widget/internal/registry"
	"playlist-widget/internal/router"
	"playlist-widget/internal/startup"
	"playlist-widget/internal/widget"

	"github.com/gorilla/mux"
)

const (
	metricsCollectInterval = time.Minute
	shutdownTimeout        = 30 * time.Second
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	provider := newFeedProvider(config, db)
	reg := registry.New()
	manager := widget.NewManager(provider, reg, widget.Options{
		EmbedBase: config.EmbedBase,
		Origin:    config.PlayerOrigin,
	})
	rt := router.New(reg, manager, config.AllowedMessageOrigins)

	collector := metrics.NewCollector(manager, metricsCollectInterval)
	collector.Start()

	h := handlers.New(manager, rt, provider, db, config)

	r := setupRouter(h)
	startup.LogHTTPRoutes(r, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = r
	if config.Compression {
		handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)
	}

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           middleware.Logger(loggingConfig)(handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go bootstrapLayouts(ctx, manager, h, config)

	shutdownDone := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, cancel, collector, manager, db)
		close(shutdownDone)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

// newFeedProvider returns the HTTP feed client, behind the feed cache
// unless FEED_CACHE_TTL is zero.
func newFeedProvider(config *startup.Config, db *database.Database) feed.Provider {
	upstream := feed.NewHTTPProvider(config.FeedBaseURL, config.FeedTimeout)
	if config.FeedCacheTTL <= 0 {
		return upstream
	}
	return feed.NewCachingProvider(upstream, db, config.FeedCacheTTL)
}

// bootstrapLayouts loads the configured layouts and then marks the server ready.
func bootstrapLayouts(ctx context.Context, manager *widget.Manager, h *handlers.Handlers, config *startup.Config) {
	defer h.MarkReady()

	startup.LogBootstrapInit(len(config.Layouts))
	if len(config.Layouts) == 0 {
		return
	}

	specs := make([]widget.Spec, len(config.Layouts))
	for i, id := range config.Layouts {
		specs[i] = widget.Spec{PlaylistID: id, InitialIndex: config.InitialIndex}
	}

	start := time.Now()
	layouts, err := manager.Bootstrap(ctx, specs)
	if err != nil {
		logging.Debug("Bootstrap errors: %v", err)
	}

	ready := 0
	for _, layout := range layouts {
		if layout.State() == widget.StateReady {
			ready++
		}
	}
	startup.LogBootstrapComplete(ready, len(layouts)-ready, time.Since(start))
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Layouts
	api.HandleFunc("/layouts", h.ListLayouts).Methods("GET")
	api.HandleFunc("/layouts", h.CreateLayout).Methods("POST")
	api.HandleFunc("/layouts/{handle}", h.GetLayout).Methods("GET")
	api.HandleFunc("/layouts/{handle}", h.DeleteLayout).Methods("DELETE")
	api.HandleFunc("/layouts/{handle}/list", h.GetLayoutList).Methods("GET")
	api.HandleFunc("/layouts/{handle}/select", h.SelectEntry).Methods("POST")
	api.HandleFunc("/layouts/{handle}/reload", h.ReloadLayout).Methods("POST")

	// Player status relay
	api.HandleFunc("/player/{handle}/messages", h.PostPlayerMessage).Methods("POST")

	// Feeds
	api.HandleFunc("/feed/{playlistId}", h.GetFeed).Methods("GET")
	api.HandleFunc("/feeds", h.ListCachedFeeds).Methods("GET")
	api.HandleFunc("/feeds/{playlistId}", h.DeleteCachedFeed).Methods("DELETE")

	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())

	return &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, cancelBootstrap context.CancelFunc, collector *metrics.Collector, manager *widget.Manager, db *database.Database) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Cancelling layout bootstrap")
	cancelBootstrap()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Releasing layouts")
	manager.Close()
	startup.LogShutdownStepComplete("Layouts released")

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
