package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/ajkula/GoAutoSync/adapter/inbound/rest"
	"github.com/ajkula/GoAutoSync/adapter/inbound/websocket"
	"github.com/ajkula/GoAutoSync/adapter/outbound/filewatcher"
	"github.com/ajkula/GoAutoSync/adapter/outbound/folder"
	"github.com/ajkula/GoAutoSync/adapter/outbound/identity"
	"github.com/ajkula/GoAutoSync/adapter/outbound/logging"
	"github.com/ajkula/GoAutoSync/adapter/outbound/machineid"
	"github.com/ajkula/GoAutoSync/adapter/outbound/objectstore"
	"github.com/ajkula/GoAutoSync/config"
	"github.com/ajkula/GoAutoSync/domain/port/outbound"
	"github.com/ajkula/GoAutoSync/domain/service"
)

const fsnotifySettle = 500 * time.Millisecond

func main() {
	var configPath string
	var generateConfig bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&generateConfig, "generate-config", false, "Generate default configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Println("GoAutoSync Version 1.0.0")
		os.Exit(0)
	}

	if generateConfig {
		cfg := config.DefaultConfig()
		if err := config.SaveConfig(cfg, configPath); err != nil {
			fmt.Printf("Error generating config file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration file generated at: %s\n", configPath)
		os.Exit(0)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewSlogAdapter(cfg)
	defer logger.Shutdown()

	logger.Info("Starting GoAutoSync...",
		"watch_mode", cfg.Watch.Mode,
		"storage", cfg.Storage.Engine,
		"prefix", cfg.Upload.Prefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbound adapters
	store, err := newObjectStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize object store", "error", err)
		os.Exit(1)
	}

	watcher, err := newFileWatcher(cfg)
	if err != nil {
		logger.Error("Failed to initialize directory watcher", "error", err)
		os.Exit(1)
	}

	inspector := folder.NewOSFolderInspector()
	resolver := service.NewWatchTargetResolver(
		identity.NewOSIdentity(),
		cfg.Watch.BaseDir,
		cfg.Watch.FolderName,
		cfg.Watch.Path,
	)

	// Domain services
	gate := service.NewUploadGate()
	statsService := service.NewSyncStatsService()
	pipeline := service.NewUploadPipeline(
		gate,
		service.NewFileFilter(),
		store,
		statsService,
		logger,
		cfg.Upload.Prefix,
		cfg.Upload.MaxConcurrent,
	)
	autoSyncService := service.NewAutoSyncService(watcher, resolver, inspector, pipeline, gate, logger, ctx)
	folderService := service.NewFolderService(resolver, inspector, logger)

	if !cfg.HTTP.Enabled {
		logger.Warn("HTTP server disabled, auto backup cannot be controlled")
	}

	router := mux.NewRouter()
	router.Use(requestLogger(logger))
	if cfg.HTTP.CORS.Enabled {
		router.Use(rest.CORSMiddleware(cfg.HTTP.CORS.AllowedOrigins))
	}

	restHandler := rest.NewHandler(autoSyncService, folderService, statsService, logger)
	restHandler.SetupRoutes(router)

	wsHandler := websocket.NewHandler(statsService, logger, cfg.HTTP.CORS.AllowedOrigins, ctx)
	router.HandleFunc("/api/ws/uploads", wsHandler.HandleConnection)

	router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"ANY"}
		}
		logger.Debug("Route registered", "path", pathTemplate, "methods", methods)
		return nil
	})

	var server *http.Server
	if cfg.HTTP.Enabled {
		httpAddr := fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)
		server = &http.Server{
			Addr:         httpAddr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "address", httpAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
				cancel()
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("GoAutoSync started successfully")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down gracefully...", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	// most dependent first
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		shutdownCancel()
	}

	cancel()
	wsHandler.Cleanup()
	autoSyncService.Cleanup()

	logger.Info("Server shutdown complete")
}

// loadConfig falls back to defaults when the file does not exist yet
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("Config file %s not found, using defaults\n", path)
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}

func newObjectStore(ctx context.Context, cfg *config.Config, logger outbound.Logger) (outbound.ObjectStore, error) {
	switch strings.ToLower(cfg.Storage.Engine) {
	case "memory":
		logger.Warn("Using in-memory object store, uploads are not persisted")
		return objectstore.NewMemoryStore(), nil
	default:
		s3cfg := cfg.Storage.S3
		store, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
			Bucket:       s3cfg.Bucket,
			Region:       s3cfg.Region,
			Endpoint:     s3cfg.Endpoint,
			AccessKey:    s3cfg.AccessKey,
			SecretKey:    s3cfg.SecretKey,
			UsePathStyle: s3cfg.UsePathStyle,
		}, machineid.NewHardwareMachineID(), logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func newFileWatcher(cfg *config.Config) (outbound.FileWatcher, error) {
	switch strings.ToLower(cfg.Watch.Mode) {
	case "fsnotify":
		return filewatcher.NewFSWatcher(fsnotifySettle)
	default:
		return filewatcher.NewPollWatcher(cfg.Watch.PollInterval), nil
	}
}

func requestLogger(logger outbound.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("Request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}
