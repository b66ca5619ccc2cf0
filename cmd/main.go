package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"modelhub/config"
	mhttp "modelhub/http"
	"modelhub/logger"
	"modelhub/registry"
	"modelhub/storage"
	"modelhub/tracking"
)

func main() {
	// Look for config in root even if run from cmd/
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join("..", "config.yaml")
	}

	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logger.Sync()

	// 2. Initialize object storage
	store := newStore(cfg)

	// 3. Initialize experiment tracking
	recorder := newRecorder(cfg)
	defer recorder.Close()

	// 4. Event hub and registry
	hub := mhttp.NewEventHub()
	go hub.Start()

	reg := registry.New(registry.Config{
		Store:            store,
		Bucket:           cfg.Storage.Bucket,
		Recorder:         recorder,
		Publisher:        hub,
		RegressionCutoff: cfg.ML.RegressionCutoff,
		Seed:             cfg.ML.Seed,
	})

	// 5. Start HTTP server
	server := mhttp.NewServer(mhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxRequestSize: 8 << 20,
		AllowedOrigins: []string{"*"},
	}, reg, hub)

	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("HTTP server failed: %v", err)
			os.Exit(1)
		}
	}()

	// 6. Hot-reload log level and inference cutoff on config change
	stopWatch, err := config.Watch(configPath, func(updated *config.Config) {
		logger.SetLevel(updated.Log.Level)
		reg.SetRegressionCutoff(updated.ML.RegressionCutoff)
		logger.Infof("Config reloaded: log level %s, regression cutoff %d",
			updated.Log.Level, updated.ML.RegressionCutoff)
	})
	if err != nil {
		logger.Warnf("Config watcher disabled: %v", err)
	} else {
		defer stopWatch()
	}

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down...")

	if err := server.Stop(); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Infof("Exiting")
}

// newStore builds the artifact store. Falls back to process memory when
// S3 credentials are absent so the service stays usable in dev.
func newStore(cfg *config.Config) storage.ObjectStorage {
	if cfg.Storage.AccessKey == "" || cfg.Storage.SecretKey == "" {
		logger.Warnf("No storage credentials, artifacts kept in memory only")
		return storage.NewMemory()
	}

	s3, err := storage.NewS3(storage.S3Config{
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	})
	if err != nil {
		logger.Errorf("S3 client init failed, falling back to memory: %v", err)
		return storage.NewMemory()
	}

	cached, err := storage.NewCachedStore(s3, cfg.Storage.CacheSize)
	if err != nil {
		logger.Warnf("Artifact cache disabled: %v", err)
		return s3
	}
	logger.Infof("Artifact store: %s (bucket %s, cache %d)",
		cfg.Storage.Endpoint, cfg.Storage.Bucket, cfg.Storage.CacheSize)
	return cached
}

func newRecorder(cfg *config.Config) tracking.Recorder {
	if !cfg.Tracking.Enabled {
		return tracking.Noop{}
	}

	if dir := filepath.Dir(cfg.Tracking.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warnf("Tracking directory unavailable: %v", err)
			return tracking.Noop{}
		}
	}

	recorder, err := tracking.OpenSQLite(cfg.Tracking.Path)
	if err != nil {
		logger.Warnf("Tracking disabled: %v", err)
		return tracking.Noop{}
	}
	logger.Infof("Tracking runs in %s", cfg.Tracking.Path)
	return recorder
}
