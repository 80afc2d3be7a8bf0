package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"audiofx/cache"
	"audiofx/config"
	"audiofx/db"
	"audiofx/logger"
	"audiofx/repository"
	"audiofx/storage"
	"audiofx/task"
)

// Start wires the service together and runs the HTTP server until it
// receives an interrupt.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	})

	ensureDirExists(cfg.UploadDir)
	ensureDirExists(cfg.ProcessedDir)

	var trackRepo repository.TrackRepository
	if cfg.DBEnabled {
		if err := db.ConnectGorm(cfg); err != nil {
			logger.Fatal("failed to connect to database", logger.ErrorField(err))
		}
		defer db.CloseGorm()
		trackRepo = repository.NewGormTrackRepository(db.GormDB)
		logger.Info("track metadata store connected")
	} else {
		logger.Info("running without track metadata store")
	}

	var resultCache *cache.ResultCache
	if cfg.RedisEnabled {
		if err := db.ConnectRedis(cfg); err != nil {
			logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
		}
		defer db.CloseRedis()
		resultCache = cache.NewResultCache(db.RedisClient, cfg.TaskRetention)
		logger.Info("result cache connected")
	}

	var store *storage.Store
	if cfg.MinioEnabled {
		var err error
		store, err = storage.New(cfg)
		if err != nil {
			logger.Fatal("failed to initialize object storage", logger.ErrorField(err))
		}
		logger.Info("object storage connected", logger.String("bucket", cfg.MinioBucket))
	}

	engine := task.New(cfg.TaskRetention, cfg.TaskSweep)
	defer engine.Close()

	apiHandler := NewAPIHandler(engine, trackRepo, resultCache, store, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// API endpoints
	router.HandleFunc("/api/upload", apiHandler.UploadHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/separate", apiHandler.SeparateHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/effects", apiHandler.ApplyEffectHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/effects", apiHandler.ListEffectsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tasks/{id}", apiHandler.TaskStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tasks/{id}/ws", apiHandler.TaskProgressSocketHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", apiHandler.TracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/{filename}", apiHandler.AudioInfoHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/status", apiHandler.StatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/download/{filename}", apiHandler.DownloadHandler).Methods(http.MethodGet)

	// Watch the upload directory so files dropped there outside the API
	// still get registered.
	watcherDone := make(chan struct{})
	if trackRepo != nil {
		go watchUploadDir(cfg, trackRepo, watcherDone)
	}
	defer close(watcherDone)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}

// corsMiddleware allows the browser frontend to talk to the API from any
// origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Fatal("failed to create directory",
			logger.String("dir", dir), logger.ErrorField(err))
	}
}
