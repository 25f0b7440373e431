package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	v1 "github.com/appcontrol-api/api/v1"
	"github.com/appcontrol-api/config"
	"github.com/appcontrol-api/database"
	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/middleware"
	"github.com/appcontrol-api/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.Initialize(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to prepare upload directory")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxFileSize
	router.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.CORSOrigin, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", v1.HealthCheck(database.DB))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Recipe images are public; exam files only go out through the download route
	router.Static(storage.URLPrefix+"/"+string(storage.PurposeRecipe), filepath.Join(store.Root(), string(storage.PurposeRecipe)))

	v1.RegisterRoutes(router.Group(cfg.APIBasePath), v1.Dependencies{
		DB:            database.DB,
		Store:         store,
		MaxUploadSize: cfg.MaxFileSize,
		JWTSecret:     cfg.JWTSecret,
		JWTExpiresIn:  cfg.JWTExpiresIn,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().
			Str("port", cfg.Port).
			Str("env", cfg.AppEnv).
			Str("base_path", cfg.APIBasePath).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Server forced to shut down")
	}
	logging.Info().Msg("Server stopped")
}
