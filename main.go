package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/uniwork-be/internal/api"
	"github.com/isdelr/uniwork-be/internal/auth"
	"github.com/isdelr/uniwork-be/internal/config"
	"github.com/isdelr/uniwork-be/internal/database"
	"github.com/isdelr/uniwork-be/internal/logger"
	"github.com/isdelr/uniwork-be/internal/maintenance"
	"github.com/isdelr/uniwork-be/internal/services"
	"github.com/isdelr/uniwork-be/internal/store"
	"github.com/isdelr/uniwork-be/internal/uploads"
	"github.com/isdelr/uniwork-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet; the default writes JSON to stderr.
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Set up the store
	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer st.Close()

	// Ensure the upload directory exists
	images, err := uploads.New(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("Failed to create upload directory")
	}

	creds, err := auth.NewCredentials([]byte(cfg.JWTSecret), cfg.TokenTTL, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize credentials")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up and start the orphaned upload sweeper
	var sweeper *maintenance.Sweeper
	if cfg.UploadSweepSchedule != "" {
		sweeper = maintenance.NewSweeper(st, images, cfg.UploadSweepGrace)
		if err := sweeper.Start(cfg.UploadSweepSchedule); err != nil {
			log.Fatal().Err(err).Msg("Failed to start upload sweeper")
		}
	}

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Hub:             hub,
		Verifier:        creds,
		UserService:     services.NewUserService(st, creds),
		PostService:     services.NewPostService(st, images, hub),
		CalendarService: services.NewCalendarService(st, hub),
		TodoService:     services.NewTodoService(st, hub),
		UploadDir:       images.Dir(),
		MaxUploadBytes:  images.MaxBytes(),
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("driver", cfg.DatabaseDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}

// openStore connects to the configured backend and applies its schema.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, err := database.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateMongo(ctx, client.Database(cfg.MongoDatabase)); err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("applying mongo migrations: %w", err)
		}
		return store.NewMongoStore(client, cfg.MongoDatabase), nil
	default:
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying database migrations: %w", err)
		}
		return store.NewSQLiteStore(db), nil
	}
}
