package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"smartreminder/internal/clock"
	"smartreminder/internal/config"
	"smartreminder/internal/database"
	"smartreminder/internal/handlers"
	"smartreminder/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("Failed to load .env:", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	systemClock := clock.NewSystemClock(cfg.Zone)

	store, err := openStore(cfg, systemClock)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	emailService := services.NewEmailService(cfg.Email)
	if err := emailService.Configured(); err != nil {
		log.Printf("WARNING email delivery is not configured, reminders will not be sent: %v", err)
	}

	worker := services.NewReminderWorker(services.ReminderWorkerConfig{
		Store:    store,
		Notifier: emailService,
		Clock:    systemClock,
		Interval: cfg.SchedulerInterval,
		Verbose:  cfg.Debug,
	})

	intake := services.NewIntakeService(store, cfg.Zone, systemClock)
	router := handlers.NewRouter(handlers.NewHandler(intake, store, worker), cfg.CORSOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Start(ctx)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.Printf("Server starting on port %s (zone=%s)...", cfg.Port, cfg.Zone.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Unexpected error while shutting down server: %v", err)
	}
	worker.Stop()

	log.Println("Server gracefully stopped")
}

func openStore(cfg *config.Config, c clock.Clock) (database.ReminderStore, error) {
	if cfg.Store == config.StoreMemory {
		log.Println("Using in-memory reminder store, reminders will not survive a restart")
		return database.NewMemoryStore(c, cfg.Zone), nil
	}

	db, err := database.Open(database.Settings{
		DSN:    cfg.DatabaseDSN,
		LogSQL: cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	return database.NewGormStore(db, c, cfg.Zone), nil
}
