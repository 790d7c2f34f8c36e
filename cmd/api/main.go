package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/campuswell/wellness-api/internal/config"
	"github.com/campuswell/wellness-api/internal/handler"
	bookingHandler "github.com/campuswell/wellness-api/internal/handler/booking"
	slotHandler "github.com/campuswell/wellness-api/internal/handler/slot"
	"github.com/campuswell/wellness-api/internal/middleware"
	"github.com/campuswell/wellness-api/internal/repository/docstore"
	"github.com/campuswell/wellness-api/internal/router"
	bookingService "github.com/campuswell/wellness-api/internal/service/booking"
	eventService "github.com/campuswell/wellness-api/internal/service/event"
	slotService "github.com/campuswell/wellness-api/internal/service/slot"
	"github.com/campuswell/wellness-api/internal/store/mongodb"
	"github.com/campuswell/wellness-api/pkg/auth"
	"github.com/campuswell/wellness-api/pkg/logger"
	"github.com/campuswell/wellness-api/pkg/messaging"
	redisBroker "github.com/campuswell/wellness-api/pkg/messaging/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})

	loc, err := cfg.Location()
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to resolve timezone")
	}

	// Initialize the document store
	docStore, err := mongodb.NewStore(context.Background(), mongodb.Config{
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		Collection: cfg.Mongo.Collection,
	})
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to connect to document store")
	}
	defer docStore.Close(context.Background())

	// Initialize the event broker; the service runs without it when no
	// Redis URL is configured.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, appLog)
		if err != nil {
			appLog.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	} else {
		appLog.Warn().Msg("no Redis URL configured, event publishing disabled")
	}

	// Initialize repositories and services
	slotRepo := docstore.NewSlotRepository(docStore)
	eventSvc := eventService.NewService(broker, cfg.Redis.Channel, appLog)
	slotSvc := slotService.NewService(slotRepo, eventSvc, cfg.Slots.Labels, loc, appLog)
	bookingSvc := bookingService.NewService(slotRepo, eventSvc, loc, appLog, slotSvc.InvalidateCalendar)

	// Initialize middleware and handlers
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	h := handler.NewHandler(docStore)
	slotH := slotHandler.NewHandler(slotSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)

	// Setup router
	r := router.NewRouter(authMiddleware, slotH, bookingH, h, appLog, router.Config{
		RateLimit:  rate.Limit(cfg.Server.RateLimitRPS),
		RateBurst:  cfg.Server.RateLimitBurst,
		Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORSConfig: middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLog.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLog.Info().Msg("server exited properly")
}
