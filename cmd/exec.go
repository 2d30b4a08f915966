package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"court-reservation/config"
	"court-reservation/handlers"
	"court-reservation/monitoring"
	"court-reservation/security"
	"court-reservation/services"
	"court-reservation/store"
	"court-reservation/utils"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	// Load configuration
	cfg := config.LoadConfig()

	// Open the database
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub (optional realtime availability fan-out)
	var realtime services.AvailabilityPublisher
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey
		realtime = services.NewPubNubPublisher(pubnub.NewPubNub(pnConfig))
	}

	// Stores
	courtStore := store.NewCourtStore(db)
	reservationStore := store.NewReservationStore(db)
	userStore := store.NewUserStore(db)
	slotLock := store.NewRedisSlotLock(redisClient, cfg.SlotLockTTL)

	// Services
	clock := services.SystemClock()
	userService := services.NewUserService(userStore, reservationStore, cfg.JWTSecret, cfg.TokenTTL, clock)
	courtService := services.NewCourtService(courtStore, reservationStore, clock)
	reservationService := services.NewReservationService(
		reservationStore, courtStore, userStore, slotLock, realtime, clock)

	// Monitoring
	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(redisClient)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("metrics server listening", "port", cfg.MetricsPort)
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				slog.Error("metrics server", "error", err)
			}
		}()
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	courtHandler := handlers.NewCourtHandler(courtService, reservationService, redisClient, cfg)
	reservationHandler := handlers.NewReservationHandler(reservationService, monitor)
	rateLimiter := security.NewRateLimiter(redisClient)

	e := echo.New()

	api := e.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Public court catalog
	api.GET("/courts", courtHandler.List)
	api.GET("/courts/active", courtHandler.ListActive)
	api.GET("/courts/type/:type", courtHandler.ListByType)
	api.GET("/courts/:id", courtHandler.GetByID)
	api.GET("/courts/:id/availability", courtHandler.Availability)

	authed := api.Group("", handlers.JWTAuth(userService))
	authed.GET("/auth/me", authHandler.Me)

	authed.POST("/reservations", reservationHandler.Create, rateLimiter.BookingRateLimit())
	authed.GET("/reservations/me", reservationHandler.ListMine)
	authed.GET("/reservations/range", reservationHandler.ListByDateRange)
	authed.GET("/reservations/:id", reservationHandler.GetByID)
	authed.PUT("/reservations/:id", reservationHandler.Update)
	authed.POST("/reservations/:id/cancel", reservationHandler.Cancel)
	authed.DELETE("/reservations/:id", reservationHandler.Delete)
	authed.GET("/courts/:id/reservations", reservationHandler.ListByCourt)

	admin := authed.Group("", handlers.RequireAdmin)
	admin.GET("/reservations", reservationHandler.ListAll)
	admin.GET("/users", userHandler.List)
	admin.GET("/users/:id", userHandler.GetByID)
	admin.DELETE("/users/:id", userHandler.Delete)
	admin.POST("/courts", courtHandler.Create)
	admin.PUT("/courts/:id", courtHandler.Update)
	admin.DELETE("/courts/:id", courtHandler.Delete)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
