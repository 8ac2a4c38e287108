package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/chefbook/chefbook-api/internal/config"
	"github.com/chefbook/chefbook-api/internal/handler"
	healthHandler "github.com/chefbook/chefbook-api/internal/handler/health"
	notificationHandler "github.com/chefbook/chefbook-api/internal/handler/notification"
	preferenceHandler "github.com/chefbook/chefbook-api/internal/handler/preference"
	pushHandler "github.com/chefbook/chefbook-api/internal/handler/push"
	wsHandler "github.com/chefbook/chefbook-api/internal/handler/ws"
	"github.com/chefbook/chefbook-api/internal/middleware"
	"github.com/chefbook/chefbook-api/internal/notifier"
	emailSender "github.com/chefbook/chefbook-api/internal/notifier/email"
	pushSender "github.com/chefbook/chefbook-api/internal/notifier/push"
	smsSender "github.com/chefbook/chefbook-api/internal/notifier/sms"
	wsNotifier "github.com/chefbook/chefbook-api/internal/notifier/ws"
	"github.com/chefbook/chefbook-api/internal/repository"
	"github.com/chefbook/chefbook-api/internal/repository/postgres"
	"github.com/chefbook/chefbook-api/internal/router"
	notificationService "github.com/chefbook/chefbook-api/internal/service/notification"
	preferenceService "github.com/chefbook/chefbook-api/internal/service/preference"
	"github.com/chefbook/chefbook-api/pkg/auth"
	"github.com/chefbook/chefbook-api/pkg/logger"
	"github.com/chefbook/chefbook-api/pkg/messaging/redis"
	"github.com/chefbook/chefbook-api/pkg/metrics"
)

func main() {
	log.Logger = logger.NewLogger(nil).ZL

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	base := postgres.NewBaseRepository(db)
	notificationRepo := postgres.NewNotificationRepository(base)
	deliveryLogRepo := postgres.NewDeliveryLogRepository(base)
	preferenceRepo := postgres.NewPreferenceRepository(base)
	userRepo := postgres.NewUserRepository(base)
	pushRepo := postgres.NewPushSubscriptionRepository(base)

	prefSvc := preferenceService.NewService(preferenceRepo, log.Logger)

	// Each API instance carries its own hub; the Redis bridge fans frames
	// out to users connected elsewhere.
	instanceID := uuid.NewString()
	hub := wsNotifier.NewHub(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := wsNotifier.RunBridge(ctx, hub, broker, instanceID, log.Logger); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("websocket bridge stopped")
		}
	}()

	senders := []notifier.Sender{
		newPushSender(ctx, cfg, pushRepo),
		emailSender.NewSender(cfg.Email, userRepo, log.Logger),
		smsSender.NewSender(cfg.SMS, userRepo, log.Logger),
		wsNotifier.NewSender(hub, broker, instanceID, log.Logger),
		notifier.NewInAppSender(),
	}

	m := metrics.New("chefbook_notifications")
	notificationSvc := notificationService.NewService(
		notificationRepo,
		deliveryLogRepo,
		prefSvc,
		senders,
		notificationService.Config{ChannelTimeout: cfg.Dispatch.ChannelTimeout},
		m,
		log.Logger,
	)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins

	rateLimit := rate.Limit(cfg.RateLimit.RequestsPerSecond)
	if !cfg.RateLimit.Enabled {
		rateLimit = rate.Inf
	}

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		notificationHandler.NewHandler(notificationSvc),
		preferenceHandler.NewHandler(prefSvc),
		pushHandler.NewHandler(pushRepo),
		wsHandler.NewHandler(hub, cfg.Server.AllowedOrigins, m.WebsocketConnections, log.Logger),
		handler.NewHandler(),
		router.Config{
			RateLimit:     rateLimit,
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    corsConfig,
			MetricsPrefix: "chefbook_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

// newPushSender enables FCM only when a credentials file is configured;
// web push works off the VAPID keys alone.
func newPushSender(ctx context.Context, cfg *config.Config, pushRepo repository.PushSubscriptionRepository) *pushSender.Sender {
	if cfg.Push.FCMCredentialsFile == "" {
		return pushSender.NewSender(cfg.Push, pushRepo, nil, log.Logger)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Push.FCMCredentialsFile))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase app")
	}
	fcm, err := app.Messaging(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize FCM client")
	}
	return pushSender.NewSender(cfg.Push, pushRepo, fcm, log.Logger)
}
