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
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/chefbook/chefbook-api/internal/config"
	"github.com/chefbook/chefbook-api/internal/consumer"
	"github.com/chefbook/chefbook-api/internal/notifier"
	emailSender "github.com/chefbook/chefbook-api/internal/notifier/email"
	pushSender "github.com/chefbook/chefbook-api/internal/notifier/push"
	smsSender "github.com/chefbook/chefbook-api/internal/notifier/sms"
	wsNotifier "github.com/chefbook/chefbook-api/internal/notifier/ws"
	"github.com/chefbook/chefbook-api/internal/repository/postgres"
	notificationService "github.com/chefbook/chefbook-api/internal/service/notification"
	preferenceService "github.com/chefbook/chefbook-api/internal/service/preference"
	"github.com/chefbook/chefbook-api/internal/worker"
	"github.com/chefbook/chefbook-api/pkg/logger"
	"github.com/chefbook/chefbook-api/pkg/messaging/redis"
	"github.com/chefbook/chefbook-api/pkg/metrics"
)

// workerConfig holds the worker-only tunables; everything else comes from
// the shared config file.
type workerConfig struct {
	HealthPort          int           `envconfig:"HEALTH_PORT" default:"8081"`
	RetentionInterval   time.Duration `envconfig:"RETENTION_INTERVAL" default:"1h"`
	DeliveryLogAge      time.Duration `envconfig:"DELIVERY_LOG_AGE" default:"2160h"`
	ReadNotificationAge time.Duration `envconfig:"READ_NOTIFICATION_AGE" default:"4320h"`
}

func main() {
	log.Logger = logger.NewLogger(nil).ZL

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var wcfg workerConfig
	if err := envconfig.Process("worker", &wcfg); err != nil {
		log.Fatal().Err(err).Msg("failed to process worker environment")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker holds no websocket connections; its sender publishes
	// bridge frames for the API instances to deliver.
	instanceID := uuid.NewString()
	hub := wsNotifier.NewHub(log.Logger)

	var push *pushSender.Sender
	if cfg.Push.FCMCredentialsFile != "" {
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Push.FCMCredentialsFile))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Firebase app")
		}
		client, err := app.Messaging(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize FCM client")
		}
		push = pushSender.NewSender(cfg.Push, pushRepo, client, log.Logger)
	} else {
		push = pushSender.NewSender(cfg.Push, pushRepo, nil, log.Logger)
	}

	senders := []notifier.Sender{
		push,
		emailSender.NewSender(cfg.Email, userRepo, log.Logger),
		smsSender.NewSender(cfg.SMS, userRepo, log.Logger),
		wsNotifier.NewSender(hub, broker, instanceID, log.Logger),
		notifier.NewInAppSender(),
	}

	notificationSvc := notificationService.NewService(
		notificationRepo,
		deliveryLogRepo,
		prefSvc,
		senders,
		notificationService.Config{ChannelTimeout: cfg.Dispatch.ChannelTimeout},
		metrics.New("chefbook_worker"),
		log.Logger,
	)

	retention := worker.NewRetentionWorker(
		notificationRepo,
		deliveryLogRepo,
		worker.RetentionConfig{
			Interval:            wcfg.RetentionInterval,
			DeliveryLogAge:      wcfg.DeliveryLogAge,
			ReadNotificationAge: wcfg.ReadNotificationAge,
		},
		log.Logger,
	)
	go retention.Start(ctx)

	setupHealthCheck(wcfg.HealthPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down...")
		cancel()
	}()

	c := consumer.New(broker, notificationSvc, log.Logger)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("event consumer failed")
	}

	log.Info().Msg("worker exited properly")
}

func setupHealthCheck(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}
