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

	"github.com/oncallhq/pager-api/internal/channel"
	"github.com/oncallhq/pager-api/internal/config"
	alertHandler "github.com/oncallhq/pager-api/internal/handler/alert"
	oncallHandler "github.com/oncallhq/pager-api/internal/handler/oncall"
	pagingHandler "github.com/oncallhq/pager-api/internal/handler/paging"
	policyHandler "github.com/oncallhq/pager-api/internal/handler/policy"
	rotationHandler "github.com/oncallhq/pager-api/internal/handler/rotation"
	userHandler "github.com/oncallhq/pager-api/internal/handler/user"
	"github.com/oncallhq/pager-api/internal/middleware"
	"github.com/oncallhq/pager-api/internal/repository/postgres"
	"github.com/oncallhq/pager-api/internal/router"
	alertService "github.com/oncallhq/pager-api/internal/service/alert"
	pagingService "github.com/oncallhq/pager-api/internal/service/paging"
	policyService "github.com/oncallhq/pager-api/internal/service/policy"
	rotationService "github.com/oncallhq/pager-api/internal/service/rotation"
	scheduleService "github.com/oncallhq/pager-api/internal/service/schedule"
	userService "github.com/oncallhq/pager-api/internal/service/user"
	"github.com/oncallhq/pager-api/pkg/auth"
	"github.com/oncallhq/pager-api/pkg/logger"
	messagingredis "github.com/oncallhq/pager-api/pkg/messaging/redis"
	"github.com/oncallhq/pager-api/pkg/metrics"
	queueredis "github.com/oncallhq/pager-api/pkg/queue/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.ToDatabaseConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rotationRepo := postgres.NewRotationRepository(db)
	policyRepo := postgres.NewPolicyRepository(db)
	alertRepo := postgres.NewAlertGroupRepository(db)
	attemptRepo := postgres.NewAttemptRepository(db)
	userRepo := postgres.NewUserRepository(db)

	delayQueue, err := queueredis.NewDelayQueue(cfg.ToQueueConfig(), appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis queue")
	}
	defer delayQueue.Close()

	broker, err := messagingredis.NewRedisBroker(cfg.ToBrokerConfig(), appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis broker")
	}
	defer broker.Close()

	m := metrics.New("pager")

	registry := channel.NewRegistry(
		channel.NewSlackDispatcher(cfg.Channels.Slack),
		channel.NewEmailDispatcher(cfg.Channels.Email),
		channel.NewSMSDispatcher(cfg.Channels.Gateway),
		channel.NewVoiceDispatcher(cfg.Channels.Gateway),
	)

	rotationSvc := rotationService.NewService(rotationRepo)
	scheduleSvc := scheduleService.NewService(rotationRepo, userRepo)
	policySvc := policyService.NewService(policyRepo, rotationRepo)
	alertSvc := alertService.NewService(alertRepo, attemptRepo, broker)
	userSvc := userService.NewService(userRepo)
	pagingSvc := pagingService.NewService(
		policyRepo, alertRepo, rotationRepo, userRepo, attemptRepo,
		registry, delayQueue, broker, appLogger, m,
	)

	authMiddleware := middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret))

	ready := func() error {
		if err := db.Ping(); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}
		return nil
	}

	r := router.NewRouter(authMiddleware, ready, router.Config{
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORS:           middleware.DefaultCORSConfig(),
		MetricsPrefix:  "pager_api",
	},
		rotationHandler.NewHandler(rotationSvc),
		oncallHandler.NewHandler(scheduleSvc),
		policyHandler.NewHandler(policySvc),
		alertHandler.NewHandler(alertSvc),
		pagingHandler.NewHandler(pagingSvc),
		userHandler.NewHandler(userSvc),
	)
	if err := r.Setup(); err != nil {
		log.Fatal().Err(err).Msg("failed to register routes")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("api server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
