package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/oncallhq/pager-api/internal/channel"
	"github.com/oncallhq/pager-api/internal/config"
	"github.com/oncallhq/pager-api/internal/repository/postgres"
	pagingService "github.com/oncallhq/pager-api/internal/service/paging"
	internalworker "github.com/oncallhq/pager-api/internal/worker"
	"github.com/oncallhq/pager-api/pkg/logger"
	messagingredis "github.com/oncallhq/pager-api/pkg/messaging/redis"
	"github.com/oncallhq/pager-api/pkg/metrics"
	queueredis "github.com/oncallhq/pager-api/pkg/queue/redis"
	"github.com/oncallhq/pager-api/pkg/worker"
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

	m := metrics.New("pager_worker")

	registry := channel.NewRegistry(
		channel.NewSlackDispatcher(cfg.Channels.Slack),
		channel.NewEmailDispatcher(cfg.Channels.Email),
		channel.NewSMSDispatcher(cfg.Channels.Gateway),
		channel.NewVoiceDispatcher(cfg.Channels.Gateway),
	)

	pagingSvc := pagingService.NewService(
		postgres.NewPolicyRepository(db),
		postgres.NewAlertGroupRepository(db),
		postgres.NewRotationRepository(db),
		postgres.NewUserRepository(db),
		postgres.NewAttemptRepository(db),
		registry, delayQueue, broker, appLogger, m,
	)

	runner := worker.NewRunner(delayQueue, pagingSvc, cfg.Worker, appLogger, m)

	cleanup := internalworker.NewAttemptCleanupWorker(
		postgres.NewAttemptRepository(db),
		cfg.Retention.AttemptDays,
		time.Duration(cfg.Retention.CleanupInterval)*time.Hour,
		*appLogger.Zerolog(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runner.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()

	// Queue depth gauge sampled on its own slow cadence.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := delayQueue.Depth(ctx)
				if err != nil {
					continue
				}
				m.QueueDepth.Set(float64(depth))
			}
		}
	}()

	healthSrv := &http.Server{Addr: ":8081", Handler: healthMux(db)}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start health server")
		}
	}()

	log.Info().Msg("paging worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")

	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker exited properly")
}

func healthMux(db interface{ Ping() error }) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
