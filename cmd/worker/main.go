package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/encanta/encanta/config"
	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/service"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/tracing"
)

// osExit is a variable to allow mocking os.Exit in tests
var osExit = os.Exit

const workerConcurrency = 10

// asynqLogger forwards asynq's internal logging to the application logger
type asynqLogger struct {
	logger logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal(fmt.Sprint(args...)) }

// newMux registers the task handlers the worker processes
func newMux(cfg *config.Config, appLogger logger.Logger) *asynq.ServeMux {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if cfg.Tracing.Enabled {
		httpClient = tracing.WrapHTTPClient(httpClient)
	}

	var delivery domain.AnalyticsClient = service.NoopAnalyticsClient{}
	if cfg.Analytics.PostHogAPIKey != "" {
		delivery = service.NewPostHogClient(cfg.Analytics.PostHogAPIKey, cfg.Analytics.PostHogHost, httpClient)
	} else {
		appLogger.Warn("POSTHOG_API_KEY not set; analytics tasks will be dropped")
	}

	mux := asynq.NewServeMux()
	mux.Handle(service.TaskTypeAnalyticsCapture, service.NewAnalyticsTaskHandler(delivery, appLogger))
	return mux
}

func newServer(cfg *config.Config, appLogger logger.Logger) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: workerConcurrency,
			Queues: map[string]int{
				service.AnalyticsQueue: 1,
			},
			Logger:          asynqLogger{logger: appLogger},
			ShutdownTimeout: 10 * time.Second,
		},
	)
}

// runWorker processes queued tasks until SIGINT or SIGTERM
func runWorker(cfg *config.Config, appLogger logger.Logger) error {
	if !cfg.Redis.Enabled() {
		return fmt.Errorf("REDIS_HOST is required to run the worker")
	}

	if _, err := tracing.InitTracing(&cfg.Tracing, cfg.Environment, appLogger); err != nil {
		return err
	}

	srv := newServer(cfg, appLogger)
	appLogger.WithField("redis", cfg.Redis.Addr()).Info("Worker started, waiting for tasks")

	// Run blocks until a termination signal and drains in-flight tasks
	if err := srv.Run(newMux(cfg, appLogger)); err != nil {
		appLogger.WithField("error", err.Error()).Error("Worker error")
		return err
	}

	appLogger.Info("Worker stopped")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err := runWorker(cfg, appLogger); err != nil {
		osExit(1)
	}
}
