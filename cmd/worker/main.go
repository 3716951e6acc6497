package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/config"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/email"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/logger"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/queue"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, logger.Options{
		App:     "cafeteria-payroll-worker",
		Version: cfg.App.Version,
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
	})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if cfg.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("init email service: %w", err)
	}

	worker, err := queue.NewWorker(queue.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Concurrency: 5,
		Sender:      sender,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	log.Info("worker started", "redis", cfg.Redis.Addr)
	return worker.Run(ctx)
}
