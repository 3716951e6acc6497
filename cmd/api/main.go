package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/app"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/config"
	appHTTP "github.com/cmlabs-hris/cafeteria-payroll/internal/handler/http"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/cache"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/cron"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/logger"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/queue"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/storage"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/postgresql"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/service/file"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, logger.Options{
		App:     "cafeteria-payroll-api",
		Version: cfg.App.Version,
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
	})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repos app.Repositories
	switch cfg.App.StorageDriver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		repos = app.MemoryRepositories(memory.NewStore())
	case "postgres":
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := postgresql.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		repos = app.PostgresRepositories(db)
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.App.StorageDriver)
	}

	deps := app.Deps{
		Repos:    repos,
		JWT:      jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration),
		Location: cfg.Location(),
	}

	// Redis backs the report cache and the email queue. Both are optional.
	if cfg.Redis.Addr != "" {
		client, err := cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		deps.Cache = cache.NewCache(client, cfg.Redis.CacheTTL)

		queueClient := queue.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer queueClient.Close()
		deps.Mailer = queueClient
	} else {
		log.Info("REDIS_ADDR not set, report cache and email delivery disabled")
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	deps.Files = file.NewFileService(fileStorage)

	a := app.New(deps)
	defer a.Notifications.Stop()

	if cfg.App.AdminEmail != "" {
		if err := a.Auth.EnsureAdmin(ctx, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	scheduler := cron.NewScheduler(5 * time.Minute)
	cron.NewNotificationJobs(repos.Notifications, cfg.Payroll.NotificationRetainDays).RegisterJobs(scheduler)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:          log,
		AllowedOrigins:  cfg.App.AllowedOrigins,
		Production:      cfg.IsProduction(),
		LoginRateLimit:  10,
		ImportRateLimit: 20,
	}, deps.JWT, a.Handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr, "storage", cfg.App.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start(gctx)
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
