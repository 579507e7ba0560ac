package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-attendance/internal/config"
	"github.com/iliyamo/event-attendance/internal/database"
	"github.com/iliyamo/event-attendance/internal/handler"
	"github.com/iliyamo/event-attendance/internal/logger"
	"github.com/iliyamo/event-attendance/internal/metrics"
	"github.com/iliyamo/event-attendance/internal/queue"
	"github.com/iliyamo/event-attendance/internal/repository"
	"github.com/iliyamo/event-attendance/internal/repository/memory"
	"github.com/iliyamo/event-attendance/internal/router"
	"github.com/iliyamo/event-attendance/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

// stores groups the storage contracts for one driver.
type stores struct {
	events       service.EventStore
	users        service.UserDirectory
	reservations service.ReservationStore
	ratings      service.RatingStore
	reports      service.ReportStore
	ping         func(ctx context.Context) error
	close        func() error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewManager()
	retry := database.RetryPolicy{
		Attempts: cfg.RetryAttempts,
		Base:     cfg.RetryBase,
		Max:      database.DefaultRetryPolicy.Max,
	}

	st, err := openStores(ctx, cfg, retry, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		log.Info("redis unavailable; rate limiting and caching disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithRetry(retry),
	}
	if cfg.RabbitMQEnabled {
		opts = append(opts, service.WithPublisher(queue.NewPublisher(cfg.RabbitMQURL, log)))
		go func() {
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitMQURL, cfg.AuditLogPath, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	reservations := service.NewReservationService(st.events, st.users, st.reservations, opts...)
	feedback := service.NewFeedbackService(st.events, st.users, st.reservations, st.ratings, st.reports, opts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, router.Deps{
		Config:       cfg,
		Log:          log,
		Redis:        rdb,
		Metrics:      m,
		Ping:         st.ping,
		Reservations: handler.NewReservationHandler(reservations, log),
		Feedback:     handler.NewFeedbackHandler(feedback, log),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("storage", cfg.StorageDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

func openStores(ctx context.Context, cfg config.Config, retry database.RetryPolicy, log *zap.Logger) (stores, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		db := memory.New()
		if cfg.SeedPath != "" {
			if err := db.Seed(cfg.SeedPath); err != nil {
				return stores{}, fmt.Errorf("seed memory store: %w", err)
			}
			log.Info("memory store seeded", zap.String("path", cfg.SeedPath))
		}
		return stores{
			events:       db.Events(),
			users:        db.Users(),
			reservations: db.Reservations(),
			ratings:      db.Ratings(),
			reports:      db.ReportStore(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, retry)
	if err != nil {
		return stores{}, fmt.Errorf("open database: %w", err)
	}
	if cfg.DBAutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return stores{}, fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema ensured")
	}
	return stores{
		events:       repository.NewEventRepo(db),
		users:        repository.NewUserRepo(db),
		reservations: repository.NewReservationRepo(db),
		ratings:      repository.NewRatingRepo(db),
		reports:      repository.NewReportRepo(db),
		ping:         db.PingContext,
		close:        db.Close,
	}, nil
}
