package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/romanzh1/practice-srs/internal/config"
	"github.com/romanzh1/practice-srs/internal/handler"
	"github.com/romanzh1/practice-srs/internal/service"
	"github.com/romanzh1/practice-srs/pkg/utils"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily reminder job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = db.Up(); err != nil {
		zap.L().Error("failed to run migrations", zap.String("driver", db.Driver()), zap.Error(err))
		return err
	}
	zap.L().Info("database ready", zap.String("driver", db.Driver()))

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}

	svc := service.NewService(db, service.WithNotifier(notifier))

	if cfg.Reminder.Enabled {
		scheduler, err := startReminderScheduler(ctx, cfg, svc)
		if err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	e := handler.NewServer(handler.NewHTTPHandler(svc, cfg.Auth.JWTSecret))

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := e.Start(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// startReminderScheduler runs the dispatch once a day at reminder.at in reminder.timezone.
func startReminderScheduler(ctx context.Context, cfg *config.Config, svc *service.Service) (*gocron.Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	_, err = s.Every(1).Day().At(cfg.Reminder.At).Do(func() {
		if _, err := svc.DispatchReminders(ctx, utils.TruncateToMinutes(time.Now().In(loc))); err != nil {
			zap.L().Error("failed to dispatch revision reminders", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminders (at: %s, timezone: %s): %w", cfg.Reminder.At, loc, err)
	}

	s.StartAsync()
	zap.L().Info("reminder job scheduled", zap.String("at", cfg.Reminder.At), zap.String("timezone", loc.String()))

	return s, nil
}
