package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/romanzh1/practice-srs/internal/config"
	"github.com/romanzh1/practice-srs/internal/repository"
)

func newRootCmd() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:          "revisiond",
		Short:        "Spaced-repetition revision scheduler for solved practice problems",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = *loaded

			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = zap.L().Sync()
		},
	}

	root.AddCommand(
		newServeCmd(&cfg),
		newMigrateCmd(&cfg),
		newRemindCmd(&cfg),
		newTokenCmd(&cfg),
	)

	return root
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}

	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level (level: %s): %w", cfg.Log.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format("2006-01-02T15:04:05-07:00"))
	}

	return zc.Build()
}

func openDB(cfg *config.Config) (*repository.DB, error) {
	driver, err := cfg.DriverName()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(driver, cfg.DatabaseURL(), cfg.Database.MaxIdle, cfg.Database.MaxOpen)
	if err != nil {
		zap.L().Error("failed to connect to database", zap.String("driver", driver), zap.Error(err))
		return nil, err
	}

	return db, nil
}
