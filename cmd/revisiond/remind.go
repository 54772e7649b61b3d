package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/romanzh1/practice-srs/internal/config"
	"github.com/romanzh1/practice-srs/internal/notify"
	"github.com/romanzh1/practice-srs/internal/service"
)

func newRemindCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send today's revision reminders once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			notifier, err := newNotifier(cfg)
			if err != nil {
				return err
			}

			svc := service.NewService(db, service.WithNotifier(notifier))
			result, err := svc.DispatchReminders(cmd.Context(), time.Now().In(loc))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "subscribers: %d, notified: %d, failed: %d\n",
				result.Subscribers, result.Notified, result.Failed)
			return err
		},
	}
}

// newNotifier picks Telegram when a bot token is configured and falls back to the log.
func newNotifier(cfg *config.Config) (service.Notifier, error) {
	if cfg.Telegram.Token == "" {
		zap.L().Warn("telegram token not set, reminders go to the log")
		return notify.NewLog(nil), nil
	}

	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.Rate)
	if err != nil {
		return nil, fmt.Errorf("create telegram notifier: %w", err)
	}

	return tg, nil
}
