package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/romanzh1/practice-srs/internal/models"
)

func (r *DB) SaveReminderSubscription(ctx context.Context, sub *models.ReminderSubscription) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	query := r.psql.Insert("reminder_subscriptions").
		Columns("owner_id", "telegram_chat_id", "enabled", "created_at", "updated_at").
		Values(sub.OwnerID, sub.TelegramChatID, sub.Enabled, sub.CreatedAt.UTC(), sub.UpdatedAt).
		Suffix(`ON CONFLICT (owner_id) DO UPDATE SET
			telegram_chat_id = excluded.telegram_chat_id,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build SQL query (owner_id: %s): %w", sub.OwnerID, err)
	}

	if _, err = r.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("save reminder subscription (owner_id: %s, chat_id: %d): %w", sub.OwnerID, sub.TelegramChatID, err)
	}

	return nil
}

// ListReminderSubscriptions returns enabled subscriptions only.
func (r *DB) ListReminderSubscriptions(ctx context.Context) ([]*models.ReminderSubscription, error) {
	query := r.psql.Select("owner_id", "telegram_chat_id", "enabled", "created_at", "updated_at").
		From("reminder_subscriptions").
		Where(squirrel.Eq{"enabled": true}).
		OrderBy("owner_id ASC")

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build SQL query: %w", err)
	}

	subs := []*models.ReminderSubscription{}
	if err = r.SelectContext(ctx, &subs, stmt, args...); err != nil {
		return nil, fmt.Errorf("query reminder subscriptions: %w", err)
	}

	return subs, nil
}
