package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/share-engine/internal/models"
)

// ShareEventRepository append-only журнал фактов шаринга
type ShareEventRepository interface {
	Record(ctx context.Context, event *models.ShareEvent) error
}

type shareEventRepository struct {
	db *PostgresDB
}

func NewShareEventRepository(db *PostgresDB) ShareEventRepository {
	return &shareEventRepository{db: db}
}

// Record вставляет событие и инкрементирует share_count родительской ссылки
// в одной транзакции: событие без инкремента счётчика недопустимо
func (r *shareEventRepository) Record(ctx context.Context, event *models.ShareEvent) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO share_events
		(share_link_id, user_id, platform, share_channel, device_type, browser, os, country, city, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, query,
		event.ShareLinkID,
		event.UserID,
		event.Platform,
		event.ShareChannel,
		event.DeviceType,
		event.Browser,
		event.OS,
		event.Country,
		event.City,
		event.IPAddress,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrShareLinkNotFound
		}
		return fmt.Errorf("failed to record share event: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE share_links SET share_count = share_count + 1 WHERE id = $1`,
		event.ShareLinkID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment share count: %w", err)
	}

	return tx.Commit(ctx)
}
