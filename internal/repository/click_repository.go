package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/share-engine/internal/models"
)

// ClickRepository append-only журнал кликов по шаринг-ссылкам
type ClickRepository interface {
	Record(ctx context.Context, click *models.ShareClick) error
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

// Record вставляет клик и инкрементирует click_count родительской ссылки
// в одной транзакции. Инкремент выражен относительно хранимого значения,
// безопасен при конкурентных вызовах
func (r *clickRepository) Record(ctx context.Context, click *models.ShareClick) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO share_clicks
		(share_link_id, share_code, visitor_id, user_id, is_new_user, referrer,
		 utm_source, utm_medium, utm_campaign, device_type, browser, os, screen_resolution,
		 country, city, ip_address, latitude, longitude, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, query,
		click.ShareLinkID,
		click.ShareCode,
		click.VisitorID,
		click.UserID,
		click.IsNewUser,
		click.Referrer,
		click.UTMSource,
		click.UTMMedium,
		click.UTMCampaign,
		click.DeviceType,
		click.Browser,
		click.OS,
		click.ScreenResolution,
		click.Country,
		click.City,
		click.IPAddress,
		click.Latitude,
		click.Longitude,
		click.SessionID,
	).Scan(&click.ID, &click.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE share_links SET click_count = click_count + 1 WHERE id = $1`,
		click.ShareLinkID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	return tx.Commit(ctx)
}
