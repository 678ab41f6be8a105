package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/share-engine/internal/models"
)

// ConversionRepository append-only журнал конверсий
type ConversionRepository interface {
	Record(ctx context.Context, conversion *models.ShareConversion) error
}

type conversionRepository struct {
	db *PostgresDB
}

func NewConversionRepository(db *PostgresDB) ConversionRepository {
	return &conversionRepository{db: db}
}

// Record вставляет конверсию и инкрементирует conversion_count родительской
// ссылки в одной транзакции
func (r *conversionRepository) Record(ctx context.Context, conversion *models.ShareConversion) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO share_conversions
		(share_link_id, share_code, click_id, converted_user_id, sharer_user_id,
		 conversion_type, conversion_value, order_id, conversion_path, time_to_conversion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, query,
		conversion.ShareLinkID,
		conversion.ShareCode,
		conversion.ClickID,
		conversion.ConvertedUserID,
		conversion.SharerUserID,
		conversion.ConversionType,
		conversion.ConversionValue,
		conversion.OrderID,
		conversion.ConversionPath,
		conversion.TimeToConversion,
	).Scan(&conversion.ID, &conversion.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE share_links SET conversion_count = conversion_count + 1 WHERE id = $1`,
		conversion.ShareLinkID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment conversion count: %w", err)
	}

	return tx.Commit(ctx)
}
