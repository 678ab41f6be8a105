package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrRewardNotFound  = errors.New("reward not found")
	ErrRewardNotIssued = errors.New("reward is not in issued status")
)

type RewardRepository interface {
	Issue(ctx context.Context, reward *models.ShareReward) error
	GetByIDAndUser(ctx context.Context, id int64, userID string) (*models.ShareReward, error)
	ListByUser(ctx context.Context, filters models.RewardFilters) ([]models.ShareReward, int64, error)
	MarkClaimed(ctx context.Context, id int64) (time.Time, error)
	MarkExpired(ctx context.Context, id int64) error
}

type rewardRepository struct {
	db *PostgresDB
}

func NewRewardRepository(db *PostgresDB) RewardRepository {
	return &rewardRepository{db: db}
}

const rewardColumns = `id, share_link_id, conversion_id, user_id, reward_type, reward_amount,
	coupon_id, coupon_code, unlock_content, source_type, source_id,
	status, issued_at, claimed_at, expires_at, created_at`

// Issue создаёт награду и для points/cash применяет эффект на баланс
// получателя в той же транзакции. Эффект применяется ровно один раз —
// здесь, при выдаче; получение награды баланс не трогает
func (r *rewardRepository) Issue(ctx context.Context, reward *models.ShareReward) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO share_rewards
		(share_link_id, conversion_id, user_id, reward_type, reward_amount,
		 coupon_id, coupon_code, unlock_content, source_type, source_id,
		 status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'issued', CURRENT_TIMESTAMP, $11)
		RETURNING id, status, issued_at, created_at
	`

	err = tx.QueryRow(ctx, query,
		reward.ShareLinkID,
		reward.ConversionID,
		reward.UserID,
		reward.RewardType,
		reward.RewardAmount,
		reward.CouponID,
		reward.CouponCode,
		reward.UnlockContent,
		reward.SourceType,
		reward.SourceID,
		reward.ExpiresAt,
	).Scan(&reward.ID, &reward.Status, &reward.IssuedAt, &reward.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to issue reward: %w", err)
	}

	if reward.RewardAmount != nil && *reward.RewardAmount > 0 {
		switch reward.RewardType {
		case models.RewardTypePoints:
			_, err = tx.Exec(ctx,
				`UPDATE users SET points = points + $1 WHERE id = $2`,
				*reward.RewardAmount, reward.UserID,
			)
		case models.RewardTypeCash:
			_, err = tx.Exec(ctx,
				`UPDATE users SET balance = balance + $1 WHERE id = $2`,
				*reward.RewardAmount, reward.UserID,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to apply reward balance: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *rewardRepository) GetByIDAndUser(ctx context.Context, id int64, userID string) (*models.ShareReward, error) {
	query := `SELECT ` + rewardColumns + ` FROM share_rewards WHERE id = $1 AND user_id = $2`

	reward, err := scanReward(r.db.Pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}

	return reward, nil
}

func (r *rewardRepository) ListByUser(ctx context.Context, filters models.RewardFilters) ([]models.ShareReward, int64, error) {
	where := `user_id = $1`
	args := []any{filters.UserID}

	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM share_rewards WHERE ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rewards: %w", err)
	}

	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)
	query := fmt.Sprintf(
		`SELECT `+rewardColumns+` FROM share_rewards WHERE `+where+
			` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args),
	)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []models.ShareReward
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *reward)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rewards: %w", err)
	}

	return rewards, total, nil
}

// MarkClaimed переводит награду issued -> claimed. Условие по статусу
// прямо в UPDATE: из двух конкурентных получений выигрывает ровно одно
func (r *rewardRepository) MarkClaimed(ctx context.Context, id int64) (time.Time, error) {
	var claimedAt time.Time
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE share_rewards SET status = 'claimed', claimed_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND status = 'issued'
		 RETURNING claimed_at`,
		id,
	).Scan(&claimedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrRewardNotIssued
		}
		return time.Time{}, fmt.Errorf("failed to mark reward claimed: %w", err)
	}
	return claimedAt, nil
}

func (r *rewardRepository) MarkExpired(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE share_rewards SET status = 'expired' WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark reward expired: %w", err)
	}
	return nil
}

func scanReward(row pgx.Row) (*models.ShareReward, error) {
	reward := &models.ShareReward{}
	err := row.Scan(
		&reward.ID,
		&reward.ShareLinkID,
		&reward.ConversionID,
		&reward.UserID,
		&reward.RewardType,
		&reward.RewardAmount,
		&reward.CouponID,
		&reward.CouponCode,
		&reward.UnlockContent,
		&reward.SourceType,
		&reward.SourceID,
		&reward.Status,
		&reward.IssuedAt,
		&reward.ClaimedAt,
		&reward.ExpiresAt,
		&reward.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reward, nil
}
