package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/jackc/pgx/v5"
)

var ErrInviteNotFound = errors.New("invite record not found")

type InviteRepository interface {
	Create(ctx context.Context, record *models.InviteRecord) error
	CompleteRegistration(ctx context.Context, inviteCode, inviteeUserID string) (*models.InviteRecord, error)
	CountInvites(ctx context.Context, inviterUserID string) (sent, accepted int64, err error)
	// Children возвращает принятые приглашения, исходящие от любого из inviterIDs
	Children(ctx context.Context, inviterIDs []string) ([]models.ViralTreeNode, error)
	UpsertCoefficient(ctx context.Context, coef *models.ViralCoefficient) error
}

type inviteRepository struct {
	db *PostgresDB
}

func NewInviteRepository(db *PostgresDB) InviteRepository {
	return &inviteRepository{db: db}
}

const inviteColumns = `id, invite_code, inviter_user_id, invitee_user_id, share_link_id, status, registered_at, created_at`

func (r *inviteRepository) Create(ctx context.Context, record *models.InviteRecord) error {
	query := `
		INSERT INTO invite_records (invite_code, inviter_user_id, share_link_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, status, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.InviteCode,
		record.InviterUserID,
		record.ShareLinkID,
	).Scan(&record.ID, &record.Status, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create invite record: %w", err)
	}

	return nil
}

// CompleteRegistration безусловно проставляет приглашённого и статус registered.
// Повторный вызов для того же кода перезаписывает отметку времени
func (r *inviteRepository) CompleteRegistration(ctx context.Context, inviteCode, inviteeUserID string) (*models.InviteRecord, error) {
	query := `
		UPDATE invite_records
		SET invitee_user_id = $1, status = 'registered', registered_at = CURRENT_TIMESTAMP
		WHERE invite_code = $2
		RETURNING ` + inviteColumns

	record := &models.InviteRecord{}
	err := r.db.Pool.QueryRow(ctx, query, inviteeUserID, inviteCode).Scan(
		&record.ID,
		&record.InviteCode,
		&record.InviterUserID,
		&record.InviteeUserID,
		&record.ShareLinkID,
		&record.Status,
		&record.RegisteredAt,
		&record.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to complete registration: %w", err)
	}

	return record, nil
}

func (r *inviteRepository) CountInvites(ctx context.Context, inviterUserID string) (int64, int64, error) {
	var sent, accepted int64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('registered', 'completed'))
		FROM invite_records
		WHERE inviter_user_id = $1`,
		inviterUserID,
	).Scan(&sent, &accepted)

	if err != nil {
		return 0, 0, fmt.Errorf("failed to count invites: %w", err)
	}

	return sent, accepted, nil
}

func (r *inviteRepository) Children(ctx context.Context, inviterIDs []string) ([]models.ViralTreeNode, error) {
	query := `
		SELECT ir.inviter_user_id, ir.invitee_user_id, COALESCE(u.username, ''), ir.registered_at
		FROM invite_records ir
		LEFT JOIN users u ON ir.invitee_user_id = u.id
		WHERE ir.inviter_user_id = ANY($1)
			AND ir.status IN ('registered', 'completed')
			AND ir.invitee_user_id IS NOT NULL
		ORDER BY ir.registered_at
	`

	rows, err := r.db.Pool.Query(ctx, query, inviterIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query invite children: %w", err)
	}
	defer rows.Close()

	var edges []models.ViralTreeNode
	for rows.Next() {
		var edge models.ViralTreeNode
		if err := rows.Scan(&edge.UserID, &edge.ChildUserID, &edge.ChildUsername, &edge.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan invite edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invite edges: %w", err)
	}

	return edges, nil
}

// UpsertCoefficient заменяет снапшот K-фактора по ключу (user_id, period)
func (r *inviteRepository) UpsertCoefficient(ctx context.Context, coef *models.ViralCoefficient) error {
	query := `
		INSERT INTO viral_coefficients (user_id, period, invites_sent, invites_accepted, k_factor)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, period)
		DO UPDATE SET
			invites_sent = EXCLUDED.invites_sent,
			invites_accepted = EXCLUDED.invites_accepted,
			k_factor = EXCLUDED.k_factor,
			calculated_at = CURRENT_TIMESTAMP
		RETURNING calculated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		coef.UserID,
		coef.Period,
		coef.InvitesSent,
		coef.InvitesAccepted,
		coef.KFactor,
	).Scan(&coef.CalculatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert viral coefficient: %w", err)
	}

	return nil
}
