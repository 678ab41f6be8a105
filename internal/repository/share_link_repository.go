package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrShareLinkNotFound = errors.New("share link not found")
	ErrShareCodeExists   = errors.New("share code already exists")
)

type ShareLinkRepository interface {
	Create(ctx context.Context, link *models.ShareLink) error
	GetByCode(ctx context.Context, shareCode string) (*models.ShareLink, error)
	GetInfo(ctx context.Context, shareCode string) (*models.ShareInfo, error)
	ListByUser(ctx context.Context, userID, shareType string, page, limit int) ([]models.ShareLink, int64, error)
	List(ctx context.Context, filters models.ShareLinkFilters) ([]models.AdminShareLink, int64, error)
}

type shareLinkRepository struct {
	db *PostgresDB
}

func NewShareLinkRepository(db *PostgresDB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

const shareLinkColumns = `id, share_code, user_id, share_type, content_id, content_type,
	share_url, short_url, title, description, image_url, metadata, status,
	share_count, click_count, conversion_count, ab_test_id, variant, expires_at, created_at`

func (r *shareLinkRepository) Create(ctx context.Context, link *models.ShareLink) error {
	query := `
		INSERT INTO share_links
		(share_code, user_id, share_type, content_id, content_type, share_url, short_url,
		 title, description, image_url, metadata, status, ab_test_id, variant, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ShareCode,
		link.UserID,
		link.ShareType,
		link.ContentID,
		link.ContentType,
		link.ShareURL,
		link.ShortURL,
		link.Title,
		link.Description,
		link.ImageURL,
		link.Metadata,
		link.Status,
		link.ABTestID,
		link.Variant,
		link.ExpiresAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrShareCodeExists
		}
		return fmt.Errorf("failed to create share link: %w", err)
	}

	return nil
}

func (r *shareLinkRepository) GetByCode(ctx context.Context, shareCode string) (*models.ShareLink, error) {
	query := `SELECT ` + shareLinkColumns + ` FROM share_links WHERE share_code = $1`

	link, err := scanShareLink(r.db.Pool.QueryRow(ctx, query, shareCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShareLinkNotFound
		}
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	return link, nil
}

func (r *shareLinkRepository) GetInfo(ctx context.Context, shareCode string) (*models.ShareInfo, error) {
	query := `
		SELECT sl.share_code, sl.share_type, sl.title, sl.description, sl.image_url, u.username
		FROM share_links sl
		LEFT JOIN users u ON sl.user_id = u.id
		WHERE sl.share_code = $1 AND sl.status = 'active'
	`

	info := &models.ShareInfo{}
	err := r.db.Pool.QueryRow(ctx, query, shareCode).Scan(
		&info.ShareCode,
		&info.ShareType,
		&info.Title,
		&info.Description,
		&info.ImageURL,
		&info.SharerName,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShareLinkNotFound
		}
		return nil, fmt.Errorf("failed to get share info: %w", err)
	}

	return info, nil
}

func (r *shareLinkRepository) ListByUser(ctx context.Context, userID, shareType string, page, limit int) ([]models.ShareLink, int64, error) {
	where := `user_id = $1`
	args := []any{userID}

	if shareType != "" {
		args = append(args, shareType)
		where += fmt.Sprintf(` AND share_type = $%d`, len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM share_links WHERE ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count share links: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(
		`SELECT `+shareLinkColumns+` FROM share_links WHERE `+where+
			` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args),
	)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list share links: %w", err)
	}
	defer rows.Close()

	var links []models.ShareLink
	for rows.Next() {
		link, err := scanShareLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan share link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating share links: %w", err)
	}

	return links, total, nil
}

func (r *shareLinkRepository) List(ctx context.Context, filters models.ShareLinkFilters) ([]models.AdminShareLink, int64, error) {
	where := `1=1`
	var args []any

	if filters.UserID != "" {
		args = append(args, filters.UserID)
		where += fmt.Sprintf(` AND sl.user_id = $%d`, len(args))
	}
	if filters.ShareType != "" {
		args = append(args, filters.ShareType)
		where += fmt.Sprintf(` AND sl.share_type = $%d`, len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(` AND sl.status = $%d`, len(args))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		where += fmt.Sprintf(` AND sl.created_at >= $%d`, len(args))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		where += fmt.Sprintf(` AND sl.created_at <= $%d`, len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM share_links sl WHERE ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count share links: %w", err)
	}

	args = append(args, filters.Limit, (filters.Page-1)*filters.Limit)
	query := fmt.Sprintf(`
		SELECT sl.id, sl.share_code, sl.user_id, sl.share_type, sl.content_id, sl.content_type,
			sl.share_url, sl.short_url, sl.title, sl.description, sl.image_url, sl.metadata, sl.status,
			sl.share_count, sl.click_count, sl.conversion_count, sl.ab_test_id, sl.variant,
			sl.expires_at, sl.created_at,
			COALESCE(u.username, ''), COALESCE(u.phone, '')
		FROM share_links sl
		LEFT JOIN users u ON sl.user_id = u.id
		WHERE `+where+`
		ORDER BY sl.created_at DESC
		LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args),
	)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list share links: %w", err)
	}
	defer rows.Close()

	var links []models.AdminShareLink
	for rows.Next() {
		var l models.AdminShareLink
		err := rows.Scan(
			&l.ID, &l.ShareCode, &l.UserID, &l.ShareType, &l.ContentID, &l.ContentType,
			&l.ShareURL, &l.ShortURL, &l.Title, &l.Description, &l.ImageURL, &l.Metadata, &l.Status,
			&l.ShareCount, &l.ClickCount, &l.ConversionCount, &l.ABTestID, &l.Variant,
			&l.ExpiresAt, &l.CreatedAt,
			&l.SharerUsername, &l.SharerPhone,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan share link: %w", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating share links: %w", err)
	}

	return links, total, nil
}

func scanShareLink(row pgx.Row) (*models.ShareLink, error) {
	link := &models.ShareLink{}
	err := row.Scan(
		&link.ID,
		&link.ShareCode,
		&link.UserID,
		&link.ShareType,
		&link.ContentID,
		&link.ContentType,
		&link.ShareURL,
		&link.ShortURL,
		&link.Title,
		&link.Description,
		&link.ImageURL,
		&link.Metadata,
		&link.Status,
		&link.ShareCount,
		&link.ClickCount,
		&link.ConversionCount,
		&link.ABTestID,
		&link.Variant,
		&link.ExpiresAt,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Проверка на нарушение уникального ограничения (23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Проверка на нарушение внешнего ключа (23503)
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
