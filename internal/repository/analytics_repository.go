package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/share-engine/internal/models"
)

// DimensionCount сырые количества по одному измерению кликов;
// проценты считает сервисный слой
type DimensionCount struct {
	Value string
	Count int64
}

// ABTestCounts сырые агрегаты по варианту A/B теста
type ABTestCounts struct {
	Variant          string
	ShareLinks       int64
	TotalShares      int64
	TotalClicks      int64
	TotalConversions int64
}

// AnalyticsRepository read-only агрегаты поверх ссылок, событий, кликов,
// конверсий и приглашений. Ничего не мутирует
type AnalyticsRepository interface {
	GetShareCounts(ctx context.Context, userID string, dateRange *models.DateRange) (*models.ShareStats, error)
	GetChannelDistribution(ctx context.Context, userID string) ([]models.ChannelStat, error)
	GetGeoDistribution(ctx context.Context, userID string) ([]models.GeoStat, error)
	GetClickDimensionCounts(ctx context.Context, userID, dimension string) ([]DimensionCount, error)
	GetTotalClicks(ctx context.Context, userID string) (int64, error)
	GetDailyShareCounts(ctx context.Context, userID string, days int) (map[string]int64, error)
	GetDailyClickCounts(ctx context.Context, userID string, days int) (map[string]int64, error)
	GetDailyConversionCounts(ctx context.Context, userID string, days int) (map[string]int64, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetABTestCounts(ctx context.Context, testID int64) ([]ABTestCounts, error)
}

type analyticsRepository struct {
	db *PostgresDB
}

func NewAnalyticsRepository(db *PostgresDB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// GetShareCounts суммирует денормализованные счётчики ссылок в выборке.
// ConversionRate заполняет сервисный слой
func (r *analyticsRepository) GetShareCounts(ctx context.Context, userID string, dateRange *models.DateRange) (*models.ShareStats, error) {
	where := `($1 = '' OR sl.user_id = $1)`
	args := []any{userID}

	if dateRange != nil {
		args = append(args, dateRange.Start, dateRange.End)
		where += fmt.Sprintf(` AND sl.created_at >= $%d AND sl.created_at <= $%d`, len(args)-1, len(args))
	}

	query := `
		SELECT
			COUNT(DISTINCT sl.id),
			COALESCE(SUM(sl.share_count), 0),
			COALESCE(SUM(sl.click_count), 0),
			COALESCE(SUM(sl.conversion_count), 0)
		FROM share_links sl
		WHERE ` + where

	stats := &models.ShareStats{}
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalShares,
		&stats.TotalShareEvents,
		&stats.TotalClicks,
		&stats.TotalConversions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get share counts: %w", err)
	}

	return stats, nil
}

func (r *analyticsRepository) GetChannelDistribution(ctx context.Context, userID string) ([]models.ChannelStat, error) {
	query := `
		SELECT se.platform, COUNT(*), COUNT(DISTINCT se.user_id)
		FROM share_events se
		JOIN share_links sl ON se.share_link_id = sl.id
		WHERE ($1 = '' OR sl.user_id = $1)
		GROUP BY se.platform
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel distribution: %w", err)
	}
	defer rows.Close()

	var stats []models.ChannelStat
	for rows.Next() {
		var s models.ChannelStat
		if err := rows.Scan(&s.Platform, &s.ShareCount, &s.UniqueSharers); err != nil {
			return nil, fmt.Errorf("failed to scan channel stat: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

func (r *analyticsRepository) GetGeoDistribution(ctx context.Context, userID string) ([]models.GeoStat, error) {
	query := `
		SELECT sc.country, sc.city, COUNT(*), COUNT(DISTINCT sc.visitor_id),
			AVG(sc.latitude), AVG(sc.longitude)
		FROM share_clicks sc
		JOIN share_links sl ON sc.share_link_id = sl.id
		WHERE ($1 = '' OR sl.user_id = $1) AND sc.country IS NOT NULL
		GROUP BY sc.country, sc.city
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get geo distribution: %w", err)
	}
	defer rows.Close()

	var stats []models.GeoStat
	for rows.Next() {
		var s models.GeoStat
		if err := rows.Scan(&s.Country, &s.City, &s.ClickCount, &s.UniqueVisitors, &s.AvgLat, &s.AvgLng); err != nil {
			return nil, fmt.Errorf("failed to scan geo stat: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// Допустимые измерения кликов (подстановка имени колонки)
var clickDimensions = map[string]string{
	"device_type": "sc.device_type",
	"browser":     "sc.browser",
	"os":          "sc.os",
}

func (r *analyticsRepository) GetClickDimensionCounts(ctx context.Context, userID, dimension string) ([]DimensionCount, error) {
	column, ok := clickDimensions[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown click dimension: %s", dimension)
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM share_clicks sc
		JOIN share_links sl ON sc.share_link_id = sl.id
		WHERE ($1 = '' OR sl.user_id = $1) AND %s IS NOT NULL
		GROUP BY %s
		ORDER BY COUNT(*) DESC`,
		column, column, column,
	)

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", dimension, err)
	}
	defer rows.Close()

	var counts []DimensionCount
	for rows.Next() {
		var c DimensionCount
		if err := rows.Scan(&c.Value, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan dimension count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func (r *analyticsRepository) GetTotalClicks(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM share_clicks sc
		JOIN share_links sl ON sc.share_link_id = sl.id
		WHERE ($1 = '' OR sl.user_id = $1)`,
		userID,
	).Scan(&total)

	if err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return total, nil
}

func (r *analyticsRepository) GetDailyShareCounts(ctx context.Context, userID string, days int) (map[string]int64, error) {
	// Бакеты по дням в UTC, той же зоне, в которой сервисный слой
	// строит сплошной ряд дат
	query := `
		SELECT to_char((se.created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD'), COUNT(*)
		FROM share_events se
		JOIN share_links sl ON se.share_link_id = sl.id
		WHERE ($1 = '' OR sl.user_id = $1)
			AND (se.created_at AT TIME ZONE 'UTC')::date >= (now() AT TIME ZONE 'UTC')::date - ($2 - 1)
		GROUP BY 1
	`
	return r.queryDailyCounts(ctx, query, userID, days)
}

func (r *analyticsRepository) GetDailyClickCounts(ctx context.Context, userID string, days int) (map[string]int64, error) {
	query := `
		SELECT to_char((sc.created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD'), COUNT(*)
		FROM share_clicks sc
		JOIN share_links sl ON sc.share_link_id = sl.id
		WHERE ($1 = '' OR sl.user_id = $1)
			AND (sc.created_at AT TIME ZONE 'UTC')::date >= (now() AT TIME ZONE 'UTC')::date - ($2 - 1)
		GROUP BY 1
	`
	return r.queryDailyCounts(ctx, query, userID, days)
}

func (r *analyticsRepository) GetDailyConversionCounts(ctx context.Context, userID string, days int) (map[string]int64, error) {
	query := `
		SELECT to_char((cv.created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD'), COUNT(*)
		FROM share_conversions cv
		JOIN share_links sl ON cv.share_link_id = sl.id
		WHERE ($1 = '' OR sl.user_id = $1)
			AND (cv.created_at AT TIME ZONE 'UTC')::date >= (now() AT TIME ZONE 'UTC')::date - ($2 - 1)
		GROUP BY 1
	`
	return r.queryDailyCounts(ctx, query, userID, days)
}

func (r *analyticsRepository) queryDailyCounts(ctx context.Context, query, userID string, days int) (map[string]int64, error) {
	rows, err := r.db.Pool.Query(ctx, query, userID, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var date string
		var count int64
		if err := rows.Scan(&date, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		counts[date] = count
	}

	return counts, rows.Err()
}

// GetLeaderboard ранжирует шерящих по суммарным конверсиям, dense rank,
// стабильный порядок при равенстве
func (r *analyticsRepository) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT
			sl.user_id,
			COALESCE(u.username, ''),
			COUNT(DISTINCT sl.id),
			COALESCE(SUM(sl.click_count), 0),
			COALESCE(SUM(sl.conversion_count), 0),
			DENSE_RANK() OVER (ORDER BY COALESCE(SUM(sl.conversion_count), 0) DESC)
		FROM share_links sl
		LEFT JOIN users u ON sl.user_id = u.id
		GROUP BY sl.user_id, u.username
		ORDER BY COALESCE(SUM(sl.conversion_count), 0) DESC, sl.user_id
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalShares, &e.TotalClicks, &e.TotalConversions, &e.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *analyticsRepository) GetABTestCounts(ctx context.Context, testID int64) ([]ABTestCounts, error) {
	query := `
		SELECT
			COALESCE(sl.variant, ''),
			COUNT(DISTINCT sl.id),
			COALESCE(SUM(sl.share_count), 0),
			COALESCE(SUM(sl.click_count), 0),
			COALESCE(SUM(sl.conversion_count), 0)
		FROM share_links sl
		WHERE sl.ab_test_id = $1
		GROUP BY sl.variant
		ORDER BY sl.variant
	`

	rows, err := r.db.Pool.Query(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ab test counts: %w", err)
	}
	defer rows.Close()

	var counts []ABTestCounts
	for rows.Next() {
		var c ABTestCounts
		if err := rows.Scan(&c.Variant, &c.ShareLinks, &c.TotalShares, &c.TotalClicks, &c.TotalConversions); err != nil {
			return nil, fmt.Errorf("failed to scan ab test counts: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
