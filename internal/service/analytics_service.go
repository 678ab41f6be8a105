package service

import (
	"context"
	"math"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
)

const (
	defaultTrendDays   = 30
	defaultTreeDepth   = 5
	maxTreeDepth       = 10
	defaultLeaderboard = 100
	allTimePeriod      = "all_time"
)

// AnalyticsService read-only аналитика виральности: воронки, K-фактор,
// дерево приглашений, распределения, тренды, рейтинги. Единственная
// запись — идемпотентный upsert снапшота K-фактора
type AnalyticsService interface {
	GetShareStats(ctx context.Context, userID string, dateRange *models.DateRange) (*models.ShareStats, error)
	GetChannelDistribution(ctx context.Context, userID string) ([]models.ChannelStat, error)
	GetGeoDistribution(ctx context.Context, userID string) ([]models.GeoStat, error)
	GetDeviceDistribution(ctx context.Context, userID string) (*models.DeviceDistribution, error)
	GetTimeTrends(ctx context.Context, userID string, days int) ([]models.TimeTrend, error)
	GetConversionFunnel(ctx context.Context, userID string, dateRange *models.DateRange) (*models.ConversionFunnel, error)
	CalculateViralCoefficient(ctx context.Context, userID string) (*models.ViralCoefficient, error)
	GetLeaderboard(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, error)
	GetViralTree(ctx context.Context, rootUserID string, maxDepth int) ([]models.ViralTreeNode, error)
	GetABTestResults(ctx context.Context, testID int64) ([]models.ABTestVariant, error)
	GetAllShareLinks(ctx context.Context, filters models.ShareLinkFilters) ([]models.AdminShareLink, *models.Pagination, error)
}

type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	inviteRepo    repository.InviteRepository
	linkRepo      repository.ShareLinkRepository
}

// NewAnalyticsService создаёт новый экземпляр сервиса
func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	inviteRepo repository.InviteRepository,
	linkRepo repository.ShareLinkRepository,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo: analyticsRepo,
		inviteRepo:    inviteRepo,
		linkRepo:      linkRepo,
	}
}

// GetShareStats сводная статистика; conversion rate = конверсии/клики,
// 0 при нулевом знаменателе
func (s *analyticsService) GetShareStats(ctx context.Context, userID string, dateRange *models.DateRange) (*models.ShareStats, error) {
	stats, err := s.analyticsRepo.GetShareCounts(ctx, userID, dateRange)
	if err != nil {
		return nil, err
	}

	stats.ConversionRate = ratio(stats.TotalConversions, stats.TotalClicks)

	return stats, nil
}

func (s *analyticsService) GetChannelDistribution(ctx context.Context, userID string) ([]models.ChannelStat, error) {
	return s.analyticsRepo.GetChannelDistribution(ctx, userID)
}

func (s *analyticsService) GetGeoDistribution(ctx context.Context, userID string) ([]models.GeoStat, error) {
	return s.analyticsRepo.GetGeoDistribution(ctx, userID)
}

// GetDeviceDistribution распределение кликов по устройствам, браузерам и ОС;
// проценты считаются от всех кликов в выборке
func (s *analyticsService) GetDeviceDistribution(ctx context.Context, userID string) (*models.DeviceDistribution, error) {
	total, err := s.analyticsRepo.GetTotalClicks(ctx, userID)
	if err != nil {
		return nil, err
	}

	dist := &models.DeviceDistribution{}
	for dimension, target := range map[string]*[]models.DistributionItem{
		"device_type": &dist.Devices,
		"browser":     &dist.Browsers,
		"os":          &dist.OS,
	} {
		counts, err := s.analyticsRepo.GetClickDimensionCounts(ctx, userID, dimension)
		if err != nil {
			return nil, err
		}
		items := make([]models.DistributionItem, 0, len(counts))
		for _, c := range counts {
			items = append(items, models.DistributionItem{
				Value:      c.Value,
				Count:      c.Count,
				Percentage: ratio(c.Count, total),
			})
		}
		*target = items
	}

	return dist, nil
}

// GetTimeTrends активность по календарным дням за трейлинг-окно,
// дни без активности включаются с нулями
func (s *analyticsService) GetTimeTrends(ctx context.Context, userID string, days int) ([]models.TimeTrend, error) {
	if days < 1 || days > 365 {
		days = defaultTrendDays
	}

	shares, err := s.analyticsRepo.GetDailyShareCounts(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	clicks, err := s.analyticsRepo.GetDailyClickCounts(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	conversions, err := s.analyticsRepo.GetDailyConversionCounts(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	// Сплошной ряд дат: пропущенные дни заполняются нулями.
	// Дни считаются в UTC, как и бакеты в запросах репозитория
	trends := make([]models.TimeTrend, 0, days)
	start := time.Now().UTC().AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		trends = append(trends, models.TimeTrend{
			Date:        date,
			Shares:      shares[date],
			Clicks:      clicks[date],
			Conversions: conversions[date],
		})
	}

	return trends, nil
}

// GetConversionFunnel воронка shares -> clicks -> conversions.
// Процент каждой ступени считается от предыдущей, drop rate — доля
// потерянного на переходе; все отношения равны 0 при нулевом знаменателе
func (s *analyticsService) GetConversionFunnel(ctx context.Context, userID string, dateRange *models.DateRange) (*models.ConversionFunnel, error) {
	stats, err := s.analyticsRepo.GetShareCounts(ctx, userID, dateRange)
	if err != nil {
		return nil, err
	}

	shares := stats.TotalShareEvents
	clicks := stats.TotalClicks
	conversions := stats.TotalConversions

	sharesPct := 0.0
	if shares > 0 {
		sharesPct = 100
	}

	funnel := []models.FunnelStage{
		{
			Stage:      "shares",
			Label:      "Shares",
			Count:      shares,
			Percentage: sharesPct,
			DropRate:   0,
		},
		{
			Stage:      "clicks",
			Label:      "Clicks",
			Count:      clicks,
			Percentage: ratio(clicks, shares),
			DropRate:   ratio(shares-clicks, shares),
		},
		{
			Stage:      "conversions",
			Label:      "Conversions",
			Count:      conversions,
			Percentage: ratio(conversions, clicks),
			DropRate:   ratio(clicks-conversions, clicks),
		},
	}

	return &models.ConversionFunnel{
		Funnel:              funnel,
		TotalConversionRate: ratio(conversions, shares),
	}, nil
}

// CalculateViralCoefficient K-фактор пользователя = принятые/отправленные
// приглашения, точное частное без округления; результат сохраняется как
// снапшот за период all_time (пересчёт заменяет предыдущий)
func (s *analyticsService) CalculateViralCoefficient(ctx context.Context, userID string) (*models.ViralCoefficient, error) {
	sent, accepted, err := s.inviteRepo.CountInvites(ctx, userID)
	if err != nil {
		return nil, err
	}

	kFactor := 0.0
	if sent > 0 {
		kFactor = float64(accepted) / float64(sent)
	}

	coef := &models.ViralCoefficient{
		UserID:          userID,
		Period:          allTimePeriod,
		InvitesSent:     sent,
		InvitesAccepted: accepted,
		KFactor:         kFactor,
	}

	if err := s.inviteRepo.UpsertCoefficient(ctx, coef); err != nil {
		return nil, err
	}

	return coef, nil
}

// GetLeaderboard рейтинг по суммарным конверсиям.
// Пока поддерживается только период all_time
func (s *analyticsService) GetLeaderboard(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 || limit > 500 {
		limit = defaultLeaderboard
	}

	return s.analyticsRepo.GetLeaderboard(ctx, limit)
}

// GetViralTree обходит граф приглашений в ширину от корневого пользователя.
// Глубина ограничена maxDepth — единственная гарантия завершения при
// циклах в данных; узел не посещается повторно ради продления бюджета
// глубины, но пользователь, приглашённый двумя разными путями, появляется
// по разу на каждое ребро
func (s *analyticsService) GetViralTree(ctx context.Context, rootUserID string, maxDepth int) ([]models.ViralTreeNode, error) {
	if maxDepth < 1 {
		maxDepth = defaultTreeDepth
	}
	if maxDepth > maxTreeDepth {
		maxDepth = maxTreeDepth
	}

	var tree []models.ViralTreeNode
	frontier := []string{rootUserID}

	for generation := 1; generation <= maxDepth && len(frontier) > 0; generation++ {
		edges, err := s.inviteRepo.Children(ctx, frontier)
		if err != nil {
			return nil, err
		}

		// Следующий фронт: уникальные приглашённые этого поколения
		seen := make(map[string]bool, len(edges))
		frontier = frontier[:0]
		for _, edge := range edges {
			edge.Generation = generation
			tree = append(tree, edge)
			if !seen[edge.ChildUserID] {
				seen[edge.ChildUserID] = true
				frontier = append(frontier, edge.ChildUserID)
			}
		}
	}

	return tree, nil
}

// GetABTestResults сравнение вариантов A/B теста по записанным на ссылках
// счётчикам; conversion rate = конверсии/клики
func (s *analyticsService) GetABTestResults(ctx context.Context, testID int64) ([]models.ABTestVariant, error) {
	counts, err := s.analyticsRepo.GetABTestCounts(ctx, testID)
	if err != nil {
		return nil, err
	}

	variants := make([]models.ABTestVariant, 0, len(counts))
	for _, c := range counts {
		variants = append(variants, models.ABTestVariant{
			Variant:          c.Variant,
			ShareLinks:       c.ShareLinks,
			TotalShares:      c.TotalShares,
			TotalClicks:      c.TotalClicks,
			TotalConversions: c.TotalConversions,
			ConversionRate:   ratio(c.TotalConversions, c.TotalClicks),
		})
	}

	return variants, nil
}

// GetAllShareLinks фильтруемый листинг ссылок для админки
func (s *analyticsService) GetAllShareLinks(ctx context.Context, filters models.ShareLinkFilters) ([]models.AdminShareLink, *models.Pagination, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	links, total, err := s.linkRepo.List(ctx, filters)
	if err != nil {
		return nil, nil, err
	}

	return links, newPagination(filters.Page, filters.Limit, total), nil
}

// ratio процентное отношение num/den, округлённое до 2 знаков;
// 0 при нулевом знаменателе (никогда не NaN)
func ratio(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return round2(float64(num) / float64(den) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
