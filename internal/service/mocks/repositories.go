package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
)

// MockShareLinkRepository implements repository.ShareLinkRepository for testing
type MockShareLinkRepository struct {
	mu     sync.RWMutex
	byCode map[string]*models.ShareLink
	byID   map[int64]*models.ShareLink
	users  map[string]string // user_id -> username
	nextID int64
}

func NewMockShareLinkRepository() *MockShareLinkRepository {
	return &MockShareLinkRepository{
		byCode: make(map[string]*models.ShareLink),
		byID:   make(map[int64]*models.ShareLink),
		users:  make(map[string]string),
		nextID: 1,
	}
}

func (m *MockShareLinkRepository) Create(ctx context.Context, link *models.ShareLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCode[link.ShareCode]; exists {
		return repository.ErrShareCodeExists
	}

	link.ID = m.nextID
	m.nextID++
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	m.byCode[link.ShareCode] = link
	m.byID[link.ID] = link
	return nil
}

func (m *MockShareLinkRepository) GetByCode(ctx context.Context, shareCode string) (*models.ShareLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.byCode[shareCode]
	if !exists {
		return nil, repository.ErrShareLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (m *MockShareLinkRepository) GetInfo(ctx context.Context, shareCode string) (*models.ShareInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.byCode[shareCode]
	if !exists || link.Status != models.ShareLinkStatusActive {
		return nil, repository.ErrShareLinkNotFound
	}

	info := &models.ShareInfo{
		ShareCode:   link.ShareCode,
		ShareType:   link.ShareType,
		Title:       link.Title,
		Description: link.Description,
		ImageURL:    link.ImageURL,
	}
	if name, ok := m.users[link.UserID]; ok {
		info.SharerName = &name
	}
	return info, nil
}

func (m *MockShareLinkRepository) ListByUser(ctx context.Context, userID, shareType string, page, limit int) ([]models.ShareLink, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []models.ShareLink
	for _, link := range m.byID {
		if link.UserID != userID {
			continue
		}
		if shareType != "" && link.ShareType != shareType {
			continue
		}
		all = append(all, *link)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	return paginate(all, page, limit), int64(len(all)), nil
}

func (m *MockShareLinkRepository) List(ctx context.Context, filters models.ShareLinkFilters) ([]models.AdminShareLink, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []models.AdminShareLink
	for _, link := range m.byID {
		if filters.UserID != "" && link.UserID != filters.UserID {
			continue
		}
		if filters.ShareType != "" && link.ShareType != filters.ShareType {
			continue
		}
		if filters.Status != "" && link.Status != filters.Status {
			continue
		}
		all = append(all, models.AdminShareLink{
			ShareLink:      *link,
			SharerUsername: m.users[link.UserID],
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	return paginate(all, filters.Page, filters.Limit), int64(len(all)), nil
}

// AddUser регистрирует имя пользователя для GetInfo и админского листинга
func (m *MockShareLinkRepository) AddUser(userID, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = username
}

// getByID используется моками событий/кликов/конверсий для инкремента счётчиков
func (m *MockShareLinkRepository) getByID(id int64) (*models.ShareLink, bool) {
	link, exists := m.byID[id]
	return link, exists
}

func (m *MockShareLinkRepository) getByCode(code string) (*models.ShareLink, bool) {
	link, exists := m.byCode[code]
	return link, exists
}

func (m *MockShareLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byCode = make(map[string]*models.ShareLink)
	m.byID = make(map[int64]*models.ShareLink)
	m.users = make(map[string]string)
	m.nextID = 1
}

func paginate[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(all) {
		return nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// MockShareEventRepository implements repository.ShareEventRepository for testing.
// Как и настоящий репозиторий, инкрементирует share_count родительской ссылки
type MockShareEventRepository struct {
	mu     sync.Mutex
	links  *MockShareLinkRepository
	Events []*models.ShareEvent
	nextID int64
}

func NewMockShareEventRepository(links *MockShareLinkRepository) *MockShareEventRepository {
	return &MockShareEventRepository{links: links, nextID: 1}
}

func (m *MockShareEventRepository) Record(ctx context.Context, event *models.ShareEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links.mu.Lock()
	defer m.links.mu.Unlock()

	link, exists := m.links.getByID(event.ShareLinkID)
	if !exists {
		return repository.ErrShareLinkNotFound
	}

	event.ID = m.nextID
	m.nextID++
	event.CreatedAt = time.Now()
	link.ShareCount++
	m.Events = append(m.Events, event)
	return nil
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.Mutex
	links  *MockShareLinkRepository
	Clicks []*models.ShareClick
	nextID int64
}

func NewMockClickRepository(links *MockShareLinkRepository) *MockClickRepository {
	return &MockClickRepository{links: links, nextID: 1}
}

func (m *MockClickRepository) Record(ctx context.Context, click *models.ShareClick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links.mu.Lock()
	defer m.links.mu.Unlock()

	link, exists := m.links.getByID(click.ShareLinkID)
	if !exists {
		return repository.ErrShareLinkNotFound
	}

	click.ID = m.nextID
	m.nextID++
	click.CreatedAt = time.Now()
	link.ClickCount++
	m.Clicks = append(m.Clicks, click)
	return nil
}

// MockConversionRepository implements repository.ConversionRepository for testing
type MockConversionRepository struct {
	mu          sync.Mutex
	links       *MockShareLinkRepository
	Conversions []*models.ShareConversion
	nextID      int64
}

func NewMockConversionRepository(links *MockShareLinkRepository) *MockConversionRepository {
	return &MockConversionRepository{links: links, nextID: 1}
}

func (m *MockConversionRepository) Record(ctx context.Context, conversion *models.ShareConversion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links.mu.Lock()
	defer m.links.mu.Unlock()

	link, exists := m.links.getByID(conversion.ShareLinkID)
	if !exists {
		return repository.ErrShareLinkNotFound
	}

	conversion.ID = m.nextID
	m.nextID++
	conversion.CreatedAt = time.Now()
	link.ConversionCount++
	m.Conversions = append(m.Conversions, conversion)
	return nil
}

var errCacheMiss = errors.New("cache miss")

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.ShareLink
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.ShareLink),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, shareCode string) (*models.ShareLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[shareCode]
	if !exists {
		return nil, errCacheMiss
	}
	cp := *link
	return &cp, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, shareCode string, link *models.ShareLink, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[shareCode] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, shareCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, shareCode)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.ShareLink)
}

// UserAccount баланс и баллы получателя наград
type UserAccount struct {
	Points  float64
	Balance float64
}

// MockRewardRepository implements repository.RewardRepository for testing.
// Воспроизводит эффект выдачи на баланс получателя
type MockRewardRepository struct {
	mu       sync.Mutex
	rewards  map[int64]*models.ShareReward
	Accounts map[string]*UserAccount
	nextID   int64
}

func NewMockRewardRepository() *MockRewardRepository {
	return &MockRewardRepository{
		rewards:  make(map[int64]*models.ShareReward),
		Accounts: make(map[string]*UserAccount),
		nextID:   1,
	}
}

func (m *MockRewardRepository) Issue(ctx context.Context, reward *models.ShareReward) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reward.ID = m.nextID
	m.nextID++
	reward.Status = models.RewardStatusIssued
	reward.IssuedAt = time.Now()
	reward.CreatedAt = reward.IssuedAt

	if reward.RewardAmount != nil && *reward.RewardAmount > 0 {
		acc := m.account(reward.UserID)
		switch reward.RewardType {
		case models.RewardTypePoints:
			acc.Points += *reward.RewardAmount
		case models.RewardTypeCash:
			acc.Balance += *reward.RewardAmount
		}
	}

	cp := *reward
	m.rewards[reward.ID] = &cp
	return nil
}

func (m *MockRewardRepository) GetByIDAndUser(ctx context.Context, id int64, userID string) (*models.ShareReward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reward, exists := m.rewards[id]
	if !exists || reward.UserID != userID {
		return nil, repository.ErrRewardNotFound
	}
	cp := *reward
	return &cp, nil
}

func (m *MockRewardRepository) ListByUser(ctx context.Context, filters models.RewardFilters) ([]models.ShareReward, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []models.ShareReward
	for _, reward := range m.rewards {
		if reward.UserID != filters.UserID {
			continue
		}
		if filters.Status != "" && reward.Status != filters.Status {
			continue
		}
		all = append(all, *reward)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	return paginate(all, filters.Page, filters.Limit), int64(len(all)), nil
}

func (m *MockRewardRepository) MarkClaimed(ctx context.Context, id int64) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reward, exists := m.rewards[id]
	if !exists {
		return time.Time{}, repository.ErrRewardNotFound
	}
	if reward.Status != models.RewardStatusIssued {
		return time.Time{}, repository.ErrRewardNotIssued
	}

	now := time.Now()
	reward.Status = models.RewardStatusClaimed
	reward.ClaimedAt = &now
	return now, nil
}

func (m *MockRewardRepository) MarkExpired(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reward, exists := m.rewards[id]
	if !exists {
		return repository.ErrRewardNotFound
	}
	reward.Status = models.RewardStatusExpired
	return nil
}

// SetExpiry выставляет срок действия награды задним числом (для тестов)
func (m *MockRewardRepository) SetExpiry(id int64, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if reward, ok := m.rewards[id]; ok {
		reward.ExpiresAt = &expiresAt
	}
}

// Account возвращает аккаунт получателя, создавая его при необходимости
func (m *MockRewardRepository) Account(userID string) *UserAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account(userID)
}

func (m *MockRewardRepository) account(userID string) *UserAccount {
	acc, exists := m.Accounts[userID]
	if !exists {
		acc = &UserAccount{}
		m.Accounts[userID] = acc
	}
	return acc
}

// MockInviteRepository implements repository.InviteRepository for testing
type MockInviteRepository struct {
	mu           sync.Mutex
	records      map[string]*models.InviteRecord // invite_code -> record
	Coefficients map[string]*models.ViralCoefficient
	usernames    map[string]string
	nextID       int64
}

func NewMockInviteRepository() *MockInviteRepository {
	return &MockInviteRepository{
		records:      make(map[string]*models.InviteRecord),
		Coefficients: make(map[string]*models.ViralCoefficient),
		usernames:    make(map[string]string),
		nextID:       1,
	}
}

func (m *MockInviteRepository) Create(ctx context.Context, record *models.InviteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.ID = m.nextID
	m.nextID++
	record.Status = models.InviteStatusPending
	record.CreatedAt = time.Now()

	m.records[record.InviteCode] = record
	return nil
}

func (m *MockInviteRepository) CompleteRegistration(ctx context.Context, inviteCode, inviteeUserID string) (*models.InviteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.records[inviteCode]
	if !exists {
		return nil, repository.ErrInviteNotFound
	}

	now := time.Now()
	record.InviteeUserID = &inviteeUserID
	record.Status = models.InviteStatusRegistered
	record.RegisteredAt = &now

	cp := *record
	return &cp, nil
}

func (m *MockInviteRepository) CountInvites(ctx context.Context, inviterUserID string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sent, accepted int64
	for _, record := range m.records {
		if record.InviterUserID != inviterUserID {
			continue
		}
		sent++
		if record.Status == models.InviteStatusRegistered || record.Status == models.InviteStatusCompleted {
			accepted++
		}
	}
	return sent, accepted, nil
}

func (m *MockInviteRepository) Children(ctx context.Context, inviterIDs []string) ([]models.ViralTreeNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parents := make(map[string]bool, len(inviterIDs))
	for _, id := range inviterIDs {
		parents[id] = true
	}

	var edges []models.ViralTreeNode
	for _, record := range m.records {
		if !parents[record.InviterUserID] || record.InviteeUserID == nil {
			continue
		}
		if record.Status != models.InviteStatusRegistered && record.Status != models.InviteStatusCompleted {
			continue
		}
		edges = append(edges, models.ViralTreeNode{
			UserID:        record.InviterUserID,
			ChildUserID:   *record.InviteeUserID,
			ChildUsername: m.usernames[*record.InviteeUserID],
			RegisteredAt:  record.RegisteredAt,
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].UserID != edges[j].UserID {
			return edges[i].UserID < edges[j].UserID
		}
		return edges[i].ChildUserID < edges[j].ChildUserID
	})
	return edges, nil
}

func (m *MockInviteRepository) UpsertCoefficient(ctx context.Context, coef *models.ViralCoefficient) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	coef.CalculatedAt = time.Now()
	cp := *coef
	m.Coefficients[coef.UserID+":"+coef.Period] = &cp
	return nil
}

// AddRegisteredInvite удобный сетап: принятое приглашение inviter -> invitee
func (m *MockInviteRepository) AddRegisteredInvite(inviterID, inviteeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	code := "inv-" + inviterID + "-" + inviteeID
	m.records[code] = &models.InviteRecord{
		ID:            m.nextID,
		InviteCode:    code,
		InviterUserID: inviterID,
		InviteeUserID: &inviteeID,
		Status:        models.InviteStatusRegistered,
		RegisteredAt:  &now,
		CreatedAt:     now,
	}
	m.nextID++
}

// MockAnalyticsRepository implements repository.AnalyticsRepository for testing.
// Возвращает заранее заданные агрегаты
type MockAnalyticsRepository struct {
	Stats            *models.ShareStats
	Channels         []models.ChannelStat
	Geo              []models.GeoStat
	DimensionCounts  map[string][]repository.DimensionCount
	TotalClicks      int64
	DailyShares      map[string]int64
	DailyClicks      map[string]int64
	DailyConversions map[string]int64
	Leaderboard      []models.LeaderboardEntry
	ABTests          map[int64][]repository.ABTestCounts
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{
		Stats:            &models.ShareStats{},
		DimensionCounts:  make(map[string][]repository.DimensionCount),
		DailyShares:      make(map[string]int64),
		DailyClicks:      make(map[string]int64),
		DailyConversions: make(map[string]int64),
		ABTests:          make(map[int64][]repository.ABTestCounts),
	}
}

func (m *MockAnalyticsRepository) GetShareCounts(ctx context.Context, userID string, dateRange *models.DateRange) (*models.ShareStats, error) {
	cp := *m.Stats
	return &cp, nil
}

func (m *MockAnalyticsRepository) GetChannelDistribution(ctx context.Context, userID string) ([]models.ChannelStat, error) {
	return m.Channels, nil
}

func (m *MockAnalyticsRepository) GetGeoDistribution(ctx context.Context, userID string) ([]models.GeoStat, error) {
	return m.Geo, nil
}

var validDimensions = map[string]bool{"device_type": true, "browser": true, "os": true}

func (m *MockAnalyticsRepository) GetClickDimensionCounts(ctx context.Context, userID, dimension string) ([]repository.DimensionCount, error) {
	if !validDimensions[dimension] {
		return nil, errors.New("unknown click dimension: " + dimension)
	}
	return m.DimensionCounts[dimension], nil
}

func (m *MockAnalyticsRepository) GetTotalClicks(ctx context.Context, userID string) (int64, error) {
	return m.TotalClicks, nil
}

func (m *MockAnalyticsRepository) GetDailyShareCounts(ctx context.Context, userID string, days int) (map[string]int64, error) {
	return m.DailyShares, nil
}

func (m *MockAnalyticsRepository) GetDailyClickCounts(ctx context.Context, userID string, days int) (map[string]int64, error) {
	return m.DailyClicks, nil
}

func (m *MockAnalyticsRepository) GetDailyConversionCounts(ctx context.Context, userID string, days int) (map[string]int64, error) {
	return m.DailyConversions, nil
}

func (m *MockAnalyticsRepository) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit < len(m.Leaderboard) {
		return m.Leaderboard[:limit], nil
	}
	return m.Leaderboard, nil
}

func (m *MockAnalyticsRepository) GetABTestCounts(ctx context.Context, testID int64) ([]repository.ABTestCounts, error) {
	return m.ABTests[testID], nil
}
