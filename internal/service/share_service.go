package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
)

// Ошибки сервиса
var (
	ErrInvalidShareType = errors.New("invalid share type")
	ErrMissingPlatform  = errors.New("platform is required")
)

// Константы сервиса
const (
	shareCodeBytes  = 6 // 6 случайных байт -> 8 символов base64url
	defaultCacheTTL = 24 * time.Hour
	maxCodeRetries  = 3
)

var validShareTypes = map[string]bool{
	models.ShareTypeResult:  true,
	models.ShareTypeInvite:  true,
	models.ShareTypeCoupon:  true,
	models.ShareTypeService: true,
}

// ShareService реестр шаринг-ссылок и журнал событий шаринга
type ShareService interface {
	CreateShareLink(ctx context.Context, input *models.CreateShareLinkInput) (*models.ShareLink, error)
	RecordShareEvent(ctx context.Context, input *models.RecordShareEventInput) (*models.ShareEvent, error)
	GetMyLinks(ctx context.Context, userID, shareType string, page, limit int) ([]models.ShareLink, *models.Pagination, error)
}

type shareService struct {
	linkRepo  repository.ShareLinkRepository
	eventRepo repository.ShareEventRepository
	cacheRepo repository.CacheRepository
	baseURL   string
}

// NewShareService создаёт новый экземпляр сервиса
func NewShareService(
	linkRepo repository.ShareLinkRepository,
	eventRepo repository.ShareEventRepository,
	cacheRepo repository.CacheRepository,
	baseURL string,
) ShareService {
	return &shareService{
		linkRepo:  linkRepo,
		eventRepo: eventRepo,
		cacheRepo: cacheRepo,
		baseURL:   baseURL,
	}
}

// CreateShareLink создаёт новую шаринг-ссылку с уникальным кодом.
// Код криптографически случайный; при коллизии создание повторяется
// с новым кодом
func (s *shareService) CreateShareLink(ctx context.Context, input *models.CreateShareLinkInput) (*models.ShareLink, error) {
	if !validShareTypes[input.ShareType] {
		return nil, ErrInvalidShareType
	}

	// Расчёт времени жизни
	var expiresAt *time.Time
	if input.ExpiresInDays != nil && *input.ExpiresInDays > 0 {
		t := time.Now().AddDate(0, 0, *input.ExpiresInDays)
		expiresAt = &t
	}

	metadata := input.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage("{}")
	}

	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		shareCode, err := generateShareCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate share code: %w", err)
		}

		shareURL := s.buildShareURL(shareCode)

		link := &models.ShareLink{
			ShareCode:   shareCode,
			UserID:      input.UserID,
			ShareType:   input.ShareType,
			ContentID:   input.ContentID,
			ContentType: input.ContentType,
			ShareURL:    shareURL,
			ShortURL:    shareURL,
			Title:       input.Title,
			Description: input.Description,
			ImageURL:    input.ImageURL,
			Metadata:    metadata,
			Status:      models.ShareLinkStatusActive,
			ABTestID:    input.ABTestID,
			Variant:     input.Variant,
			ExpiresAt:   expiresAt,
		}

		if err := s.linkRepo.Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrShareCodeExists) {
				// Retry с новым кодом
				continue
			}
			return nil, err
		}

		// Кэширование; ошибка кэша не прерывает создание
		ttl := defaultCacheTTL
		if expiresAt != nil {
			ttl = time.Until(*expiresAt)
		}
		_ = s.cacheRepo.Set(ctx, link.ShareCode, link, ttl)

		return link, nil
	}

	return nil, repository.ErrShareCodeExists
}

// RecordShareEvent записывает факт шаринга и инкрементирует share_count
func (s *shareService) RecordShareEvent(ctx context.Context, input *models.RecordShareEventInput) (*models.ShareEvent, error) {
	if input.Platform == "" {
		return nil, ErrMissingPlatform
	}

	event := &models.ShareEvent{
		ShareLinkID:  input.ShareLinkID,
		UserID:       input.UserID,
		Platform:     input.Platform,
		ShareChannel: input.ShareChannel,
		DeviceType:   input.DeviceType,
		Browser:      input.Browser,
		OS:           input.OS,
		Country:      input.Country,
		City:         input.City,
		IPAddress:    input.IPAddress,
	}

	if err := s.eventRepo.Record(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// GetMyLinks возвращает ссылки пользователя постранично
func (s *shareService) GetMyLinks(ctx context.Context, userID, shareType string, page, limit int) ([]models.ShareLink, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	links, total, err := s.linkRepo.ListByUser(ctx, userID, shareType, page, limit)
	if err != nil {
		return nil, nil, err
	}

	return links, newPagination(page, limit, total), nil
}

func (s *shareService) buildShareURL(shareCode string) string {
	return s.baseURL + "/s/" + shareCode
}

// generateShareCode генерирует URL-безопасный код из 6 случайных байт
func generateShareCode() (string, error) {
	buf := make([]byte, shareCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func newPagination(page, limit int, total int64) *models.Pagination {
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return &models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
