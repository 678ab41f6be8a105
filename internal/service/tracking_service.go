package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
	"go.uber.org/zap"
)

// ErrLinkExpired срок действия ссылки истёк: сущность существует,
// но больше не обслуживается (HTTP 410, не 404)
var ErrLinkExpired = errors.New("share link expired")

// ClickResult результат обработки клика по публичной ссылке
type ClickResult struct {
	Click       *models.ShareClick `json:"click"`
	RedirectURL string             `json:"redirect_url"`
	ShareInfo   models.ShareInfo   `json:"share_info"`
}

// TrackingService атрибуция кликов и конверсий к шаринг-ссылкам.
// Публичный путь: без аутентификации, под высокой конкурентной нагрузкой
type TrackingService interface {
	TrackClick(ctx context.Context, input *models.RecordClickInput) (*ClickResult, error)
	RecordConversion(ctx context.Context, input *models.RecordConversionInput) (*models.ShareConversion, error)
	GetShareInfo(ctx context.Context, shareCode string) (*models.ShareInfo, error)
}

type trackingService struct {
	linkRepo       repository.ShareLinkRepository
	clickRepo      repository.ClickRepository
	conversionRepo repository.ConversionRepository
	cacheRepo      repository.CacheRepository
	logger         *zap.Logger
}

// NewTrackingService создаёт новый экземпляр сервиса
func NewTrackingService(
	linkRepo repository.ShareLinkRepository,
	clickRepo repository.ClickRepository,
	conversionRepo repository.ConversionRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
) TrackingService {
	return &trackingService{
		linkRepo:       linkRepo,
		clickRepo:      clickRepo,
		conversionRepo: conversionRepo,
		cacheRepo:      cacheRepo,
		logger:         logger,
	}
}

// TrackClick записывает клик по share-коду и возвращает цель редиректа.
// Просроченная ссылка отклоняется до записи клика
func (s *trackingService) TrackClick(ctx context.Context, input *models.RecordClickInput) (*ClickResult, error) {
	link, err := s.resolveLink(ctx, input.ShareCode)
	if err != nil {
		return nil, err
	}

	if link.IsExpired(time.Now()) {
		return nil, ErrLinkExpired
	}

	isNewUser := true
	if input.IsNewUser != nil {
		isNewUser = *input.IsNewUser
	}

	click := &models.ShareClick{
		ShareLinkID:      link.ID,
		ShareCode:        link.ShareCode,
		VisitorID:        input.VisitorID,
		UserID:           input.UserID,
		IsNewUser:        isNewUser,
		Referrer:         input.Referrer,
		UTMSource:        input.UTMSource,
		UTMMedium:        input.UTMMedium,
		UTMCampaign:      input.UTMCampaign,
		DeviceType:       input.DeviceType,
		Browser:          input.Browser,
		OS:               input.OS,
		ScreenResolution: input.ScreenResolution,
		Country:          input.Country,
		City:             input.City,
		IPAddress:        input.IPAddress,
		Latitude:         input.Latitude,
		Longitude:        input.Longitude,
		SessionID:        input.SessionID,
	}

	if err := s.clickRepo.Record(ctx, click); err != nil {
		return nil, err
	}

	return &ClickResult{
		Click:       click,
		RedirectURL: redirectTarget(link),
		ShareInfo: models.ShareInfo{
			ShareCode:   link.ShareCode,
			ShareType:   link.ShareType,
			Title:       link.Title,
			Description: link.Description,
			ImageURL:    link.ImageURL,
		},
	}, nil
}

// RecordConversion записывает конверсию, атрибутированную share-коду
func (s *trackingService) RecordConversion(ctx context.Context, input *models.RecordConversionInput) (*models.ShareConversion, error) {
	link, err := s.resolveLink(ctx, input.ShareCode)
	if err != nil {
		return nil, err
	}

	path := input.ConversionPath
	if len(path) == 0 {
		path = json.RawMessage("{}")
	}

	conversion := &models.ShareConversion{
		ShareLinkID:      link.ID,
		ShareCode:        link.ShareCode,
		ClickID:          input.ClickID,
		ConvertedUserID:  input.ConvertedUserID,
		SharerUserID:     input.SharerUserID,
		ConversionType:   input.ConversionType,
		ConversionValue:  input.ConversionValue,
		OrderID:          input.OrderID,
		ConversionPath:   path,
		TimeToConversion: input.TimeToConversion,
	}

	if err := s.conversionRepo.Record(ctx, conversion); err != nil {
		return nil, err
	}

	return conversion, nil
}

// GetShareInfo возвращает публичные поля ссылки для превью
func (s *trackingService) GetShareInfo(ctx context.Context, shareCode string) (*models.ShareInfo, error) {
	return s.linkRepo.GetInfo(ctx, shareCode)
}

// resolveLink получает ссылку по коду (сначала из кэша, затем из БД)
func (s *trackingService) resolveLink(ctx context.Context, shareCode string) (*models.ShareLink, error) {
	link, err := s.cacheRepo.Get(ctx, shareCode)
	if err == nil {
		return link, nil
	}

	link, err = s.linkRepo.GetByCode(ctx, shareCode)
	if err != nil {
		return nil, err
	}

	ttl := defaultCacheTTL
	if link.ExpiresAt != nil {
		ttl = time.Until(*link.ExpiresAt)
	}
	if ttl > 0 {
		if err := s.cacheRepo.Set(ctx, shareCode, link, ttl); err != nil {
			s.logger.Debug("Не удалось закэшировать ссылку", zap.String("share_code", shareCode), zap.Error(err))
		}
	}

	return link, nil
}

// redirectTarget строит путь редиректа по типу шаринга
func redirectTarget(link *models.ShareLink) string {
	contentID := ""
	if link.ContentID != nil {
		contentID = *link.ContentID
	}

	switch link.ShareType {
	case models.ShareTypeResult:
		return fmt.Sprintf("/result/%s?ref=%s", contentID, link.ShareCode)
	case models.ShareTypeInvite:
		return fmt.Sprintf("/register?invite=%s", link.ShareCode)
	case models.ShareTypeCoupon:
		return fmt.Sprintf("/coupon/%s?ref=%s", contentID, link.ShareCode)
	case models.ShareTypeService:
		return fmt.Sprintf("/service/%s?ref=%s", contentID, link.ShareCode)
	default:
		return "/"
	}
}
