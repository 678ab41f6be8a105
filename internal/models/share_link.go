package models

import (
	"encoding/json"
	"time"
)

// Типы шаринга
const (
	ShareTypeResult  = "result"
	ShareTypeInvite  = "invite"
	ShareTypeCoupon  = "coupon"
	ShareTypeService = "service"
)

// Статусы ссылки
const (
	ShareLinkStatusActive  = "active"
	ShareLinkStatusExpired = "expired"
	ShareLinkStatusRevoked = "revoked"
)

type ShareLink struct {
	ID              int64           `json:"id"`
	ShareCode       string          `json:"share_code"`
	UserID          string          `json:"user_id"`
	ShareType       string          `json:"share_type"`
	ContentID       *string         `json:"content_id,omitempty"`
	ContentType     *string         `json:"content_type,omitempty"`
	ShareURL        string          `json:"share_url"`
	ShortURL        string          `json:"short_url"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"image_url"`
	Metadata        json.RawMessage `json:"metadata"`
	Status          string          `json:"status"`
	ShareCount      int64           `json:"share_count"`
	ClickCount      int64           `json:"click_count"`
	ConversionCount int64           `json:"conversion_count"`
	ABTestID        *int64          `json:"ab_test_id,omitempty"`
	Variant         *string         `json:"variant,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsExpired сообщает, истёк ли срок действия ссылки на момент now
func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

type CreateShareLinkInput struct {
	UserID        string
	ShareType     string
	ContentID     *string
	ContentType   *string
	Title         string
	Description   string
	ImageURL      string
	Metadata      json.RawMessage
	ABTestID      *int64
	Variant       *string
	ExpiresInDays *int
}

// ShareLinkFilters фильтры для админского листинга ссылок
type ShareLinkFilters struct {
	UserID    string
	ShareType string
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Limit     int
}

// AdminShareLink ссылка с минимальными данными владельца для админского листинга
type AdminShareLink struct {
	ShareLink
	SharerUsername string `json:"sharer_username"`
	SharerPhone    string `json:"sharer_phone"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}
