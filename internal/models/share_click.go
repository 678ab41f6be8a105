package models

import (
	"time"
)

// ShareClick переход по шаринг-ссылке (анонимный или авторизованный). Append-only.
type ShareClick struct {
	ID               int64     `json:"id"`
	ShareLinkID      int64     `json:"share_link_id"`
	ShareCode        string    `json:"share_code"`
	VisitorID        *string   `json:"visitor_id,omitempty"`
	UserID           *string   `json:"user_id,omitempty"`
	IsNewUser        bool      `json:"is_new_user"`
	Referrer         *string   `json:"referrer,omitempty"`
	UTMSource        *string   `json:"utm_source,omitempty"`
	UTMMedium        *string   `json:"utm_medium,omitempty"`
	UTMCampaign      *string   `json:"utm_campaign,omitempty"`
	DeviceType       *string   `json:"device_type,omitempty"`
	Browser          *string   `json:"browser,omitempty"`
	OS               *string   `json:"os,omitempty"`
	ScreenResolution *string   `json:"screen_resolution,omitempty"`
	Country          *string   `json:"country,omitempty"`
	City             *string   `json:"city,omitempty"`
	IPAddress        *string   `json:"ip_address,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	SessionID        *string   `json:"session_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// RecordClickInput контекст посетителя, передаваемый публичным эндпоинтом.
// IsNewUser заполняется вызывающей стороной и не перепроверяется ядром.
type RecordClickInput struct {
	ShareCode        string
	VisitorID        *string
	UserID           *string
	IsNewUser        *bool
	Referrer         *string
	UTMSource        *string
	UTMMedium        *string
	UTMCampaign      *string
	DeviceType       *string
	Browser          *string
	OS               *string
	ScreenResolution *string
	Country          *string
	City             *string
	IPAddress        *string
	Latitude         *float64
	Longitude        *float64
	SessionID        *string
}
