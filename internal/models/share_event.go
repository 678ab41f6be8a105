package models

import (
	"time"
)

// ShareEvent факт шаринга контента на внешнюю платформу. Append-only.
type ShareEvent struct {
	ID           int64     `json:"id"`
	ShareLinkID  int64     `json:"share_link_id"`
	UserID       string    `json:"user_id"`
	Platform     string    `json:"platform"`
	ShareChannel *string   `json:"share_channel,omitempty"`
	DeviceType   *string   `json:"device_type,omitempty"`
	Browser      *string   `json:"browser,omitempty"`
	OS           *string   `json:"os,omitempty"`
	Country      *string   `json:"country,omitempty"`
	City         *string   `json:"city,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RecordShareEventInput struct {
	ShareLinkID  int64
	UserID       string
	Platform     string
	ShareChannel *string
	DeviceType   *string
	Browser      *string
	OS           *string
	Country      *string
	City         *string
	IPAddress    *string
}
