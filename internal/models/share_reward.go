package models

import (
	"time"
)

// Типы наград
const (
	RewardTypePoints = "points"
	RewardTypeCash   = "cash"
	RewardTypeCoupon = "coupon"
	RewardTypeUnlock = "unlock"
)

// Статусы наград
const (
	RewardStatusIssued  = "issued"
	RewardStatusClaimed = "claimed"
	RewardStatusExpired = "expired"
)

// ShareReward награда за успешный реферал. Для points/cash эффект на баланс
// применяется ровно один раз — в момент выдачи, не при получении.
type ShareReward struct {
	ID            int64      `json:"id"`
	ShareLinkID   *int64     `json:"share_link_id,omitempty"`
	ConversionID  *int64     `json:"conversion_id,omitempty"`
	UserID        string     `json:"user_id"`
	RewardType    string     `json:"reward_type"`
	RewardAmount  *float64   `json:"reward_amount,omitempty"`
	CouponID      *int64     `json:"coupon_id,omitempty"`
	CouponCode    *string    `json:"coupon_code,omitempty"`
	UnlockContent *string    `json:"unlock_content,omitempty"`
	SourceType    string     `json:"source_type"`
	SourceID      string     `json:"source_id"`
	Status        string     `json:"status"`
	IssuedAt      time.Time  `json:"issued_at"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type IssueRewardInput struct {
	UserID        string
	RewardType    string
	RewardAmount  *float64
	CouponID      *int64
	CouponCode    *string
	UnlockContent *string
	SourceType    string
	SourceID      string
	ShareLinkID   *int64
	ConversionID  *int64
	ExpiresInDays *int
}

// RewardFilters фильтры для списка наград пользователя
type RewardFilters struct {
	UserID string
	Status string
	Page   int
	Limit  int
}
