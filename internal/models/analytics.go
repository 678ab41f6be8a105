package models

import (
	"time"
)

// ShareStats сводная статистика по ссылкам в выборке
type ShareStats struct {
	TotalShares      int64   `json:"total_shares"`
	TotalShareEvents int64   `json:"total_share_events"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions int64   `json:"total_conversions"`
	ConversionRate   float64 `json:"conversion_rate"`
}

// DateRange диапазон дат для аналитических запросов (включительно)
type DateRange struct {
	Start time.Time
	End   time.Time
}

type ChannelStat struct {
	Platform      string `json:"platform"`
	ShareCount    int64  `json:"share_count"`
	UniqueSharers int64  `json:"unique_sharers"`
}

type GeoStat struct {
	Country        string   `json:"country"`
	City           *string  `json:"city,omitempty"`
	ClickCount     int64    `json:"click_count"`
	UniqueVisitors int64    `json:"unique_visitors"`
	AvgLat         *float64 `json:"avg_lat,omitempty"`
	AvgLng         *float64 `json:"avg_lng,omitempty"`
}

// DistributionItem элемент распределения по одному измерению
type DistributionItem struct {
	Value      string  `json:"value"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DeviceDistribution struct {
	Devices  []DistributionItem `json:"devices"`
	Browsers []DistributionItem `json:"browsers"`
	OS       []DistributionItem `json:"os"`
}

// TimeTrend активность за один календарный день
type TimeTrend struct {
	Date        string `json:"date"`
	Shares      int64  `json:"shares"`
	Clicks      int64  `json:"clicks"`
	Conversions int64  `json:"conversions"`
}

type FunnelStage struct {
	Stage      string  `json:"stage"`
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
	DropRate   float64 `json:"drop_rate"`
}

type ConversionFunnel struct {
	Funnel              []FunnelStage `json:"funnel"`
	TotalConversionRate float64       `json:"total_conversion_rate"`
}

type LeaderboardEntry struct {
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	TotalShares      int64  `json:"total_shares"`
	TotalClicks      int64  `json:"total_clicks"`
	TotalConversions int64  `json:"total_conversions"`
	Rank             int64  `json:"rank"`
}

// ViralTreeNode ребро дерева приглашений на глубине Generation от корня
type ViralTreeNode struct {
	UserID        string     `json:"user_id"`
	ChildUserID   string     `json:"child_user_id"`
	ChildUsername string     `json:"child_username"`
	Generation    int        `json:"generation"`
	RegisteredAt  *time.Time `json:"registered_at,omitempty"`
}

type ABTestVariant struct {
	Variant          string  `json:"variant"`
	ShareLinks       int64   `json:"share_links"`
	TotalShares      int64   `json:"total_shares"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions int64   `json:"total_conversions"`
	ConversionRate   float64 `json:"conversion_rate"`
}

// ShareInfo публичные поля ссылки для превью при шаринге
type ShareInfo struct {
	ShareCode   string  `json:"share_code"`
	ShareType   string  `json:"share_type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	SharerName  *string `json:"sharer_name,omitempty"`
}
