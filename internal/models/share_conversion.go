package models

import (
	"encoding/json"
	"time"
)

// ShareConversion бизнес-результат (регистрация, покупка и т.п.),
// атрибутированный шаринг-ссылке. Append-only.
type ShareConversion struct {
	ID               int64           `json:"id"`
	ShareLinkID      int64           `json:"share_link_id"`
	ShareCode        string          `json:"share_code"`
	ClickID          *int64          `json:"click_id,omitempty"`
	ConvertedUserID  string          `json:"converted_user_id"`
	SharerUserID     string          `json:"sharer_user_id"`
	ConversionType   string          `json:"conversion_type"`
	ConversionValue  *float64        `json:"conversion_value,omitempty"`
	OrderID          *string         `json:"order_id,omitempty"`
	ConversionPath   json.RawMessage `json:"conversion_path"`
	TimeToConversion *int64          `json:"time_to_conversion,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type RecordConversionInput struct {
	ShareCode        string
	ClickID          *int64
	ConvertedUserID  string
	SharerUserID     string
	ConversionType   string
	ConversionValue  *float64
	OrderID          *string
	ConversionPath   json.RawMessage
	TimeToConversion *int64
}
