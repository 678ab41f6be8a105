package models

import (
	"time"
)

// Статусы приглашения
const (
	InviteStatusPending    = "pending"
	InviteStatusRegistered = "registered"
	InviteStatusCompleted  = "completed"
)

// InviteRecord ребро графа приглашений: кто кого пригласил.
// InviteeUserID заполняется один раз — при регистрации приглашённого.
type InviteRecord struct {
	ID            int64      `json:"id"`
	InviteCode    string     `json:"invite_code"`
	InviterUserID string     `json:"inviter_user_id"`
	InviteeUserID *string    `json:"invitee_user_id,omitempty"`
	ShareLinkID   *int64     `json:"share_link_id,omitempty"`
	Status        string     `json:"status"`
	RegisteredAt  *time.Time `json:"registered_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ViralCoefficient снапшот K-факторa пользователя за период.
// Пересчёт заменяет предыдущее значение по ключу (user_id, period).
type ViralCoefficient struct {
	UserID          string    `json:"user_id"`
	Period          string    `json:"period"`
	InvitesSent     int64     `json:"invites_sent"`
	InvitesAccepted int64     `json:"invites_accepted"`
	KFactor         float64   `json:"k_factor"`
	CalculatedAt    time.Time `json:"calculated_at"`
}
