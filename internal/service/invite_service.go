package service

import (
	"context"
	"errors"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
)

var ErrMissingInviteCode = errors.New("invite code is required")

// InviteService ведение графа приглашений. Вызывается флоу регистрации,
// живущим вне этого сервиса
type InviteService interface {
	CreateInviteRecord(ctx context.Context, inviterUserID, inviteCode string, shareLinkID *int64) (*models.InviteRecord, error)
	CompleteRegistration(ctx context.Context, inviteCode, inviteeUserID string) (*models.InviteRecord, error)
}

type inviteService struct {
	inviteRepo repository.InviteRepository
}

// NewInviteService создаёт новый экземпляр сервиса
func NewInviteService(inviteRepo repository.InviteRepository) InviteService {
	return &inviteService{inviteRepo: inviteRepo}
}

// CreateInviteRecord создаёт ожидающее приглашение inviter -> ?
func (s *inviteService) CreateInviteRecord(ctx context.Context, inviterUserID, inviteCode string, shareLinkID *int64) (*models.InviteRecord, error) {
	if inviteCode == "" {
		return nil, ErrMissingInviteCode
	}

	record := &models.InviteRecord{
		InviteCode:    inviteCode,
		InviterUserID: inviterUserID,
		ShareLinkID:   shareLinkID,
	}

	if err := s.inviteRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// CompleteRegistration замыкает ребро графа: приглашённый зарегистрировался.
// Операция идемпотентна с точки зрения вызывающего: повторный вызов
// перезаписывает отметку времени, но ошибкой не является
func (s *inviteService) CompleteRegistration(ctx context.Context, inviteCode, inviteeUserID string) (*models.InviteRecord, error) {
	return s.inviteRepo.CompleteRegistration(ctx, inviteCode, inviteeUserID)
}
