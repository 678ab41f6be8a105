package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
)

// Ошибки наград
var (
	ErrInvalidRewardType  = errors.New("invalid reward type")
	ErrRewardNotClaimable = errors.New("reward is not claimable")
	ErrRewardExpired      = errors.New("reward expired")
)

var validRewardTypes = map[string]bool{
	models.RewardTypePoints: true,
	models.RewardTypeCash:   true,
	models.RewardTypeCoupon: true,
	models.RewardTypeUnlock: true,
}

// RewardService выдача и получение наград за рефералы
type RewardService interface {
	IssueReward(ctx context.Context, input *models.IssueRewardInput) (*models.ShareReward, error)
	ClaimReward(ctx context.Context, rewardID int64, userID string) (*models.ShareReward, error)
	ListRewards(ctx context.Context, filters models.RewardFilters) ([]models.ShareReward, *models.Pagination, error)
}

type rewardService struct {
	rewardRepo repository.RewardRepository
}

// NewRewardService создаёт новый экземпляр сервиса
func NewRewardService(rewardRepo repository.RewardRepository) RewardService {
	return &rewardService{rewardRepo: rewardRepo}
}

// IssueReward выдаёт награду со статусом issued. Для points/cash баланс
// получателя изменяется в момент выдачи, в одной логической операции
// с созданием записи.
//
// Ядро не дедуплицирует награды по (sourceType, sourceId) — идемпотентность
// выдачи обеспечивает вызывающая сторона.
func (s *rewardService) IssueReward(ctx context.Context, input *models.IssueRewardInput) (*models.ShareReward, error) {
	if !validRewardTypes[input.RewardType] {
		return nil, ErrInvalidRewardType
	}

	var expiresAt *time.Time
	if input.ExpiresInDays != nil && *input.ExpiresInDays > 0 {
		t := time.Now().AddDate(0, 0, *input.ExpiresInDays)
		expiresAt = &t
	}

	reward := &models.ShareReward{
		ShareLinkID:   input.ShareLinkID,
		ConversionID:  input.ConversionID,
		UserID:        input.UserID,
		RewardType:    input.RewardType,
		RewardAmount:  input.RewardAmount,
		CouponID:      input.CouponID,
		CouponCode:    input.CouponCode,
		UnlockContent: input.UnlockContent,
		SourceType:    input.SourceType,
		SourceID:      input.SourceID,
		ExpiresAt:     expiresAt,
	}

	if err := s.rewardRepo.Issue(ctx, reward); err != nil {
		return nil, err
	}

	return reward, nil
}

// ClaimReward переводит награду issued -> claimed. Только смена статуса:
// баланс уже изменён при выдаче и повторно не применяется.
// Просроченная награда переводится в expired, и получение отклоняется
func (s *rewardService) ClaimReward(ctx context.Context, rewardID int64, userID string) (*models.ShareReward, error) {
	reward, err := s.rewardRepo.GetByIDAndUser(ctx, rewardID, userID)
	if err != nil {
		return nil, err
	}

	if reward.Status != models.RewardStatusIssued {
		return nil, ErrRewardNotClaimable
	}

	if reward.ExpiresAt != nil && reward.ExpiresAt.Before(time.Now()) {
		if err := s.rewardRepo.MarkExpired(ctx, reward.ID); err != nil {
			return nil, err
		}
		return nil, ErrRewardExpired
	}

	claimedAt, err := s.rewardRepo.MarkClaimed(ctx, reward.ID)
	if err != nil {
		// Статус мог смениться между чтением и переходом
		if errors.Is(err, repository.ErrRewardNotIssued) {
			return nil, ErrRewardNotClaimable
		}
		return nil, err
	}

	reward.Status = models.RewardStatusClaimed
	reward.ClaimedAt = &claimedAt

	return reward, nil
}

// ListRewards возвращает награды пользователя постранично
func (s *rewardService) ListRewards(ctx context.Context, filters models.RewardFilters) ([]models.ShareReward, *models.Pagination, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	rewards, total, err := s.rewardRepo.ListByUser(ctx, filters)
	if err != nil {
		return nil, nil, err
	}

	return rewards, newPagination(filters.Page, filters.Limit, total), nil
}
