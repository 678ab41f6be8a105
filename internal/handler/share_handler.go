package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/share-engine/internal/middleware"
	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
	"github.com/SergeiKhy/share-engine/internal/service"
)

type ShareHandler struct {
	shareService     service.ShareService
	rewardService    service.RewardService
	analyticsService service.AnalyticsService
	logger           *zap.Logger
}

func NewShareHandler(
	shareService service.ShareService,
	rewardService service.RewardService,
	analyticsService service.AnalyticsService,
	logger *zap.Logger,
) *ShareHandler {
	return &ShareHandler{
		shareService:     shareService,
		rewardService:    rewardService,
		analyticsService: analyticsService,
		logger:           logger,
	}
}

type CreateShareRequest struct {
	ShareType     string          `json:"shareType" binding:"required"`
	ContentID     *string         `json:"contentId,omitempty"`
	ContentType   *string         `json:"contentType,omitempty"`
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	ABTestID      *int64          `json:"abTestId,omitempty"`
	Variant       *string         `json:"variant,omitempty"`
	ExpiresInDays *int            `json:"expiresInDays,omitempty"`
}

type RecordShareEventRequest struct {
	ShareLinkID  int64   `json:"shareLinkId" binding:"required"`
	Platform     string  `json:"platform" binding:"required"`
	ShareChannel *string `json:"shareChannel,omitempty"`
	DeviceType   *string `json:"deviceType,omitempty"`
	Browser      *string `json:"browser,omitempty"`
	OS           *string `json:"os,omitempty"`
	Country      *string `json:"country,omitempty"`
	City         *string `json:"city,omitempty"`
}

// CreateShareLink godoc
// @Summary Create a share link
// @Description Create a new share link with a unique share code
// @Tags share
// @Accept json
// @Produce json
// @Param request body CreateShareRequest true "Share link creation request"
// @Success 201 {object} Response
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/share/create [post]
func (h *ShareHandler) CreateShareLink(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	link, err := h.shareService.CreateShareLink(c.Request.Context(), &models.CreateShareLinkInput{
		UserID:        userID,
		ShareType:     req.ShareType,
		ContentID:     req.ContentID,
		ContentType:   req.ContentType,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Metadata:      req.Metadata,
		ABTestID:      req.ABTestID,
		Variant:       req.Variant,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidShareType) {
			respondError(c, http.StatusBadRequest, "invalid share type")
			return
		}
		h.logger.Error("Failed to create share link", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to create share link")
		return
	}

	respondOK(c, http.StatusCreated, link)
}

// RecordShareEvent godoc
// @Summary Record a share event
// @Description Record the fact of sharing an existing link on a platform
// @Tags share
// @Accept json
// @Produce json
// @Param request body RecordShareEventRequest true "Share event"
// @Success 201 {object} Response
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/share/event [post]
func (h *ShareHandler) RecordShareEvent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req RecordShareEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ip := c.ClientIP()
	event, err := h.shareService.RecordShareEvent(c.Request.Context(), &models.RecordShareEventInput{
		ShareLinkID:  req.ShareLinkID,
		UserID:       userID,
		Platform:     req.Platform,
		ShareChannel: req.ShareChannel,
		DeviceType:   req.DeviceType,
		Browser:      req.Browser,
		OS:           req.OS,
		Country:      req.Country,
		City:         req.City,
		IPAddress:    &ip,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingPlatform):
			respondError(c, http.StatusBadRequest, "platform is required")
		case errors.Is(err, repository.ErrShareLinkNotFound):
			respondError(c, http.StatusNotFound, "share link not found")
		default:
			h.logger.Error("Failed to record share event", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to record share event")
		}
		return
	}

	respondOK(c, http.StatusCreated, event)
}

// GetMyLinks godoc
// @Summary List caller's share links
// @Description Paginated list of the authenticated user's share links
// @Tags share
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param shareType query string false "Filter by share type"
// @Success 200 {object} PagedResponse
// @Router /api/share/my-links [get]
func (h *ShareHandler) GetMyLinks(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	shareType := c.Query("shareType")

	links, pagination, err := h.shareService.GetMyLinks(c.Request.Context(), userID, shareType, page, limit)
	if err != nil {
		h.logger.Error("Failed to list share links", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list share links")
		return
	}

	respondPage(c, links, pagination)
}

// GetMyStats godoc
// @Summary Caller-scoped share statistics
// @Description Aggregated stats and channel distribution for the authenticated user
// @Tags share
// @Produce json
// @Success 200 {object} Response
// @Router /api/share/stats [get]
func (h *ShareHandler) GetMyStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx := c.Request.Context()

	stats, err := h.analyticsService.GetShareStats(ctx, userID, nil)
	if err != nil {
		h.logger.Error("Failed to get share stats", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get share stats")
		return
	}

	channels, err := h.analyticsService.GetChannelDistribution(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get channel distribution", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get share stats")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"stats":    stats,
		"channels": channels,
	})
}

// GetLeaderboard godoc
// @Summary Sharer leaderboard
// @Description Top sharers ranked by total conversions
// @Tags share
// @Produce json
// @Param period query string false "Period" default(all_time)
// @Param limit query int false "Max entries" default(100)
// @Success 200 {object} Response
// @Router /api/share/leaderboard [get]
func (h *ShareHandler) GetLeaderboard(c *gin.Context) {
	period := c.DefaultQuery("period", "all_time")
	limit := queryInt(c, "limit", 100)

	entries, err := h.analyticsService.GetLeaderboard(c.Request.Context(), period, limit)
	if err != nil {
		h.logger.Error("Failed to get leaderboard", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get leaderboard")
		return
	}

	respondOK(c, http.StatusOK, entries)
}

// GetMyRewards godoc
// @Summary List caller's rewards
// @Description Paginated list of the authenticated user's rewards
// @Tags share
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} PagedResponse
// @Router /api/share/rewards [get]
func (h *ShareHandler) GetMyRewards(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rewards, pagination, err := h.rewardService.ListRewards(c.Request.Context(), models.RewardFilters{
		UserID: userID,
		Status: c.Query("status"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 20),
	})
	if err != nil {
		h.logger.Error("Failed to list rewards", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list rewards")
		return
	}

	respondPage(c, rewards, pagination)
}

// ClaimReward godoc
// @Summary Claim a reward
// @Description Transition an issued reward to claimed
// @Tags share
// @Produce json
// @Param id path int true "Reward ID"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/share/rewards/{id}/claim [post]
func (h *ShareHandler) ClaimReward(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rewardID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid reward id")
		return
	}

	reward, err := h.rewardService.ClaimReward(c.Request.Context(), rewardID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRewardNotFound):
			respondError(c, http.StatusNotFound, "reward not found")
		case errors.Is(err, service.ErrRewardNotClaimable):
			respondError(c, http.StatusBadRequest, "reward is not claimable")
		case errors.Is(err, service.ErrRewardExpired):
			respondError(c, http.StatusBadRequest, "reward expired")
		default:
			h.logger.Error("Failed to claim reward", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to claim reward")
		}
		return
	}

	respondOK(c, http.StatusOK, reward)
}

// queryInt парсит целочисленный query параметр, при ошибке возвращает def
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
