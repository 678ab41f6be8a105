package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/service"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	logger           *zap.Logger
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// GetOverview godoc
// @Summary Share analytics overview
// @Description Aggregated share/click/conversion counts and rates
// @Tags analytics
// @Produce json
// @Param userId query string false "Scope to one sharer"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/overview [get]
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	userID := c.Query("userId")
	dateRange, err := queryDateRange(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date range")
		return
	}

	ctx := c.Request.Context()

	stats, err := h.analyticsService.GetShareStats(ctx, userID, dateRange)
	if err != nil {
		h.logger.Error("Failed to get overview", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get overview")
		return
	}

	channels, err := h.analyticsService.GetChannelDistribution(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get channel distribution", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get overview")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"stats":    stats,
		"channels": channels,
	})
}

// GetConversionFunnel godoc
// @Summary Conversion funnel
// @Description Share -> click -> conversion staged drop-off
// @Tags analytics
// @Produce json
// @Param userId query string false "Scope to one sharer"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/funnel [get]
func (h *AnalyticsHandler) GetConversionFunnel(c *gin.Context) {
	dateRange, err := queryDateRange(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date range")
		return
	}

	funnel, err := h.analyticsService.GetConversionFunnel(c.Request.Context(), c.Query("userId"), dateRange)
	if err != nil {
		h.logger.Error("Failed to get conversion funnel", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get conversion funnel")
		return
	}

	respondOK(c, http.StatusOK, funnel)
}

// GetGeoDistribution godoc
// @Summary Click geography
// @Tags analytics
// @Produce json
// @Param userId query string false "Scope to one sharer"
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/geo [get]
func (h *AnalyticsHandler) GetGeoDistribution(c *gin.Context) {
	stats, err := h.analyticsService.GetGeoDistribution(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.logger.Error("Failed to get geo distribution", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get geo distribution")
		return
	}

	respondOK(c, http.StatusOK, stats)
}

// GetDeviceDistribution godoc
// @Summary Click device/browser/OS distribution
// @Tags analytics
// @Produce json
// @Param userId query string false "Scope to one sharer"
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/devices [get]
func (h *AnalyticsHandler) GetDeviceDistribution(c *gin.Context) {
	dist, err := h.analyticsService.GetDeviceDistribution(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.logger.Error("Failed to get device distribution", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get device distribution")
		return
	}

	respondOK(c, http.StatusOK, dist)
}

// GetTimeTrends godoc
// @Summary Daily activity trends
// @Tags analytics
// @Produce json
// @Param userId query string false "Scope to one sharer"
// @Param days query int false "Trailing window in days" default(30)
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/trends [get]
func (h *AnalyticsHandler) GetTimeTrends(c *gin.Context) {
	trends, err := h.analyticsService.GetTimeTrends(c.Request.Context(), c.Query("userId"), queryInt(c, "days", 30))
	if err != nil {
		h.logger.Error("Failed to get time trends", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get time trends")
		return
	}

	respondOK(c, http.StatusOK, trends)
}

// GetLeaderboard godoc
// @Summary Sharer leaderboard
// @Tags analytics
// @Produce json
// @Param period query string false "Period" default(all_time)
// @Param limit query int false "Max entries" default(100)
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/leaderboard [get]
func (h *AnalyticsHandler) GetLeaderboard(c *gin.Context) {
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

// GetViralTree godoc
// @Summary Invite tree
// @Description BFS expansion of the invite graph from a root user
// @Tags analytics
// @Produce json
// @Param userId path string true "Root user"
// @Param maxDepth query int false "Depth bound" default(5)
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/viral-tree/{userId} [get]
func (h *AnalyticsHandler) GetViralTree(c *gin.Context) {
	tree, err := h.analyticsService.GetViralTree(c.Request.Context(), c.Param("userId"), queryInt(c, "maxDepth", 5))
	if err != nil {
		h.logger.Error("Failed to get viral tree", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get viral tree")
		return
	}

	respondOK(c, http.StatusOK, tree)
}

// GetKFactor godoc
// @Summary Viral coefficient
// @Description Recalculates and returns the user's K-factor snapshot
// @Tags analytics
// @Produce json
// @Param userId path string true "User"
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/k-factor/{userId} [get]
func (h *AnalyticsHandler) GetKFactor(c *gin.Context) {
	coef, err := h.analyticsService.CalculateViralCoefficient(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.logger.Error("Failed to calculate viral coefficient", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to calculate viral coefficient")
		return
	}

	respondOK(c, http.StatusOK, coef)
}

// GetABTestResults godoc
// @Summary A/B test variant comparison
// @Tags analytics
// @Produce json
// @Param testId path int true "A/B test ID"
// @Success 200 {object} Response
// @Router /api/manage/share-analytics/ab-test/{testId} [get]
func (h *AnalyticsHandler) GetABTestResults(c *gin.Context) {
	testID, err := strconv.ParseInt(c.Param("testId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid test id")
		return
	}

	variants, err := h.analyticsService.GetABTestResults(c.Request.Context(), testID)
	if err != nil {
		h.logger.Error("Failed to get ab test results", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to get ab test results")
		return
	}

	respondOK(c, http.StatusOK, variants)
}

// GetShareLinks godoc
// @Summary Raw share link listing
// @Tags analytics
// @Produce json
// @Param userId query string false "Filter by sharer"
// @Param shareType query string false "Filter by type"
// @Param status query string false "Filter by status"
// @Param startDate query string false "Created from (YYYY-MM-DD)"
// @Param endDate query string false "Created to (YYYY-MM-DD)"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} PagedResponse
// @Router /api/manage/share-analytics/links [get]
func (h *AnalyticsHandler) GetShareLinks(c *gin.Context) {
	filters := models.ShareLinkFilters{
		UserID:    c.Query("userId"),
		ShareType: c.Query("shareType"),
		Status:    c.Query("status"),
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 20),
	}

	if from, err := queryDate(c, "startDate"); err != nil {
		respondError(c, http.StatusBadRequest, "invalid date range")
		return
	} else if from != nil {
		filters.DateFrom = from
	}
	if to, err := queryDate(c, "endDate"); err != nil {
		respondError(c, http.StatusBadRequest, "invalid date range")
		return
	} else if to != nil {
		// Конец диапазона включительно, как в queryDateRange
		inclusive := to.AddDate(0, 0, 1).Add(-time.Second)
		filters.DateTo = &inclusive
	}

	links, pagination, err := h.analyticsService.GetAllShareLinks(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("Failed to list share links", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list share links")
		return
	}

	respondPage(c, links, pagination)
}

// queryDateRange читает опциональную пару startDate/endDate (YYYY-MM-DD);
// nil, если оба параметра отсутствуют
func queryDateRange(c *gin.Context) (*models.DateRange, error) {
	start, err := queryDate(c, "startDate")
	if err != nil {
		return nil, err
	}
	end, err := queryDate(c, "endDate")
	if err != nil {
		return nil, err
	}

	if start == nil && end == nil {
		return nil, nil
	}

	dr := &models.DateRange{}
	if start != nil {
		dr.Start = *start
	}
	if end != nil {
		// Конец диапазона включительно: до конца суток
		dr.End = end.AddDate(0, 0, 1).Add(-time.Second)
	} else {
		dr.End = time.Now()
	}

	return dr, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
