package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
	"github.com/SergeiKhy/share-engine/internal/service"
)

type TrackingHandler struct {
	trackingService service.TrackingService
	logger          *zap.Logger
}

func NewTrackingHandler(trackingService service.TrackingService, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		trackingService: trackingService,
		logger:          logger,
	}
}

// TrackClick godoc
// @Summary Track a share link click
// @Description Record a click on a share code and resolve the redirect target
// @Tags public
// @Produce json
// @Param shareCode path string true "Share code"
// @Param visitor_id query string false "Visitor identifier"
// @Param utm_source query string false "UTM source"
// @Param utm_medium query string false "UTM medium"
// @Param utm_campaign query string false "UTM campaign"
// @Param referrer query string false "Referrer override"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /api/public/share/{shareCode} [get]
func (h *TrackingHandler) TrackClick(c *gin.Context) {
	shareCode := c.Param("shareCode")

	device := parseUserAgent(c.Request.UserAgent())
	ip := c.ClientIP()

	// Referrer: query параметр имеет приоритет над заголовком
	referrer := c.Query("referrer")
	if referrer == "" {
		referrer = c.Request.Referer()
	}

	// Идентификатор сессии генерируется, если клиент его не передал
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	input := &models.RecordClickInput{
		ShareCode:   shareCode,
		VisitorID:   optQuery(c, "visitor_id"),
		UserID:      optQuery(c, "user_id"),
		Referrer:    optString(referrer),
		UTMSource:   optQuery(c, "utm_source"),
		UTMMedium:   optQuery(c, "utm_medium"),
		UTMCampaign: optQuery(c, "utm_campaign"),
		DeviceType:  &device.DeviceType,
		Browser:     &device.Browser,
		OS:          &device.OS,
		IPAddress:   &ip,
		SessionID:   &sessionID,
	}

	result, err := h.trackingService.TrackClick(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShareLinkNotFound):
			respondError(c, http.StatusNotFound, "share link not found")
		case errors.Is(err, service.ErrLinkExpired):
			respondError(c, http.StatusGone, "share link expired")
		default:
			h.logger.Error("Failed to track click",
				zap.String("share_code", shareCode),
				zap.Error(err),
			)
			respondError(c, http.StatusInternalServerError, "failed to track click")
		}
		return
	}

	respondOK(c, http.StatusOK, result)
}

// GetShareInfo godoc
// @Summary Share link preview info
// @Description Public title/description/image/sharer name for link previews
// @Tags public
// @Produce json
// @Param shareCode path string true "Share code"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /api/public/share/{shareCode}/info [get]
func (h *TrackingHandler) GetShareInfo(c *gin.Context) {
	shareCode := c.Param("shareCode")

	info, err := h.trackingService.GetShareInfo(c.Request.Context(), shareCode)
	if err != nil {
		if errors.Is(err, repository.ErrShareLinkNotFound) {
			respondError(c, http.StatusNotFound, "share link not found")
			return
		}
		h.logger.Error("Failed to get share info",
			zap.String("share_code", shareCode),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "failed to get share info")
		return
	}

	respondOK(c, http.StatusOK, info)
}

type deviceInfo struct {
	DeviceType string
	Browser    string
	OS         string
}

// parseUserAgent грубая классификация User-Agent по типу устройства,
// браузеру и ОС. Порядок проверок важен: Chrome до Safari, iPhone до Mac
func parseUserAgent(userAgent string) deviceInfo {
	ua := strings.ToLower(userAgent)

	info := deviceInfo{
		DeviceType: "desktop",
		Browser:    "unknown",
		OS:         "unknown",
	}

	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		info.DeviceType = "tablet"
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"),
		strings.Contains(ua, "iphone"), strings.Contains(ua, "ipod"),
		strings.Contains(ua, "blackberry"), strings.Contains(ua, "windows phone"):
		info.DeviceType = "mobile"
	}

	switch {
	case strings.Contains(ua, "edge"):
		info.Browser = "Edge"
	case strings.Contains(ua, "opera"):
		info.Browser = "Opera"
	case strings.Contains(ua, "chrome"):
		info.Browser = "Chrome"
	case strings.Contains(ua, "firefox"):
		info.Browser = "Firefox"
	case strings.Contains(ua, "safari"):
		info.Browser = "Safari"
	}

	switch {
	case strings.Contains(ua, "android"):
		info.OS = "Android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"), strings.Contains(ua, "ios"):
		info.OS = "iOS"
	case strings.Contains(ua, "windows"):
		info.OS = "Windows"
	case strings.Contains(ua, "mac"):
		info.OS = "macOS"
	case strings.Contains(ua, "linux"):
		info.OS = "Linux"
	}

	return info
}

func optQuery(c *gin.Context, name string) *string {
	return optString(c.Query(name))
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
