package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ctxWithQuery(t *testing.T, rawQuery string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest("GET", "/?"+rawQuery, nil)
	require.NoError(t, err)
	c.Request = req
	return c, w
}

// TestQueryDateRange_EndInclusive проверяет, что endDate расширяется
// до конца суток
func TestQueryDateRange_EndInclusive(t *testing.T) {
	c, _ := ctxWithQuery(t, "startDate=2026-01-01&endDate=2026-01-15")

	dr, err := queryDateRange(c)

	require.NoError(t, err)
	require.NotNil(t, dr)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), dr.Start)
	assert.Equal(t, time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC), dr.End)
}

// TestQueryDateRange_Absent проверяет nil при отсутствии обоих параметров
func TestQueryDateRange_Absent(t *testing.T) {
	c, _ := ctxWithQuery(t, "")

	dr, err := queryDateRange(c)

	require.NoError(t, err)
	assert.Nil(t, dr)
}

// stubAnalyticsService перехватывает фильтры листинга; остальные методы
// не вызываются
type stubAnalyticsService struct {
	service.AnalyticsService
	filters models.ShareLinkFilters
}

func (s *stubAnalyticsService) GetAllShareLinks(ctx context.Context, filters models.ShareLinkFilters) ([]models.AdminShareLink, *models.Pagination, error) {
	s.filters = filters
	return nil, &models.Pagination{Page: filters.Page, Limit: filters.Limit}, nil
}

// TestGetShareLinks_EndDateInclusive проверяет, что фильтр листинга
// трактует endDate так же включительно, как queryDateRange
func TestGetShareLinks_EndDateInclusive(t *testing.T) {
	stub := &stubAnalyticsService{}
	h := NewAnalyticsHandler(stub, zap.NewNop())
	c, w := ctxWithQuery(t, "endDate=2026-01-15")

	h.GetShareLinks(c)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.filters.DateTo)
	assert.Equal(t, time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC), *stub.filters.DateTo)
	assert.Nil(t, stub.filters.DateFrom)
}

// TestGetShareLinks_InvalidDate проверяет отклонение нечитаемой даты
func TestGetShareLinks_InvalidDate(t *testing.T) {
	stub := &stubAnalyticsService{}
	h := NewAnalyticsHandler(stub, zap.NewNop())
	c, w := ctxWithQuery(t, "endDate=15.01.2026")

	h.GetShareLinks(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
