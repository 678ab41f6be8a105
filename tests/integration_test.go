package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/SergeiKhy/share-engine/internal/config"
	"github.com/SergeiKhy/share-engine/internal/handler"
	"github.com/SergeiKhy/share-engine/internal/middleware"
	"github.com/SergeiKhy/share-engine/internal/models"
	"github.com/SergeiKhy/share-engine/internal/repository"
	"github.com/SergeiKhy/share-engine/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const testAdminKey = "integration-admin-key"

// TestMain настраивает тестовые контейнеры
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEnv хранит окружение для интеграционных тестов
type TestEnv struct {
	router           *gin.Engine
	shareService     service.ShareService
	trackingService  service.TrackingService
	rewardService    service.RewardService
	analyticsService service.AnalyticsService
	inviteService    service.InviteService
	linkRepo         repository.ShareLinkRepository
	inviteRepo       repository.InviteRepository
	dbContainer      testcontainers.Container
	redisContainer   testcontainers.Container
	db               *repository.PostgresDB
	redis            *repository.RedisDB
}

// schema разворачивает таблицы движка в чистой тестовой базе
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	phone TEXT,
	points NUMERIC NOT NULL DEFAULT 0,
	balance NUMERIC NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS share_links (
	id BIGSERIAL PRIMARY KEY,
	share_code TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	share_type TEXT NOT NULL,
	content_id TEXT,
	content_type TEXT,
	share_url TEXT NOT NULL DEFAULT '',
	short_url TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	metadata JSONB NOT NULL DEFAULT '{}',
	status TEXT NOT NULL DEFAULT 'active',
	share_count BIGINT NOT NULL DEFAULT 0,
	click_count BIGINT NOT NULL DEFAULT 0,
	conversion_count BIGINT NOT NULL DEFAULT 0,
	ab_test_id BIGINT,
	variant TEXT,
	expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS share_events (
	id BIGSERIAL PRIMARY KEY,
	share_link_id BIGINT NOT NULL REFERENCES share_links(id),
	user_id TEXT NOT NULL,
	platform TEXT NOT NULL,
	share_channel TEXT,
	device_type TEXT,
	browser TEXT,
	os TEXT,
	country TEXT,
	city TEXT,
	ip_address TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS share_clicks (
	id BIGSERIAL PRIMARY KEY,
	share_link_id BIGINT NOT NULL REFERENCES share_links(id),
	share_code TEXT NOT NULL,
	visitor_id TEXT,
	user_id TEXT,
	is_new_user BOOLEAN NOT NULL DEFAULT TRUE,
	referrer TEXT,
	utm_source TEXT,
	utm_medium TEXT,
	utm_campaign TEXT,
	device_type TEXT,
	browser TEXT,
	os TEXT,
	screen_resolution TEXT,
	country TEXT,
	city TEXT,
	ip_address TEXT,
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	session_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS share_conversions (
	id BIGSERIAL PRIMARY KEY,
	share_link_id BIGINT NOT NULL REFERENCES share_links(id),
	share_code TEXT NOT NULL,
	click_id BIGINT,
	converted_user_id TEXT NOT NULL,
	sharer_user_id TEXT NOT NULL,
	conversion_type TEXT NOT NULL,
	conversion_value NUMERIC,
	order_id TEXT,
	conversion_path JSONB NOT NULL DEFAULT '{}',
	time_to_conversion BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS share_rewards (
	id BIGSERIAL PRIMARY KEY,
	share_link_id BIGINT,
	conversion_id BIGINT,
	user_id TEXT NOT NULL,
	reward_type TEXT NOT NULL,
	reward_amount NUMERIC,
	coupon_id BIGINT,
	coupon_code TEXT,
	unlock_content TEXT,
	source_type TEXT NOT NULL DEFAULT '',
	source_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'issued',
	issued_at TIMESTAMPTZ,
	claimed_at TIMESTAMPTZ,
	expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS invite_records (
	id BIGSERIAL PRIMARY KEY,
	invite_code TEXT NOT NULL UNIQUE,
	inviter_user_id TEXT NOT NULL,
	invitee_user_id TEXT,
	share_link_id BIGINT,
	status TEXT NOT NULL DEFAULT 'pending',
	registered_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS viral_coefficients (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL,
	period TEXT NOT NULL,
	invites_sent BIGINT NOT NULL DEFAULT 0,
	invites_accepted BIGINT NOT NULL DEFAULT 0,
	k_factor DOUBLE PRECISION NOT NULL DEFAULT 0,
	calculated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, period)
);
`

// setupTestEnv создаёт тестовое окружение с PostgreSQL и Redis контейнерами
func setupTestEnv(t *testing.T) *TestEnv {
	ctx := t.Context()

	// Запускаем контейнер PostgreSQL
	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("share_engine"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	// Запускаем контейнер Redis
	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err)

	// Получаем данные для подключения
	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	// Создаём подключение к БД
	db, err := repository.NewPostgresDB(config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "share_engine",
	})
	require.NoError(t, err)

	// Разворачиваем схему
	_, err = db.Pool.Exec(ctx, schema)
	require.NoError(t, err)

	// Создаём подключение к Redis
	redisClient, err := repository.NewRedisClient(config.RedisConfig{
		Host: redisHost,
		Port: redisPort.Port(),
	})
	require.NoError(t, err)

	// Инициализируем репозитории и сервисы
	linkRepo := repository.NewShareLinkRepository(db)
	eventRepo := repository.NewShareEventRepository(db)
	clickRepo := repository.NewClickRepository(db)
	conversionRepo := repository.NewConversionRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	logger := zap.NewNop()

	shareService := service.NewShareService(linkRepo, eventRepo, cacheRepo, "http://localhost:8080")
	trackingService := service.NewTrackingService(linkRepo, clickRepo, conversionRepo, cacheRepo, logger)
	rewardService := service.NewRewardService(rewardRepo)
	analyticsService := service.NewAnalyticsService(analyticsRepo, inviteRepo, linkRepo)
	inviteService := service.NewInviteService(inviteRepo)

	// Настраиваем роутер с middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 100, // Высокий лимит для тестов
		BurstSize:         200,
		CleanupInterval:   time.Minute,
	})
	adminKey := middleware.RequireAdminKey(map[string]string{testAdminKey: "tests"})

	router := handler.NewRouter(shareService, trackingService, rewardService, analyticsService, rateLimiter, adminKey, logger)

	return &TestEnv{
		router:           router,
		shareService:     shareService,
		trackingService:  trackingService,
		rewardService:    rewardService,
		analyticsService: analyticsService,
		inviteService:    inviteService,
		linkRepo:         linkRepo,
		inviteRepo:       inviteRepo,
		dbContainer:      dbContainer,
		redisContainer:   redisContainer,
		db:               db,
		redis:            redisClient,
	}
}

// teardown очищает ресурсы после теста
func (env *TestEnv) teardown(t *testing.T) {
	env.db.Close()
	env.redis.Close()

	ctx := t.Context()
	if env.dbContainer != nil {
		env.dbContainer.Terminate(ctx)
	}
	if env.redisContainer != nil {
		env.redisContainer.Terminate(ctx)
	}
}

// createUser заводит строку в users для join'ов и начисления наград
func (env *TestEnv) createUser(t *testing.T, id, username string) {
	_, err := env.db.Pool.Exec(t.Context(),
		`INSERT INTO users (id, username) VALUES ($1, $2)`, id, username)
	require.NoError(t, err)
}

// userPoints возвращает текущие баллы пользователя
func (env *TestEnv) userPoints(t *testing.T, id string) float64 {
	var points float64
	err := env.db.Pool.QueryRow(t.Context(),
		`SELECT points FROM users WHERE id = $1`, id).Scan(&points)
	require.NoError(t, err)
	return points
}

// doJSON выполняет запрос к роутеру и возвращает записанный ответ
func (env *TestEnv) doJSON(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	env.router.ServeHTTP(w, req)
	return w
}

// envelope стандартный конверт ответа API
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestIntegration_CreateShareLink тестирует создание шаринг-ссылок через API
func TestIntegration_CreateShareLink(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	userHeaders := map[string]string{"X-User-ID": "user-1"}

	tests := []struct {
		name           string
		body           map[string]any
		headers        map[string]string
		expectedStatus int
	}{
		{
			name:           "валидная ссылка",
			body:           map[string]any{"shareType": "result", "contentId": "42", "title": "Мой результат"},
			headers:        userHeaders,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "невалидный тип шаринга",
			body:           map[string]any{"shareType": "bogus"},
			headers:        userHeaders,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "без идентификации",
			body:           map[string]any{"shareType": "result"},
			headers:        nil,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON("POST", "/api/share/create", tt.body, tt.headers)
			assert.Equal(t, tt.expectedStatus, w.Code)

			resp := decodeEnvelope(t, w)
			if tt.expectedStatus == http.StatusCreated {
				assert.True(t, resp.Success)

				var link models.ShareLink
				require.NoError(t, json.Unmarshal(resp.Data, &link))
				assert.Len(t, link.ShareCode, 8)
				assert.Equal(t, "user-1", link.UserID)
				assert.Equal(t, "active", link.Status)
				assert.Contains(t, link.ShareURL, link.ShareCode)
			} else {
				assert.False(t, resp.Success)
				assert.NotEmpty(t, resp.Message)
			}
		})
	}
}

// TestIntegration_TrackClick тестирует публичный трекинг кликов
func TestIntegration_TrackClick(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	ctx := context.Background()
	contentID := "7"
	link, err := env.shareService.CreateShareLink(ctx, &models.CreateShareLinkInput{
		UserID:    "sharer-1",
		ShareType: "result",
		ContentID: &contentID,
		Title:     "Результат теста",
	})
	require.NoError(t, err)

	t.Run("клик записывается и возвращает редирект", func(t *testing.T) {
		w := env.doJSON("GET", "/api/public/share/"+link.ShareCode+"?utm_source=telegram", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeEnvelope(t, w)
		assert.True(t, resp.Success)

		var result service.ClickResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		require.NotNil(t, result.Click)
		assert.Equal(t, link.ShareCode, result.Click.ShareCode)
		assert.Equal(t, "/result/7?ref="+link.ShareCode, result.RedirectURL)
		assert.Equal(t, "result", result.ShareInfo.ShareType)

		// Счётчик кликов обновился в той же транзакции
		stored, err := env.linkRepo.GetByCode(ctx, link.ShareCode)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.ClickCount)
	})

	t.Run("несуществующий код", func(t *testing.T) {
		w := env.doJSON("GET", "/api/public/share/nonexist1", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("публичная информация о ссылке", func(t *testing.T) {
		env.createUser(t, "sharer-1", "alice")

		w := env.doJSON("GET", "/api/public/share/"+link.ShareCode+"/info", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeEnvelope(t, w)
		var info models.ShareInfo
		require.NoError(t, json.Unmarshal(resp.Data, &info))
		require.NotNil(t, info.SharerName)
		assert.Equal(t, "alice", *info.SharerName)
		assert.Equal(t, "Результат теста", info.Title)
	})
}

// TestIntegration_ExpiredLink тестирует отклонение кликов по просроченной ссылке
func TestIntegration_ExpiredLink(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	link := &models.ShareLink{
		ShareCode: "expired1",
		UserID:    "sharer-1",
		ShareType: "invite",
		Metadata:  json.RawMessage(`{}`),
		Status:    "active",
		ExpiresAt: &past,
	}
	require.NoError(t, env.linkRepo.Create(ctx, link))

	w := env.doJSON("GET", "/api/public/share/expired1", nil, nil)
	assert.Equal(t, http.StatusGone, w.Code)

	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)

	// Клик по просроченной ссылке не записывается
	stored, err := env.linkRepo.GetByCode(ctx, "expired1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.ClickCount)
}

// TestIntegration_FullFunnel прогоняет полный путь share -> click -> conversion
// и проверяет агрегаты в админской аналитике
func TestIntegration_FullFunnel(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	ctx := context.Background()
	userHeaders := map[string]string{"X-User-ID": "funnel-user"}
	adminHeaders := map[string]string{"X-API-Key": testAdminKey}

	// Шаг 1: создаём ссылку
	w := env.doJSON("POST", "/api/share/create", map[string]any{"shareType": "coupon", "contentId": "500"}, userHeaders)
	require.Equal(t, http.StatusCreated, w.Code)

	var link models.ShareLink
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &link))

	// Шаг 2: фиксируем событие шаринга
	w = env.doJSON("POST", "/api/share/event", map[string]any{"shareLinkId": link.ID, "platform": "telegram"}, userHeaders)
	require.Equal(t, http.StatusCreated, w.Code)

	// Шаг 3: клик по публичной ссылке
	w = env.doJSON("GET", "/api/public/share/"+link.ShareCode, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var clickResult service.ClickResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &clickResult))

	// Шаг 4: конверсия с привязкой к клику
	_, err := env.trackingService.RecordConversion(ctx, &models.RecordConversionInput{
		ShareCode:       link.ShareCode,
		ClickID:         &clickResult.Click.ID,
		ConvertedUserID: "buyer-1",
		SharerUserID:    "funnel-user",
		ConversionType:  "purchase",
	})
	require.NoError(t, err)

	// Все счётчики денормализованы на ссылке
	stored, err := env.linkRepo.GetByCode(ctx, link.ShareCode)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ShareCount)
	assert.Equal(t, int64(1), stored.ClickCount)
	assert.Equal(t, int64(1), stored.ConversionCount)

	// Воронка: один клик на один шаринг, одна конверсия на один клик
	w = env.doJSON("GET", "/api/manage/share-analytics/funnel?userId=funnel-user", nil, adminHeaders)
	require.Equal(t, http.StatusOK, w.Code)

	var funnel models.ConversionFunnel
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &funnel))
	require.Len(t, funnel.Funnel, 3)
	assert.Equal(t, int64(1), funnel.Funnel[0].Count)
	assert.Equal(t, 100.0, funnel.Funnel[0].Percentage)
	assert.Equal(t, int64(1), funnel.Funnel[1].Count)
	assert.Equal(t, 100.0, funnel.Funnel[1].Percentage)
	assert.Equal(t, int64(1), funnel.Funnel[2].Count)
	assert.Equal(t, 100.0, funnel.Funnel[2].Percentage)
	assert.Equal(t, 100.0, funnel.TotalConversionRate)

	// Обзор без API ключа закрыт
	w = env.doJSON("GET", "/api/manage/share-analytics/overview", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestIntegration_Rewards тестирует выдачу и получение наград
func TestIntegration_Rewards(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	ctx := context.Background()
	env.createUser(t, "referrer-1", "bob")
	userHeaders := map[string]string{"X-User-ID": "referrer-1"}

	amount := 150.0
	reward, err := env.rewardService.IssueReward(ctx, &models.IssueRewardInput{
		UserID:       "referrer-1",
		RewardType:   "points",
		RewardAmount: &amount,
		SourceType:   "referral",
		SourceID:     "conv-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "issued", reward.Status)

	// Баллы начислены при выдаче, ровно один раз
	assert.Equal(t, 150.0, env.userPoints(t, "referrer-1"))

	t.Run("список наград", func(t *testing.T) {
		w := env.doJSON("GET", "/api/share/rewards", nil, userHeaders)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeEnvelope(t, w)
		var rewards []models.ShareReward
		require.NoError(t, json.Unmarshal(resp.Data, &rewards))
		require.Len(t, rewards, 1)
		assert.Equal(t, reward.ID, rewards[0].ID)
	})

	t.Run("получение награды", func(t *testing.T) {
		w := env.doJSON("POST", "/api/share/rewards/"+itoa(reward.ID)+"/claim", nil, userHeaders)
		require.Equal(t, http.StatusOK, w.Code)

		var claimed models.ShareReward
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &claimed))
		assert.Equal(t, "claimed", claimed.Status)
		require.NotNil(t, claimed.ClaimedAt)

		// Повторное получение баллы не трогает
		assert.Equal(t, 150.0, env.userPoints(t, "referrer-1"))
	})

	t.Run("повторное получение отклоняется", func(t *testing.T) {
		w := env.doJSON("POST", "/api/share/rewards/"+itoa(reward.ID)+"/claim", nil, userHeaders)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("чужая награда недоступна", func(t *testing.T) {
		w := env.doJSON("POST", "/api/share/rewards/"+itoa(reward.ID)+"/claim", nil,
			map[string]string{"X-User-ID": "someone-else"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestIntegration_ViralCoefficient тестирует расчёт K-фактора по приглашениям
func TestIntegration_ViralCoefficient(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	ctx := context.Background()
	adminHeaders := map[string]string{"X-API-Key": testAdminKey}

	// 4 приглашения, 2 завершились регистрацией
	for _, code := range []string{"inv-a", "inv-b", "inv-c", "inv-d"} {
		_, err := env.inviteService.CreateInviteRecord(ctx, "inviter-1", code, nil)
		require.NoError(t, err)
	}
	_, err := env.inviteService.CompleteRegistration(ctx, "inv-a", "invitee-1")
	require.NoError(t, err)
	_, err = env.inviteService.CompleteRegistration(ctx, "inv-b", "invitee-2")
	require.NoError(t, err)

	w := env.doJSON("GET", "/api/manage/share-analytics/k-factor/inviter-1", nil, adminHeaders)
	require.Equal(t, http.StatusOK, w.Code)

	var coef models.ViralCoefficient
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &coef))
	assert.Equal(t, int64(4), coef.InvitesSent)
	assert.Equal(t, int64(2), coef.InvitesAccepted)
	assert.Equal(t, 0.5, coef.KFactor)

	// Снимок сохранён и виден в дереве приглашений
	w = env.doJSON("GET", "/api/manage/share-analytics/viral-tree/inviter-1", nil, adminHeaders)
	require.Equal(t, http.StatusOK, w.Code)

	var tree []models.ViralTreeNode
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &tree))
	assert.Len(t, tree, 2)
	for _, node := range tree {
		assert.Equal(t, 1, node.Generation)
	}
}

// TestIntegration_HealthCheck тестирует endpoint проверки здоровья
func TestIntegration_HealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционный тест в коротком режиме")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	w := env.doJSON("GET", "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
