package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/SergeiKhy/shortlink/internal/handler"
	"github.com/SergeiKhy/shortlink/internal/middleware"
	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/SergeiKhy/shortlink/internal/service/mocks"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAuthToken = "test-auth-token"

// setupTestRouter собирает роутер поверх мокового репозитория
func setupTestRouter() (*gin.Engine, *mocks.MockLinkRepository) {
	gin.SetMode(gin.TestMode)

	linkRepo := mocks.NewMockLinkRepository()
	linkService := service.NewLinkService(linkRepo, nil)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 1000, // Высокий лимит для тестов
		BurstSize:         2000,
		CleanupInterval:   time.Minute,
	})

	router := handler.NewRouter(linkService, rateLimiter, middleware.RequireAuthToken(testAuthToken), nil)
	return router, linkRepo
}

type createLinkResponse struct {
	ShortURL string `json:"short_url"`
	StatsURL string `json:"stats_url"`
}

// createLink создаёт ссылку через API и возвращает разобранный ответ
func createLink(t *testing.T, router *gin.Engine, url string) createLinkResponse {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"url": url})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/generate", bytes.NewReader(body))
	req.Host = "localhost:3000"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", testAuthToken)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp createLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// keyFromShortURL извлекает короткий ключ из short_url
func keyFromShortURL(t *testing.T, shortURL string) string {
	t.Helper()
	idx := strings.LastIndex(shortURL, "/")
	require.Positive(t, idx)
	return shortURL[idx+1:]
}

// TestHandler_CreateLink проверяет формат ответа POST /generate
func TestHandler_CreateLink(t *testing.T) {
	router, _ := setupTestRouter()

	resp := createLink(t, router, "https://example.com")

	assert.Regexp(t, regexp.MustCompile(`^https?://.+/[A-Za-z0-9]{6}$`), resp.ShortURL)
	assert.Regexp(t, regexp.MustCompile(`\?token=[A-Za-z0-9]{24}$`), resp.StatsURL)
	assert.True(t, strings.HasPrefix(resp.StatsURL, resp.ShortURL+"/stats?token="))
}

// TestHandler_CreateLink_Unauthorized проверяет защиту создания ссылок
func TestHandler_CreateLink_Unauthorized(t *testing.T) {
	router, _ := setupTestRouter()

	body := []byte(`{"url":"https://example.com"}`)

	// Без заголовка авторизации
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/generate", bytes.NewReader(body))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// С неверным токеном
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/generate", bytes.NewReader(body))
	req.Header.Set("Authorization", "wrong-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestHandler_CreateLink_MalformedBody проверяет, что нечитаемое тело
// отражается кодом 500, а не 400 — у /generate только два кода ошибок
func TestHandler_CreateLink_MalformedBody(t *testing.T) {
	router, _ := setupTestRouter()

	for _, body := range []string{"not-json", `{}`, `{"url":""}`} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/generate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", testAuthToken)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code, "body: %s", body)
	}
}

// TestHandler_Redirect проверяет редирект на оригинальный URL
func TestHandler_Redirect(t *testing.T) {
	router, _ := setupTestRouter()

	resp := createLink(t, router, "https://example.com")
	key := keyFromShortURL(t, resp.ShortURL)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/"+key, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Location"))
}

// TestHandler_Redirect_NotFound проверяет редирект по несуществующему ключу
func TestHandler_Redirect_NotFound(t *testing.T) {
	router, _ := setupTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/nonexq", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestHandler_Redirect_ReservedKey проверяет, что зарезервированный, но не
// заполненный ключ отдаёт 404, а не редирект на пустой адрес
func TestHandler_Redirect_ReservedKey(t *testing.T) {
	router, linkRepo := setupTestRouter()
	linkRepo.ReserveOnly("rsv001")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/rsv001", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestHandler_GetStats проверяет выдачу статистики по секретному токену
func TestHandler_GetStats(t *testing.T) {
	router, _ := setupTestRouter()

	resp := createLink(t, router, "https://example.com")
	key := keyFromShortURL(t, resp.ShortURL)
	statsPath := strings.TrimPrefix(resp.StatsURL, resp.ShortURL[:strings.LastIndex(resp.ShortURL, "/")])

	// Один переход по ссылке
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/"+key, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	t.Run("корректный токен", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", statsPath, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"clicks":1}`, w.Body.String())
	})

	t.Run("токен не передан", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/"+key+"/stats", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("неверный токен", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/"+key+"/stats?token=bogus", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("несуществующий ключ", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/nonexq/stats?token=bogus", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestHandler_HealthCheck проверяет endpoint здоровья сервиса
func TestHandler_HealthCheck(t *testing.T) {
	router, _ := setupTestRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "shortlink", resp["service"])
}
