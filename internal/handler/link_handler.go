package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SergeiKhy/shortlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, logger *zap.Logger) *LinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		service: service,
		logger:  logger,
	}
}

type CreateLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

type CreateLinkResponse struct {
	ShortURL string `json:"short_url"`
	StatsURL string `json:"stats_url"`
}

type StatsResponse struct {
	Clicks int64 `json:"clicks"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateLink godoc
// @Summary Create a short link
// @Description Mint a collision-checked short key and persist the link record
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link creation request"
// @Success 200 {object} CreateLinkResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /generate [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		// Контракт /generate различает только 401 и 500, поэтому
		// нечитаемое тело — это 500, а не 400
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "malformed_request",
			Message: "Request body is not parseable",
		})
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Error("Failed to create link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create link",
		})
		return
	}

	shortURL := fmt.Sprintf("%s://%s/%s", requestScheme(c), c.Request.Host, link.ShortKey)
	// Секретный токен отдаётся клиенту единственный раз — внутри stats_url
	c.JSON(http.StatusOK, CreateLinkResponse{
		ShortURL: shortURL,
		StatsURL: fmt.Sprintf("%s/stats?token=%s", shortURL, link.SecretToken),
	})
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Redirect by short key, incrementing the click counter
// @Tags links
// @Param key path string true "Short key"
// @Success 307 {object} nil
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{key} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	key := c.Param("key")

	url, err := h.service.ResolveLink(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.logger.Warn("Link not found", zap.String("key", key))
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found or expired",
			})
			return
		}
		h.logger.Error("Failed to resolve link", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to resolve link",
		})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GetStats godoc
// @Summary Get click statistics for a short link
// @Description Return the click counter, gated on the per-link secret token
// @Tags links
// @Produce json
// @Param key path string true "Short key"
// @Param token query string true "Secret token from the creation response"
// @Success 200 {object} StatsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{key}/stats [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	key := c.Param("key")
	token := c.Query("token")

	stats, err := h.service.GetStats(c.Request.Context(), key, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			// Отсутствующий токен и отсутствующий ключ неотличимы снаружи
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
		case errors.Is(err, service.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid stats token",
			})
		default:
			h.logger.Error("Failed to get stats", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to get stats",
			})
		}
		return
	}

	c.JSON(http.StatusOK, StatsResponse{Clicks: stats.Clicks})
}

// requestScheme определяет схему для построения short_url: по TLS соединения
// либо по заголовку X-Forwarded-Proto, если сервис стоит за прокси
func requestScheme(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
