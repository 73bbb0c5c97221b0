package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/pkg/logger"
	"github.com/skinlens/backend/internal/usecase"
	"github.com/skinlens/backend/internal/validation"
)

const serviceVersion = "1.0.0"

// ScanUsecase analyzes scans and manages scan history
type ScanUsecase interface {
	Analyze(ctx context.Context, request *domain.ScanRequest) (*domain.ProductAnalysis, error)
	AnalyzeBatch(ctx context.Context, requests []domain.ScanRequest) ([]usecase.BatchItem, error)
	AnalyzeBarcode(ctx context.Context, barcode string) (*domain.ProductAnalysis, error)
	GetAnalysis(ctx context.Context, id string) (*domain.ProductAnalysis, error)
	ListHistory(ctx context.Context, limit int, favoritesOnly bool) ([]domain.ProductAnalysis, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (*domain.ProductAnalysis, error)
}

// RecommendationUsecase ranks and stores product suggestions
type RecommendationUsecase interface {
	Recommend(ctx context.Context, request *domain.RecommendRequest) ([]domain.Recommendation, error)
	Alternatives(ctx context.Context, request *domain.AlternativesRequest) ([]domain.Recommendation, error)
	Save(ctx context.Context, rec domain.Recommendation) (*domain.Recommendation, error)
	ListSaved(ctx context.Context) ([]domain.Recommendation, error)
}

// KnowledgeUsecase exposes the active knowledge snapshot
type KnowledgeUsecase interface {
	Reload(ctx context.Context) (*usecase.ReloadReport, error)
	Snapshot() (*usecase.KnowledgeSnapshot, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	scans           ScanUsecase
	recommendations RecommendationUsecase
	knowledge       KnowledgeUsecase
	log             *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(scans ScanUsecase, recommendations RecommendationUsecase, knowledge KnowledgeUsecase, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		scans:           scans,
		recommendations: recommendations,
		knowledge:       knowledge,
		log:             log.With("component", "HTTPHandler"),
	}
}

// HealthCheck returns the health status of the API. The service is degraded
// until a knowledge snapshot is loaded.
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "skinlens-backend",
		"version": serviceVersion,
	}

	snap, err := h.knowledge.Snapshot()
	if err != nil {
		body["status"] = "degraded"
		body["knowledge"] = gin.H{"loaded": false}
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	ingredients, conflicts, products := snap.Stats()
	body["knowledge"] = gin.H{
		"loaded":      true,
		"version":     snap.Version(),
		"fingerprint": snap.Fingerprint(),
		"ingredients": ingredients,
		"conflicts":   conflicts,
		"products":    products,
	}
	c.JSON(http.StatusOK, body)
}

// AnalyzeProduct handles POST /api/v1/analyses
func (h *Handler) AnalyzeProduct(c *gin.Context) {
	var req domain.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, validation.FromBindingError(err))
		return
	}

	analysis, err := h.scans.Analyze(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

// AnalyzeBatch handles POST /api/v1/analyses/batch
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req domain.BatchScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, validation.FromBindingError(err))
		return
	}

	items, err := h.scans.AnalyzeBatch(c.Request.Context(), req.Scans)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// AnalyzeBarcode handles POST /api/v1/analyses/barcode
func (h *Handler) AnalyzeBarcode(c *gin.Context) {
	var req domain.BarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, validation.FromBindingError(err))
		return
	}

	analysis, err := h.scans.AnalyzeBarcode(c.Request.Context(), req.Barcode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

// ListAnalyses handles GET /api/v1/analyses?limit=20&favorites=true
func (h *Handler) ListAnalyses(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondError(c, domain.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	favoritesOnly := false
	if raw := c.Query("favorites"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(c, domain.NewValidationError("favorites", "must be a boolean"))
			return
		}
		favoritesOnly = b
	}

	analyses, err := h.scans.ListHistory(c.Request.Context(), limit, favoritesOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": analyses, "count": len(analyses)})
}

// GetAnalysis handles GET /api/v1/analyses/:id
func (h *Handler) GetAnalysis(c *gin.Context) {
	analysis, err := h.scans.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// SetFavorite handles PUT /api/v1/analyses/:id/favorite
func (h *Handler) SetFavorite(c *gin.Context) {
	var req domain.FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, validation.FromBindingError(err))
		return
	}

	analysis, err := h.scans.SetFavorite(c.Request.Context(), c.Param("id"), *req.IsFavorite)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Recommend handles POST /api/v1/recommendations
func (h *Handler) Recommend(c *gin.Context) {
	var req domain.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, validation.FromBindingError(err))
		return
	}

	recs, err := h.recommendations.Recommend(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs, "count": len(recs)})
}

// Alternatives handles POST /api/v1/recommendations/alternatives
func (h *Handler) Alternatives(c *gin.Context) {
	var req domain.AlternativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, validation.FromBindingError(err))
		return
	}

	recs, err := h.recommendations.Alternatives(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs, "count": len(recs)})
}

// SaveRecommendation handles POST /api/v1/recommendations/saved
func (h *Handler) SaveRecommendation(c *gin.Context) {
	var rec domain.Recommendation
	if err := c.ShouldBindJSON(&rec); err != nil {
		h.respondError(c, validation.FromBindingError(err))
		return
	}

	saved, err := h.recommendations.Save(c.Request.Context(), rec)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// ListSavedRecommendations handles GET /api/v1/recommendations/saved
func (h *Handler) ListSavedRecommendations(c *gin.Context) {
	recs, err := h.recommendations.ListSaved(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs, "count": len(recs)})
}

// ReloadKnowledge handles POST /api/v1/knowledge/reload
func (h *Handler) ReloadKnowledge(c *gin.Context) {
	report, err := h.knowledge.Reload(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": report.Ingredients,
		"conflicts":   report.Conflicts,
		"products":    report.Products,
		"rejected":    report.RejectedMessages(),
	})
}

// respondError maps domain errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Error()}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrLookupFailure):
		h.log.Warn("Product lookup failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "product database is unavailable"})
	case errors.Is(err, domain.ErrKnowledgeUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		h.log.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
