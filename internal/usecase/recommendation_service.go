package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/infrastructure/metrics"
	"github.com/skinlens/backend/internal/pkg/logger"
	"github.com/skinlens/backend/internal/validation"
)

const (
	defaultRecommendationLimit = 5
	maxRecommendationLimit     = 50
)

// RecommendationServiceConfig holds configuration for the recommendation service
type RecommendationServiceConfig struct {
	DefaultLimit       int
	MaxLimit           int
	EnableDebugLogging bool
}

// RecommendationService resolves the inputs of the recommendation engine
// (analysis, catalog snapshot) and stores suggestions the user keeps.
type RecommendationService struct {
	analyses     domain.AnalysisRepository
	saved        domain.RecommendationRepository
	knowledge    *KnowledgeService
	engine       *RecommendationEngine
	log          *logger.Logger
	defaultLimit int
	maxLimit     int
	newID        func() string
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	analyses domain.AnalysisRepository,
	saved domain.RecommendationRepository,
	knowledge *KnowledgeService,
	log *logger.Logger,
	config RecommendationServiceConfig,
) *RecommendationService {
	if log == nil {
		log = logger.NewNop()
	}

	defaultLimit := config.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = defaultRecommendationLimit
	}
	maxLimit := config.MaxLimit
	if maxLimit <= 0 {
		maxLimit = maxRecommendationLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	return &RecommendationService{
		analyses:     analyses,
		saved:        saved,
		knowledge:    knowledge,
		engine:       NewRecommendationEngine(log, RecommendationEngineConfig{EnableDebugLogging: config.EnableDebugLogging}),
		log:          log.With("service", "RecommendationService"),
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		newID:        uuid.NewString,
	}
}

// Recommend ranks catalog alternatives for a stored or inline analysis.
func (s *RecommendationService) Recommend(ctx context.Context, request *domain.RecommendRequest) ([]domain.Recommendation, error) {
	if request == nil {
		return nil, domain.NewValidationError("", "request is required")
	}
	limit, err := s.resolveLimit(request.Limit)
	if err != nil {
		return nil, err
	}

	current, err := s.resolveAnalysis(ctx, request)
	if err != nil {
		return nil, err
	}

	snap, err := s.knowledge.Snapshot()
	if err != nil {
		return nil, err
	}

	recs, err := s.engine.Recommend(request.Profile, *current, snap.Catalog(), limit)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationsServed.WithLabelValues("match").Add(float64(len(recs)))
	return recs, nil
}

// Alternatives ranks catalog products that avoid one ingredient.
func (s *RecommendationService) Alternatives(ctx context.Context, request *domain.AlternativesRequest) ([]domain.Recommendation, error) {
	if request == nil {
		return nil, domain.NewValidationError("", "request is required")
	}
	limit, err := s.resolveLimit(request.Limit)
	if err != nil {
		return nil, err
	}

	snap, err := s.knowledge.Snapshot()
	if err != nil {
		return nil, err
	}

	recs, err := s.engine.AlternativesFor(request.Profile, request.Ingredient, snap.Catalog(), limit)
	if err != nil {
		return nil, err
	}
	metrics.RecommendationsServed.WithLabelValues("alternatives").Add(float64(len(recs)))
	return recs, nil
}

// Save stores a recommendation the user chose to keep.
func (s *RecommendationService) Save(ctx context.Context, rec domain.Recommendation) (*domain.Recommendation, error) {
	if strings.TrimSpace(rec.ProductName) == "" {
		return nil, domain.NewValidationError("productName", "is required")
	}
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	saved := rec.WithSaved(true)
	if err := s.saved.Save(ctx, saved); err != nil {
		return nil, fmt.Errorf("save recommendation: %w", err)
	}
	return &saved, nil
}

// ListSaved returns every saved recommendation
func (s *RecommendationService) ListSaved(ctx context.Context) ([]domain.Recommendation, error) {
	return s.saved.List(ctx)
}

func (s *RecommendationService) resolveLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, domain.NewValidationError("limit", "must not be negative")
	case limit == 0:
		return s.defaultLimit, nil
	case limit > s.maxLimit:
		return s.maxLimit, nil
	default:
		return limit, nil
	}
}

func (s *RecommendationService) resolveAnalysis(ctx context.Context, request *domain.RecommendRequest) (*domain.ProductAnalysis, error) {
	if id := strings.TrimSpace(request.AnalysisID); id != "" {
		return s.analyses.Get(ctx, id)
	}
	if request.Analysis != nil {
		if err := validation.ValidateAnalysis(*request.Analysis); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return nil, domain.NewValidationError(joinField("analysis", verr.Field), verr.Reason)
			}
			return nil, err
		}
		return request.Analysis, nil
	}
	return nil, domain.NewValidationError("analysisId", "either analysisId or analysis is required")
}

func joinField(parent, field string) string {
	if field == "" {
		return parent
	}
	return parent + "." + field
}
