package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/infrastructure/metrics"
	"github.com/skinlens/backend/internal/pkg/logger"
)

const (
	defaultCacheTTL         = 24 * time.Hour
	defaultBatchConcurrency = 4
	defaultHistoryLimit     = 50
)

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	CacheTTL           time.Duration
	BatchConcurrency   int
	EnableDebugLogging bool
}

// ScanService turns scans into stored analyses.
// Flow: check cache -> score against knowledge snapshot -> cache -> save history -> return
type ScanService struct {
	cache            domain.CacheRepository
	analyses         domain.AnalysisRepository
	lookup           domain.ProductLookupClient
	knowledge        *KnowledgeService
	engine           *SafetyEngine
	log              *logger.Logger
	cacheTTL         time.Duration
	batchConcurrency int

	now   func() time.Time
	newID func() string
}

// NewScanService creates a new scan service with dependencies. lookup may be
// nil when barcode resolution is not configured.
func NewScanService(
	cache domain.CacheRepository,
	analyses domain.AnalysisRepository,
	lookup domain.ProductLookupClient,
	knowledge *KnowledgeService,
	log *logger.Logger,
	config ScanServiceConfig,
) *ScanService {
	if log == nil {
		log = logger.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}
	concurrency := config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = defaultBatchConcurrency
	}

	return &ScanService{
		cache:            cache,
		analyses:         analyses,
		lookup:           lookup,
		knowledge:        knowledge,
		engine:           NewSafetyEngine(log, SafetyEngineConfig{EnableDebugLogging: config.EnableDebugLogging}),
		log:              log.With("service", "ScanService"),
		cacheTTL:         cacheTTL,
		batchConcurrency: concurrency,
		now:              time.Now,
		newID:            uuid.NewString,
	}
}

// cachedScore is the part of an analysis that depends only on the
// ingredient list and the knowledge snapshot
type cachedScore struct {
	Ingredients []domain.AnalyzedIngredient `json:"ingredients"`
	Conflicts   []domain.ConflictRecord     `json:"conflicts"`
	SafetyScore domain.SafetyScore          `json:"safetyScore"`
}

// Analyze scores a scanned ingredient list and records it in scan history.
func (s *ScanService) Analyze(ctx context.Context, request *domain.ScanRequest) (*domain.ProductAnalysis, error) {
	if request == nil {
		return nil, domain.NewValidationError("", "request is required")
	}

	snap, err := s.knowledge.Snapshot()
	if err != nil {
		return nil, err
	}

	scan := request.ToScanData()
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = s.now().UTC()
	}

	analysis, err := s.score(ctx, scan, snap)
	if err != nil {
		return nil, err
	}

	stored := analysis.WithID(s.newID())
	if err := s.analyses.Save(ctx, stored); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return &stored, nil
}

// score returns the analysis for a scan, using the cache when the same
// ingredient list was scored against the same snapshot before.
func (s *ScanService) score(ctx context.Context, scan domain.ScanData, snap *KnowledgeSnapshot) (*domain.ProductAnalysis, error) {
	names, display := normalizeIngredientList(scan.Ingredients)
	if len(names) == 0 {
		metrics.AnalysesTotal.WithLabelValues("rejected").Inc()
		return nil, domain.NewValidationError("ingredients", "at least one ingredient is required")
	}

	cacheKey := generateCacheKey(snap.Fingerprint(), names)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		metrics.AnalysesTotal.WithLabelValues("cached").Inc()
		for i := range cached.Ingredients {
			if i < len(display) {
				cached.Ingredients[i].Name = display[i]
			}
		}
		return &domain.ProductAnalysis{
			ScanData:    scan,
			Ingredients: cached.Ingredients,
			Conflicts:   cached.Conflicts,
			SafetyScore: cached.SafetyScore,
			Timestamp:   scan.ScannedAt,
		}, nil
	} else if errors.Is(err, domain.ErrCacheMiss) {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	} else {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		s.log.Warn("Cache read failed", "key", cacheKey, "error", err)
	}

	start := time.Now()
	analysis, err := s.engine.Analyze(scan, snap, snap)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	metrics.AnalysesTotal.WithLabelValues("computed").Inc()
	for _, c := range analysis.Conflicts {
		metrics.ConflictsDetected.WithLabelValues(string(c.Severity)).Inc()
	}

	if err := s.setInCache(ctx, cacheKey, analysis); err != nil {
		// Log but don't fail if caching fails
		s.log.Warn("Cache write failed", "key", cacheKey, "error", err)
	}

	return analysis, nil
}

// BatchItem is the outcome of one scan in a batch
type BatchItem struct {
	Analysis *domain.ProductAnalysis `json:"analysis,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// AnalyzeBatch analyzes each scan independently and in parallel. A failing
// scan reports its error in place; only context cancellation fails the batch.
func (s *ScanService) AnalyzeBatch(ctx context.Context, requests []domain.ScanRequest) ([]BatchItem, error) {
	if len(requests) == 0 {
		return nil, domain.NewValidationError("scans", "at least one scan is required")
	}

	items := make([]BatchItem, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)

	for i := range requests {
		req := requests[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			analysis, err := s.Analyze(gctx, &req)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				items[i] = BatchItem{Error: err.Error()}
				return nil
			}
			items[i] = BatchItem{Analysis: analysis}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// AnalyzeBarcode resolves a barcode through the remote product database and
// analyzes the returned ingredient list.
func (s *ScanService) AnalyzeBarcode(ctx context.Context, barcode string) (*domain.ProductAnalysis, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.NewValidationError("barcode", "is required")
	}
	if s.lookup == nil {
		return nil, fmt.Errorf("%w: barcode lookup is not configured", domain.ErrLookupFailure)
	}

	product, err := s.lookup.LookupBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if len(product.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: no ingredient list for barcode %s", domain.ErrProductNotFound, barcode)
	}

	return s.Analyze(ctx, &domain.ScanRequest{
		ProductName: product.Name,
		Brand:       product.Brand,
		Barcode:     product.Barcode,
		Category:    product.Category,
		Ingredients: product.Ingredients,
	})
}

// GetAnalysis returns a stored analysis by id
func (s *ScanService) GetAnalysis(ctx context.Context, id string) (*domain.ProductAnalysis, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("id", "is required")
	}
	return s.analyses.Get(ctx, id)
}

// ListHistory returns recent analyses, newest first
func (s *ScanService) ListHistory(ctx context.Context, limit int, favoritesOnly bool) ([]domain.ProductAnalysis, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.analyses.List(ctx, limit, favoritesOnly)
}

// SetFavorite toggles the favorite flag and returns the updated analysis
func (s *ScanService) SetFavorite(ctx context.Context, id string, favorite bool) (*domain.ProductAnalysis, error) {
	current, err := s.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.analyses.SetFavorite(ctx, id, favorite); err != nil {
		return nil, err
	}
	updated := current.WithFavorite(favorite)
	return &updated, nil
}

// generateCacheKey creates a cache key from the snapshot fingerprint and the
// normalized ingredient list.
// Format: "analysis:{fingerprint}:{name|name|...}"
func generateCacheKey(fingerprint string, normalizedNames []string) string {
	return fmt.Sprintf("analysis:%s:%s", fingerprint, strings.Join(normalizedNames, "|"))
}

// getFromCache retrieves a cached score
func (s *ScanService) getFromCache(ctx context.Context, key string) (*cachedScore, error) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var cached cachedScore
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("%w: corrupt entry: %v", domain.ErrCacheMiss, err)
	}
	return &cached, nil
}

// setInCache stores the knowledge-dependent part of an analysis
func (s *ScanService) setInCache(ctx context.Context, key string, analysis *domain.ProductAnalysis) error {
	raw, err := json.Marshal(cachedScore{
		Ingredients: analysis.Ingredients,
		Conflicts:   analysis.Conflicts,
		SafetyScore: analysis.SafetyScore,
	})
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.cacheTTL)
}
