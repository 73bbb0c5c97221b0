package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/infrastructure/metrics"
	"github.com/skinlens/backend/internal/pkg/logger"
)

// ReloadReport summarizes one knowledge-base load
type ReloadReport struct {
	Ingredients int                   `json:"ingredients"`
	Conflicts   int                   `json:"conflicts"`
	Products    int                   `json:"products"`
	Rejected    []*domain.RecordError `json:"-"`
}

// RejectedMessages renders rejected records for API output.
func (r *ReloadReport) RejectedMessages() []string {
	out := make([]string, 0, len(r.Rejected))
	for _, e := range r.Rejected {
		out = append(out, e.Error())
	}
	return out
}

// KnowledgeService owns the active knowledge snapshot. Readers get an
// immutable snapshot; Reload swaps in a new one without blocking them.
type KnowledgeService struct {
	repo     domain.KnowledgeRepository
	log      *logger.Logger
	snapshot atomic.Pointer[KnowledgeSnapshot]
	versions atomic.Uint64
}

// NewKnowledgeService creates a knowledge service backed by repo
func NewKnowledgeService(repo domain.KnowledgeRepository, log *logger.Logger) *KnowledgeService {
	if log == nil {
		log = logger.NewNop()
	}
	return &KnowledgeService{
		repo: repo,
		log:  log.With("service", "KnowledgeService"),
	}
}

// Reload reads every knowledge table, validates the rows and activates the
// resulting snapshot. Rejected rows are logged and reported, never fatal.
func (s *KnowledgeService) Reload(ctx context.Context) (*ReloadReport, error) {
	ingredients, err := s.repo.LoadIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	conflicts, err := s.repo.LoadConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load conflicts: %w", err)
	}
	catalog, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	snap, rejected := BuildSnapshot(ingredients, conflicts, catalog)
	for _, r := range rejected {
		s.log.Warn("Skipped knowledge record", "kind", r.Kind, "index", r.Index, "value", r.Value, "error", r.Err)
		metrics.KnowledgeRecordsRejected.WithLabelValues(r.Kind).Inc()
	}

	snap.version = s.versions.Add(1)
	s.snapshot.Store(snap)

	nIng, nConf, nProd := snap.Stats()
	metrics.KnowledgeRecords.WithLabelValues("ingredient").Set(float64(nIng))
	metrics.KnowledgeRecords.WithLabelValues("conflict").Set(float64(nConf))
	metrics.KnowledgeRecords.WithLabelValues("product").Set(float64(nProd))

	s.log.Info("Knowledge snapshot loaded",
		"ingredients", nIng,
		"conflicts", nConf,
		"products", nProd,
		"rejected", len(rejected))

	return &ReloadReport{
		Ingredients: nIng,
		Conflicts:   nConf,
		Products:    nProd,
		Rejected:    rejected,
	}, nil
}

// Snapshot returns the active snapshot, or ErrKnowledgeUnavailable before the
// first successful Reload.
func (s *KnowledgeService) Snapshot() (*KnowledgeSnapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, domain.ErrKnowledgeUnavailable
	}
	return snap, nil
}
