package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/pkg/logger"
)

// AnalysisRepo persists scan history
type AnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewAnalysisRepo creates an analysis repository on db
func NewAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) *AnalysisRepo {
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	return &AnalysisRepo{db: db, log: baseLog.With("repo", "AnalysisRepo")}
}

func (r *AnalysisRepo) Save(ctx context.Context, analysis domain.ProductAnalysis) error {
	if analysis.ID == "" {
		return domain.NewValidationError("id", "is required")
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	row := analysisRow{
		ID:          analysis.ID,
		ProductName: analysis.ScanData.ProductName,
		Brand:       analysis.ScanData.Brand,
		Overall:     analysis.SafetyScore.Overall,
		IsFavorite:  analysis.IsFavorite,
		ScannedAt:   analysis.Timestamp,
		Payload:     datatypes.JSON(payload),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"product_name", "brand", "overall", "is_favorite", "scanned_at", "payload", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *AnalysisRepo) Get(ctx context.Context, id string) (*domain.ProductAnalysis, error) {
	var row analysisRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.decode()
}

func (r *AnalysisRepo) List(ctx context.Context, limit int, favoritesOnly bool) ([]domain.ProductAnalysis, error) {
	q := r.db.WithContext(ctx).Order("scanned_at DESC").Order("created_at DESC")
	if favoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []analysisRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ProductAnalysis, 0, len(rows))
	for _, row := range rows {
		a, err := row.decode()
		if err != nil {
			r.log.Warn("Skipping undecodable analysis", "id", row.ID, "error", err)
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *AnalysisRepo) SetFavorite(ctx context.Context, id string, favorite bool) error {
	res := r.db.WithContext(ctx).
		Model(&analysisRow{}).
		Where("id = ?", id).
		Update("is_favorite", favorite)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// decode restores the stored analysis. The favorite column wins over the
// payload because SetFavorite only touches the column.
func (row analysisRow) decode() (*domain.ProductAnalysis, error) {
	var a domain.ProductAnalysis
	if err := json.Unmarshal(row.Payload, &a); err != nil {
		return nil, fmt.Errorf("decode analysis %s: %w", row.ID, err)
	}
	a.ID = row.ID
	a.IsFavorite = row.IsFavorite
	return &a, nil
}
