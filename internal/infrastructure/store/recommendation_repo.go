package store

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/pkg/logger"
)

// RecommendationRepo persists recommendations the user saved
type RecommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewRecommendationRepo creates a saved-recommendation repository on db
func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) *RecommendationRepo {
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	return &RecommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *RecommendationRepo) Save(ctx context.Context, rec domain.Recommendation) error {
	if rec.ID == "" {
		return domain.NewValidationError("id", "is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode recommendation: %w", err)
	}
	row := savedRecommendationRow{
		ID:          rec.ID,
		ProductID:   rec.ProductID,
		ProductName: rec.ProductName,
		Payload:     datatypes.JSON(payload),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"product_id", "product_name", "payload"}),
		}).
		Create(&row).Error
}

func (r *RecommendationRepo) List(ctx context.Context) ([]domain.Recommendation, error) {
	var rows []savedRecommendationRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Recommendation, 0, len(rows))
	for _, row := range rows {
		var rec domain.Recommendation
		if err := json.Unmarshal(row.Payload, &rec); err != nil {
			r.log.Warn("Skipping undecodable recommendation", "id", row.ID, "error", err)
			continue
		}
		rec.ID = row.ID
		rec.IsSaved = true
		out = append(out, rec)
	}
	return out, nil
}
