package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/pkg/logger"
)

// KnowledgeRepo reads and replaces the ingredient, conflict and catalog tables
type KnowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewKnowledgeRepo creates a knowledge repository on db
func NewKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) *KnowledgeRepo {
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	return &KnowledgeRepo{db: db, log: baseLog.With("repo", "KnowledgeRepo")}
}

func (r *KnowledgeRepo) LoadIngredients(ctx context.Context) ([]domain.RawIngredient, error) {
	var rows []ingredientRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RawIngredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRaw())
	}
	return out, nil
}

func (r *KnowledgeRepo) LoadConflicts(ctx context.Context) ([]domain.RawConflict, error) {
	var rows []conflictRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RawConflict, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRaw())
	}
	return out, nil
}

func (r *KnowledgeRepo) LoadCatalog(ctx context.Context) ([]domain.RawProduct, error) {
	var rows []productRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.RawProduct, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRaw())
	}
	return out, nil
}

// Replace swaps the whole knowledge base for the given records in one
// transaction. Readers see either the old tables or the new ones.
func (r *KnowledgeRepo) Replace(ctx context.Context, src domain.KnowledgeRepository) error {
	ingredients, err := src.LoadIngredients(ctx)
	if err != nil {
		return fmt.Errorf("read ingredients: %w", err)
	}
	conflicts, err := src.LoadConflicts(ctx)
	if err != nil {
		return fmt.Errorf("read conflicts: %w", err)
	}
	products, err := src.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&ingredientRow{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&conflictRow{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&productRow{}).Error; err != nil {
			return err
		}

		if len(ingredients) > 0 {
			rows := make([]ingredientRow, 0, len(ingredients))
			for _, ing := range ingredients {
				rows = append(rows, toIngredientRow(ing))
			}
			if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
				return err
			}
		}
		if len(conflicts) > 0 {
			rows := make([]conflictRow, 0, len(conflicts))
			for _, c := range conflicts {
				rows = append(rows, toConflictRow(c))
			}
			if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
				return err
			}
		}
		if len(products) > 0 {
			rows := make([]productRow, 0, len(products))
			for _, p := range products {
				rows = append(rows, toProductRow(p))
			}
			if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace knowledge: %w", err)
	}

	r.log.Info("Knowledge tables replaced",
		"ingredients", len(ingredients),
		"conflicts", len(conflicts),
		"products", len(products))
	return nil
}

// Empty reports whether no ingredient rows exist yet
func (r *KnowledgeRepo) Empty(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&ingredientRow{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}
