package store

import (
	"time"

	"gorm.io/datatypes"

	"github.com/skinlens/backend/internal/domain"
)

// Knowledge rows are stored exactly as imported. Validation happens when a
// snapshot is built, so a bad row never blocks an import.

type ingredientRow struct {
	ID         uint `gorm:"primaryKey"`
	Name       string
	Category   string
	Functions  datatypes.JSONSlice[string]
	Properties datatypes.JSONType[map[string]string]
	Purpose    string
	EWGScore   *int `gorm:"column:ewg_score"`
	Concerns   datatypes.JSONSlice[string]
	CreatedAt  time.Time
}

func (ingredientRow) TableName() string { return "ingredients" }

type conflictRow struct {
	ID             uint   `gorm:"primaryKey"`
	Primary        string `gorm:"column:primary_ingredient;index"`
	Secondary      string `gorm:"column:secondary_ingredient"`
	Severity       string
	Type           string
	Description    string
	Recommendation string
	Notes          string
	References     datatypes.JSONSlice[domain.RawReference]
	CreatedAt      time.Time
}

func (conflictRow) TableName() string { return "ingredient_conflicts" }

type productRow struct {
	ID                uint   `gorm:"primaryKey"`
	ProductID         string `gorm:"index"`
	Name              string
	Brand             string
	Ingredients       datatypes.JSONSlice[string]
	SuitableSkinTypes datatypes.JSONSlice[string]
	AddressesConcerns datatypes.JSONSlice[string]
	SafetyScore       int
	IsPopular         bool
	IsGoodValue       bool
	Category          string
	CreatedAt         time.Time
}

func (productRow) TableName() string { return "catalog_products" }

type analysisRow struct {
	ID          string `gorm:"primaryKey"`
	ProductName string
	Brand       string
	Overall     int
	IsFavorite  bool      `gorm:"index"`
	ScannedAt   time.Time `gorm:"index"`
	Payload     datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (analysisRow) TableName() string { return "analyses" }

type savedRecommendationRow struct {
	ID          string `gorm:"primaryKey"`
	ProductID   string `gorm:"index"`
	ProductName string
	Payload     datatypes.JSON
	CreatedAt   time.Time
}

func (savedRecommendationRow) TableName() string { return "saved_recommendations" }

func allModels() []interface{} {
	return []interface{}{
		&ingredientRow{},
		&conflictRow{},
		&productRow{},
		&analysisRow{},
		&savedRecommendationRow{},
	}
}

func toIngredientRow(r domain.RawIngredient) ingredientRow {
	return ingredientRow{
		Name:       r.Name,
		Category:   r.Category,
		Functions:  datatypes.NewJSONSlice(nonNil(r.Functions)),
		Properties: datatypes.NewJSONType(r.Properties),
		Purpose:    r.Purpose,
		EWGScore:   r.EWGScore,
		Concerns:   datatypes.NewJSONSlice(nonNil(r.Concerns)),
	}
}

func (r ingredientRow) toRaw() domain.RawIngredient {
	return domain.RawIngredient{
		Name:       r.Name,
		Category:   r.Category,
		Functions:  []string(r.Functions),
		Properties: r.Properties.Data(),
		Purpose:    r.Purpose,
		EWGScore:   r.EWGScore,
		Concerns:   []string(r.Concerns),
	}
}

func toConflictRow(r domain.RawConflict) conflictRow {
	refs := r.References
	if refs == nil {
		refs = []domain.RawReference{}
	}
	return conflictRow{
		Primary:        r.PrimaryIngredient,
		Secondary:      r.SecondaryIngredient,
		Severity:       r.Severity,
		Type:           r.Type,
		Description:    r.Description,
		Recommendation: r.Recommendation,
		Notes:          r.Notes,
		References:     datatypes.NewJSONSlice(refs),
	}
}

func (r conflictRow) toRaw() domain.RawConflict {
	return domain.RawConflict{
		PrimaryIngredient:   r.Primary,
		SecondaryIngredient: r.Secondary,
		Severity:            r.Severity,
		Type:                r.Type,
		Description:         r.Description,
		Recommendation:      r.Recommendation,
		Notes:               r.Notes,
		References:          []domain.RawReference(r.References),
	}
}

func toProductRow(r domain.RawProduct) productRow {
	return productRow{
		ProductID:         r.ID,
		Name:              r.Name,
		Brand:             r.Brand,
		Ingredients:       datatypes.NewJSONSlice(nonNil(r.Ingredients)),
		SuitableSkinTypes: datatypes.NewJSONSlice(nonNil(r.SuitableSkinTypes)),
		AddressesConcerns: datatypes.NewJSONSlice(nonNil(r.AddressesConcerns)),
		SafetyScore:       r.SafetyScore,
		IsPopular:         r.IsPopular,
		IsGoodValue:       r.IsGoodValue,
		Category:          r.Category,
	}
}

func (r productRow) toRaw() domain.RawProduct {
	return domain.RawProduct{
		ID:                r.ProductID,
		Name:              r.Name,
		Brand:             r.Brand,
		Ingredients:       []string(r.Ingredients),
		SuitableSkinTypes: []string(r.SuitableSkinTypes),
		AddressesConcerns: []string(r.AddressesConcerns),
		SafetyScore:       r.SafetyScore,
		IsPopular:         r.IsPopular,
		IsGoodValue:       r.IsGoodValue,
		Category:          r.Category,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
