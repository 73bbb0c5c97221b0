package domain

import (
	"context"
	"time"
)

// IngredientLookup resolves a normalized ingredient name against the
// ingredient knowledge base.
type IngredientLookup interface {
	Lookup(normalizedName string) (Ingredient, bool)
}

// ConflictSource enumerates the conflict knowledge base
type ConflictSource interface {
	Conflicts() []ConflictRecord
}

// RawIngredient is an ingredient row as stored, before validation
type RawIngredient struct {
	Name       string            `yaml:"name"`
	Category   string            `yaml:"category"`
	Functions  []string          `yaml:"functions"`
	Properties map[string]string `yaml:"properties"`
	Purpose    string            `yaml:"purpose"`
	EWGScore   *int              `yaml:"ewgScore"`
	Concerns   []string          `yaml:"concerns"`
}

// RawReference is a stored scientific reference
type RawReference struct {
	Title  string `yaml:"title" json:"title"`
	URL    string `yaml:"url" json:"url"`
	Status string `yaml:"status" json:"status"`
}

// RawConflict is a conflict row as stored; enum fields are unvalidated strings
type RawConflict struct {
	PrimaryIngredient   string         `yaml:"primary"`
	SecondaryIngredient string         `yaml:"secondary"`
	Severity            string         `yaml:"severity"`
	Type                string         `yaml:"type"`
	Description         string         `yaml:"description"`
	Recommendation      string         `yaml:"recommendation"`
	Notes               string         `yaml:"notes"`
	References          []RawReference `yaml:"references"`
}

// RawProduct is a catalog row as stored
type RawProduct struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	Brand             string   `yaml:"brand"`
	Ingredients       []string `yaml:"ingredients"`
	SuitableSkinTypes []string `yaml:"suitableSkinTypes"`
	AddressesConcerns []string `yaml:"addressesConcerns"`
	SafetyScore       int      `yaml:"safetyScore"`
	IsPopular         bool     `yaml:"isPopular"`
	IsGoodValue       bool     `yaml:"isGoodValue"`
	Category          string   `yaml:"category"`
}

// KnowledgeRepository is the persistence collaborator holding reference data
type KnowledgeRepository interface {
	LoadIngredients(ctx context.Context) ([]RawIngredient, error)
	LoadConflicts(ctx context.Context) ([]RawConflict, error)
	LoadCatalog(ctx context.Context) ([]RawProduct, error)
}

// AnalysisRepository stores scan history
type AnalysisRepository interface {
	Save(ctx context.Context, analysis ProductAnalysis) error
	Get(ctx context.Context, id string) (*ProductAnalysis, error)
	List(ctx context.Context, limit int, favoritesOnly bool) ([]ProductAnalysis, error)
	SetFavorite(ctx context.Context, id string, favorite bool) error
}

// RecommendationRepository stores recommendations the user chose to keep
type RecommendationRepository interface {
	Save(ctx context.Context, rec Recommendation) error
	List(ctx context.Context) ([]Recommendation, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductLookupClient resolves barcodes against a remote product database
type ProductLookupClient interface {
	LookupBarcode(ctx context.Context, barcode string) (*ExternalProduct, error)
}
