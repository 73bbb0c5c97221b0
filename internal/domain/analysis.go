package domain

import "time"

// MaxDimensionScore is the starting value of every safety dimension
const MaxDimensionScore = 100

// SafetyScore is a four-dimension 0-100 rating of a product's ingredient risk
type SafetyScore struct {
	Overall     int `json:"overall" validate:"min=0,max=100"`
	Irritation  int `json:"irritation" validate:"min=0,max=100"`
	Acne        int `json:"acne" validate:"min=0,max=100"`
	Sensitivity int `json:"sensitivity" validate:"min=0,max=100"`
}

// PerfectScore is the score of a product with nothing to report.
func PerfectScore() SafetyScore {
	return SafetyScore{
		Overall:     MaxDimensionScore,
		Irritation:  MaxDimensionScore,
		Acne:        MaxDimensionScore,
		Sensitivity: MaxDimensionScore,
	}
}

// ScanData is the product identity and ingredient list captured by a scan
type ScanData struct {
	ProductID   string    `json:"productId,omitempty"`
	ProductName string    `json:"productName,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Barcode     string    `json:"barcode,omitempty"`
	Category    string    `json:"category,omitempty"`
	Ingredients []string  `json:"ingredients"`
	ScannedAt   time.Time `json:"scannedAt"`
}

// ProductAnalysis is the result of analyzing one scan. Treat it as a value:
// the only permitted change is WithFavorite.
type ProductAnalysis struct {
	ID          string               `json:"id,omitempty"`
	ScanData    ScanData             `json:"scanData"`
	Ingredients []AnalyzedIngredient `json:"ingredients" validate:"min=1"`
	Conflicts   []ConflictRecord     `json:"conflicts"`
	SafetyScore SafetyScore          `json:"safetyScore"`
	IsFavorite  bool                 `json:"isFavorite"`
	Timestamp   time.Time            `json:"timestamp"`
}

// WithFavorite returns a copy with the favorite flag set.
func (a ProductAnalysis) WithFavorite(favorite bool) ProductAnalysis {
	a.IsFavorite = favorite
	return a
}

// WithID returns a copy carrying the given storage identity.
func (a ProductAnalysis) WithID(id string) ProductAnalysis {
	a.ID = id
	return a
}

// IngredientCount is the number of analyzed ingredients.
func (a ProductAnalysis) IngredientCount() int {
	return len(a.Ingredients)
}
