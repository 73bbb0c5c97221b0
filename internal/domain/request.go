package domain

import "time"

// ScanRequest represents an ingredient analysis request
type ScanRequest struct {
	ProductID   string    `json:"productId,omitempty"`
	ProductName string    `json:"productName,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Barcode     string    `json:"barcode,omitempty"`
	Category    string    `json:"category,omitempty"`
	Ingredients []string  `json:"ingredients" binding:"required,min=1"`
	ScannedAt   time.Time `json:"scannedAt,omitempty"`
}

// ToScanData converts the request into the scan record stored with an analysis.
func (r *ScanRequest) ToScanData() ScanData {
	return ScanData{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Brand:       r.Brand,
		Barcode:     r.Barcode,
		Category:    r.Category,
		Ingredients: append([]string(nil), r.Ingredients...),
		ScannedAt:   r.ScannedAt,
	}
}

// BatchScanRequest analyzes several products in one call. Items are checked
// individually so one bad scan does not reject the batch.
type BatchScanRequest struct {
	Scans []ScanRequest `json:"scans" binding:"required,min=1,max=100"`
}

// BarcodeRequest resolves a barcode remotely, then analyzes the product
type BarcodeRequest struct {
	Barcode string `json:"barcode" binding:"required,numeric,min=8,max=14"`
}

// FavoriteRequest toggles the favorite flag of a stored analysis
type FavoriteRequest struct {
	IsFavorite *bool `json:"isFavorite" binding:"required"`
}

// RecommendRequest asks for alternatives to an analyzed product. Either
// AnalysisID or an inline Analysis must be given.
type RecommendRequest struct {
	AnalysisID string           `json:"analysisId,omitempty"`
	Analysis   *ProductAnalysis `json:"analysis,omitempty"`
	Profile    UserProfile      `json:"profile"`
	Limit      int              `json:"limit,omitempty"`
}

// AlternativesRequest asks for products that avoid one ingredient
type AlternativesRequest struct {
	Ingredient string      `json:"ingredient" binding:"required"`
	Profile    UserProfile `json:"profile"`
	Limit      int         `json:"limit,omitempty"`
}
