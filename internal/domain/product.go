package domain

// CandidateProduct is a catalog entry eligible for recommendation
type CandidateProduct struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Brand             string   `json:"brand,omitempty"`
	Ingredients       []string `json:"ingredients"`
	SuitableSkinTypes []string `json:"suitableSkinTypes,omitempty"`
	AddressesConcerns []string `json:"addressesConcerns,omitempty"`
	SafetyScore       int      `json:"safetyScore"`
	IsPopular         bool     `json:"isPopular"`
	IsGoodValue       bool     `json:"isGoodValue"`
	Category          string   `json:"category,omitempty"`
}

// RecommendationType explains what kind of alternative a suggestion is
type RecommendationType string

const (
	RecommendationSaferOption       RecommendationType = "saferOption"
	RecommendationSimpleIngredients RecommendationType = "simpleIngredients"
	RecommendationSameCategory      RecommendationType = "sameCategory"
	RecommendationForConcern        RecommendationType = "forConcern"
	RecommendationAlternative       RecommendationType = "alternativeProduct"
)

// MatchReason is a tag explaining why a product was recommended
type MatchReason string

const (
	ReasonSkinType             MatchReason = "skinType"
	ReasonPreferredIngredients MatchReason = "preferredIngredients"
	ReasonAvoidsAllergies      MatchReason = "avoidsAllergies"
	ReasonAvoidsConcerns       MatchReason = "avoidsConcerns"
	ReasonAddressesConcerns    MatchReason = "addressesConcerns"
	ReasonScientificEvidence   MatchReason = "scientificEvidence"
	ReasonHighlyRated          MatchReason = "highlyRated"
	ReasonGoodValue            MatchReason = "goodValue"
)

// Recommendation is a ranked suggestion. Ephemeral unless the user saves it.
type Recommendation struct {
	ID             string             `json:"id,omitempty"`
	ProductID      string             `json:"productId"`
	ProductName    string             `json:"productName"`
	Brand          string             `json:"brand,omitempty"`
	KeyIngredients []string           `json:"keyIngredients"`
	Type           RecommendationType `json:"type"`
	MatchReasons   []MatchReason      `json:"matchReasons"`
	SafetyScore    int                `json:"safetyScore"`
	Strength       int                `json:"strength"`   // 0-100
	MatchScore     int                `json:"matchScore"` // raw, unbounded
	IsSaved        bool               `json:"isSaved"`
}

// WithSaved returns a copy with the saved flag set.
func (r Recommendation) WithSaved(saved bool) Recommendation {
	r.IsSaved = saved
	return r
}

// ExternalProduct is a product resolved from a barcode by a remote database
type ExternalProduct struct {
	Barcode     string   `json:"barcode"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand,omitempty"`
	Category    string   `json:"category,omitempty"`
	Ingredients []string `json:"ingredients"`
}
