package usecase

import (
	"errors"
	"reflect"
	"testing"

	"github.com/skinlens/backend/internal/domain"
)

func analysisWith(overall int, category string, ingredients ...string) domain.ProductAnalysis {
	analyzed := make([]domain.AnalyzedIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		analyzed = append(analyzed, domain.AnalyzedIngredient{Name: ing})
	}
	return domain.ProductAnalysis{
		ScanData: domain.ScanData{
			ProductName: "Current Serum",
			Brand:       "Acme",
			Category:    category,
			Ingredients: ingredients,
		},
		Ingredients: analyzed,
		SafetyScore: domain.SafetyScore{Overall: overall, Irritation: 100, Acne: 100, Sensitivity: 100},
	}
}

func TestProfileAffinity(t *testing.T) {
	base := domain.CandidateProduct{
		ID:                "p1",
		Name:              "Barrier Cream",
		Ingredients:       []string{"Water", "Ceramide NP", "Hyaluronic Acid", "Fragrance"},
		SuitableSkinTypes: []string{"Dry", "normal"},
		AddressesConcerns: []string{"dryness", "redness"},
	}

	tests := []struct {
		name    string
		profile domain.UserProfile
		want    int
	}{
		{
			name:    "skin type only",
			profile: domain.UserProfile{SkinType: domain.SkinDry},
			want:    15,
		},
		{
			name:    "no overlap at all",
			profile: domain.UserProfile{SkinType: domain.SkinOily},
			want:    0,
		},
		{
			name: "preferred ingredients substring match",
			profile: domain.UserProfile{
				SkinType:             domain.SkinOily,
				PreferredIngredients: []string{"ceramide", "hyaluronic", "niacinamide"},
			},
			want: 10,
		},
		{
			name:    "avoided ingredient is a soft negative",
			profile: domain.UserProfile{SkinType: domain.SkinDry, AvoidedIngredients: []string{"fragrance"}},
			want:    5,
		},
		{
			name:    "allergen is a hard negative",
			profile: domain.UserProfile{SkinType: domain.SkinDry, Allergies: []string{"Fragrance"}},
			want:    -15,
		},
		{
			name:    "covered concerns",
			profile: domain.UserProfile{SkinType: domain.SkinOily, SkinConcerns: []string{"Redness", "acne", "dryness"}},
			want:    20,
		},
		{
			name:    "repeated allergy counts once",
			profile: domain.UserProfile{SkinType: domain.SkinDry, Allergies: []string{"fragrance", "Fragrance", " FRAGRANCE "}},
			want:    -15,
		},
		{
			name: "repeated preferred, avoided and concern terms count once",
			profile: domain.UserProfile{
				SkinType:             domain.SkinOily,
				PreferredIngredients: []string{"Ceramide", "ceramide"},
				AvoidedIngredients:   []string{"fragrance", "Fragrance"},
				SkinConcerns:         []string{"redness", "Redness"},
			},
			want: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProfileAffinity(tt.profile, base); got != tt.want {
				t.Errorf("ProfileAffinity() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProfileAffinity_AllergenDominates(t *testing.T) {
	profile := domain.UserProfile{SkinType: domain.SkinNormal, Allergies: []string{"lanolin"}}
	clean := domain.CandidateProduct{Name: "Balm", Ingredients: []string{"Shea Butter", "Beeswax"}}
	withAllergen := clean
	withAllergen.Ingredients = append([]string{"Lanolin"}, clean.Ingredients...)

	diff := ProfileAffinity(profile, clean) - ProfileAffinity(profile, withAllergen)
	if diff < allergyPenalty {
		t.Errorf("allergen lowered affinity by %d, want at least %d", diff, allergyPenalty)
	}
}

func TestMatchScore(t *testing.T) {
	profile := domain.UserProfile{SkinType: domain.SkinDry}
	current := analysisWith(80, "serum", "Water", "Retinol", "Vitamin C")

	tests := []struct {
		name      string
		candidate domain.CandidateProduct
		want      int
	}{
		{
			name:      "baseline only",
			candidate: domain.CandidateProduct{SafetyScore: 70, Ingredients: []string{"a", "b", "c"}},
			want:      50,
		},
		{
			name:      "improvement bonus rounds",
			candidate: domain.CandidateProduct{SafetyScore: 93, Ingredients: []string{"a", "b", "c"}},
			want:      53, // 13/5 = 2.6
		},
		{
			name:      "equal safety earns nothing",
			candidate: domain.CandidateProduct{SafetyScore: 80, Ingredients: []string{"a", "b", "c"}},
			want:      50,
		},
		{
			name:      "simpler and same category",
			candidate: domain.CandidateProduct{SafetyScore: 50, Category: "SERUM", Ingredients: []string{"a"}},
			want:      65,
		},
		{
			name: "everything together",
			candidate: domain.CandidateProduct{
				SafetyScore:       100,
				Category:          "serum",
				SuitableSkinTypes: []string{"dry"},
				Ingredients:       []string{"a", "b"},
			},
			want: 84, // 50 + 15 + 4 + 5 + 10
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchScore(profile, current, tt.candidate); got != tt.want {
				t.Errorf("MatchScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyRecommendation(t *testing.T) {
	profile := domain.UserProfile{SkinType: domain.SkinNormal, SkinConcerns: []string{"redness"}}
	current := analysisWith(70, "moisturizer", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j")

	tests := []struct {
		name      string
		candidate domain.CandidateProduct
		want      domain.RecommendationType
	}{
		{
			name:      "safer wins over everything",
			candidate: domain.CandidateProduct{SafetyScore: 86, Category: "moisturizer", Ingredients: []string{"a"}},
			want:      domain.RecommendationSaferOption,
		},
		{
			name:      "exactly fifteen safer is not enough",
			candidate: domain.CandidateProduct{SafetyScore: 85, Ingredients: make([]string, 8)},
			want:      domain.RecommendationAlternative,
		},
		{
			name:      "fewer than seventy percent of ingredients",
			candidate: domain.CandidateProduct{SafetyScore: 70, Category: "moisturizer", Ingredients: []string{"a", "b", "c", "d", "e", "f"}},
			want:      domain.RecommendationSimpleIngredients,
		},
		{
			name:      "same category",
			candidate: domain.CandidateProduct{SafetyScore: 70, Category: "Moisturizer", AddressesConcerns: []string{"redness"}, Ingredients: make([]string, 9)},
			want:      domain.RecommendationSameCategory,
		},
		{
			name:      "addresses a concern",
			candidate: domain.CandidateProduct{SafetyScore: 70, Category: "toner", AddressesConcerns: []string{"Redness"}, Ingredients: make([]string, 9)},
			want:      domain.RecommendationForConcern,
		},
		{
			name:      "fallback",
			candidate: domain.CandidateProduct{SafetyScore: 40, Category: "toner", Ingredients: make([]string, 12)},
			want:      domain.RecommendationAlternative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyRecommendation(profile, current, tt.candidate); got != tt.want {
				t.Errorf("classifyRecommendation() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMatchReasons(t *testing.T) {
	profile := domain.UserProfile{
		SkinType:             domain.SkinSensitive,
		SkinConcerns:         []string{"redness"},
		Allergies:            []string{"lanolin"},
		AvoidedIngredients:   []string{"alcohol denat"},
		PreferredIngredients: []string{"centella"},
	}
	candidate := domain.CandidateProduct{
		Name:              "Calming Gel",
		Ingredients:       []string{"Water", "Centella Asiatica Extract"},
		SuitableSkinTypes: []string{"sensitive"},
		AddressesConcerns: []string{"redness"},
		SafetyScore:       95,
		IsPopular:         true,
		IsGoodValue:       true,
	}
	current := analysisWith(80, "", "Water")

	got := matchReasons(profile, candidate, &current)
	want := []domain.MatchReason{
		domain.ReasonSkinType,
		domain.ReasonPreferredIngredients,
		domain.ReasonAvoidsAllergies,
		domain.ReasonAvoidsConcerns,
		domain.ReasonAddressesConcerns,
		domain.ReasonScientificEvidence,
		domain.ReasonHighlyRated,
		domain.ReasonGoodValue,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("matchReasons() = %v, want %v", got, want)
	}

	t.Run("no evidence without current product", func(t *testing.T) {
		for _, r := range matchReasons(profile, candidate, nil) {
			if r == domain.ReasonScientificEvidence {
				t.Error("scientificEvidence needs a current product to compare with")
			}
		}
	})

	t.Run("empty lists claim nothing", func(t *testing.T) {
		bare := domain.UserProfile{SkinType: domain.SkinOily}
		got := matchReasons(bare, domain.CandidateProduct{Ingredients: []string{"Water"}}, &current)
		if len(got) != 0 {
			t.Errorf("matchReasons() = %v, want none", got)
		}
	})
}

func TestRecommend(t *testing.T) {
	engine := NewRecommendationEngine(nil, RecommendationEngineConfig{EnableDebugLogging: true})
	profile := domain.UserProfile{SkinType: domain.SkinDry, PreferredIngredients: []string{"ceramide"}}
	current := analysisWith(60, "moisturizer", "Water", "Mineral Oil", "Fragrance", "Paraben")
	current.ScanData.ProductID = "current"

	catalog := []domain.CandidateProduct{
		{ID: "current", Name: "Current Serum", Brand: "Acme", SafetyScore: 100, Ingredients: []string{"Water"}},
		{ID: "same-name", Name: "current serum", Brand: "ACME", SafetyScore: 100, Ingredients: []string{"Water"}},
		{ID: "b", Name: "Beta Cream", Brand: "Zed", SafetyScore: 60, Ingredients: []string{"a", "b", "c", "d"}},
		{ID: "a", Name: "Alpha Cream", Brand: "Zed", SafetyScore: 60, Ingredients: []string{"a", "b", "c", "d"}},
		{
			ID: "best", Name: "Ceramide Cream", Brand: "Derm", SafetyScore: 95, Category: "moisturizer",
			SuitableSkinTypes: []string{"dry"}, Ingredients: []string{"Water", "Glycerin", "Ceramide NP"},
		},
	}

	t.Run("ranks, excludes current product and breaks ties by name", func(t *testing.T) {
		recs, err := engine.Recommend(profile, current, catalog, 10)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("len(recs) = %d, want 3", len(recs))
		}

		gotIDs := []string{recs[0].ProductID, recs[1].ProductID, recs[2].ProductID}
		wantIDs := []string{"best", "a", "b"}
		if !reflect.DeepEqual(gotIDs, wantIDs) {
			t.Errorf("order = %v, want %v", gotIDs, wantIDs)
		}

		best := recs[0]
		// 50 + 15 + 5 + 7 + 5 + 10
		if best.MatchScore != 92 || best.Strength != 92 {
			t.Errorf("best score = %d/%d, want 92/92", best.MatchScore, best.Strength)
		}
		if best.Type != domain.RecommendationSaferOption {
			t.Errorf("best type = %s, want saferOption", best.Type)
		}
		if !reflect.DeepEqual(best.KeyIngredients, []string{"Ceramide NP", "Water", "Glycerin"}) {
			t.Errorf("KeyIngredients = %v, want preferred first", best.KeyIngredients)
		}
		if best.IsSaved {
			t.Error("fresh recommendations are not saved")
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		recs, err := engine.Recommend(profile, current, catalog, 1)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(recs) != 1 || recs[0].ProductID != "best" {
			t.Errorf("recs = %+v, want only best", recs)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		if _, err := engine.Recommend(profile, current, catalog, 0); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("limit 0 error = %v, want ErrInvalidRequest", err)
		}
		if _, err := engine.Recommend(domain.UserProfile{SkinType: "scaly"}, current, catalog, 5); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("bad skin type error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("empty catalog", func(t *testing.T) {
		recs, err := engine.Recommend(profile, current, nil, 5)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if recs == nil || len(recs) != 0 {
			t.Errorf("recs = %v, want empty slice", recs)
		}
	})
}

func TestRecommend_StrengthBounds(t *testing.T) {
	engine := NewRecommendationEngine(nil, RecommendationEngineConfig{})
	current := analysisWith(0, "cleanser", "a", "b", "c", "d", "e")
	profile := domain.UserProfile{
		SkinType:             domain.SkinOily,
		SkinConcerns:         []string{"acne", "oiliness", "pores"},
		PreferredIngredients: []string{"salicylic", "niacinamide", "zinc"},
		Allergies:            []string{"nut oil", "lanolin", "balsam", "limonene"},
	}
	catalog := []domain.CandidateProduct{
		{
			ID: "high", Name: "Clarifying Wash", SafetyScore: 100, Category: "cleanser",
			SuitableSkinTypes: []string{"oily"},
			AddressesConcerns: []string{"acne", "oiliness", "pores"},
			Ingredients:       []string{"Salicylic Acid", "Niacinamide", "Zinc PCA"},
		},
		{
			ID: "low", Name: "Rich Balm", SafetyScore: 0,
			Ingredients: []string{"Nut Oil", "Lanolin", "Peru Balsam", "Limonene", "Wax", "Petrolatum"},
		},
	}

	recs, err := engine.Recommend(profile, current, catalog, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}

	high, low := recs[0], recs[1]
	// 50 + 15 + 15 + 30 + 20 + 5 + 10
	if high.MatchScore != 145 || high.Strength != 100 {
		t.Errorf("high = %d/%d, want raw 145 shown as 100", high.MatchScore, high.Strength)
	}
	// 50 - 120
	if low.MatchScore != -70 || low.Strength != 0 {
		t.Errorf("low = %d/%d, want raw -70 shown as 0", low.MatchScore, low.Strength)
	}
}

func TestAlternativesFor(t *testing.T) {
	engine := NewRecommendationEngine(nil, RecommendationEngineConfig{})
	profile := domain.UserProfile{SkinType: domain.SkinOily, SkinConcerns: []string{"acne"}}
	catalog := []domain.CandidateProduct{
		{ID: "r1", Name: "Retinol Night", SafetyScore: 99, Ingredients: []string{"Water", "Retinol"}, SuitableSkinTypes: []string{"oily"}},
		{ID: "r2", Name: "Retinol-Free Gel", SafetyScore: 60, Ingredients: []string{"Water", "Bakuchiol"}, AddressesConcerns: []string{"acne"}},
		{ID: "r3", Name: "Plain Lotion", SafetyScore: 100, Ingredients: []string{"Water", "Glycerin"}},
		{ID: "r4", Name: "Encapsulated Retinol Cream", SafetyScore: 90, Ingredients: []string{"Hydroxypinacolone Retinoate", "Encapsulated retinol"}},
	}

	recs, err := engine.AlternativesFor(profile, " RETINOL ", catalog, 5)
	if err != nil {
		t.Fatalf("AlternativesFor() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}

	first, second := recs[0], recs[1]
	if first.ProductID != "r2" || first.MatchScore != 10 || first.Type != domain.RecommendationForConcern {
		t.Errorf("first = %+v, want r2 scored 10 as forConcern", first)
	}
	if second.ProductID != "r3" || second.MatchScore != 0 || second.Type != domain.RecommendationAlternative {
		t.Errorf("second = %+v, want r3 scored 0 as alternativeProduct", second)
	}
	for _, r := range recs {
		for _, reason := range r.MatchReasons {
			if reason == domain.ReasonScientificEvidence {
				t.Errorf("%s: alternatives never claim scientificEvidence", r.ProductID)
			}
		}
	}

	t.Run("requires ingredient", func(t *testing.T) {
		_, err := engine.AlternativesFor(profile, "  ", catalog, 5)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Field != "ingredient" {
			t.Errorf("error = %v, want ingredient ValidationError", err)
		}
	})
}

func TestIsCurrentProduct(t *testing.T) {
	tests := []struct {
		name string
		scan domain.ScanData
		c    domain.CandidateProduct
		want bool
	}{
		{"same id", domain.ScanData{ProductID: "x1"}, domain.CandidateProduct{ID: "x1", Name: "Other"}, true},
		{"different id same name", domain.ScanData{ProductID: "x1", ProductName: "Gel", Brand: "B"}, domain.CandidateProduct{ID: "x2", Name: "gel", Brand: "b"}, true},
		{"brand and name", domain.ScanData{ProductName: " Daily  Gel ", Brand: "Acme"}, domain.CandidateProduct{ID: "z", Name: "daily gel", Brand: "ACME"}, true},
		{"different brand", domain.ScanData{ProductName: "Daily Gel", Brand: "Acme"}, domain.CandidateProduct{ID: "z", Name: "Daily Gel", Brand: "Other"}, false},
		{"anonymous scan", domain.ScanData{}, domain.CandidateProduct{ID: "z", Name: "Daily Gel"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCurrentProduct(tt.scan, tt.c); got != tt.want {
				t.Errorf("isCurrentProduct() = %v, want %v", got, tt.want)
			}
		})
	}
}
