package usecase

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/skinlens/backend/internal/domain"
)

func intPtr(v int) *int { return &v }

// mustSnapshot builds a snapshot and fails the test on any rejected record
func mustSnapshot(t *testing.T, ingredients []domain.RawIngredient, conflicts []domain.RawConflict, products []domain.RawProduct) *KnowledgeSnapshot {
	t.Helper()
	snap, rejected := BuildSnapshot(ingredients, conflicts, products)
	if len(rejected) > 0 {
		t.Fatalf("BuildSnapshot() rejected %d records: %v", len(rejected), rejected[0])
	}
	return snap
}

func conflict(primary, secondary, severity, ctype string) domain.RawConflict {
	return domain.RawConflict{
		PrimaryIngredient:   primary,
		SecondaryIngredient: secondary,
		Severity:            severity,
		Type:                ctype,
		Description:         primary + " with " + secondary,
	}
}

func scanOf(ingredients ...string) domain.ScanData {
	return domain.ScanData{
		ProductName: "Test Product",
		Ingredients: ingredients,
		ScannedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSafetyEngineAnalyze(t *testing.T) {
	engine := NewSafetyEngine(nil, SafetyEngineConfig{EnableDebugLogging: true})

	knowledge := mustSnapshot(t,
		[]domain.RawIngredient{
			{Name: "Water", Purpose: "Solvent", EWGScore: intPtr(1)},
			{Name: "Retinol", Purpose: "Cell turnover", EWGScore: intPtr(9), Concerns: []string{"irritation"}},
			{Name: "Vitamin C", Purpose: "Antioxidant"},
			{Name: "Coconut Oil", Concerns: []string{"Highly Comedogenic"}},
			{Name: "Isopropyl Myristate", Concerns: []string{"acne trigger"}},
		},
		[]domain.RawConflict{
			conflict("Retinol", "Vitamin C", "high", "chemical"),
			conflict("Fragrance", "", "high", "allergic"),
			conflict("Benzoyl Peroxide", "Tretinoin", "medium", "irritation"),
			conflict("Niacinamide", "Vitamin C", "low", "effectiveness"),
		},
		nil,
	)

	tests := []struct {
		name          string
		ingredients   []string
		wantScore     domain.SafetyScore
		wantConflicts int
	}{
		{
			name:          "no conflicts scores perfectly",
			ingredients:   []string{"Water", "Glycerin"},
			wantScore:     domain.PerfectScore(),
			wantConflicts: 0,
		},
		{
			name:          "chemical conflict only reduces overall",
			ingredients:   []string{"Water", "Retinol", "Vitamin C"},
			wantScore:     domain.SafetyScore{Overall: 80, Irritation: 100, Acne: 100, Sensitivity: 100},
			wantConflicts: 1,
		},
		{
			name:          "pair matches in reverse order",
			ingredients:   []string{"vitamin c", "RETINOL"},
			wantScore:     domain.SafetyScore{Overall: 80, Irritation: 100, Acne: 100, Sensitivity: 100},
			wantConflicts: 1,
		},
		{
			name:          "intrinsic allergen reduces sensitivity",
			ingredients:   []string{"Water", "Fragrance"},
			wantScore:     domain.SafetyScore{Overall: 80, Irritation: 100, Acne: 100, Sensitivity: 70},
			wantConflicts: 1,
		},
		{
			name:          "medium irritation conflict",
			ingredients:   []string{"Tretinoin", "Benzoyl Peroxide"},
			wantScore:     domain.SafetyScore{Overall: 90, Irritation: 85, Acne: 100, Sensitivity: 100},
			wantConflicts: 1,
		},
		{
			name:          "acne concerns are cumulative",
			ingredients:   []string{"Coconut Oil", "Isopropyl Myristate"},
			wantScore:     domain.SafetyScore{Overall: 100, Irritation: 100, Acne: 70, Sensitivity: 100},
			wantConflicts: 0,
		},
		{
			name:          "one party missing means no conflict",
			ingredients:   []string{"Retinol", "Water"},
			wantScore:     domain.PerfectScore(),
			wantConflicts: 0,
		},
		{
			name:          "several conflicts add up",
			ingredients:   []string{"Retinol", "Vitamin C", "Niacinamide", "Fragrance"},
			wantScore:     domain.SafetyScore{Overall: 55, Irritation: 100, Acne: 100, Sensitivity: 70},
			wantConflicts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := engine.Analyze(scanOf(tt.ingredients...), knowledge, knowledge)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if analysis.SafetyScore != tt.wantScore {
				t.Errorf("SafetyScore = %+v, want %+v", analysis.SafetyScore, tt.wantScore)
			}
			if len(analysis.Conflicts) != tt.wantConflicts {
				t.Errorf("len(Conflicts) = %d, want %d", len(analysis.Conflicts), tt.wantConflicts)
			}
			if analysis.Conflicts == nil {
				t.Error("Conflicts should be an empty slice, not nil")
			}
		})
	}
}

func TestSafetyEngineAnalyze_IngredientDetails(t *testing.T) {
	engine := NewSafetyEngine(nil, SafetyEngineConfig{})
	knowledge := mustSnapshot(t,
		[]domain.RawIngredient{
			{Name: "Retinol", Purpose: "Cell turnover", EWGScore: intPtr(9), Concerns: []string{"irritation"}},
		},
		[]domain.RawConflict{conflict("Retinol", "Vitamin C", "high", "chemical")},
		nil,
	)

	scan := scanOf("  Water ", "Retinol", "retinol", "", "Vitamin  C")
	analysis, err := engine.Analyze(scan, knowledge, knowledge)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(analysis.Ingredients) != 3 {
		t.Fatalf("len(Ingredients) = %d, want 3 (duplicates and blanks dropped)", len(analysis.Ingredients))
	}

	water, retinol, vitc := analysis.Ingredients[0], analysis.Ingredients[1], analysis.Ingredients[2]
	if water.Name != "Water" {
		t.Errorf("display name = %q, want trimmed %q", water.Name, "Water")
	}
	if water.HasConflict || water.Purpose != "" || water.EWGScore != nil {
		t.Errorf("unknown ingredient should carry no details: %+v", water)
	}
	if !retinol.HasConflict || retinol.Purpose != "Cell turnover" || retinol.EWGScore == nil || *retinol.EWGScore != 9 {
		t.Errorf("retinol = %+v, want known ingredient in conflict", retinol)
	}
	if !vitc.HasConflict {
		t.Error("vitamin c should be flagged as in conflict")
	}
	if !analysis.Timestamp.Equal(scan.ScannedAt) {
		t.Errorf("Timestamp = %v, want %v", analysis.Timestamp, scan.ScannedAt)
	}

	c := analysis.Conflicts[0]
	if c.PrimaryIngredient != "retinol" || c.SecondaryIngredient != "vitamin c" {
		t.Errorf("conflict parties = %q/%q, want normalized names", c.PrimaryIngredient, c.SecondaryIngredient)
	}
}

func TestSafetyEngineAnalyze_EmptyInput(t *testing.T) {
	engine := NewSafetyEngine(nil, SafetyEngineConfig{})

	for _, ingredients := range [][]string{nil, {}, {"", "   "}} {
		_, err := engine.Analyze(scanOf(ingredients...), nil, nil)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Analyze(%q) error = %v, want ValidationError", ingredients, err)
		}
		if verr.Field != "ingredients" {
			t.Errorf("Field = %q, want ingredients", verr.Field)
		}
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Error("ValidationError should match ErrInvalidRequest")
		}
	}
}

func TestSafetyEngineAnalyze_WithoutKnowledge(t *testing.T) {
	engine := NewSafetyEngine(nil, SafetyEngineConfig{})

	analysis, err := engine.Analyze(scanOf("Water", "Retinol"), nil, nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.SafetyScore != domain.PerfectScore() {
		t.Errorf("SafetyScore = %+v, want perfect", analysis.SafetyScore)
	}
	if len(analysis.Ingredients) != 2 {
		t.Errorf("len(Ingredients) = %d, want 2", len(analysis.Ingredients))
	}
}

func TestSafetyEngineAnalyze_Deterministic(t *testing.T) {
	engine := NewSafetyEngine(nil, SafetyEngineConfig{})
	knowledge := mustSnapshot(t,
		[]domain.RawIngredient{{Name: "Retinol", Concerns: []string{"comedogenic"}}},
		[]domain.RawConflict{
			conflict("Retinol", "Vitamin C", "high", "chemical"),
			conflict("Retinol", "AHA", "medium", "irritation"),
		},
		nil,
	)
	scan := scanOf("AHA", "Retinol", "Vitamin C")

	first, err := engine.Analyze(scan, knowledge, knowledge)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	second, err := engine.Analyze(scan, knowledge, knowledge)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated analysis differs:\n%+v\n%+v", first, second)
	}
}

func TestSafetyEngineAnalyze_DuplicateRecords(t *testing.T) {
	engine := NewSafetyEngine(nil, SafetyEngineConfig{})
	knowledge := mustSnapshot(t, nil,
		[]domain.RawConflict{
			conflict("Retinol", "Vitamin C", "high", "chemical"),
			conflict("Vitamin C", "Retinol", "high", "chemical"),
			conflict("retinol", "vitamin c", "low", "effectiveness"),
		},
		nil,
	)

	analysis, err := engine.Analyze(scanOf("Retinol", "Vitamin C"), knowledge, knowledge)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Conflicts) != 2 {
		t.Fatalf("len(Conflicts) = %d, want 2 (same pair and type collapse)", len(analysis.Conflicts))
	}
	if analysis.SafetyScore.Overall != 75 {
		t.Errorf("Overall = %d, want 75", analysis.SafetyScore.Overall)
	}
}

func TestCalculateSafetyScore_Clamps(t *testing.T) {
	var conflicts []domain.ConflictRecord
	for i := 0; i < 10; i++ {
		conflicts = append(conflicts,
			domain.ConflictRecord{PrimaryIngredient: "a", Severity: domain.SeverityHigh, Type: domain.ConflictIrritation},
			domain.ConflictRecord{PrimaryIngredient: "b", Severity: domain.SeverityHigh, Type: domain.ConflictAllergic},
		)
	}
	var ingredients []domain.AnalyzedIngredient
	for i := 0; i < 10; i++ {
		ingredients = append(ingredients, domain.AnalyzedIngredient{Name: "x", Concerns: []string{"acne"}})
	}

	score := CalculateSafetyScore(conflicts, ingredients)
	want := domain.SafetyScore{}
	if score != want {
		t.Errorf("score = %+v, want all dimensions clamped to 0", score)
	}
}

func TestCalculateSafetyScore_OrderIndependent(t *testing.T) {
	conflicts := []domain.ConflictRecord{
		{Severity: domain.SeverityHigh, Type: domain.ConflictIrritation},
		{Severity: domain.SeverityLow, Type: domain.ConflictAllergic},
		{Severity: domain.SeverityMedium, Type: domain.ConflictChemical},
		{Severity: domain.SeverityHigh, Type: domain.ConflictIrritation},
		{Severity: domain.SeverityHigh, Type: domain.ConflictIrritation},
		{Severity: domain.SeverityHigh, Type: domain.ConflictIrritation},
	}
	reversed := make([]domain.ConflictRecord, len(conflicts))
	for i, c := range conflicts {
		reversed[len(conflicts)-1-i] = c
	}

	a := CalculateSafetyScore(conflicts, nil)
	b := CalculateSafetyScore(reversed, nil)
	if a != b {
		t.Errorf("score depends on order: %+v vs %+v", a, b)
	}
	// 4 high + 1 medium + 1 low = 80+10+5
	if a.Overall != 5 {
		t.Errorf("Overall = %d, want 5", a.Overall)
	}
	if a.Irritation != 0 {
		t.Errorf("Irritation = %d, want 0", a.Irritation)
	}
	if a.Sensitivity != 95 {
		t.Errorf("Sensitivity = %d, want 95", a.Sensitivity)
	}
}

func TestHasAcneConcern(t *testing.T) {
	tests := []struct {
		concerns []string
		want     bool
	}{
		{[]string{"ACNE"}, true},
		{[]string{"non-comedogenic claim"}, true},
		{[]string{"irritation", "Comedogenic rating 4"}, true},
		{[]string{"irritation"}, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := hasAcneConcern(tt.concerns); got != tt.want {
			t.Errorf("hasAcneConcern(%q) = %v, want %v", tt.concerns, got, tt.want)
		}
	}
}

func TestSeverityPenalties(t *testing.T) {
	tests := []struct {
		severity      domain.Severity
		wantOverall   int
		wantDimension int
	}{
		{domain.SeverityLow, 5, 5},
		{domain.SeverityMedium, 10, 15},
		{domain.SeverityHigh, 20, 30},
		{domain.Severity("critical"), 0, 0},
	}

	for _, tt := range tests {
		if got := overallPenalty(tt.severity); got != tt.wantOverall {
			t.Errorf("overallPenalty(%q) = %d, want %d", tt.severity, got, tt.wantOverall)
		}
		if got := dimensionPenalty(tt.severity); got != tt.wantDimension {
			t.Errorf("dimensionPenalty(%q) = %d, want %d", tt.severity, got, tt.wantDimension)
		}
	}
}

func TestInvolvedInAny(t *testing.T) {
	conflicts := []domain.ConflictRecord{
		{PrimaryIngredient: "retinol", SecondaryIngredient: "vitamin c", Severity: domain.SeverityHigh, Type: domain.ConflictChemical},
		{PrimaryIngredient: "fragrance", Severity: domain.SeverityMedium, Type: domain.ConflictAllergic},
	}

	for name, want := range map[string]bool{
		"retinol":   true,
		"vitamin c": true,
		"fragrance": true,
		"water":     false,
		"":          false,
	} {
		if got := involvedInAny(conflicts, name); got != want {
			t.Errorf("involvedInAny(%q) = %v, want %v", name, got, want)
		}
	}
	if involvedInAny(nil, "retinol") {
		t.Error("no conflicts should involve nothing")
	}
}
