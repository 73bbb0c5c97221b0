package usecase

import (
	"slices"
	"strings"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/pkg/logger"
)

// Overall reductions per conflict, applied once regardless of conflict type
const (
	overallPenaltyHigh   = 20
	overallPenaltyMedium = 10
	overallPenaltyLow    = 5
)

// Dimension reductions for irritation (irritation dimension) and allergic
// (sensitivity dimension) conflicts
const (
	dimensionPenaltyHigh   = 30
	dimensionPenaltyMedium = 15
	dimensionPenaltyLow    = 5
)

// Penalty tables indexed by Severity.Rank; rank 0 is an unknown severity
var (
	overallPenalties   = [...]int{0, overallPenaltyLow, overallPenaltyMedium, overallPenaltyHigh}
	dimensionPenalties = [...]int{0, dimensionPenaltyLow, dimensionPenaltyMedium, dimensionPenaltyHigh}
)

// acnePenalty is subtracted once per ingredient flagged for acne
const acnePenalty = 15

// acneConcernTerms flag an ingredient concern as acne-related (substring match)
var acneConcernTerms = []string{"acne", "comedogenic"}

// SafetyEngineConfig holds configuration for the scoring engine
type SafetyEngineConfig struct {
	EnableDebugLogging bool
}

// SafetyEngine resolves ingredients against the knowledge base, detects
// conflicts and derives the four-dimension safety score. It holds no
// mutable state and is safe for concurrent use.
type SafetyEngine struct {
	log                *logger.Logger
	enableDebugLogging bool
}

// NewSafetyEngine creates a new scoring engine
func NewSafetyEngine(log *logger.Logger, config SafetyEngineConfig) *SafetyEngine {
	if log == nil {
		log = logger.NewNop()
	}
	return &SafetyEngine{
		log:                log.With("service", "SafetyEngine"),
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Analyze scores the scanned ingredient list. The result depends only on the
// scan and the knowledge base passed in; Timestamp is copied from
// scan.ScannedAt so repeated calls are identical.
func (e *SafetyEngine) Analyze(
	scan domain.ScanData,
	ingredients domain.IngredientLookup,
	conflicts domain.ConflictSource,
) (*domain.ProductAnalysis, error) {
	names, display := normalizeIngredientList(scan.Ingredients)
	if len(names) == 0 {
		return nil, domain.NewValidationError("ingredients", "at least one ingredient is required")
	}

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	matched := e.matchConflicts(present, conflicts)

	analyzed := make([]domain.AnalyzedIngredient, 0, len(names))
	for i, name := range names {
		ai := domain.AnalyzedIngredient{
			Name:        display[i],
			HasConflict: involvedInAny(matched, name),
		}
		if ingredients != nil {
			if ing, ok := ingredients.Lookup(name); ok {
				ai.Purpose = ing.Purpose
				if ing.EWGScore != nil {
					v := *ing.EWGScore
					ai.EWGScore = &v
				}
				ai.Concerns = slices.Clone(ing.Concerns)
			} else if e.enableDebugLogging {
				e.log.Debug("Unknown ingredient", "ingredient", name)
			}
		}
		analyzed = append(analyzed, ai)
	}

	score := CalculateSafetyScore(matched, analyzed)

	if e.enableDebugLogging {
		e.log.Debug("Analysis complete",
			"ingredients", len(analyzed),
			"conflicts", len(matched),
			"overall", score.Overall)
	}

	return &domain.ProductAnalysis{
		ScanData:    scan,
		Ingredients: analyzed,
		Conflicts:   matched,
		SafetyScore: score,
		Timestamp:   scan.ScannedAt,
	}, nil
}

// matchConflicts returns every knowledge-base conflict whose parties are all
// present, deduplicated by unordered pair and type.
func (e *SafetyEngine) matchConflicts(present map[string]bool, source domain.ConflictSource) []domain.ConflictRecord {
	if source == nil {
		return []domain.ConflictRecord{}
	}

	seen := make(map[string]bool)
	matched := []domain.ConflictRecord{}
	for _, c := range source.Conflicts() {
		primary := domain.NormalizeName(c.PrimaryIngredient)
		if !present[primary] {
			continue
		}
		if !c.IsIntrinsic() && !present[domain.NormalizeName(c.SecondaryIngredient)] {
			continue
		}

		key := c.Key()
		if seen[key] {
			if e.enableDebugLogging {
				e.log.Debug("Duplicate conflict record skipped", "key", key)
			}
			continue
		}
		seen[key] = true

		c.PrimaryIngredient = primary
		c.SecondaryIngredient = domain.NormalizeName(c.SecondaryIngredient)
		c.References = slices.Clone(c.References)
		matched = append(matched, c)
	}
	return matched
}

// CalculateSafetyScore derives the safety score from matched conflicts and
// the analyzed ingredient list. Reductions are summed per dimension and
// clamped only once at the end, so the order of conflicts never matters.
func CalculateSafetyScore(conflicts []domain.ConflictRecord, ingredients []domain.AnalyzedIngredient) domain.SafetyScore {
	var overall, irritation, acne, sensitivity int

	for _, c := range conflicts {
		overall += overallPenalty(c.Severity)

		switch c.Type {
		case domain.ConflictIrritation:
			irritation += dimensionPenalty(c.Severity)
		case domain.ConflictAllergic:
			sensitivity += dimensionPenalty(c.Severity)
		}
	}

	for _, ing := range ingredients {
		if hasAcneConcern(ing.Concerns) {
			acne += acnePenalty
		}
	}

	return domain.SafetyScore{
		Overall:     clampScore(domain.MaxDimensionScore - overall),
		Irritation:  clampScore(domain.MaxDimensionScore - irritation),
		Acne:        clampScore(domain.MaxDimensionScore - acne),
		Sensitivity: clampScore(domain.MaxDimensionScore - sensitivity),
	}
}

func overallPenalty(s domain.Severity) int {
	return overallPenalties[s.Rank()]
}

func dimensionPenalty(s domain.Severity) int {
	return dimensionPenalties[s.Rank()]
}

func hasAcneConcern(concerns []string) bool {
	for _, c := range concerns {
		lower := strings.ToLower(c)
		for _, term := range acneConcernTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}

func involvedInAny(conflicts []domain.ConflictRecord, normalized string) bool {
	return slices.ContainsFunc(conflicts, func(c domain.ConflictRecord) bool {
		return c.Involves(normalized)
	})
}

// clampScore bounds a dimension to [0, 100]
func clampScore(v int) int {
	return max(0, min(v, domain.MaxDimensionScore))
}

// normalizeIngredientList returns normalized names (first occurrence wins)
// alongside their trimmed display form. Blank entries are dropped.
func normalizeIngredientList(raw []string) (names, display []string) {
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		n := domain.NormalizeName(r)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
		display = append(display, strings.TrimSpace(r))
	}
	return names, display
}
