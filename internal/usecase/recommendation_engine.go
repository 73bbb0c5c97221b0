package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/pkg/logger"
	"github.com/skinlens/backend/internal/validation"
)

// Profile-affinity weights
const (
	skinTypeBonus       = 15
	preferredBonus      = 5
	avoidedPenalty      = 10
	allergyPenalty      = 30
	concernCoveredBonus = 10
)

// Full match score components
const (
	baseMatchScore           = 50
	improvementDivisor       = 5.0
	simplerProductBonus      = 5
	sameCategoryBonus        = 10
	scientificEvidenceMargin = 10 // safer by more than this earns the reason tag
	saferOptionMargin        = 15 // safer by more than this classifies as saferOption
	simpleIngredientsRatio   = 0.7
	maxKeyIngredients        = 3
	maxStrength              = 100
)

// RecommendationEngineConfig holds configuration for the recommendation engine
type RecommendationEngineConfig struct {
	EnableDebugLogging bool
}

// RecommendationEngine scores a catalog against a user profile and the
// current product's analysis. It is stateless and safe for concurrent use.
type RecommendationEngine struct {
	log                *logger.Logger
	enableDebugLogging bool
}

// NewRecommendationEngine creates a new recommendation engine
func NewRecommendationEngine(log *logger.Logger, config RecommendationEngineConfig) *RecommendationEngine {
	if log == nil {
		log = logger.NewNop()
	}
	return &RecommendationEngine{
		log:                log.With("service", "RecommendationEngine"),
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// scoredCandidate pairs a candidate with its raw match score during ranking
type scoredCandidate struct {
	product domain.CandidateProduct
	score   int
}

// Recommend ranks catalog products as alternatives to the analyzed product.
// The current product itself is never returned.
func (e *RecommendationEngine) Recommend(
	profile domain.UserProfile,
	current domain.ProductAnalysis,
	catalog []domain.CandidateProduct,
	limit int,
) ([]domain.Recommendation, error) {
	if err := validateRecommendInput(profile, limit); err != nil {
		return nil, err
	}

	scored := make([]scoredCandidate, 0, len(catalog))
	for _, c := range catalog {
		if isCurrentProduct(current.ScanData, c) {
			continue
		}
		score := MatchScore(profile, current, c)
		if e.enableDebugLogging {
			e.log.Debug("Scored candidate", "product", c.Name, "score", score)
		}
		scored = append(scored, scoredCandidate{product: c, score: score})
	}

	rankCandidates(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	recs := make([]domain.Recommendation, 0, len(scored))
	for _, sc := range scored {
		recs = append(recs, buildRecommendation(profile, sc,
			classifyRecommendation(profile, current, sc.product),
			matchReasons(profile, sc.product, &current)))
	}
	return recs, nil
}

// AlternativesFor ranks catalog products that do not contain the named
// ingredient. There is no current product to improve on, so only profile
// affinity is used.
func (e *RecommendationEngine) AlternativesFor(
	profile domain.UserProfile,
	ingredient string,
	catalog []domain.CandidateProduct,
	limit int,
) ([]domain.Recommendation, error) {
	if err := validateRecommendInput(profile, limit); err != nil {
		return nil, err
	}
	avoid := domain.NormalizeName(ingredient)
	if avoid == "" {
		return nil, domain.NewValidationError("ingredient", "is required")
	}

	scored := make([]scoredCandidate, 0, len(catalog))
	for _, c := range catalog {
		if containsIngredient(c.Ingredients, avoid) {
			continue
		}
		scored = append(scored, scoredCandidate{product: c, score: ProfileAffinity(profile, c)})
	}

	if e.enableDebugLogging {
		e.log.Debug("Alternatives filtered", "ingredient", avoid, "remaining", len(scored), "catalog", len(catalog))
	}

	rankCandidates(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	recs := make([]domain.Recommendation, 0, len(scored))
	for _, sc := range scored {
		rtype := domain.RecommendationAlternative
		if coversAnyConcern(profile.SkinConcerns, sc.product.AddressesConcerns) {
			rtype = domain.RecommendationForConcern
		}
		recs = append(recs, buildRecommendation(profile, sc, rtype, matchReasons(profile, sc.product, nil)))
	}
	return recs, nil
}

// ProfileAffinity scores how well a candidate fits the user, independent of
// any current product. Allergens weigh three times an avoided ingredient.
func ProfileAffinity(profile domain.UserProfile, c domain.CandidateProduct) int {
	score := 0

	if suitsSkinType(profile.SkinType, c.SuitableSkinTypes) {
		score += skinTypeBonus
	}
	score += preferredBonus * len(matchedTerms(profile.PreferredIngredients, c.Ingredients))
	score -= avoidedPenalty * len(matchedTerms(profile.AvoidedIngredients, c.Ingredients))
	score -= allergyPenalty * len(matchedTerms(profile.Allergies, c.Ingredients))
	score += concernCoveredBonus * len(coveredConcerns(profile.SkinConcerns, c.AddressesConcerns))

	return score
}

// MatchScore is the unbounded full match score of a candidate against the
// current product: baseline plus affinity plus improvement heuristics.
func MatchScore(profile domain.UserProfile, current domain.ProductAnalysis, c domain.CandidateProduct) int {
	score := baseMatchScore + ProfileAffinity(profile, c)

	if diff := c.SafetyScore - current.SafetyScore.Overall; diff > 0 {
		score += int(math.Round(float64(diff) / improvementDivisor))
	}
	if len(c.Ingredients) < current.IngredientCount() {
		score += simplerProductBonus
	}
	if sameCategory(current.ScanData.Category, c.Category) {
		score += sameCategoryBonus
	}
	return score
}

// classifyRecommendation applies the type rules in priority order
func classifyRecommendation(profile domain.UserProfile, current domain.ProductAnalysis, c domain.CandidateProduct) domain.RecommendationType {
	switch {
	case c.SafetyScore-current.SafetyScore.Overall > saferOptionMargin:
		return domain.RecommendationSaferOption
	case float64(len(c.Ingredients)) < simpleIngredientsRatio*float64(current.IngredientCount()):
		return domain.RecommendationSimpleIngredients
	case sameCategory(current.ScanData.Category, c.Category):
		return domain.RecommendationSameCategory
	case coversAnyConcern(profile.SkinConcerns, c.AddressesConcerns):
		return domain.RecommendationForConcern
	default:
		return domain.RecommendationAlternative
	}
}

// matchReasons re-evaluates the affinity predicates to explain a suggestion.
// It must stay in step with ProfileAffinity. current is nil for the
// alternatives-for-ingredient variant.
func matchReasons(profile domain.UserProfile, c domain.CandidateProduct, current *domain.ProductAnalysis) []domain.MatchReason {
	var reasons []domain.MatchReason

	if suitsSkinType(profile.SkinType, c.SuitableSkinTypes) {
		reasons = append(reasons, domain.ReasonSkinType)
	}
	if len(matchedTerms(profile.PreferredIngredients, c.Ingredients)) > 0 {
		reasons = append(reasons, domain.ReasonPreferredIngredients)
	}
	if len(profile.Allergies) > 0 && len(matchedTerms(profile.Allergies, c.Ingredients)) == 0 {
		reasons = append(reasons, domain.ReasonAvoidsAllergies)
	}
	if len(profile.AvoidedIngredients) > 0 && len(matchedTerms(profile.AvoidedIngredients, c.Ingredients)) == 0 {
		reasons = append(reasons, domain.ReasonAvoidsConcerns)
	}
	if len(coveredConcerns(profile.SkinConcerns, c.AddressesConcerns)) > 0 {
		reasons = append(reasons, domain.ReasonAddressesConcerns)
	}
	if current != nil && c.SafetyScore-current.SafetyScore.Overall > scientificEvidenceMargin {
		reasons = append(reasons, domain.ReasonScientificEvidence)
	}
	if c.IsPopular {
		reasons = append(reasons, domain.ReasonHighlyRated)
	}
	if c.IsGoodValue {
		reasons = append(reasons, domain.ReasonGoodValue)
	}
	return reasons
}

func buildRecommendation(profile domain.UserProfile, sc scoredCandidate, rtype domain.RecommendationType, reasons []domain.MatchReason) domain.Recommendation {
	if reasons == nil {
		reasons = []domain.MatchReason{}
	}
	return domain.Recommendation{
		ProductID:      sc.product.ID,
		ProductName:    sc.product.Name,
		Brand:          sc.product.Brand,
		KeyIngredients: keyIngredients(profile, sc.product),
		Type:           rtype,
		MatchReasons:   reasons,
		SafetyScore:    sc.product.SafetyScore,
		Strength:       strength(sc.score),
		MatchScore:     sc.score,
	}
}

// strength maps a raw score onto 0-100 for display. Negative raw scores
// floor at 0; the raw value stays available as MatchScore.
func strength(raw int) int {
	return max(0, min(raw, maxStrength))
}

// rankCandidates sorts by score descending with a deterministic tie-break on
// name, brand and id.
func rankCandidates(scored []scoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if an, bn := strings.ToLower(a.product.Name), strings.ToLower(b.product.Name); an != bn {
			return an < bn
		}
		if ab, bb := strings.ToLower(a.product.Brand), strings.ToLower(b.product.Brand); ab != bb {
			return ab < bb
		}
		return a.product.ID < b.product.ID
	})
}

// keyIngredients lists up to three highlights, preferred ingredients first
func keyIngredients(profile domain.UserProfile, c domain.CandidateProduct) []string {
	keys := make([]string, 0, maxKeyIngredients)
	picked := make(map[int]bool)

	for i, ing := range c.Ingredients {
		if len(keys) == maxKeyIngredients {
			return keys
		}
		if len(matchedTerms(profile.PreferredIngredients, []string{ing})) > 0 {
			keys = append(keys, ing)
			picked[i] = true
		}
	}
	for i, ing := range c.Ingredients {
		if len(keys) == maxKeyIngredients {
			break
		}
		if !picked[i] {
			keys = append(keys, ing)
		}
	}
	return keys
}

func validateRecommendInput(profile domain.UserProfile, limit int) error {
	if limit <= 0 {
		return domain.NewValidationError("limit", "must be greater than 0")
	}
	return validation.ValidateProfile(profile)
}

// isCurrentProduct matches by catalog id when both sides carry one, and by
// normalized brand and name otherwise.
func isCurrentProduct(scan domain.ScanData, c domain.CandidateProduct) bool {
	if id := strings.TrimSpace(scan.ProductID); id != "" && c.ID != "" {
		if id == c.ID {
			return true
		}
	}
	if domain.NormalizeName(scan.ProductName) == "" {
		return false
	}
	return productKey(scan.Brand, scan.ProductName) == productKey(c.Brand, c.Name)
}

func suitsSkinType(skinType domain.SkinType, suitable []string) bool {
	want := domain.NormalizeName(string(skinType))
	for _, s := range suitable {
		if domain.NormalizeName(s) == want {
			return true
		}
	}
	return false
}

// matchedTerms returns each profile term found as a case-insensitive
// substring of any candidate ingredient. Profile lists are sets: terms that
// normalize to the same name count once.
func matchedTerms(terms, ingredients []string) []string {
	var hits []string
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		n := domain.NormalizeName(t)
		if seen[n] {
			continue
		}
		seen[n] = true
		if containsIngredient(ingredients, n) {
			hits = append(hits, t)
		}
	}
	return hits
}

func containsIngredient(ingredients []string, normalizedTerm string) bool {
	if normalizedTerm == "" {
		return false
	}
	for _, ing := range ingredients {
		if strings.Contains(domain.NormalizeName(ing), normalizedTerm) {
			return true
		}
	}
	return false
}

// coveredConcerns returns the profile concerns the product addresses
func coveredConcerns(concerns, addresses []string) []string {
	var hits []string
	seen := make(map[string]bool, len(concerns))
	for _, c := range concerns {
		want := domain.NormalizeName(c)
		if seen[want] {
			continue
		}
		seen[want] = true
		for _, a := range addresses {
			if want != "" && domain.NormalizeName(a) == want {
				hits = append(hits, c)
				break
			}
		}
	}
	return hits
}

func coversAnyConcern(concerns, addresses []string) bool {
	return len(coveredConcerns(concerns, addresses)) > 0
}

func sameCategory(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
