package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/skinlens/backend/internal/domain"
)

// EWG hazard indices run from 1 (low hazard) to 10 (high hazard)
const (
	minEWGScore = 1
	maxEWGScore = 10
)

// KnowledgeSnapshot is an immutable, validated view of the ingredient and
// conflict knowledge bases plus the product catalog. Build one with
// BuildSnapshot and share it freely between goroutines.
type KnowledgeSnapshot struct {
	version     uint64
	fingerprint string
	ingredients map[string]domain.Ingredient
	conflicts   []domain.ConflictRecord
	catalog     []domain.CandidateProduct
}

// Lookup implements domain.IngredientLookup.
func (s *KnowledgeSnapshot) Lookup(normalizedName string) (domain.Ingredient, bool) {
	ing, ok := s.ingredients[normalizedName]
	return ing, ok
}

// Conflicts implements domain.ConflictSource.
func (s *KnowledgeSnapshot) Conflicts() []domain.ConflictRecord {
	return s.conflicts
}

// Catalog returns a copy of the candidate products so callers may filter it.
func (s *KnowledgeSnapshot) Catalog() []domain.CandidateProduct {
	return slices.Clone(s.catalog)
}

// Version counts the reloads of this process. It is for operators only;
// use Fingerprint to key anything that outlives the process.
func (s *KnowledgeSnapshot) Version() uint64 {
	return s.version
}

// Fingerprint is a digest of the ingredient and conflict records that scoring
// reads. Snapshots with equal scoring content share a fingerprint in every
// process, so it is safe to key shared caches on it.
func (s *KnowledgeSnapshot) Fingerprint() string {
	return s.fingerprint
}

// Stats reports record counts for logging and health output.
func (s *KnowledgeSnapshot) Stats() (ingredients, conflicts, products int) {
	return len(s.ingredients), len(s.conflicts), len(s.catalog)
}

// BuildSnapshot validates raw knowledge-base rows into typed records. A row
// that fails validation is skipped and reported; it never blocks the rest.
func BuildSnapshot(
	rawIngredients []domain.RawIngredient,
	rawConflicts []domain.RawConflict,
	rawProducts []domain.RawProduct,
) (*KnowledgeSnapshot, []*domain.RecordError) {
	var anomalies []*domain.RecordError

	snap := &KnowledgeSnapshot{
		ingredients: make(map[string]domain.Ingredient, len(rawIngredients)),
		conflicts:   make([]domain.ConflictRecord, 0, len(rawConflicts)),
		catalog:     make([]domain.CandidateProduct, 0, len(rawProducts)),
	}

	for i, raw := range rawIngredients {
		ing, err := toIngredient(raw)
		if err == nil {
			if _, dup := snap.ingredients[ing.Name]; dup {
				err = domain.ErrMalformedRecord
			}
		}
		if err != nil {
			anomalies = append(anomalies, &domain.RecordError{Kind: "ingredient", Index: i, Value: raw.Name, Err: err})
			continue
		}
		snap.ingredients[ing.Name] = ing
	}

	for i, raw := range rawConflicts {
		c, err := toConflict(raw)
		if err != nil {
			anomalies = append(anomalies, &domain.RecordError{
				Kind:  "conflict",
				Index: i,
				Value: raw.PrimaryIngredient + "+" + raw.SecondaryIngredient,
				Err:   err,
			})
			continue
		}
		snap.conflicts = append(snap.conflicts, c)
	}

	seenProducts := make(map[string]bool, len(rawProducts))
	for i, raw := range rawProducts {
		p, err := toCandidate(raw)
		if err == nil && seenProducts[p.ID] {
			err = domain.ErrMalformedRecord
		}
		if err != nil {
			anomalies = append(anomalies, &domain.RecordError{Kind: "product", Index: i, Value: raw.Name, Err: err})
			continue
		}
		seenProducts[p.ID] = true
		snap.catalog = append(snap.catalog, p)
	}

	snap.fingerprint = scoringFingerprint(snap.ingredients, snap.conflicts)
	return snap, anomalies
}

// scoringFingerprint hashes ingredients in name order and conflicts in load
// order. Conflict order stays in the digest because the first of two
// duplicate records wins.
func scoringFingerprint(ingredients map[string]domain.Ingredient, conflicts []domain.ConflictRecord) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, name := range slices.Sorted(maps.Keys(ingredients)) {
		_ = enc.Encode(ingredients[name])
	}
	_ = enc.Encode(conflicts)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func toIngredient(raw domain.RawIngredient) (domain.Ingredient, error) {
	name := domain.NormalizeName(raw.Name)
	if name == "" {
		return domain.Ingredient{}, domain.ErrMalformedRecord
	}
	if raw.EWGScore != nil && (*raw.EWGScore < minEWGScore || *raw.EWGScore > maxEWGScore) {
		return domain.Ingredient{}, domain.ErrMalformedRecord
	}

	var ewg *int
	if raw.EWGScore != nil {
		v := *raw.EWGScore
		ewg = &v
	}

	var props map[string]string
	if len(raw.Properties) > 0 {
		props = make(map[string]string, len(raw.Properties))
		for k, v := range raw.Properties {
			props[k] = v
		}
	}

	return domain.Ingredient{
		Name:       name,
		Category:   strings.TrimSpace(raw.Category),
		Functions:  compactStrings(raw.Functions),
		Properties: props,
		Purpose:    strings.TrimSpace(raw.Purpose),
		EWGScore:   ewg,
		Concerns:   compactStrings(raw.Concerns),
	}, nil
}

func toConflict(raw domain.RawConflict) (domain.ConflictRecord, error) {
	primary := domain.NormalizeName(raw.PrimaryIngredient)
	secondary := domain.NormalizeName(raw.SecondaryIngredient)
	if primary == "" || primary == secondary {
		return domain.ConflictRecord{}, domain.ErrMalformedRecord
	}

	severity, err := domain.ParseSeverity(raw.Severity)
	if err != nil {
		return domain.ConflictRecord{}, err
	}
	ctype, err := domain.ParseConflictType(raw.Type)
	if err != nil {
		return domain.ConflictRecord{}, err
	}

	refs := make([]domain.Reference, 0, len(raw.References))
	for _, r := range raw.References {
		status, err := domain.ParseVerificationStatus(r.Status)
		if err != nil {
			return domain.ConflictRecord{}, err
		}
		refs = append(refs, domain.Reference{
			Title:  strings.TrimSpace(r.Title),
			URL:    strings.TrimSpace(r.URL),
			Status: status,
		})
	}

	return domain.ConflictRecord{
		PrimaryIngredient:   primary,
		SecondaryIngredient: secondary,
		Severity:            severity,
		Type:                ctype,
		Description:         strings.TrimSpace(raw.Description),
		Recommendation:      strings.TrimSpace(raw.Recommendation),
		Notes:               strings.TrimSpace(raw.Notes),
		References:          refs,
	}, nil
}

func toCandidate(raw domain.RawProduct) (domain.CandidateProduct, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" || raw.SafetyScore < 0 || raw.SafetyScore > domain.MaxDimensionScore {
		return domain.CandidateProduct{}, domain.ErrMalformedRecord
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = productKey(raw.Brand, name)
	}

	return domain.CandidateProduct{
		ID:                id,
		Name:              name,
		Brand:             strings.TrimSpace(raw.Brand),
		Ingredients:       compactStrings(raw.Ingredients),
		SuitableSkinTypes: compactStrings(raw.SuitableSkinTypes),
		AddressesConcerns: compactStrings(raw.AddressesConcerns),
		SafetyScore:       raw.SafetyScore,
		IsPopular:         raw.IsPopular,
		IsGoodValue:       raw.IsGoodValue,
		Category:          strings.TrimSpace(raw.Category),
	}, nil
}

// productKey derives a catalog identity from brand and name.
func productKey(brand, name string) string {
	return domain.NormalizeName(brand) + "|" + domain.NormalizeName(name)
}

// compactStrings trims entries and drops blanks, returning nil when empty.
func compactStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
