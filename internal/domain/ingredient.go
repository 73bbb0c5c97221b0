package domain

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName trims, collapses inner whitespace and case-folds an ingredient
// name. Every lookup and comparison in the engine keys on this form.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.ToLower(whitespaceRegex.ReplaceAllString(name, " "))
}

// Ingredient is an immutable knowledge-base entry
type Ingredient struct {
	Name       string            `json:"name"` // normalized
	Category   string            `json:"category,omitempty"`
	Functions  []string          `json:"functions,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Purpose    string            `json:"purpose,omitempty"`
	EWGScore   *int              `json:"ewgScore,omitempty"` // external hazard index, 1-10
	Concerns   []string          `json:"concerns,omitempty"`
}

// AnalyzedIngredient is an ingredient as seen by one analysis
type AnalyzedIngredient struct {
	Name        string   `json:"name"`
	Purpose     string   `json:"purpose,omitempty"`
	EWGScore    *int     `json:"ewgScore,omitempty"`
	Concerns    []string `json:"concerns,omitempty"`
	HasConflict bool     `json:"hasConflict"`
}

// Severity is the single ordered severity scale used by conflict records.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity accepts only the low/medium/high vocabulary.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	}
	return "", ErrUnknownSeverity
}

// Rank orders severities low < medium < high.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// ConflictType classifies what kind of hazard a conflict describes
type ConflictType string

const (
	ConflictChemical      ConflictType = "chemical"
	ConflictIrritation    ConflictType = "irritation"
	ConflictAllergic      ConflictType = "allergic"
	ConflictEffectiveness ConflictType = "effectiveness"
	ConflictEnvironmental ConflictType = "environmental"
	ConflictOther         ConflictType = "other"
)

// ParseConflictType rejects anything outside the known type set.
func ParseConflictType(s string) (ConflictType, error) {
	switch t := ConflictType(strings.ToLower(strings.TrimSpace(s))); t {
	case ConflictChemical, ConflictIrritation, ConflictAllergic,
		ConflictEffectiveness, ConflictEnvironmental, ConflictOther:
		return t, nil
	}
	return "", ErrUnknownConflictType
}

// VerificationStatus tracks whether a scientific reference was checked
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

// ParseVerificationStatus defaults an empty status to pending.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch v := VerificationStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VerificationPending, nil
	case VerificationPending, VerificationVerified, VerificationFailed:
		return v, nil
	}
	return "", ErrUnknownVerificationStatus
}

// Reference is a scientific source backing a conflict record
type Reference struct {
	Title  string             `json:"title"`
	URL    string             `json:"url,omitempty"`
	Status VerificationStatus `json:"status"`
}

// ConflictRecord describes a hazard involving one ingredient (intrinsic) or
// an unordered pair of ingredients.
type ConflictRecord struct {
	PrimaryIngredient   string       `json:"primaryIngredient"`
	SecondaryIngredient string       `json:"secondaryIngredient,omitempty"`
	Severity            Severity     `json:"severity"`
	Type                ConflictType `json:"type"`
	Description         string       `json:"description"`
	Recommendation      string       `json:"recommendation,omitempty"`
	Notes               string       `json:"notes,omitempty"`
	References          []Reference  `json:"references,omitempty"`
}

// IsIntrinsic reports whether the conflict involves a single ingredient.
func (c ConflictRecord) IsIntrinsic() bool {
	return NormalizeName(c.SecondaryIngredient) == ""
}

// Key identifies a conflict independent of primary/secondary order.
func (c ConflictRecord) Key() string {
	a := NormalizeName(c.PrimaryIngredient)
	b := NormalizeName(c.SecondaryIngredient)
	if b != "" && b < a {
		a, b = b, a
	}
	return a + "|" + b + "|" + string(c.Type)
}

// Involves reports whether the normalized name is a party to the conflict.
func (c ConflictRecord) Involves(normalized string) bool {
	return NormalizeName(c.PrimaryIngredient) == normalized ||
		(!c.IsIntrinsic() && NormalizeName(c.SecondaryIngredient) == normalized)
}
