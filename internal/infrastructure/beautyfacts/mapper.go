package beautyfacts

import (
	"strings"

	"github.com/skinlens/backend/internal/domain"
)

// MapProduct converts an Open Beauty Facts product into an ExternalProduct
func MapProduct(barcode string, p *productPayload) *domain.ExternalProduct {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = strings.TrimSpace(p.ProductNameEN)
	}

	text := p.IngredientsText
	if strings.TrimSpace(text) == "" {
		text = p.IngredientsEN
	}
	ingredients := SplitIngredients(text)
	if len(ingredients) == 0 {
		for _, ing := range p.Ingredients {
			if t := cleanIngredient(ing.Text); t != "" {
				ingredients = append(ingredients, t)
			}
		}
	}

	return &domain.ExternalProduct{
		Barcode:     barcode,
		Name:        name,
		Brand:       firstListItem(p.Brands),
		Category:    firstListItem(p.Categories),
		Ingredients: ingredients,
	}
}

// SplitIngredients splits an INCI label into ingredient names. Separators
// inside parentheses belong to the enclosing ingredient.
func SplitIngredients(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if i := strings.Index(text, ":"); i >= 0 && strings.EqualFold(strings.TrimSpace(text[:i]), "ingredients") {
		text = text[i+1:]
	}

	var (
		out   []string
		depth int
		start int
	)
	for i, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',', ';':
			if depth == 0 {
				if t := cleanIngredient(text[start:i]); t != "" {
					out = append(out, t)
				}
				start = i + 1
			}
		}
	}
	if t := cleanIngredient(text[start:]); t != "" {
		out = append(out, t)
	}
	return out
}

// cleanIngredient drops label noise such as footnote stars and a final period
func cleanIngredient(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".*")
	s = strings.TrimLeft(s, "*")
	return strings.TrimSpace(s)
}

func firstListItem(s string) string {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	// Taxonomy tags carry a language prefix, e.g. "en:face-creams"
	if i := strings.Index(s, ":"); i == 2 {
		s = s[i+1:]
	}
	return s
}
