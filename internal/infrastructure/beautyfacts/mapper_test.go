package beautyfacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIngredients(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty",
			text: "  ",
			want: nil,
		},
		{
			name: "simple list",
			text: "Aqua, Glycerin, Niacinamide",
			want: []string{"Aqua", "Glycerin", "Niacinamide"},
		},
		{
			name: "label prefix and trailing period",
			text: "Ingredients: Water, Retinol.",
			want: []string{"Water", "Retinol"},
		},
		{
			name: "commas inside parentheses",
			text: "Parfum (Fragrance, Linalool), Water",
			want: []string{"Parfum (Fragrance, Linalool)", "Water"},
		},
		{
			name: "semicolons, stars and blanks",
			text: "Aloe Barbadensis Leaf Juice*; ; Glycerin ,*Shea Butter",
			want: []string{"Aloe Barbadensis Leaf Juice", "Glycerin", "Shea Butter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitIngredients(tt.text))
		})
	}
}

func TestMapProduct_Fallbacks(t *testing.T) {
	p := &productPayload{
		ProductNameEN: "Night Cream",
		Brands:        "Acme",
		Categories:    "en:face-creams",
		Ingredients: []ingredientPayload{
			{ID: "en:water", Text: "Water"},
			{ID: "en:retinol", Text: "Retinol"},
			{ID: "", Text: " "},
		},
	}

	got := MapProduct("12345678", p)

	assert.Equal(t, "Night Cream", got.Name)
	assert.Equal(t, "Acme", got.Brand)
	assert.Equal(t, "face-creams", got.Category)
	assert.Equal(t, []string{"Water", "Retinol"}, got.Ingredients)
}

func TestMapProduct_EnglishIngredientText(t *testing.T) {
	p := &productPayload{
		ProductName:   "Toner",
		IngredientsEN: "Water, Witch Hazel",
	}

	got := MapProduct("12345678", p)
	assert.Equal(t, []string{"Water", "Witch Hazel"}, got.Ingredients)
	assert.Empty(t, got.Brand)
}
