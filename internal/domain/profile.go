package domain

// SkinType is the user's self-reported skin type
type SkinType string

const (
	SkinNormal      SkinType = "normal"
	SkinDry         SkinType = "dry"
	SkinOily        SkinType = "oily"
	SkinCombination SkinType = "combination"
	SkinSensitive   SkinType = "sensitive"
)

// UserProfile is supplied fully resolved by the profile collaborator.
// The engine never modifies it.
type UserProfile struct {
	SkinType             SkinType `json:"skinType" validate:"required,oneof=normal dry oily combination sensitive"`
	SkinConcerns         []string `json:"skinConcerns,omitempty" validate:"dive,required"`
	Allergies            []string `json:"allergies,omitempty" validate:"dive,required"`
	AvoidedIngredients   []string `json:"avoidedIngredients,omitempty" validate:"dive,required"`
	PreferredIngredients []string `json:"preferredIngredients,omitempty" validate:"dive,required"`
}
