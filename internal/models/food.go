// internal/models/food.go
package models

// NutrientVector holds the four tracked nutrients per 100g serving.
// Values are non-negative and immutable once the catalog is loaded.
type NutrientVector struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Values returns the vector in its fixed attribute order.
func (n NutrientVector) Values() [4]float64 {
	return [4]float64{n.Calories, n.Protein, n.Carbs, n.Fat}
}

// FoodEntry is one row of the nutrient catalog. Name is the unique,
// case-insensitive key; DisplayName preserves the source spelling.
type FoodEntry struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Nutrients   NutrientVector `json:"nutrients"`
}

// SimilarityResult is one ranked alternative for a query food.
type SimilarityResult struct {
	Food       string         `json:"food"`
	Score      float64        `json:"score"`
	Nutrients  NutrientVector `json:"nutrients"`
	Comparison string         `json:"comparison"`
}

// AlternativesResult is the full answer for a single food query.
type AlternativesResult struct {
	InputFood        string             `json:"input_food"`
	InputNutrients   NutrientVector     `json:"input_nutrients"`
	NutrientsMessage string             `json:"nutrients_message"`
	Alternatives     []SimilarityResult `json:"alternatives"`
}

// Per-item result status for menu batches. Unknown items are reported,
// never aborted on.
const (
	MenuItemResolved   = "resolved"
	MenuItemUnresolved = "unresolved"
)

// MenuItemAlternatives is the tagged per-item entry of a menu batch.
// Exactly one of Result or Message is set, depending on Status.
type MenuItemAlternatives struct {
	MenuItem string              `json:"menu_item"`
	Status   string              `json:"status"`
	Result   *AlternativesResult `json:"result,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// MenuResult preserves the input order of the requested menu.
type MenuResult struct {
	Items []MenuItemAlternatives `json:"items"`
}
