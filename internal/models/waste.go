// internal/models/waste.go
package models

import "time"

// WasteRecord is one logged waste observation. The analytics core only
// reads FoodItem, QuantityKg and LoggedOn; the remaining fields belong
// to the storage layer.
type WasteRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	FoodItem   string    `json:"food_item"`
	QuantityKg float64   `json:"quantity_kg"`
	LoggedOn   time.Time `json:"logged_on"`
	CreatedAt  time.Time `json:"created_at"`
}

// FeatureVector is the fixed-length model input. Columns name each
// position; the predictor refuses vectors whose columns differ from the
// layout its artifact was trained on.
type FeatureVector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// ColumnValue returns the value at the named column.
func (f FeatureVector) ColumnValue(name string) (float64, bool) {
	for i, col := range f.Columns {
		if col == name && i < len(f.Values) {
			return f.Values[i], true
		}
	}
	return 0, false
}
