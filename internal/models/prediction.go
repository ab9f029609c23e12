// internal/models/prediction.go
package models

// Confidence labels reflect how much history backed a prediction,
// not a statistical interval.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// PredictionResult is the point estimate returned by the waste predictor.
type PredictionResult struct {
	PredictedWasteKg float64 `json:"predicted_waste_kg"`
	ConfidenceLevel  string  `json:"confidence_level"`
}

// Trend classifications over the two most recent non-empty ISO weeks.
const (
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendFlat             = "flat"
	TrendInsufficientData = "insufficient_data"
)

// HighWasteItem is one entry of the ranked high-waste list.
type HighWasteItem struct {
	FoodItem string  `json:"food_item"`
	TotalKg  float64 `json:"total_kg"`
}

// TrendSummary aggregates a waste history into weekly and per-item
// totals. WeeklyWaste keys are ISO week start dates (Monday) formatted
// as 2006-01-02.
type TrendSummary struct {
	WeeklyWaste    map[string]float64 `json:"weekly_waste"`
	WasteByItem    map[string]float64 `json:"waste_by_item"`
	HighWasteItems []HighWasteItem    `json:"high_waste_items"`
	Trend          string             `json:"trend"`
}

// ChartSeries is a chart-ready label/value pairing. Rendering is the
// consumer's job; the API only emits the series.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}
