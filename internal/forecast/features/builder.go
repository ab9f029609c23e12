// internal/forecast/features/builder.go
package features

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/models"
)

// LayoutVersion identifies the feature layout below. Trained artifacts
// declare the same version and column order; the predictor refuses to
// start when they disagree, so changing this list means retraining.
const LayoutVersion = "wastecast-v2"

var layoutColumns = []string{
	"total_recent_waste_kg",
	"avg_recent_waste_kg",
	"record_count",
	"distinct_menu_items",
	"meals_served_estimate",
	"dow_0",
	"dow_1",
	"dow_2",
	"dow_3",
	"dow_4",
	"dow_5",
	"dow_6",
	"same_weekday_trend_kg",
}

// Columns returns the pinned feature order. Day 0 means Monday.
func Columns() []string {
	out := make([]string, len(layoutColumns))
	copy(out, layoutColumns)
	return out
}

// Build derives the model input from recent history, the menu under
// consideration, and the target day of week (0 = Monday). Empty history
// is valid input and yields zero-valued history features.
func Build(recentWaste []models.WasteRecord, menuItems []string, dayOfWeek int) (*models.FeatureVector, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("day_of_week must be between 0 and 6, got %d", dayOfWeek))
	}

	var total float64
	for _, record := range recentWaste {
		total += record.QuantityKg
	}
	avg := 0.0
	if len(recentWaste) > 0 {
		avg = total / float64(len(recentWaste))
	}

	distinct := distinctItemCount(menuItems)
	mealsEstimate := 100.0
	if distinct > 0 {
		mealsEstimate = float64(distinct) * 100.0
	}

	values := make([]float64, 0, len(layoutColumns))
	values = append(values,
		total,
		avg,
		float64(len(recentWaste)),
		float64(distinct),
		mealsEstimate,
	)
	for d := 0; d < 7; d++ {
		if d == dayOfWeek {
			values = append(values, 1)
		} else {
			values = append(values, 0)
		}
	}
	values = append(values, sameWeekdayTrend(recentWaste, dayOfWeek))

	return &models.FeatureVector{
		Columns: Columns(),
		Values:  values,
	}, nil
}

func distinctItemCount(menuItems []string) int {
	seen := make(map[string]bool, len(menuItems))
	for _, item := range menuItems {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" {
			continue
		}
		seen[key] = true
	}
	return len(seen)
}

// sameWeekdayTrend compares the two most recent daily totals falling on
// the target weekday. Positive means the later day wasted more. With
// fewer than two such days there is no trend to report.
func sameWeekdayTrend(recentWaste []models.WasteRecord, dayOfWeek int) float64 {
	totalsByDate := make(map[string]float64)
	for _, record := range recentWaste {
		if isoWeekday(record.LoggedOn) != dayOfWeek {
			continue
		}
		totalsByDate[record.LoggedOn.Format("2006-01-02")] += record.QuantityKg
	}
	if len(totalsByDate) < 2 {
		return 0
	}

	dates := make([]string, 0, len(totalsByDate))
	for date := range totalsByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	latest := totalsByDate[dates[len(dates)-1]]
	previous := totalsByDate[dates[len(dates)-2]]
	return latest - previous
}

// isoWeekday maps time.Weekday (Sunday = 0) onto the 0 = Monday
// convention used across the forecasting pipeline.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
