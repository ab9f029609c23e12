// internal/forecast/trends/analyzer.go

// Package trends aggregates waste histories into weekly and per-item
// summaries for the analysis endpoints.
package trends

import (
	"math"
	"sort"
	"strings"
	"time"

	"wastewise/internal/common/logger"
	"wastewise/internal/models"
)

// highWasteLimit caps the ranked high-waste list.
const highWasteLimit = 5

// Analyzer computes trend summaries from raw waste records. It is
// stateless and safe for concurrent use.
type Analyzer struct {
	logger logger.Logger
}

func NewAnalyzer(log logger.Logger) *Analyzer {
	return &Analyzer{logger: log.Named("trends")}
}

// Analyze buckets history into ISO weeks (Monday start) and per-item
// totals. An empty history is a valid input and yields empty maps with
// an insufficient_data trend, never an error.
func (a *Analyzer) Analyze(history []models.WasteRecord) *models.TrendSummary {
	weekly := make(map[string]float64)
	byItem := make(map[string]float64)

	for _, rec := range history {
		item := strings.TrimSpace(rec.FoodItem)
		if item == "" {
			continue
		}
		weekly[weekKey(rec.LoggedOn)] += rec.QuantityKg
		byItem[item] += rec.QuantityKg
	}

	// Report rounded totals and classify on the same rounded values so
	// the trend label always agrees with the numbers shown.
	for week, total := range weekly {
		weekly[week] = round2(total)
	}
	for item, total := range byItem {
		byItem[item] = round2(total)
	}

	summary := &models.TrendSummary{
		WeeklyWaste:    weekly,
		WasteByItem:    byItem,
		HighWasteItems: rankHighWaste(byItem),
		Trend:          classifyTrend(weekly),
	}

	a.logger.Debug("Waste history analyzed", map[string]interface{}{
		"records": len(history),
		"weeks":   len(weekly),
		"items":   len(byItem),
		"trend":   summary.Trend,
	})

	return summary
}

// WeeklySeries flattens the weekly totals into a chart series ordered
// by week start date.
func WeeklySeries(summary *models.TrendSummary) models.ChartSeries {
	weeks := make([]string, 0, len(summary.WeeklyWaste))
	for week := range summary.WeeklyWaste {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)

	series := models.ChartSeries{
		Labels: weeks,
		Values: make([]float64, len(weeks)),
	}
	for i, week := range weeks {
		series.Values[i] = summary.WeeklyWaste[week]
	}
	return series
}

// ItemSeries flattens the per-item totals into a chart series ordered
// by total descending, name ascending on ties.
func ItemSeries(summary *models.TrendSummary) models.ChartSeries {
	ranked := rankItems(summary.WasteByItem)

	series := models.ChartSeries{
		Labels: make([]string, len(ranked)),
		Values: make([]float64, len(ranked)),
	}
	for i, item := range ranked {
		series.Labels[i] = item.FoodItem
		series.Values[i] = item.TotalKg
	}
	return series
}

func rankHighWaste(byItem map[string]float64) []models.HighWasteItem {
	ranked := rankItems(byItem)
	if len(ranked) > highWasteLimit {
		ranked = ranked[:highWasteLimit]
	}
	return ranked
}

func rankItems(byItem map[string]float64) []models.HighWasteItem {
	ranked := make([]models.HighWasteItem, 0, len(byItem))
	for item, total := range byItem {
		ranked = append(ranked, models.HighWasteItem{FoodItem: item, TotalKg: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalKg != ranked[j].TotalKg {
			return ranked[i].TotalKg > ranked[j].TotalKg
		}
		return ranked[i].FoodItem < ranked[j].FoodItem
	})
	return ranked
}

// classifyTrend compares the totals of the two most recent weeks that
// have any records. Fewer than two such weeks cannot support a
// direction.
func classifyTrend(weekly map[string]float64) string {
	if len(weekly) < 2 {
		return models.TrendInsufficientData
	}

	weeks := make([]string, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)

	latest := weekly[weeks[len(weeks)-1]]
	previous := weekly[weeks[len(weeks)-2]]
	switch {
	case latest > previous:
		return models.TrendIncreasing
	case latest < previous:
		return models.TrendDecreasing
	default:
		return models.TrendFlat
	}
}

// weekKey returns the Monday of the record's ISO week as 2006-01-02.
func weekKey(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset).Format("2006-01-02")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
