// internal/forecast/service.go

// Package forecast orchestrates the waste prediction flow: recent
// history in, feature vector through the regression model, trend
// analysis alongside.
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/forecast/features"
	"wastewise/internal/forecast/model"
	"wastewise/internal/forecast/trends"
	"wastewise/internal/models"
)

// HistoryProvider supplies waste records for one user. The wastage
// service implements it.
type HistoryProvider interface {
	History(ctx context.Context, userID string) ([]models.WasteRecord, error)
	RecentHistory(ctx context.Context, userID string) ([]models.WasteRecord, error)
}

// PredictionAnalysis summarizes the inputs behind a prediction next to
// the historical trend picture.
type PredictionAnalysis struct {
	RecentWasteTotalKg   float64              `json:"recent_waste_total_kg"`
	RecentWasteAverageKg float64              `json:"recent_waste_average_kg"`
	MenuItemCount        int                  `json:"menu_item_count"`
	DayOfWeek            int                  `json:"day_of_week"`
	Outlook              string               `json:"outlook"`
	Historical           *models.TrendSummary `json:"historical"`
}

// PredictionCharts are chart-ready series derived from the history.
type PredictionCharts struct {
	WeeklyWaste models.ChartSeries `json:"weekly_waste"`
	WasteByItem models.ChartSeries `json:"waste_by_item"`
}

// PredictionReport is the full response of the prediction operation.
type PredictionReport struct {
	Prediction *models.PredictionResult `json:"prediction"`
	Analysis   PredictionAnalysis       `json:"analysis"`
	Charts     PredictionCharts         `json:"charts"`
}

// Service wires the feature builder, the loaded model, and the trend
// analyzer into one prediction operation.
type Service struct {
	predictor *model.Predictor
	analyzer  *trends.Analyzer
	history   HistoryProvider
	logger    logger.Logger
}

func NewService(predictor *model.Predictor, analyzer *trends.Analyzer, history HistoryProvider, log logger.Logger) *Service {
	return &Service{
		predictor: predictor,
		analyzer:  analyzer,
		history:   history,
		logger:    log.Named("forecast"),
	}
}

// PredictWaste predicts the waste for the given menu and day and pairs
// the estimate with a historical analysis. A nil dayOfWeek means today.
func (s *Service) PredictWaste(ctx context.Context, userID string, menuItems []string, dayOfWeek *int) (*PredictionReport, error) {
	day, err := resolveDay(dayOfWeek)
	if err != nil {
		return nil, err
	}

	recent, err := s.history.RecentHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	fv, err := features.Build(recent, menuItems, day)
	if err != nil {
		return nil, err
	}

	prediction, err := s.predictor.Predict(fv)
	if err != nil {
		return nil, err
	}

	full, err := s.history.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := s.analyzer.Analyze(full)

	total, avg := recentStats(recent)
	outlook := models.TrendDecreasing
	if prediction.PredictedWasteKg > avg {
		outlook = models.TrendIncreasing
	}

	s.logger.Info("Waste prediction served", map[string]interface{}{
		"userId":           userID,
		"dayOfWeek":        day,
		"menuItemCount":    len(menuItems),
		"recentRecords":    len(recent),
		"predictedWasteKg": prediction.PredictedWasteKg,
		"confidence":       prediction.ConfidenceLevel,
	})

	return &PredictionReport{
		Prediction: prediction,
		Analysis: PredictionAnalysis{
			RecentWasteTotalKg:   total,
			RecentWasteAverageKg: avg,
			MenuItemCount:        len(menuItems),
			DayOfWeek:            day,
			Outlook:              outlook,
			Historical:           summary,
		},
		Charts: PredictionCharts{
			WeeklyWaste: trends.WeeklySeries(summary),
			WasteByItem: trends.ItemSeries(summary),
		},
	}, nil
}

// resolveDay validates an explicit day before any storage work happens,
// or falls back to today in the Monday-based week.
func resolveDay(dayOfWeek *int) (int, error) {
	if dayOfWeek == nil {
		return (int(time.Now().Weekday()) + 6) % 7, nil
	}
	if *dayOfWeek < 0 || *dayOfWeek > 6 {
		return 0, errors.NewInvalidInputError(fmt.Sprintf("day_of_week must be between 0 and 6, got %d", *dayOfWeek))
	}
	return *dayOfWeek, nil
}

func recentStats(recent []models.WasteRecord) (total, avg float64) {
	for _, rec := range recent {
		total += rec.QuantityKg
	}
	if len(recent) > 0 {
		avg = total / float64(len(recent))
	}
	return round2(total), round2(avg)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
