// internal/wastage/service.go
package wastage

import (
	"context"
	"strings"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/validation"
	"wastewise/internal/forecast/trends"
	"wastewise/internal/models"
)

// recentWindowDays bounds the history slice fed to the waste predictor.
const recentWindowDays = 30

// AlertSink receives each persisted record so the alert pipeline can
// decide whether it crosses the high-waste threshold.
type AlertSink interface {
	Observe(rec models.WasteRecord)
}

// AnalysisCharts are the chart-ready flattenings of the trend summary.
type AnalysisCharts struct {
	WeeklyWaste models.ChartSeries `json:"weekly_waste"`
	WasteByItem models.ChartSeries `json:"waste_by_item"`
}

// AnalysisReport is the full historical analysis for one user.
type AnalysisReport struct {
	Historical *models.TrendSummary `json:"historical"`
	Charts     AnalysisCharts       `json:"charts"`
}

// SearchResult pairs search hits with the index-reported total.
type SearchResult struct {
	Records   []models.WasteRecord `json:"records"`
	TotalHits int64                `json:"total_hits"`
}

// Service is the wastage business layer. It keeps PostgreSQL
// authoritative and treats the cache and search index as best-effort
// projections.
type Service struct {
	store    *Store
	cache    *Cache
	search   *Search
	analyzer *trends.Analyzer
	alerts   AlertSink
	logger   logger.Logger
}

func NewService(store *Store, cache *Cache, search *Search, analyzer *trends.Analyzer, alerts AlertSink, log logger.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		search:   search,
		analyzer: analyzer,
		alerts:   alerts,
		logger:   log.Named("wastage"),
	}
}

// Log validates and persists a new waste record, then refreshes the
// derived stores.
func (s *Service) Log(ctx context.Context, userID, foodItem string, quantityKg float64, loggedOn string) (*models.WasteRecord, error) {
	date, err := validateRecordInput(foodItem, quantityKg, loggedOn)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Create(ctx, userID, strings.TrimSpace(foodItem), quantityKg, date)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, rec)
	return rec, nil
}

// History returns the user's records newest first, serving from cache
// when possible.
func (s *Service) History(ctx context.Context, userID string) ([]models.WasteRecord, error) {
	if records, ok := s.cache.GetHistory(ctx, userID); ok {
		return records, nil
	}

	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.cache.SetHistory(ctx, userID, records)
	return records, nil
}

// RecentHistory returns the records inside the prediction window.
func (s *Service) RecentHistory(ctx context.Context, userID string) ([]models.WasteRecord, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -recentWindowDays)
	return s.store.ListByUserSince(ctx, userID, cutoff)
}

// Get fetches one owned record.
func (s *Service) Get(ctx context.Context, userID, recordID string) (*models.WasteRecord, error) {
	return s.store.GetByID(ctx, userID, recordID)
}

// Update rewrites an owned record and refreshes the derived stores.
func (s *Service) Update(ctx context.Context, userID, recordID, foodItem string, quantityKg float64, loggedOn string) (*models.WasteRecord, error) {
	date, err := validateRecordInput(foodItem, quantityKg, loggedOn)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.Update(ctx, userID, recordID, strings.TrimSpace(foodItem), quantityKg, date)
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, rec)
	return rec, nil
}

// Remove deletes an owned record and its projections.
func (s *Service) Remove(ctx context.Context, userID, recordID string) error {
	if err := s.store.Delete(ctx, userID, recordID); err != nil {
		return err
	}

	s.cache.InvalidateHistory(ctx, userID)
	if err := s.search.RemoveRecord(ctx, recordID); err != nil {
		s.logger.Warn("Search index cleanup failed", map[string]interface{}{
			"recordId": recordID,
			"error":    err.Error(),
		})
	}
	return nil
}

// Analysis aggregates the user's full history into trends and charts.
func (s *Service) Analysis(ctx context.Context, userID string) (*AnalysisReport, error) {
	history, err := s.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := s.analyzer.Analyze(history)
	return &AnalysisReport{
		Historical: summary,
		Charts: AnalysisCharts{
			WeeklyWaste: trends.WeeklySeries(summary),
			WasteByItem: trends.ItemSeries(summary),
		},
	}, nil
}

// SearchRecords answers a free-text food item query from the search
// index.
func (s *Service) SearchRecords(ctx context.Context, userID, query string, size int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewInvalidInputError("search query must not be empty")
	}

	records, total, err := s.search.SearchRecords(ctx, userID, query, size)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Records: records, TotalHits: total}, nil
}

// afterWrite updates the cache, search index, and alert pipeline once
// a record has been durably stored. Projection failures only warn.
func (s *Service) afterWrite(ctx context.Context, rec *models.WasteRecord) {
	s.cache.InvalidateHistory(ctx, rec.UserID)

	if err := s.search.IndexRecord(ctx, rec); err != nil {
		s.logger.Warn("Search indexing failed, record remains queryable from database", map[string]interface{}{
			"recordId": rec.ID,
			"error":    err.Error(),
		})
	}

	if s.alerts != nil {
		s.alerts.Observe(*rec)
	}
}

func validateRecordInput(foodItem string, quantityKg float64, loggedOn string) (time.Time, error) {
	result := validation.CheckWasteRecord(foodItem, quantityKg, loggedOn)
	if !result.Valid {
		return time.Time{}, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return validation.ParseDate(loggedOn)
}
