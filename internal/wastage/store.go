// internal/wastage/store.go

// Package wastage persists and serves logged waste records. PostgreSQL
// is the source of truth; Redis holds a short-lived per-user history
// cache and Elasticsearch a secondary search index.
package wastage

import (
	"context"
	"database/sql"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/models"

	"github.com/google/uuid"
)

// Store runs waste record queries against PostgreSQL. Every operation
// is scoped to the owning user so records never leak across accounts.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.Named("wastage-store"),
	}
}

// Create inserts a new waste record and returns it with its generated ID.
func (s *Store) Create(ctx context.Context, userID, foodItem string, quantityKg float64, loggedOn time.Time) (*models.WasteRecord, error) {
	rec := &models.WasteRecord{
		ID:         uuid.New().String(),
		UserID:     userID,
		FoodItem:   foodItem,
		QuantityKg: quantityKg,
		LoggedOn:   loggedOn,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO waste_records (id, user_id, food_item, quantity_kg, logged_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID, rec.FoodItem, rec.QuantityKg, rec.LoggedOn, rec.CreatedAt,
	)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("insert waste record", err)
	}

	s.logger.Info("Waste record created", map[string]interface{}{
		"recordId":   rec.ID,
		"userId":     userID,
		"foodItem":   foodItem,
		"quantityKg": quantityKg,
	})

	return rec, nil
}

// GetByID fetches a single record owned by the given user.
func (s *Store) GetByID(ctx context.Context, userID, recordID string) (*models.WasteRecord, error) {
	var rec models.WasteRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, food_item, quantity_kg, logged_on, created_at
		FROM waste_records
		WHERE id = $1 AND user_id = $2`, recordID, userID).Scan(
		&rec.ID, &rec.UserID, &rec.FoodItem, &rec.QuantityKg, &rec.LoggedOn, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError(recordID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get waste record", err)
	}
	return &rec, nil
}

// ListByUser returns the user's full history, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.WasteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, food_item, quantity_kg, logged_on, created_at
		FROM waste_records
		WHERE user_id = $1
		ORDER BY logged_on DESC, created_at DESC`, userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list waste records", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByUserSince returns the user's records logged on or after the
// cutoff date, newest first. The prediction path uses this to bound
// its recent-history window.
func (s *Store) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]models.WasteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, food_item, quantity_kg, logged_on, created_at
		FROM waste_records
		WHERE user_id = $1 AND logged_on >= $2
		ORDER BY logged_on DESC, created_at DESC`, userID, since)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list recent waste records", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Update rewrites the mutable fields of an owned record.
func (s *Store) Update(ctx context.Context, userID, recordID, foodItem string, quantityKg float64, loggedOn time.Time) (*models.WasteRecord, error) {
	rec := &models.WasteRecord{
		ID:         recordID,
		UserID:     userID,
		FoodItem:   foodItem,
		QuantityKg: quantityKg,
		LoggedOn:   loggedOn,
	}

	err := s.db.QueryRowContext(ctx, `
		UPDATE waste_records
		SET food_item = $1, quantity_kg = $2, logged_on = $3
		WHERE id = $4 AND user_id = $5
		RETURNING created_at`,
		foodItem, quantityKg, loggedOn, recordID, userID,
	).Scan(&rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError(recordID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("update waste record", err)
	}

	s.logger.Info("Waste record updated", map[string]interface{}{
		"recordId": recordID,
		"userId":   userID,
	})

	return rec, nil
}

// Delete removes an owned record.
func (s *Store) Delete(ctx context.Context, userID, recordID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM waste_records
		WHERE id = $1 AND user_id = $2`, recordID, userID)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete waste record", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete waste record", err)
	}
	if affected == 0 {
		return errors.NewRecordNotFoundError(recordID)
	}

	s.logger.Info("Waste record deleted", map[string]interface{}{
		"recordId": recordID,
		"userId":   userID,
	})

	return nil
}

func scanRecords(rows *sql.Rows) ([]models.WasteRecord, error) {
	records := []models.WasteRecord{}
	for rows.Next() {
		var rec models.WasteRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.FoodItem, &rec.QuantityKg, &rec.LoggedOn, &rec.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan waste record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("iterate waste records", err)
	}
	return records, nil
}
