// internal/wastage/service_test.go
package wastage

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/forecast/trends"
	"wastewise/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testCacheTTL = 5 * time.Minute

type captureSink struct {
	observed []models.WasteRecord
}

func (c *captureSink) Observe(rec models.WasteRecord) {
	c.observed = append(c.observed, rec)
}

type serviceMocks struct {
	db    *sql.DB
	sql   sqlmock.Sqlmock
	redis redismock.ClientMock
	sink  *captureSink
}

func newTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	redisClient, redisMock := redismock.NewClientMock()
	log := logger.NewTestLogger(t)
	sink := &captureSink{}

	service := NewService(
		NewStore(db, log),
		NewCache(redisClient, testCacheTTL, log),
		NewSearch(nil, "waste-records", log),
		trends.NewAnalyzer(log),
		sink,
		log,
	)
	return service, &serviceMocks{db: db, sql: sqlMock, redis: redisMock, sink: sink}
}

func expectMocksMet(t *testing.T, mocks *serviceMocks) {
	t.Helper()
	assert.NoError(t, mocks.sql.ExpectationsWereMet())
	assert.NoError(t, mocks.redis.ExpectationsWereMet())
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_Log(t *testing.T) {
	service, mocks := newTestService(t)

	mocks.sql.ExpectExec(`INSERT INTO waste_records`).
		WithArgs(sqlmock.AnyArg(), "user-1", "rice", 2.5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mocks.redis.ExpectDel("wastage:history:user-1").SetVal(1)

	rec, err := service.Log(context.Background(), "user-1", "rice", 2.5, "2024-01-01")

	require.NoError(t, err)
	assert.Equal(t, "rice", rec.FoodItem)
	assert.Equal(t, 2.5, rec.QuantityKg)

	// The persisted record reaches the alert pipeline.
	require.Len(t, mocks.sink.observed, 1)
	assert.Equal(t, rec.ID, mocks.sink.observed[0].ID)
	expectMocksMet(t, mocks)
}

func TestService_Log_TrimsFoodItem(t *testing.T) {
	service, mocks := newTestService(t)

	mocks.sql.ExpectExec(`INSERT INTO waste_records`).
		WithArgs(sqlmock.AnyArg(), "user-1", "rice", 1.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mocks.redis.ExpectDel("wastage:history:user-1").SetVal(1)

	rec, err := service.Log(context.Background(), "user-1", "  rice  ", 1.0, "2024-01-01")

	require.NoError(t, err)
	assert.Equal(t, "rice", rec.FoodItem)
	expectMocksMet(t, mocks)
}

func TestService_Log_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		foodItem string
		quantity float64
		loggedOn string
	}{
		{"empty food item", "", 2.0, "2024-01-01"},
		{"blank food item", "   ", 2.0, "2024-01-01"},
		{"zero quantity", "rice", 0, "2024-01-01"},
		{"negative quantity", "rice", -1.5, "2024-01-01"},
		{"missing date", "rice", 2.0, ""},
		{"malformed date", "rice", 2.0, "01/01/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mocks := newTestService(t)

			rec, err := service.Log(context.Background(), "user-1", tt.foodItem, tt.quantity, tt.loggedOn)

			assert.Nil(t, rec)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
			// Nothing persisted and nothing invalidated on rejected input.
			expectMocksMet(t, mocks)
			assert.Empty(t, mocks.sink.observed)
		})
	}
}

func TestService_History_CacheMiss(t *testing.T) {
	service, mocks := newTestService(t)

	loggedOn := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
	expected := []models.WasteRecord{{
		ID: "rec-1", UserID: "user-1", FoodItem: "rice",
		QuantityKg: 2.0, LoggedOn: loggedOn, CreatedAt: createdAt,
	}}
	cached, err := json.Marshal(expected)
	require.NoError(t, err)

	mocks.redis.ExpectGet("wastage:history:user-1").RedisNil()
	mocks.sql.ExpectQuery(`SELECT (.+) FROM waste_records WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("rec-1", "user-1", "rice", 2.0, loggedOn, createdAt))
	mocks.redis.ExpectSet("wastage:history:user-1", cached, testCacheTTL).SetVal("OK")

	records, err := service.History(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, expected, records)
	expectMocksMet(t, mocks)
}

func TestService_History_CacheHit(t *testing.T) {
	service, mocks := newTestService(t)

	expected := []models.WasteRecord{{
		ID: "rec-1", UserID: "user-1", FoodItem: "rice", QuantityKg: 2.0,
	}}
	cached, err := json.Marshal(expected)
	require.NoError(t, err)

	mocks.redis.ExpectGet("wastage:history:user-1").SetVal(string(cached))

	records, err := service.History(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, expected, records)
	// No SQL expectations registered, so a DB query would fail the test.
	expectMocksMet(t, mocks)
}

func TestService_Update_NotFound(t *testing.T) {
	service, mocks := newTestService(t)

	mocks.sql.ExpectQuery(`UPDATE waste_records SET (.+) RETURNING created_at`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	rec, err := service.Update(context.Background(), "user-1", "missing", "pasta", 1.0, "2024-01-02")

	assert.Nil(t, rec)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordNotFound))
	assert.Empty(t, mocks.sink.observed)
	expectMocksMet(t, mocks)
}

func TestService_Remove(t *testing.T) {
	service, mocks := newTestService(t)

	mocks.sql.ExpectExec(`DELETE FROM waste_records`).
		WithArgs("rec-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mocks.redis.ExpectDel("wastage:history:user-1").SetVal(1)

	err := service.Remove(context.Background(), "user-1", "rec-1")

	assert.NoError(t, err)
	expectMocksMet(t, mocks)
}

func TestService_Analysis(t *testing.T) {
	service, mocks := newTestService(t)

	week1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	cached, err := json.Marshal([]models.WasteRecord{
		{ID: "rec-2", UserID: "user-1", FoodItem: "rice", QuantityKg: 15.0, LoggedOn: week2, CreatedAt: createdAt},
		{ID: "rec-1", UserID: "user-1", FoodItem: "rice", QuantityKg: 10.0, LoggedOn: week1, CreatedAt: createdAt},
	})
	require.NoError(t, err)

	mocks.redis.ExpectGet("wastage:history:user-1").RedisNil()
	mocks.sql.ExpectQuery(`SELECT (.+) FROM waste_records WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("rec-2", "user-1", "rice", 15.0, week2, createdAt).
			AddRow("rec-1", "user-1", "rice", 10.0, week1, createdAt))
	mocks.redis.ExpectSet("wastage:history:user-1", cached, testCacheTTL).SetVal("OK")

	report, err := service.Analysis(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, models.TrendIncreasing, report.Historical.Trend)
	assert.Equal(t, 25.0, report.Historical.WasteByItem["rice"])
	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, report.Charts.WeeklyWaste.Labels)
	assert.Equal(t, []float64{10.0, 15.0}, report.Charts.WeeklyWaste.Values)
	assert.Equal(t, []string{"rice"}, report.Charts.WasteByItem.Labels)
	expectMocksMet(t, mocks)
}

func TestService_Analysis_EmptyHistory(t *testing.T) {
	service, mocks := newTestService(t)

	mocks.redis.ExpectGet("wastage:history:user-1").RedisNil()
	mocks.sql.ExpectQuery(`SELECT (.+) FROM waste_records WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(recordColumns))
	mocks.redis.ExpectSet("wastage:history:user-1", []byte("[]"), testCacheTTL).SetVal("OK")

	report, err := service.Analysis(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, models.TrendInsufficientData, report.Historical.Trend)
	assert.Empty(t, report.Historical.WeeklyWaste)
	assert.Empty(t, report.Charts.WeeklyWaste.Labels)
	expectMocksMet(t, mocks)
}

// ==========================
// Edge Cases
// ==========================

func TestService_SearchRecords_EmptyQuery(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.SearchRecords(context.Background(), "user-1", "   ", 10)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestService_CacheCorruptEntryFallsBack(t *testing.T) {
	service, mocks := newTestService(t)

	mocks.redis.ExpectGet("wastage:history:user-1").SetVal("{not json")
	mocks.redis.ExpectDel("wastage:history:user-1").SetVal(1)
	mocks.sql.ExpectQuery(`SELECT (.+) FROM waste_records WHERE user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(recordColumns))
	mocks.redis.ExpectSet("wastage:history:user-1", []byte("[]"), testCacheTTL).SetVal("OK")

	records, err := service.History(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, records)
	expectMocksMet(t, mocks)
}
