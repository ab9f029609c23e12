// internal/wastage/search_test.go
package wastage

import (
	"context"
	"strings"
	"testing"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSearchIndex = "waste-records-test"

// ==========================
// Test Helper Functions
// ==========================

func createRealElasticsearchClient(t *testing.T) *elasticsearch.Client {
	cfg := elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
	}

	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		t.Skipf("Skipping test: failed to create Elasticsearch client: %v", err)
		return nil
	}

	res, err := esClient.Info()
	if err != nil {
		t.Skipf("Skipping test: Elasticsearch not responding: %v", err)
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		t.Skipf("Skipping test: Elasticsearch error: %s", res.String())
		return nil
	}

	return esClient
}

func setupSearchIndex(t *testing.T, esClient *elasticsearch.Client) {
	t.Helper()
	esClient.Indices.Delete([]string{testSearchIndex}, esClient.Indices.Delete.WithIgnoreUnavailable(true))

	indexBody := `{
		"mappings": {
			"properties": {
				"user_id": {"type": "keyword"},
				"food_item": {"type": "text"},
				"quantity_kg": {"type": "float"},
				"logged_on": {"type": "date"}
			}
		}
	}`

	res, err := esClient.Indices.Create(
		testSearchIndex,
		esClient.Indices.Create.WithBody(strings.NewReader(indexBody)),
	)
	require.NoError(t, err, "Failed to create index")
	res.Body.Close()
}

func indexTestRecord(t *testing.T, search *Search, esClient *elasticsearch.Client, id, userID, foodItem string, qty float64) {
	t.Helper()
	rec := &models.WasteRecord{
		ID:         id,
		UserID:     userID,
		FoodItem:   foodItem,
		QuantityKg: qty,
		LoggedOn:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, search.IndexRecord(context.Background(), rec))

	_, err := esClient.Indices.Refresh(esClient.Indices.Refresh.WithIndex(testSearchIndex))
	require.NoError(t, err)
}

// ==========================
// Unit Tests (no container)
// ==========================

func TestSearch_NilClientIsNoOp(t *testing.T) {
	search := NewSearch(nil, testSearchIndex, logger.NewTestLogger(t))

	rec := &models.WasteRecord{ID: "rec-1", UserID: "user-1", FoodItem: "rice"}
	assert.NoError(t, search.IndexRecord(context.Background(), rec))
	assert.NoError(t, search.RemoveRecord(context.Background(), "rec-1"))

	records, total, err := search.SearchRecords(context.Background(), "user-1", "rice", 10)
	assert.Nil(t, records)
	assert.Zero(t, total)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchQueryFailed))
}

// ==========================
// Integration Tests
// ==========================

func TestSearch_IndexAndQuery(t *testing.T) {
	esClient := createRealElasticsearchClient(t)
	setupSearchIndex(t, esClient)
	search := NewSearch(esClient, testSearchIndex, logger.NewTestLogger(t))

	indexTestRecord(t, search, esClient, "rec-1", "user-1", "chicken curry", 2.5)
	indexTestRecord(t, search, esClient, "rec-2", "user-1", "steamed rice", 1.0)
	indexTestRecord(t, search, esClient, "rec-3", "user-2", "chicken wings", 3.0)

	records, total, err := search.SearchRecords(context.Background(), "user-1", "chicken", 10)

	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, "chicken curry", records[0].FoodItem)
	assert.Equal(t, "user-1", records[0].UserID)
}

func TestSearch_FuzzyMatch(t *testing.T) {
	esClient := createRealElasticsearchClient(t)
	setupSearchIndex(t, esClient)
	search := NewSearch(esClient, testSearchIndex, logger.NewTestLogger(t))

	indexTestRecord(t, search, esClient, "rec-1", "user-1", "chicken", 2.5)

	// One edit away still matches.
	records, _, err := search.SearchRecords(context.Background(), "user-1", "chickn", 10)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "chicken", records[0].FoodItem)
}

func TestSearch_RemoveRecord(t *testing.T) {
	esClient := createRealElasticsearchClient(t)
	setupSearchIndex(t, esClient)
	search := NewSearch(esClient, testSearchIndex, logger.NewTestLogger(t))

	indexTestRecord(t, search, esClient, "rec-1", "user-1", "chicken", 2.5)

	require.NoError(t, search.RemoveRecord(context.Background(), "rec-1"))

	// Deleting an already-missing document stays quiet.
	assert.NoError(t, search.RemoveRecord(context.Background(), "rec-1"))
}
