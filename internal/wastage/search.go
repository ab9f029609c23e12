// internal/wastage/search.go
package wastage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const defaultSearchSize = 20

// Search maintains the secondary Elasticsearch index over waste
// records. PostgreSQL stays the source of truth; documents here exist
// only to answer free-text queries.
type Search struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearch(client *elasticsearch.Client, index string, log logger.Logger) *Search {
	if index == "" {
		index = "waste-records"
	}
	return &Search{
		client: client,
		index:  index,
		logger: log.Named("wastage-search"),
	}
}

// IndexRecord upserts one record document keyed by the record ID.
func (s *Search) IndexRecord(ctx context.Context, rec *models.WasteRecord) error {
	if s == nil || s.client == nil {
		return nil
	}

	doc := map[string]interface{}{
		"user_id":     rec.UserID,
		"food_item":   rec.FoodItem,
		"quantity_kg": rec.QuantityKg,
		"logged_on":   rec.LoggedOn.Format("2006-01-02"),
		"created_at":  rec.CreatedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewIndexingFailedError(rec.ID, err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(rec.ID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return errors.NewIndexingFailedError(rec.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewIndexingFailedError(rec.ID, fmt.Errorf("%s", res.String()))
	}
	return nil
}

// RemoveRecord deletes the record document. A missing document is not
// an error; the index may lag behind the database.
func (s *Search) RemoveRecord(ctx context.Context, recordID string) error {
	if s == nil || s.client == nil {
		return nil
	}

	res, err := s.client.Delete(
		s.index, recordID,
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return errors.NewIndexingFailedError(recordID, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return errors.NewIndexingFailedError(recordID, fmt.Errorf("%s", res.String()))
	}
	return nil
}

// SearchRecords runs a fuzzy food-item query scoped to one user and
// returns matching records newest first.
func (s *Search) SearchRecords(ctx context.Context, userID, query string, size int) ([]models.WasteRecord, int64, error) {
	if s == nil || s.client == nil {
		return nil, 0, errors.NewSearchQueryFailedError(fmt.Errorf("search index not configured"))
	}
	if size <= 0 || size > 100 {
		size = defaultSearchSize
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"match": map[string]interface{}{
							"food_item": map[string]interface{}{
								"query":     query,
								"fuzziness": "AUTO",
							},
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"user_id": userID},
					},
				},
			},
		},
		"sort": []map[string]interface{}{{"logged_on": "desc"}},
	}
	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, 0, errors.NewSearchQueryFailedError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, 0, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, errors.NewSearchQueryFailedError(fmt.Errorf("%s", res.String()))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string `json:"_id"`
				Source struct {
					UserID     string  `json:"user_id"`
					FoodItem   string  `json:"food_item"`
					QuantityKg float64 `json:"quantity_kg"`
					LoggedOn   string  `json:"logged_on"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, errors.NewSearchQueryFailedError(err)
	}

	records := make([]models.WasteRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rec := models.WasteRecord{
			ID:         hit.ID,
			UserID:     hit.Source.UserID,
			FoodItem:   hit.Source.FoodItem,
			QuantityKg: hit.Source.QuantityKg,
		}
		if loggedOn, err := parseDate(hit.Source.LoggedOn); err == nil {
			rec.LoggedOn = loggedOn
		}
		records = append(records, rec)
	}

	s.logger.Debug("Search query served", map[string]interface{}{
		"userId":    userID,
		"query":     query,
		"totalHits": parsed.Hits.Total.Value,
	})

	return records, parsed.Hits.Total.Value, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
