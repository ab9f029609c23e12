// internal/nutrition/similarity/engine.go
package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"wastewise/internal/common/logger"
	"wastewise/internal/common/metrics"
	"wastewise/internal/models"
	"wastewise/internal/nutrition/catalog"
)

// Relative nutrient deltas below this threshold read as "similar".
const comparisonThreshold = 0.10

// Attribute order used for comparison strings and tie-breaking the
// dominant nutrient.
var attributeOrder = []string{"protein", "carbs", "fat", "calories"}

type Config struct {
	DefaultTopK int
	MaxTopK     int
}

// Engine ranks catalog entries against a query food by nutrient
// similarity. It only reads the shared catalog, so a single instance
// serves all requests.
type Engine struct {
	catalog *catalog.Catalog
	config  Config
	logger  logger.Logger
}

func NewEngine(cat *catalog.Catalog, cfg Config, log logger.Logger) *Engine {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.MaxTopK < cfg.DefaultTopK {
		cfg.MaxTopK = cfg.DefaultTopK
	}
	return &Engine{
		catalog: cat,
		config:  cfg,
		logger:  log.Named("similarity"),
	}
}

// FindAlternatives scores every other catalog entry against the query
// food with cosine similarity and returns the top k, ordered by score
// descending with name as the deterministic tie-break. k <= 0 selects
// the configured default.
func (e *Engine) FindAlternatives(foodName string, k int) (*models.AlternativesResult, error) {
	entry, err := e.catalog.Lookup(foodName)
	if err != nil {
		metrics.SimilarityQueries.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if k <= 0 {
		k = e.config.DefaultTopK
	}
	if k > e.config.MaxTopK {
		k = e.config.MaxTopK
	}

	candidates := make([]models.SimilarityResult, 0, e.catalog.Len()-1)
	for _, candidate := range e.catalog.Entries() {
		if candidate.Name == entry.Name {
			continue
		}
		candidates = append(candidates, models.SimilarityResult{
			Food:       candidate.DisplayName,
			Score:      Cosine(entry.Nutrients, candidate.Nutrients),
			Nutrients:  candidate.Nutrients,
			Comparison: compareNutrients(candidate.Nutrients, entry.Nutrients),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return catalog.Normalize(candidates[i].Food) < catalog.Normalize(candidates[j].Food)
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	metrics.SimilarityQueries.WithLabelValues("resolved").Inc()
	e.logger.Debug("alternatives computed", map[string]interface{}{
		"food":         entry.DisplayName,
		"alternatives": len(candidates),
		"topK":         k,
	})

	return &models.AlternativesResult{
		InputFood:        entry.DisplayName,
		InputNutrients:   entry.Nutrients,
		NutrientsMessage: dominantNutrientMessage(entry.Nutrients),
		Alternatives:     candidates,
	}, nil
}

// Cosine computes similarity between two nutrient vectors. The score
// depends only on nutrient proportions: scaling one vector by a positive
// constant leaves it unchanged. Non-negative inputs keep it in [0, 1].
func Cosine(a, b models.NutrientVector) float64 {
	av := a.Values()
	bv := b.Values()

	var dot, normA, normB float64
	for i := range av {
		dot += av[i] * bv[i]
		normA += av[i] * av[i]
		normB += bv[i] * bv[i]
	}

	// A zero vector has no direction. Two of them rank as identical;
	// one against a non-zero vector shares nothing.
	if normA == 0 && normB == 0 {
		return 1.0
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}

	score := dot / math.Sqrt(normA*normB)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func attributeValue(v models.NutrientVector, name string) float64 {
	switch name {
	case "protein":
		return v.Protein
	case "carbs":
		return v.Carbs
	case "fat":
		return v.Fat
	default:
		return v.Calories
	}
}

// compareNutrients summarizes how a candidate differs from the query
// food, e.g. "higher protein, lower carbs". Attributes within the
// threshold are omitted; a candidate with no notable deltas reads as
// "similar nutritional profile".
func compareNutrients(candidate, reference models.NutrientVector) string {
	var parts []string
	for _, name := range attributeOrder {
		switch relativeDirection(attributeValue(candidate, name), attributeValue(reference, name)) {
		case 1:
			parts = append(parts, "higher "+name)
		case -1:
			parts = append(parts, "lower "+name)
		}
	}
	if len(parts) == 0 {
		return "similar nutritional profile"
	}
	return strings.Join(parts, ", ")
}

// relativeDirection reports 1 or -1 when the candidate differs from the
// reference by at least the comparison threshold, 0 otherwise. Against a
// zero reference any positive value counts as higher.
func relativeDirection(candidate, reference float64) int {
	if reference == 0 {
		if candidate == 0 {
			return 0
		}
		return 1
	}
	delta := (candidate - reference) / reference
	switch {
	case delta >= comparisonThreshold:
		return 1
	case delta <= -comparisonThreshold:
		return -1
	default:
		return 0
	}
}

// dominantNutrientMessage names the attribute with the largest raw
// value, ties resolving in attribute order.
func dominantNutrientMessage(v models.NutrientVector) string {
	best := attributeOrder[0]
	bestValue := attributeValue(v, best)
	for _, name := range attributeOrder[1:] {
		if value := attributeValue(v, name); value > bestValue {
			best = name
			bestValue = value
		}
	}
	return fmt.Sprintf("Dominant nutrient: %s", best)
}
