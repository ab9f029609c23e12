// internal/nutrition/similarity/engine_test.go
package similarity

import (
	"strings"
	"testing"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/models"
	"wastewise/internal/nutrition/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// Grilled Chicken and Roast Chicken are exact multiples of Chicken
// Breast, so both score 1.0 against it and exercise the name tie-break.
const testCSV = `food_name,calories,protein,carbs,fat
White Rice,130,2.7,28,0.3
Brown Rice,112,2.6,24,0.9
Chicken Breast,165,31,0,3.6
Grilled Chicken,330,62,0,7.2
Roast Chicken,495,93,0,10.8
Tofu,76,8,1.9,4.8
Apple,52,0.3,14,0.2
`

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse(strings.NewReader(testCSV), logger.NewTestLogger(t))
	require.NoError(t, err)
	return cat
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(newTestCatalog(t), Config{DefaultTopK: 5, MaxTopK: 10}, logger.NewTestLogger(t))
}

// ==========================
// Cosine Similarity Tests
// ==========================

func TestCosine_SelfSimilarity(t *testing.T) {
	cat := newTestCatalog(t)

	for _, entry := range cat.Entries() {
		score := Cosine(entry.Nutrients, entry.Nutrients)
		assert.InDelta(t, 1.0, score, 1e-12, "self similarity for %s", entry.Name)
	}
}

func TestCosine_ScaleInvariance(t *testing.T) {
	query := models.NutrientVector{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}
	candidate := models.NutrientVector{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6}
	scaled := models.NutrientVector{
		Calories: candidate.Calories * 3,
		Protein:  candidate.Protein * 3,
		Carbs:    candidate.Carbs * 3,
		Fat:      candidate.Fat * 3,
	}

	assert.InDelta(t, Cosine(query, candidate), Cosine(query, scaled), 1e-12)
}

func TestCosine_Symmetry(t *testing.T) {
	a := models.NutrientVector{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}
	b := models.NutrientVector{Calories: 76, Protein: 8, Carbs: 1.9, Fat: 4.8}

	assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-12)
}

func TestCosine_Range(t *testing.T) {
	cat := newTestCatalog(t)
	entries := cat.Entries()

	for _, a := range entries {
		for _, b := range entries {
			score := Cosine(a.Nutrients, b.Nutrients)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestCosine_ZeroVectors(t *testing.T) {
	zero := models.NutrientVector{}
	nonZero := models.NutrientVector{Calories: 100, Protein: 10, Carbs: 5, Fat: 2}

	assert.Equal(t, 1.0, Cosine(zero, zero))
	assert.Equal(t, 0.0, Cosine(zero, nonZero))
	assert.Equal(t, 0.0, Cosine(nonZero, zero))
}

// ==========================
// FindAlternatives Tests
// ==========================

func TestFindAlternatives_ExcludesQueryAndSorts(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.FindAlternatives("White Rice", 10)

	require.NoError(t, err)
	assert.Equal(t, "White Rice", result.InputFood)
	assert.Equal(t, 130.0, result.InputNutrients.Calories)
	require.Len(t, result.Alternatives, 6)

	for i, alt := range result.Alternatives {
		assert.NotEqual(t, "White Rice", alt.Food)
		assert.GreaterOrEqual(t, alt.Score, 0.0)
		assert.LessOrEqual(t, alt.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Alternatives[i-1].Score, alt.Score)
		}
	}

	// Brown Rice shares White Rice's proportions most closely.
	assert.Equal(t, "Brown Rice", result.Alternatives[0].Food)
}

func TestFindAlternatives_TieBreakByName(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.FindAlternatives("Chicken Breast", 3)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Alternatives), 2)

	// Both are exact multiples of the query, so scores tie at 1.0 and
	// names decide the order.
	assert.Equal(t, "Grilled Chicken", result.Alternatives[0].Food)
	assert.Equal(t, "Roast Chicken", result.Alternatives[1].Food)
	assert.InDelta(t, 1.0, result.Alternatives[0].Score, 1e-12)
	assert.InDelta(t, 1.0, result.Alternatives[1].Score, 1e-12)
}

func TestFindAlternatives_TopK(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		k        int
		expected int
	}{
		{"default when zero", 0, 5},
		{"default when negative", -1, 5},
		{"explicit k", 2, 2},
		{"k beyond catalog size", 10, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.FindAlternatives("Tofu", tt.k)

			require.NoError(t, err)
			assert.Len(t, result.Alternatives, tt.expected)
		})
	}
}

func TestFindAlternatives_KClampedToMax(t *testing.T) {
	engine := NewEngine(newTestCatalog(t), Config{DefaultTopK: 2, MaxTopK: 3}, logger.NewTestLogger(t))

	result, err := engine.FindAlternatives("Tofu", 50)

	require.NoError(t, err)
	assert.Len(t, result.Alternatives, 3)
}

func TestFindAlternatives_CaseInsensitiveLookup(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.FindAlternatives("  white RICE ", 0)

	require.NoError(t, err)
	assert.Equal(t, "White Rice", result.InputFood)
}

func TestFindAlternatives_NotFound(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.FindAlternatives("unknownfood123", 0)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFoodNotFound))
}

// ==========================
// Comparison Annotation Tests
// ==========================

func TestCompareNutrients(t *testing.T) {
	reference := models.NutrientVector{Calories: 100, Protein: 10, Carbs: 20, Fat: 5}

	tests := []struct {
		name      string
		candidate models.NutrientVector
		expected  string
	}{
		{
			name:      "higher protein lower carbs",
			candidate: models.NutrientVector{Calories: 100, Protein: 15, Carbs: 10, Fat: 5},
			expected:  "higher protein, lower carbs",
		},
		{
			name:      "all within threshold",
			candidate: models.NutrientVector{Calories: 105, Protein: 10.5, Carbs: 19, Fat: 5.2},
			expected:  "similar nutritional profile",
		},
		{
			name:      "exactly at threshold counts",
			candidate: models.NutrientVector{Calories: 110, Protein: 10, Carbs: 20, Fat: 5},
			expected:  "higher calories",
		},
		{
			name:      "just under threshold is similar",
			candidate: models.NutrientVector{Calories: 109, Protein: 10, Carbs: 20, Fat: 5},
			expected:  "similar nutritional profile",
		},
		{
			name:      "every attribute differs",
			candidate: models.NutrientVector{Calories: 200, Protein: 20, Carbs: 2, Fat: 1},
			expected:  "higher protein, lower carbs, lower fat, higher calories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compareNutrients(tt.candidate, reference))
		})
	}
}

func TestCompareNutrients_ZeroReference(t *testing.T) {
	reference := models.NutrientVector{Calories: 100, Protein: 0, Carbs: 20, Fat: 5}

	// Any positive value against a zero reference reads as higher.
	candidate := models.NutrientVector{Calories: 100, Protein: 3, Carbs: 20, Fat: 5}
	assert.Equal(t, "higher protein", compareNutrients(candidate, reference))

	// Zero against zero is not a difference.
	candidate = models.NutrientVector{Calories: 100, Protein: 0, Carbs: 20, Fat: 5}
	assert.Equal(t, "similar nutritional profile", compareNutrients(candidate, reference))
}

func TestDominantNutrientMessage(t *testing.T) {
	tests := []struct {
		name     string
		vector   models.NutrientVector
		expected string
	}{
		{
			name:     "calories dominate typical food",
			vector:   models.NutrientVector{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3},
			expected: "Dominant nutrient: calories",
		},
		{
			name:     "protein beats calories",
			vector:   models.NutrientVector{Calories: 40, Protein: 50, Carbs: 2, Fat: 1},
			expected: "Dominant nutrient: protein",
		},
		{
			name:     "four-way tie resolves to protein",
			vector:   models.NutrientVector{Calories: 10, Protein: 10, Carbs: 10, Fat: 10},
			expected: "Dominant nutrient: protein",
		},
		{
			name:     "carbs beat fat on tie order",
			vector:   models.NutrientVector{Calories: 5, Protein: 5, Carbs: 30, Fat: 30},
			expected: "Dominant nutrient: carbs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dominantNutrientMessage(tt.vector))
		})
	}
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkFindAlternatives(b *testing.B) {
	cat, err := catalog.Parse(strings.NewReader(testCSV), logger.NewNoOpLogger())
	if err != nil {
		b.Fatal(err)
	}
	engine := NewEngine(cat, Config{DefaultTopK: 5, MaxTopK: 10}, logger.NewNoOpLogger())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.FindAlternatives("White Rice", 5)
	}
}
