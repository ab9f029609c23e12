// internal/nutrition/catalog/catalog.go
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/metrics"
	"wastewise/internal/models"
)

// Required header columns. Extra columns (food codes, micronutrients) are
// ignored so richer exports load unchanged.
var requiredColumns = []string{"food_name", "calories", "protein", "carbs", "fat"}

// Catalog is the in-memory nutrient table shared by every request. It is
// built once at startup and never mutated afterwards, so concurrent
// readers need no locking.
type Catalog struct {
	entries map[string]models.FoodEntry
	names   []string
	skipped int
}

// Normalize maps a food name to its catalog key. Lookups are
// case-insensitive and ignore surrounding whitespace.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func Load(path string, log logger.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataLoadError(path, err)
	}
	defer f.Close()

	cat, err := Parse(f, log)
	if err != nil {
		return nil, err
	}

	log.Info("nutrition catalog loaded", map[string]interface{}{
		"path":    path,
		"entries": cat.Len(),
		"skipped": cat.Skipped(),
	})
	return cat, nil
}

// Parse reads CSV rows into a catalog. Rows with unparseable or negative
// nutrient values are skipped with a warning; a missing required column
// or a table with no usable rows fails the whole load.
func Parse(r io.Reader, log logger.Logger) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewDataLoadError("catalog header", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[Normalize(col)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, errors.NewDataLoadError("catalog header", fmt.Errorf("missing required column %q", col))
		}
	}

	cat := &Catalog{entries: make(map[string]models.FoodEntry)}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			cat.skipped++
			log.Warn("skipping malformed catalog row", map[string]interface{}{
				"line":  line,
				"error": err.Error(),
			})
			continue
		}

		displayName := strings.TrimSpace(record[colIndex["food_name"]])
		key := Normalize(displayName)
		if key == "" {
			cat.skipped++
			log.Warn("skipping catalog row with empty food name", map[string]interface{}{
				"line": line,
			})
			continue
		}

		nutrients, err := parseNutrients(record, colIndex)
		if err != nil {
			cat.skipped++
			log.Warn("skipping catalog row with bad nutrient values", map[string]interface{}{
				"line":  line,
				"food":  displayName,
				"error": err.Error(),
			})
			continue
		}

		// First occurrence wins so reloads stay deterministic.
		if _, exists := cat.entries[key]; exists {
			cat.skipped++
			log.Warn("skipping duplicate catalog entry", map[string]interface{}{
				"line": line,
				"food": displayName,
			})
			continue
		}

		cat.entries[key] = models.FoodEntry{
			Name:        key,
			DisplayName: displayName,
			Nutrients:   nutrients,
		}
	}

	if len(cat.entries) == 0 {
		return nil, errors.NewDataLoadError("nutrition catalog", fmt.Errorf("no valid rows"))
	}

	cat.names = make([]string, 0, len(cat.entries))
	for key := range cat.entries {
		cat.names = append(cat.names, key)
	}
	sort.Strings(cat.names)

	metrics.CatalogEntries.Set(float64(len(cat.entries)))
	return cat, nil
}

func parseNutrients(record []string, colIndex map[string]int) (models.NutrientVector, error) {
	parse := func(col string) (float64, error) {
		idx := colIndex[col]
		if idx >= len(record) {
			return 0, fmt.Errorf("missing value for %s", col)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric %s: %q", col, record[idx])
		}
		if v < 0 {
			return 0, fmt.Errorf("negative %s: %v", col, v)
		}
		return v, nil
	}

	var nv models.NutrientVector
	var err error
	if nv.Calories, err = parse("calories"); err != nil {
		return nv, err
	}
	if nv.Protein, err = parse("protein"); err != nil {
		return nv, err
	}
	if nv.Carbs, err = parse("carbs"); err != nil {
		return nv, err
	}
	if nv.Fat, err = parse("fat"); err != nil {
		return nv, err
	}
	return nv, nil
}

// Lookup resolves a food entry by normalized name.
func (c *Catalog) Lookup(name string) (models.FoodEntry, error) {
	entry, ok := c.entries[Normalize(name)]
	if !ok {
		return models.FoodEntry{}, errors.NewFoodNotFoundError(strings.TrimSpace(name))
	}
	return entry, nil
}

// Entries returns every entry ordered by normalized name.
func (c *Catalog) Entries() []models.FoodEntry {
	out := make([]models.FoodEntry, 0, len(c.names))
	for _, key := range c.names {
		out = append(out, c.entries[key])
	}
	return out
}

func (c *Catalog) Len() int { return len(c.entries) }

// Skipped reports how many source rows were rejected during the load.
func (c *Catalog) Skipped() int { return c.skipped }
