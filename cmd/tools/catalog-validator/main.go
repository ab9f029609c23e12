// cmd/tools/catalog-validator/main.go
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"wastewise/internal/common/logger"
	"wastewise/internal/models"
	"wastewise/internal/nutrition/catalog"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "configs/nutrition-catalog.csv", "Path to the nutrient catalog CSV")

	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
	statsPath := statsCmd.String("path", "configs/nutrition-catalog.csv", "Path to the nutrient catalog CSV")
	topN := statsCmd.Int("top", 5, "Number of entries to list per extreme")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := runValidate(*validatePath); err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}

	case "stats":
		statsCmd.Parse(os.Args[2:])
		if err := runStats(*statsPath, *topN); err != nil {
			fmt.Printf("Catalog stats failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// runValidate loads the catalog through the same parser the server uses,
// so every skipped row prints its reason.
func runValidate(path string) error {
	log := logger.NewStructured("warn", "console")

	cat, err := catalog.Load(path, log)
	if err != nil {
		return err
	}

	fmt.Printf("Catalog validation passed. %d entries loaded, %d rows skipped.\n", cat.Len(), cat.Skipped())
	if cat.Skipped() > 0 {
		fmt.Println("Skipped rows are listed above with their reasons.")
	}
	return nil
}

func runStats(path string, topN int) error {
	log := logger.NewStructured("error", "console")

	cat, err := catalog.Load(path, log)
	if err != nil {
		return err
	}
	entries := cat.Entries()

	fmt.Printf("Catalog: %s\n", path)
	fmt.Printf("Entries: %d (skipped %d)\n\n", cat.Len(), cat.Skipped())

	attributes := []struct {
		name  string
		value func(models.NutrientVector) float64
	}{
		{"calories", func(v models.NutrientVector) float64 { return v.Calories }},
		{"protein", func(v models.NutrientVector) float64 { return v.Protein }},
		{"carbs", func(v models.NutrientVector) float64 { return v.Carbs }},
		{"fat", func(v models.NutrientVector) float64 { return v.Fat }},
	}

	fmt.Printf("%-10s %10s %10s %10s\n", "nutrient", "min", "mean", "max")
	for _, attr := range attributes {
		min, max := math.Inf(1), math.Inf(-1)
		var sum float64
		for _, entry := range entries {
			v := attr.value(entry.Nutrients)
			sum += v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		fmt.Printf("%-10s %10.2f %10.2f %10.2f\n", attr.name, min, sum/float64(len(entries)), max)
	}

	for _, attr := range attributes {
		ranked := make([]models.FoodEntry, len(entries))
		copy(ranked, entries)
		sort.SliceStable(ranked, func(i, j int) bool {
			return attr.value(ranked[i].Nutrients) > attr.value(ranked[j].Nutrients)
		})
		if len(ranked) > topN {
			ranked = ranked[:topN]
		}

		fmt.Printf("\nTop %d by %s:\n", len(ranked), attr.name)
		for _, entry := range ranked {
			fmt.Printf("  %-30s %8.2f\n", entry.DisplayName, attr.value(entry.Nutrients))
		}
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: catalog-validator <command> [flags]

Commands:
  validate  Load a nutrient catalog CSV and report entry and skip counts
  stats     Print nutrient ranges and the highest entries per nutrient
  help      Show this help message

Examples:
  catalog-validator validate -path configs/nutrition-catalog.csv
  catalog-validator stats -path configs/nutrition-catalog.csv -top 10

Use 'catalog-validator <command> -h' for more information about a command.

`)
}
