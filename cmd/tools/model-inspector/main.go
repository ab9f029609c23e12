// cmd/tools/model-inspector/main.go
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"wastewise/internal/forecast/features"
	"wastewise/internal/forecast/model"
	"wastewise/pkg/modelregistry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateRegistry := validateCmd.String("registry", "configs/model-registry.json", "Path to the model registry JSON")
	validateModel := validateCmd.String("model", "", "Model ID to validate (default: all entries)")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showRegistry := showCmd.String("registry", "configs/model-registry.json", "Path to the model registry JSON")
	showModel := showCmd.String("model", "", "Model ID to show (required)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := runValidate(*validateRegistry, *validateModel); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

	case "show":
		showCmd.Parse(os.Args[2:])
		if *showModel == "" {
			fmt.Println("Error: -model is required")
			showCmd.Usage()
			os.Exit(1)
		}
		if err := runShow(*showRegistry, *showModel); err != nil {
			fmt.Printf("Show failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// runValidate checks the registry document, then loads each selected
// entry's artifact and diffs its feature columns against the layout the
// prediction service is built for.
func runValidate(registryPath, modelID string) error {
	reg, err := modelregistry.LoadRegistry(registryPath)
	if err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Registry OK: version %s, last updated %s, %d model(s)\n\n", reg.Version, reg.LastUpdated, len(reg.Models))

	selected := reg.Models
	if modelID != "" {
		entry := reg.Find(modelID)
		if entry == nil {
			return fmt.Errorf("model %q not in registry", modelID)
		}
		selected = []modelregistry.ModelEntry{*entry}
	}

	failures := 0
	for _, entry := range selected {
		if err := validateEntry(registryPath, entry); err != nil {
			fmt.Printf("FAIL %-20s %v\n", entry.ModelID, err)
			failures++
			continue
		}
		fmt.Printf("OK   %-20s status=%s algorithm=%s\n", entry.ModelID, entry.Status, entry.Algorithm)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d model(s) failed validation", failures, len(selected))
	}
	return nil
}

func validateEntry(registryPath string, entry modelregistry.ModelEntry) error {
	artifact, _, err := model.ResolveArtifact(registryPath, entry.ModelID)
	if err != nil {
		return err
	}
	return diffColumns(artifact.FeatureColumns, features.Columns())
}

// diffColumns reports missing, unexpected, and reordered columns against
// the pinned feature layout. Servers reject any of these at startup, so
// surfacing them here keeps bad artifacts out of deploys.
func diffColumns(got, want []string) error {
	wantSet := make(map[string]bool, len(want))
	for _, col := range want {
		wantSet[col] = true
	}
	gotSet := make(map[string]bool, len(got))
	for _, col := range got {
		gotSet[col] = true
	}

	var missing, extra []string
	for _, col := range want {
		if !gotSet[col] {
			missing = append(missing, col)
		}
	}
	for _, col := range got {
		if !wantSet[col] {
			extra = append(extra, col)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("feature columns diverge: missing [%s], unexpected [%s]",
			strings.Join(missing, ", "), strings.Join(extra, ", "))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("feature columns out of order: position %d has %q, want %q", i, got[i], want[i])
		}
	}
	return nil
}

func runShow(registryPath, modelID string) error {
	artifact, entry, err := model.ResolveArtifact(registryPath, modelID)
	if err != nil {
		return err
	}

	fmt.Printf("Model:       %s (%s)\n", entry.ModelID, entry.DisplayName)
	fmt.Printf("Description: %s\n", entry.Description)
	fmt.Printf("Algorithm:   %s\n", entry.Algorithm)
	fmt.Printf("Version:     %s\n", entry.Version)
	fmt.Printf("Status:      %s\n", entry.Status)
	fmt.Printf("Trained:     %s\n", entry.TrainedAt)
	fmt.Printf("Artifact:    %s\n", entry.ArtifactPath)
	fmt.Printf("Metrics:     mae=%.4f r2=%.4f\n", entry.Metrics.MAE, entry.Metrics.R2)
	if len(entry.Tags) > 0 {
		fmt.Printf("Tags:        %s\n", strings.Join(entry.Tags, ", "))
	}

	if err := diffColumns(artifact.FeatureColumns, features.Columns()); err != nil {
		fmt.Printf("\nWARNING: %v\n", err)
	}

	type weighted struct {
		column string
		value  float64
	}
	coefs := make([]weighted, 0, len(artifact.Coefficients))
	for column, value := range artifact.Coefficients {
		coefs = append(coefs, weighted{column, value})
	}
	sort.SliceStable(coefs, func(i, j int) bool {
		if math.Abs(coefs[i].value) != math.Abs(coefs[j].value) {
			return math.Abs(coefs[i].value) > math.Abs(coefs[j].value)
		}
		return coefs[i].column < coefs[j].column
	})

	fmt.Printf("\nIntercept: %12.6f\n", artifact.Intercept)
	fmt.Printf("%-28s %12s\n", "feature", "coefficient")
	for _, c := range coefs {
		fmt.Printf("%-28s %12.6f\n", c.column, c.value)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: model-inspector <command> [flags]

Commands:
  validate  Check the registry document and every artifact it points at
  show      Print one model's metadata and coefficient table
  help      Show this help message

Examples:
  model-inspector validate -registry configs/model-registry.json
  model-inspector validate -registry configs/model-registry.json -model wastecast-v2
  model-inspector show -registry configs/model-registry.json -model wastecast-v2

Use 'model-inspector <command> -h' for more information about a command.

`)
}
