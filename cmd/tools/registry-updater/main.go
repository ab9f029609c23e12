// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"wastewise/internal/forecast/features"
	"wastewise/pkg/modelregistry"
)

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	promoteCmd := flag.NewFlagSet("promote", flag.ExitOnError)
	retireCmd := flag.NewFlagSet("retire", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)

	// Add command flags
	idAdd := addCmd.String("id", "", "Model ID (e.g., wastecast-v3)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., WasteCast v3)")
	description := addCmd.String("description", "", "Description")
	algorithm := addCmd.String("algorithm", "lasso_regression", "Training algorithm")
	version := addCmd.String("version", "1.0.0", "Version")
	artifactPath := addCmd.String("artifact", "", "Artifact path relative to the registry file")
	addCmd.StringVar(&registryPath, "path", "configs/model-registry.json", "Path to registry file")

	// Promote command flags
	idPromote := promoteCmd.String("id", "", "Model ID to promote to active")
	promoteCmd.StringVar(&registryPath, "path", "configs/model-registry.json", "Path to registry file")

	// Retire command flags
	idRetire := retireCmd.String("id", "", "Model ID to retire")
	retireCmd.StringVar(&registryPath, "path", "configs/model-registry.json", "Path to registry file")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Model ID to update")
	field := updateCmd.String("field", "", "Field to update (displayName, description, version, algorithm, artifact, trainedAt, mae, r2)")
	value := updateCmd.String("value", "", "New value for the field")
	updateCmd.StringVar(&registryPath, "path", "configs/model-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *artifactPath == "" {
			fmt.Println("Error: id, displayName, and artifact are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		entry := modelregistry.ModelEntry{
			ModelID:      *idAdd,
			DisplayName:  *displayName,
			Description:  *description,
			Algorithm:    *algorithm,
			Version:      *version,
			Status:       modelregistry.StatusCandidate,
			ArtifactPath: *artifactPath,
			// New entries start on the layout the running servers expect.
			FeatureColumns: features.Columns(),
			TrainedAt:      time.Now().UTC().Format(time.RFC3339),
			Tags:           []string{"waste-forecast"},
		}
		err := addModel(&entry)
		if err != nil {
			fmt.Printf("Error adding model: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added candidate model: %s\n", *idAdd)

	case "promote":
		promoteCmd.Parse(os.Args[2:])
		if *idPromote == "" {
			fmt.Println("Error: id is required for promote.")
			promoteCmd.Usage()
			os.Exit(1)
		}
		err := promoteModel(*idPromote)
		if err != nil {
			fmt.Printf("Error promoting model: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Promoted model %s to active\n", *idPromote)

	case "retire":
		retireCmd.Parse(os.Args[2:])
		if *idRetire == "" {
			fmt.Println("Error: id is required for retire.")
			retireCmd.Usage()
			os.Exit(1)
		}
		err := setStatus(*idRetire, modelregistry.StatusRetired)
		if err != nil {
			fmt.Printf("Error retiring model: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Retired model %s\n", *idRetire)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err := updateModel(*idUpdate, *field, *value)
		if err != nil {
			fmt.Printf("Error updating model: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated model %s, field %s to %s\n", *idUpdate, *field, *value)

	case "help":
		fallthrough
	default:
		help()
	}
}

func addModel(entry *modelregistry.ModelEntry) error {
	reg, err := modelregistry.LoadRegistry(registryPath)
	if err != nil {
		// If file doesn't exist, create new registry
		if os.IsNotExist(err) {
			reg = &modelregistry.ModelRegistry{
				Version:     "1.0.0",
				LastUpdated: time.Now().UTC().Format(time.RFC3339),
				Models:      []modelregistry.ModelEntry{},
			}
		} else {
			return fmt.Errorf("failed to load registry: %w", err)
		}
	}

	if reg.Find(entry.ModelID) != nil {
		return fmt.Errorf("model with ID %s already exists", entry.ModelID)
	}

	reg.Models = append(reg.Models, *entry)
	return saveRegistry(reg, registryPath)
}

// promoteModel activates one entry and retires whichever entry was
// active before it, keeping a single active model per registry.
func promoteModel(id string) error {
	reg, err := modelregistry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	target := reg.Find(id)
	if target == nil {
		return fmt.Errorf("model with ID %s not found", id)
	}

	for i := range reg.Models {
		if reg.Models[i].Status == modelregistry.StatusActive && reg.Models[i].ModelID != id {
			reg.Models[i].Status = modelregistry.StatusRetired
			fmt.Printf("Retired previously active model: %s\n", reg.Models[i].ModelID)
		}
	}
	target.Status = modelregistry.StatusActive

	return saveRegistry(reg, registryPath)
}

func setStatus(id, status string) error {
	reg, err := modelregistry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	entry := reg.Find(id)
	if entry == nil {
		return fmt.Errorf("model with ID %s not found", id)
	}
	entry.Status = status

	return saveRegistry(reg, registryPath)
}

func updateModel(id, field, value string) error {
	reg, err := modelregistry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	entry := reg.Find(id)
	if entry == nil {
		return fmt.Errorf("model with ID %s not found", id)
	}

	switch field {
	case "displayName":
		entry.DisplayName = value
	case "description":
		entry.Description = value
	case "version":
		entry.Version = value
	case "algorithm":
		entry.Algorithm = value
	case "artifact":
		entry.ArtifactPath = value
	case "trainedAt":
		entry.TrainedAt = value
	case "mae":
		mae, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid mae value: %w", err)
		}
		entry.Metrics.MAE = mae
	case "r2":
		r2, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid r2 value: %w", err)
		}
		entry.Metrics.R2 = r2
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return saveRegistry(reg, registryPath)
}

// saveRegistry validates and writes the registry back to disk.
func saveRegistry(reg *modelregistry.ModelRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	if err := reg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid registry: %w", err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}

	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add     Add a new candidate model to the registry
  promote Activate a model, retiring the previously active one
  retire  Mark a model as retired
  update  Update an existing model's field
  help    Show this help message

Examples:
  registry-updater add -id wastecast-v3 -displayName "WasteCast v3" -description "Retrained on 2025-H2 logs" -artifact models/wastecast-v3.json
  registry-updater promote -id wastecast-v3
  registry-updater retire -id wastecast-v1
  registry-updater update -id wastecast-v3 -field mae -value 1.92

Use 'registry-updater <command> -h' for more information about a command.

`)
}
