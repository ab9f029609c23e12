// pkg/modelregistry/registry.go
package modelregistry

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadRegistry(path string) (*ModelRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ModelRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the entry with the given model ID, or nil if absent.
func (r *ModelRegistry) Find(modelID string) *ModelEntry {
	for i := range r.Models {
		if r.Models[i].ModelID == modelID {
			return &r.Models[i]
		}
	}
	return nil
}

// Validate checks structural requirements: non-empty IDs, no duplicates,
// known status values, and a declared feature layout for every entry.
func (r *ModelRegistry) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("registry version is required")
	}

	seen := make(map[string]bool, len(r.Models))
	for _, entry := range r.Models {
		if entry.ModelID == "" {
			return fmt.Errorf("model entry with empty model_id")
		}
		if seen[entry.ModelID] {
			return fmt.Errorf("duplicate model_id %q", entry.ModelID)
		}
		seen[entry.ModelID] = true

		switch entry.Status {
		case StatusActive, StatusCandidate, StatusRetired:
		default:
			return fmt.Errorf("model %q has unknown status %q", entry.ModelID, entry.Status)
		}

		if entry.ArtifactPath == "" {
			return fmt.Errorf("model %q has no artifact_path", entry.ModelID)
		}
		if len(entry.FeatureColumns) == 0 {
			return fmt.Errorf("model %q declares no feature_columns", entry.ModelID)
		}
	}
	return nil
}
