// internal/forecast/model/artifact.go
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wastewise/internal/common/errors"
	"wastewise/pkg/modelregistry"

	"github.com/xeipuuv/gojsonschema"
)

// Artifact is the serialized linear model produced by the training
// pipeline. Coefficients are keyed by feature column so a layout drift
// shows up as a missing key instead of silently misaligned math.
type Artifact struct {
	ModelID        string             `json:"model_id"`
	Algorithm      string             `json:"algorithm"`
	Intercept      float64            `json:"intercept"`
	Coefficients   map[string]float64 `json:"coefficients"`
	FeatureColumns []string           `json:"feature_columns"`
	TrainedAt      string             `json:"trained_at"`
}

var artifactSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"model_id", "intercept", "coefficients", "feature_columns"},
	"properties": map[string]interface{}{
		"model_id":  map[string]interface{}{"type": "string", "minLength": 1},
		"algorithm": map[string]interface{}{"type": "string"},
		"intercept": map[string]interface{}{"type": "number"},
		"coefficients": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": map[string]interface{}{"type": "number"},
		},
		"feature_columns": map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "string"},
			"minItems": 1,
		},
		"trained_at": map[string]interface{}{"type": "string"},
	},
}

// LoadArtifact reads and validates a model artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDataLoadError(path, err)
	}
	return ParseArtifact(data)
}

// ParseArtifact validates the raw document against the artifact schema
// before decoding it, so a truncated or hand-edited file fails loudly
// at startup.
func ParseArtifact(data []byte) (*Artifact, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewDataLoadError("model artifact", err)
	}

	schemaLoader := gojsonschema.NewGoLoader(artifactSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, errors.NewDataLoadError("model artifact schema", err)
	}
	if !result.Valid() {
		violations := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			violations[i] = e.String()
		}
		return nil, errors.NewDataLoadError("model artifact", fmt.Errorf("schema violations: %s", strings.Join(violations, "; ")))
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, errors.NewDataLoadError("model artifact", err)
	}

	for _, col := range artifact.FeatureColumns {
		if _, ok := artifact.Coefficients[col]; !ok {
			return nil, errors.NewDataLoadError("model artifact", fmt.Errorf("missing coefficient for feature %q", col))
		}
	}
	return &artifact, nil
}

// ResolveArtifact looks up the entry in the registry and loads its
// artifact. Relative artifact paths resolve against the registry file's
// directory so the process working directory does not matter.
func ResolveArtifact(registryPath, modelID string) (*Artifact, *modelregistry.ModelEntry, error) {
	reg, err := modelregistry.LoadRegistry(registryPath)
	if err != nil {
		return nil, nil, errors.NewDataLoadError(registryPath, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, nil, errors.NewDataLoadError(registryPath, err)
	}

	entry := reg.Find(modelID)
	if entry == nil {
		return nil, nil, errors.NewDataLoadError(registryPath, fmt.Errorf("model %q not in registry", modelID))
	}

	artifactPath := entry.ArtifactPath
	if !filepath.IsAbs(artifactPath) {
		artifactPath = filepath.Join(filepath.Dir(registryPath), artifactPath)
	}

	artifact, err := LoadArtifact(artifactPath)
	if err != nil {
		return nil, nil, err
	}
	if artifact.ModelID != entry.ModelID {
		return nil, nil, errors.NewDataLoadError(artifactPath, fmt.Errorf("artifact model_id %q does not match registry entry %q", artifact.ModelID, entry.ModelID))
	}
	return artifact, entry, nil
}
