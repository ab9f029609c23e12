// pkg/modelregistry/schema.go
package modelregistry

// Model lifecycle states. Only one entry per registry should be active
// for a given model family at a time.
const (
	StatusActive    = "active"
	StatusCandidate = "candidate"
	StatusRetired   = "retired"
)

type ModelRegistry struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"last_updated"`
	Models      []ModelEntry `json:"models"`
}

type ModelEntry struct {
	ModelID        string       `json:"model_id"`
	DisplayName    string       `json:"display_name"`
	Description    string       `json:"description"`
	Algorithm      string       `json:"algorithm"`
	Version        string       `json:"version"`
	Status         string       `json:"status"`
	ArtifactPath   string       `json:"artifact_path"`
	FeatureColumns []string     `json:"feature_columns"`
	Metrics        ModelMetrics `json:"metrics"`
	TrainedAt      string       `json:"trained_at"`
	Tags           []string     `json:"tags"`
}

type ModelMetrics struct {
	MAE float64 `json:"mae"`
	R2  float64 `json:"r2"`
}
