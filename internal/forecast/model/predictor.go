// internal/forecast/model/predictor.go
package model

import (
	"fmt"
	"math"

	"wastewise/internal/common/errors"
	"wastewise/internal/common/logger"
	"wastewise/internal/common/metrics"
	"wastewise/internal/models"
	"wastewise/pkg/modelregistry"
)

// History record counts at which the confidence label steps up.
const (
	mediumConfidenceMin = 1
	highConfidenceMin   = 5
)

// Predictor evaluates the loaded linear model. The artifact is
// immutable after startup, so one instance serves all requests.
type Predictor struct {
	artifact *Artifact
	logger   logger.Logger
}

// NewPredictor pins the artifact against the feature layout the service
// builds. A disagreement is a startup failure, never a per-request one.
func NewPredictor(artifact *Artifact, expectedColumns []string, log logger.Logger) (*Predictor, error) {
	if artifact == nil {
		return nil, errors.NewModelUnavailableError("no model artifact loaded")
	}
	if err := verifyLayout(artifact.FeatureColumns, expectedColumns); err != nil {
		return nil, errors.NewModelUnavailableError(err.Error())
	}
	return &Predictor{
		artifact: artifact,
		logger:   log.Named("predictor"),
	}, nil
}

// LoadActive resolves the configured model from the registry, loads its
// artifact, and wires a predictor for the given feature layout.
func LoadActive(registryPath, modelID string, expectedColumns []string, log logger.Logger) (*Predictor, error) {
	artifact, entry, err := ResolveArtifact(registryPath, modelID)
	if err != nil {
		return nil, err
	}

	if entry.Status != modelregistry.StatusActive {
		log.Warn("serving a model not marked active", map[string]interface{}{
			"modelId": entry.ModelID,
			"status":  entry.Status,
		})
	}
	if err := verifyLayout(entry.FeatureColumns, expectedColumns); err != nil {
		return nil, errors.NewModelUnavailableError(fmt.Sprintf("registry layout for %s: %s", modelID, err))
	}

	predictor, err := NewPredictor(artifact, expectedColumns, log)
	if err != nil {
		return nil, err
	}

	log.Info("prediction model loaded", map[string]interface{}{
		"modelId":   entry.ModelID,
		"algorithm": artifact.Algorithm,
		"features":  len(artifact.FeatureColumns),
		"mae":       entry.Metrics.MAE,
		"r2":        entry.Metrics.R2,
	})
	return predictor, nil
}

// ModelID reports the identifier of the loaded artifact.
func (p *Predictor) ModelID() string {
	if p == nil || p.artifact == nil {
		return ""
	}
	return p.artifact.ModelID
}

func verifyLayout(actual, expected []string) error {
	if len(actual) != len(expected) {
		return fmt.Errorf("feature layout has %d columns, expected %d", len(actual), len(expected))
	}
	for i := range actual {
		if actual[i] != expected[i] {
			return fmt.Errorf("feature column %d is %q, expected %q", i, actual[i], expected[i])
		}
	}
	return nil
}

// Predict evaluates the model on one feature vector. Raw output below
// zero is clamped to zero waste; the confidence label reflects how much
// history backed the features, not model accuracy.
func (p *Predictor) Predict(fv *models.FeatureVector) (*models.PredictionResult, error) {
	if p == nil || p.artifact == nil {
		return nil, errors.NewModelUnavailableError("model artifact failed to load at startup")
	}
	if fv == nil {
		return nil, errors.NewInvalidInputError("feature vector is required")
	}
	if len(fv.Values) != len(fv.Columns) {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("feature vector has %d values for %d columns", len(fv.Values), len(fv.Columns)))
	}
	if err := verifyLayout(fv.Columns, p.artifact.FeatureColumns); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("feature layout mismatch: %w", err))
	}

	raw := p.artifact.Intercept
	for i, col := range fv.Columns {
		raw += p.artifact.Coefficients[col] * fv.Values[i]
	}

	predicted := raw
	if predicted < 0 {
		p.logger.Debug("clamping negative raw prediction", map[string]interface{}{
			"raw": raw,
		})
		predicted = 0
	}
	predicted = math.Round(predicted*100) / 100

	confidence := confidenceFromHistory(fv)
	metrics.PredictionsTotal.WithLabelValues(confidence).Inc()

	return &models.PredictionResult{
		PredictedWasteKg: predicted,
		ConfidenceLevel:  confidence,
	}, nil
}

// confidenceFromHistory maps the record count feature onto the label.
func confidenceFromHistory(fv *models.FeatureVector) string {
	count, ok := fv.ColumnValue("record_count")
	if !ok {
		return models.ConfidenceLow
	}
	switch {
	case count >= highConfidenceMin:
		return models.ConfidenceHigh
	case count >= mediumConfidenceMin:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
