package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrMissingFeature marks a prediction request that lacks a feature the
// model expects. Scoring with a silently defaulted value would produce a
// meaningless label, so the request fails instead.
var ErrMissingFeature = errors.New("missing expected feature")

// Predictor holds the pre-trained delay classifier and the ordered feature
// list it was exported with. Both artifacts are loaded once at startup and
// never mutated, so a single instance is safe to share across requests.
type Predictor struct {
	model    classifierArtifact
	features []string
}

// classifierArtifact is the exported logistic classifier: a bias, one
// weight per feature, and the decision threshold on the positive-class
// probability.
type classifierArtifact struct {
	Bias      float64            `json:"bias"`
	Weights   map[string]float64 `json:"weights"`
	Threshold float64            `json:"threshold"`
}

// Load reads the classifier and feature-list artifacts. Either being
// absent, unreadable, or inconsistent with the other is fatal: predictions
// without a coherent model are worthless.
func Load(modelPath, featuresPath string) (*Predictor, error) {
	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}
	var model classifierArtifact
	if err := json.Unmarshal(modelData, &model); err != nil {
		return nil, fmt.Errorf("decoding model artifact: %w", err)
	}

	featuresData, err := os.ReadFile(featuresPath)
	if err != nil {
		return nil, fmt.Errorf("reading feature list artifact: %w", err)
	}
	var features []string
	if err := json.Unmarshal(featuresData, &features); err != nil {
		return nil, fmt.Errorf("decoding feature list artifact: %w", err)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("feature list artifact %s is empty", featuresPath)
	}

	for _, name := range features {
		if _, ok := model.Weights[name]; !ok {
			return nil, fmt.Errorf("model artifact has no weight for expected feature %q", name)
		}
	}
	if model.Threshold <= 0 || model.Threshold >= 1 {
		return nil, fmt.Errorf("model artifact has out-of-range threshold %v", model.Threshold)
	}

	return &Predictor{model: model, features: features}, nil
}

// Features returns the ordered feature names the model expects.
func (p *Predictor) Features() []string {
	out := make([]string, len(p.features))
	copy(out, p.features)
	return out
}

// Predict aligns the input to the model's expected feature order and
// returns 1 for a predicted delay, 0 for predicted on-time. Any expected
// feature absent from the input fails with ErrMissingFeature naming it;
// extra fields in the input are ignored.
func (p *Predictor) Predict(input map[string]float64) (int, error) {
	row, err := p.alignFeatures(input)
	if err != nil {
		return 0, err
	}

	score := p.model.Bias
	for i, name := range p.features {
		score += p.model.Weights[name] * row[i]
	}
	probability := 1 / (1 + math.Exp(-score))

	if probability >= p.model.Threshold {
		return 1, nil
	}
	return 0, nil
}

// alignFeatures selects exactly the expected columns, in artifact order,
// from whatever fields the input carries.
func (p *Predictor) alignFeatures(input map[string]float64) ([]float64, error) {
	row := make([]float64, len(p.features))
	for i, name := range p.features {
		value, ok := input[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingFeature, name)
		}
		row[i] = value
	}
	return row, nil
}

// StatusLabel is the human-readable rendering of a prediction.
func StatusLabel(prediction int) string {
	if prediction == 1 {
		return "High Risk: order likely to be delayed"
	}
	return "Low Risk: order likely on time"
}
