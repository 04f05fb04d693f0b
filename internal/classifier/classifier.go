package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"meshmon/internal/model"
)

// ErrNotLoaded indicates no model artifact is available on this node.
var ErrNotLoaded = errors.New("model not loaded")

// Model scores a feature vector with a failure probability in [0, 1]. A
// loaded model is immutable; the pipeline treats it as an opaque artifact.
type Model interface {
	Score(fv model.FeatureVector) float64
	Version() string
}

// artifact is the on-disk representation: logistic-regression weights over
// the feature vector, exported by the offline trainer.
type artifact struct {
	Version  string    `json:"version"`
	Features []string  `json:"features"`
	Weights  []float64 `json:"weights"`
	Bias     float64   `json:"bias"`
}

// FeatureOrder is the feature layout the artifact weights must follow. It
// matches the metric-log column order.
var FeatureOrder = []string{"signal_strength", "packet_loss", "hop_count", "battery_pct"}

type logistic struct {
	version string
	weights [4]float64
	bias    float64
}

// Load reads a model artifact from path. A missing or unreadable artifact
// returns ErrNotLoaded so callers can fall back to monitoring-only mode; a
// readable but invalid artifact is a real error.
func Load(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLoaded, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	if len(art.Weights) != len(FeatureOrder) {
		return nil, fmt.Errorf("model artifact %s: want %d weights, got %d", path, len(FeatureOrder), len(art.Weights))
	}
	if len(art.Features) > 0 && len(art.Features) != len(FeatureOrder) {
		return nil, fmt.Errorf("model artifact %s: want %d features, got %d", path, len(FeatureOrder), len(art.Features))
	}
	for i, name := range art.Features {
		if name != FeatureOrder[i] {
			return nil, fmt.Errorf("model artifact %s: feature %d is %q, want %q", path, i, name, FeatureOrder[i])
		}
	}

	m := &logistic{version: art.Version, bias: art.Bias}
	copy(m.weights[:], art.Weights)
	return m, nil
}

func (m *logistic) Version() string { return m.version }

func (m *logistic) Score(fv model.FeatureVector) float64 {
	z := m.bias +
		m.weights[0]*fv.SignalStrength +
		m.weights[1]*fv.PacketLoss +
		m.weights[2]*float64(fv.HopCount) +
		m.weights[3]*fv.BatteryPct
	return 1 / (1 + math.Exp(-z))
}
