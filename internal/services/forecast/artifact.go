package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Typed artifact failures.
var (
	ErrArtifactMissing      = errors.New("model artifact missing")
	ErrArtifactIncompatible = errors.New("model artifact incompatible")
)

// Architecture holds the model hyperparameters the artifact must match.
type Architecture struct {
	InputSize  int     `json:"input_size"`
	HiddenSize int     `json:"hidden_size"`
	OutputSize int     `json:"output_size"`
	LSTMLayers int     `json:"lstm_layers"`
	Dropout    float64 `json:"dropout_prob,omitempty"`
}

// layerWeights carries one LSTM layer in i,f,g,o gate order: w_ih is
// (4*hidden x layer input), w_hh is (4*hidden x hidden).
type layerWeights struct {
	WIH [][]float64 `json:"w_ih"`
	WHH [][]float64 `json:"w_hh"`
	BIH []float64   `json:"b_ih"`
	BHH []float64   `json:"b_hh"`
}

// headWeights is the linear projection from the last hidden state to the
// outcome scores: weight is (output x hidden).
type headWeights struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// artifact is the persisted weight blob.
type artifact struct {
	Architecture Architecture   `json:"architecture"`
	Outcomes     []string       `json:"outcomes,omitempty"`
	Layers       []layerWeights `json:"layers"`
	Head         headWeights    `json:"head"`
}

// readArtifact loads and shape-checks the artifact file against the
// configured architecture.
func readArtifact(path string, want Architecture) (*artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactIncompatible, err)
	}

	got := a.Architecture
	if got.InputSize != want.InputSize || got.HiddenSize != want.HiddenSize ||
		got.OutputSize != want.OutputSize || got.LSTMLayers != want.LSTMLayers {
		return nil, fmt.Errorf("%w: artifact architecture %+v does not match configured %+v",
			ErrArtifactIncompatible, got, want)
	}

	if err := a.checkShapes(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *artifact) checkShapes() error {
	arch := a.Architecture
	if len(a.Layers) != arch.LSTMLayers {
		return fmt.Errorf("%w: expected %d layers, artifact has %d",
			ErrArtifactIncompatible, arch.LSTMLayers, len(a.Layers))
	}

	gates := 4 * arch.HiddenSize
	for i, l := range a.Layers {
		in := arch.InputSize
		if i > 0 {
			in = arch.HiddenSize
		}
		if err := checkMatrix(l.WIH, gates, in); err != nil {
			return fmt.Errorf("%w: layer %d w_ih: %v", ErrArtifactIncompatible, i, err)
		}
		if err := checkMatrix(l.WHH, gates, arch.HiddenSize); err != nil {
			return fmt.Errorf("%w: layer %d w_hh: %v", ErrArtifactIncompatible, i, err)
		}
		if len(l.BIH) != gates || len(l.BHH) != gates {
			return fmt.Errorf("%w: layer %d biases must have %d entries", ErrArtifactIncompatible, i, gates)
		}
	}

	if err := checkMatrix(a.Head.Weight, arch.OutputSize, arch.HiddenSize); err != nil {
		return fmt.Errorf("%w: head weight: %v", ErrArtifactIncompatible, err)
	}
	if len(a.Head.Bias) != arch.OutputSize {
		return fmt.Errorf("%w: head bias must have %d entries", ErrArtifactIncompatible, arch.OutputSize)
	}

	if len(a.Outcomes) > 0 && len(a.Outcomes) != arch.OutputSize {
		return fmt.Errorf("%w: %d outcome labels for %d outputs",
			ErrArtifactIncompatible, len(a.Outcomes), arch.OutputSize)
	}
	return nil
}

func checkMatrix(m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("expected %d rows, got %d", rows, len(m))
	}
	for i, r := range m {
		if len(r) != cols {
			return fmt.Errorf("row %d: expected %d cols, got %d", i, cols, len(r))
		}
	}
	return nil
}
