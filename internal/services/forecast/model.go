package forecast

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"TrendCast/internal/domain/models"
	domsvc "TrendCast/internal/domain/service"
)

// Model is a stacked LSTM encoder with a linear head and softmax output.
// Weights are loaded once and never mutated, so concurrent Infer calls need
// no locking. A semaphore bounds concurrent forward passes so CPU-bound
// inference cannot starve request handling.
type Model struct {
	arch     Architecture
	outcomes []string
	layers   []layerWeights
	head     headWeights
	sem      chan struct{}
}

// Load reads the artifact at path and verifies it against the configured
// architecture. workers bounds concurrent inference; <=0 means NumCPU.
func Load(path string, arch Architecture, workers int) (*Model, error) {
	a, err := readArtifact(path, arch)
	if err != nil {
		return nil, err
	}

	outcomes := a.Outcomes
	if len(outcomes) == 0 {
		outcomes = defaultOutcomes(arch.OutputSize)
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Model{
		arch:     arch,
		outcomes: outcomes,
		layers:   a.Layers,
		head:     a.Head,
		sem:      make(chan struct{}, workers),
	}, nil
}

// Outcomes returns the outcome labels in distribution order.
func (m *Model) Outcomes() []string {
	return m.outcomes
}

// Infer runs a single forward pass over the feature sequence and returns a
// probability distribution over the outcome labels.
func (m *Model) Infer(ctx context.Context, seq models.FeatureSequence) ([]float64, error) {
	if len(seq) == 0 {
		return nil, fmt.Errorf("empty feature sequence")
	}
	for i, row := range seq {
		if len(row) != m.arch.InputSize {
			return nil, fmt.Errorf("row %d: expected %d features, got %d", i, m.arch.InputSize, len(row))
		}
	}

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	hidden := m.arch.HiddenSize
	h := make([][]float64, len(m.layers))
	c := make([][]float64, len(m.layers))
	for l := range m.layers {
		h[l] = make([]float64, hidden)
		c[l] = make([]float64, hidden)
	}

	for _, x := range seq {
		input := x
		for l, w := range m.layers {
			input = stepLSTM(w, input, h[l], c[l], hidden)
		}
	}

	// linear head over the last time step of the top layer
	last := h[len(h)-1]
	logits := make([]float64, m.arch.OutputSize)
	for i := range logits {
		sum := m.head.Bias[i]
		for j, v := range last {
			sum += m.head.Weight[i][j] * v
		}
		logits[i] = sum
	}

	return softmax(logits), nil
}

// stepLSTM advances one layer by one time step, updating h and c in place,
// and returns the new hidden state. Gate order is i,f,g,o.
func stepLSTM(w layerWeights, x, h, c []float64, hidden int) []float64 {
	gates := make([]float64, 4*hidden)
	for g := range gates {
		sum := w.BIH[g] + w.BHH[g]
		for j, v := range x {
			sum += w.WIH[g][j] * v
		}
		for j, v := range h {
			sum += w.WHH[g][j] * v
		}
		gates[g] = sum
	}

	for j := 0; j < hidden; j++ {
		i := sigmoid(gates[j])
		f := sigmoid(gates[hidden+j])
		g := math.Tanh(gates[2*hidden+j])
		o := sigmoid(gates[3*hidden+j])
		c[j] = f*c[j] + i*g
		h[j] = o * math.Tanh(c[j])
	}
	return h
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax converts raw scores to a distribution; the max is subtracted
// first for numeric stability.
func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func defaultOutcomes(n int) []string {
	if n == 3 {
		return []string{"down", "flat", "up"}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("class_%d", i)
	}
	return out
}

var _ domsvc.Forecaster = (*Model)(nil)
