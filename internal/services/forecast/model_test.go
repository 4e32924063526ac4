package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"TrendCast/internal/domain/models"
)

func testArch() Architecture {
	return Architecture{InputSize: 2, HiddenSize: 2, OutputSize: 3, LSTMLayers: 1}
}

// zeroArtifact builds an all-zero artifact for the given architecture.
func zeroArtifact(arch Architecture) artifact {
	layers := make([]layerWeights, arch.LSTMLayers)
	for l := range layers {
		in := arch.InputSize
		if l > 0 {
			in = arch.HiddenSize
		}
		gates := 4 * arch.HiddenSize
		wih := make([][]float64, gates)
		whh := make([][]float64, gates)
		for g := 0; g < gates; g++ {
			wih[g] = make([]float64, in)
			whh[g] = make([]float64, arch.HiddenSize)
		}
		layers[l] = layerWeights{
			WIH: wih,
			WHH: whh,
			BIH: make([]float64, gates),
			BHH: make([]float64, gates),
		}
	}
	weight := make([][]float64, arch.OutputSize)
	for i := range weight {
		weight[i] = make([]float64, arch.HiddenSize)
	}
	return artifact{
		Architecture: arch,
		Outcomes:     []string{"down", "flat", "up"},
		Layers:       layers,
		Head:         headWeights{Weight: weight, Bias: make([]float64, arch.OutputSize)},
	}
}

func writeArtifact(t *testing.T, a artifact) string {
	t.Helper()
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), testArch(), 1)
	if !errors.Is(err, ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
}

func TestLoadArchitectureMismatch(t *testing.T) {
	path := writeArtifact(t, zeroArtifact(testArch()))

	want := testArch()
	want.HiddenSize = 16
	if _, err := Load(path, want, 1); !errors.Is(err, ErrArtifactIncompatible) {
		t.Fatalf("expected ErrArtifactIncompatible, got %v", err)
	}
}

func TestLoadBadShapes(t *testing.T) {
	a := zeroArtifact(testArch())
	a.Head.Bias = a.Head.Bias[:1]
	path := writeArtifact(t, a)
	if _, err := Load(path, testArch(), 1); !errors.Is(err, ErrArtifactIncompatible) {
		t.Fatalf("expected ErrArtifactIncompatible for truncated bias, got %v", err)
	}

	b := zeroArtifact(testArch())
	b.Layers = nil
	path = writeArtifact(t, b)
	if _, err := Load(path, testArch(), 1); !errors.Is(err, ErrArtifactIncompatible) {
		t.Fatalf("expected ErrArtifactIncompatible for missing layers, got %v", err)
	}
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path, testArch(), 1); !errors.Is(err, ErrArtifactIncompatible) {
		t.Fatalf("expected ErrArtifactIncompatible, got %v", err)
	}
}

func testSequence(rows, cols int) models.FeatureSequence {
	seq := make(models.FeatureSequence, rows)
	for i := range seq {
		row := make([]float64, cols)
		for j := range row {
			row[j] = float64(i+j) / 10
		}
		seq[i] = row
	}
	return seq
}

func TestInferDistribution(t *testing.T) {
	a := zeroArtifact(testArch())
	// non-trivial head so the distribution is not uniform
	a.Head.Weight = [][]float64{{0.5, -0.2}, {0.1, 0.3}, {-0.4, 0.7}}
	a.Head.Bias = []float64{0.1, -0.1, 0.2}
	a.Layers[0].BIH[0] = 0.3
	a.Layers[0].WIH[0][0] = 0.2
	m, err := Load(writeArtifact(t, a), testArch(), 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	probs, err := m.Infer(context.Background(), testSequence(5, 2))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if len(probs) != 3 {
		t.Fatalf("expected 3 probabilities, got %d", len(probs))
	}
	var sum float64
	for i, p := range probs {
		if p < 0 {
			t.Fatalf("negative probability at %d: %v", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("distribution sums to %v", sum)
	}
}

func TestInferDeterministic(t *testing.T) {
	m, err := Load(writeArtifact(t, zeroArtifact(testArch())), testArch(), 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	seq := testSequence(5, 2)
	a, err := m.Infer(context.Background(), seq)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	b, err := m.Infer(context.Background(), seq)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("inference not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestInferZeroWeightsUniform(t *testing.T) {
	m, err := Load(writeArtifact(t, zeroArtifact(testArch())), testArch(), 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	probs, err := m.Infer(context.Background(), testSequence(4, 2))
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	for i, p := range probs {
		if math.Abs(p-1.0/3) > 1e-9 {
			t.Fatalf("expected uniform distribution, got %v at %d", p, i)
		}
	}
}

func TestInferShapeErrors(t *testing.T) {
	m, err := Load(writeArtifact(t, zeroArtifact(testArch())), testArch(), 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.Infer(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty sequence")
	}
	if _, err := m.Infer(context.Background(), testSequence(5, 3)); err == nil {
		t.Fatalf("expected error for wrong row width")
	}
}
