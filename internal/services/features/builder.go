package features

import (
	"errors"
	"fmt"
	"math"

	"TrendCast/internal/domain/models"
)

// Typed builder failures.
var (
	// ErrInsufficientData means the series is shorter than the window.
	ErrInsufficientData = errors.New("insufficient data for sequence")
	// ErrInvalidValue means a consumed column carried NaN or Inf.
	ErrInvalidValue = errors.New("invalid value in series")
)

// rawColumns is the fixed per-bar column order fed to the model:
// high, low, close, volume.
const rawColumns = 4

// BuildSequence converts the tail of a daily series into a fixed-shape
// feature sequence of seqLen rows by inputSize columns.
//
// Column rule: each row is [high, low, close, volume] in that order. When
// inputSize exceeds the 4 raw columns the remaining slots are zero-padded;
// when it is smaller, the leading inputSize columns are used. No scaling is
// applied: the loaded model artifact must have been trained on raw columns
// under the same rule.
func BuildSequence(series models.Series, seqLen, inputSize int) (models.FeatureSequence, error) {
	if seqLen <= 0 || inputSize <= 0 {
		return nil, fmt.Errorf("invalid shape %dx%d", seqLen, inputSize)
	}
	if len(series) < seqLen {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(series), seqLen)
	}

	window := series.Tail(seqLen)
	seq := make(models.FeatureSequence, seqLen)
	for i, bar := range window {
		row := make([]float64, inputSize)
		raw := [rawColumns]float64{bar.High, bar.Low, bar.Close, bar.Volume}
		for j := 0; j < inputSize && j < rawColumns; j++ {
			if math.IsNaN(raw[j]) || math.IsInf(raw[j], 0) {
				return nil, fmt.Errorf("%w: bar %s column %d", ErrInvalidValue, bar.Date.Format("2006-01-02"), j)
			}
			row[j] = raw[j]
		}
		seq[i] = row
	}
	return seq, nil
}
