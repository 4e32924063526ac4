package models

import "time"

// Series sources.
const (
	SourceProvider  = "provider"
	SourceSynthetic = "synthetic"
)

// Prediction is a categorical forecast for one instrument: a probability
// distribution over the model's outcome labels plus the argmax pick.
type Prediction struct {
	Instrument    string    `json:"instrument"`
	Timestamp     time.Time `json:"timestamp"`
	Outcomes      []string  `json:"outcomes"`
	Probabilities []float64 `json:"probabilities"`
	Best          string    `json:"best"`
	Confidence    float64   `json:"confidence"`
	Source        string    `json:"source"`
}
