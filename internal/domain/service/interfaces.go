package service

import (
	"context"

	"TrendCast/internal/domain/models"
)

// Authority issues and validates access tokens against the credential store.
type Authority interface {
	// Issue returns a signed bearer token for valid credentials.
	Issue(username, password string) (string, error)
	// Validate verifies signature and expiry and returns the subject.
	Validate(token string) (string, error)
}

// Forecaster maps a feature sequence to a probability distribution over
// the outcome labels. Implementations are read-only after construction
// and safe for concurrent use.
type Forecaster interface {
	Infer(ctx context.Context, seq models.FeatureSequence) ([]float64, error)
	Outcomes() []string
}
