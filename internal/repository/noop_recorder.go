package repository

import (
	"context"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
)

// NoopRecorder discards predictions. Default when no recorder backend is
// configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (NoopRecorder) Record(context.Context, *models.Prediction) error { return nil }
func (NoopRecorder) Close() error                                     { return nil }

var _ domrepo.Recorder = (*NoopRecorder)(nil)
