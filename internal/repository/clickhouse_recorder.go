package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
)

// PredictionsSchema holds the idempotent DDL for the predictions table.
var PredictionsSchema = []string{
	"CREATE DATABASE IF NOT EXISTS trendcast",
	`CREATE TABLE IF NOT EXISTS trendcast.predictions (
		instrument String,
		ts DateTime,
		best String,
		confidence Float64,
		probabilities Array(Float64),
		outcomes Array(String),
		source String
	) ENGINE=MergeTree ORDER BY (instrument, ts)`,
}

// ClickHouseRecorder inserts served predictions into ClickHouse for later
// accuracy analysis.
type ClickHouseRecorder struct {
	db    *sql.DB
	table string
}

func NewClickHouseRecorder(db *sql.DB, table string) *ClickHouseRecorder {
	return &ClickHouseRecorder{db: db, table: table}
}

func (r *ClickHouseRecorder) Record(ctx context.Context, p *models.Prediction) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (instrument, ts, best, confidence, probabilities, outcomes, source) VALUES (?, ?, ?, ?, %s, %s, ?)",
		r.table,
		arrayLiteral(len(p.Probabilities)),
		arrayLiteral(len(p.Outcomes)),
	)

	args := make([]interface{}, 0, 5+len(p.Probabilities)+len(p.Outcomes))
	args = append(args, p.Instrument, p.Timestamp, p.Best, p.Confidence)
	for _, v := range p.Probabilities {
		args = append(args, v)
	}
	for _, o := range p.Outcomes {
		args = append(args, o)
	}
	args = append(args, p.Source)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (r *ClickHouseRecorder) Close() error { return nil }

// arrayLiteral builds a "[?, ?, ...]" placeholder list of n entries.
func arrayLiteral(n int) string {
	if n == 0 {
		return "[]"
	}
	return "[" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + "]"
}

var _ domrepo.Recorder = (*ClickHouseRecorder)(nil)
