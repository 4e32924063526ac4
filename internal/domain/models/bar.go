package models

import (
	"sort"
	"time"
)

// Bar represents one daily OHLCV observation for an instrument.
// Only the fields the forecasting pipeline consumes are carried.
type Bar struct {
	Date   time.Time
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an ordered sequence of daily bars, oldest first.
type Series []Bar

// SortByDate orders the series by ascending date.
func (s Series) SortByDate() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// Tail returns the most recent n bars, or the whole series if it is shorter.
func (s Series) Tail(n int) Series {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// FeatureSequence is a fixed-length window of per-bar feature vectors,
// oldest row first. Shape is sequence_length x input_size.
type FeatureSequence [][]float64
