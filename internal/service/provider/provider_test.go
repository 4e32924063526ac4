package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TrendCast/internal/domain/models"
)

const dailyPayload = `{
  "Meta Data": {"1. Information": "Daily Prices", "2. Symbol": "6E"},
  "Time Series (Daily)": {
    "2025-05-30": {"1. open": "101.0", "2. high": "105.5", "3. low": "99.5", "4. close": "104.0", "5. volume": "532"},
    "2025-05-28": {"1. open": "99.0", "2. high": "103.0", "3. low": "97.0", "4. close": "100.5", "5. volume": "410"},
    "2025-05-29": {"1. open": "100.5", "2. high": "104.0", "3. low": "98.0", "4. close": "102.0", "5. volume": "388"}
  }
}`

func TestClientDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "6E" {
			t.Errorf("unexpected symbol %q", got)
		}
		if got := r.URL.Query().Get("function"); got != "TIME_SERIES_DAILY" {
			t.Errorf("unexpected function %q", got)
		}
		fmt.Fprint(w, dailyPayload)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second)
	series, err := c.Daily(context.Background(), "6E")
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Date.Before(series[i].Date) {
			t.Fatalf("dates not strictly increasing at %d", i)
		}
	}
	last := series[2]
	if last.High != 105.5 || last.Low != 99.5 || last.Close != 104.0 || last.Volume != 532 {
		t.Fatalf("unexpected last bar %+v", last)
	}
}

func TestClientDailyFormatError(t *testing.T) {
	cases := map[string]string{
		"missing series": `{"Meta Data": {}}`,
		"bad number":     `{"Time Series (Daily)": {"2025-05-30": {"2. high": "x", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`,
		"missing field":  `{"Time Series (Daily)": {"2025-05-30": {"3. low": "1", "4. close": "1", "5. volume": "1"}}}`,
		"bad date":       `{"Time Series (Daily)": {"yesterday": {"2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}}}`,
	}
	for name, payload := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		}))
		c := NewClient(srv.URL, "key", 5*time.Second)
		_, err := c.Daily(context.Background(), "6E")
		srv.Close()
		if !errors.Is(err, ErrFormat) {
			t.Fatalf("%s: expected ErrFormat, got %v", name, err)
		}
	}
}

func TestClientDailyUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second)
	if _, err := c.Daily(context.Background(), "6E"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on 502, got %v", err)
	}

	// unreachable endpoint
	dead := NewClient("http://127.0.0.1:1", "key", time.Second)
	if _, err := dead.Daily(context.Background(), "6E"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on network failure, got %v", err)
	}
}

type failingFetcher struct{ err error }

func (f failingFetcher) Daily(context.Context, string) (models.Series, error) {
	return nil, f.err
}

func TestAdapterFallbackEnabled(t *testing.T) {
	a := NewAdapter(failingFetcher{err: ErrUnavailable}, NewGenerator(42), true, nil, nil)

	series, source, err := a.Daily(context.Background(), "6E")
	if err != nil {
		t.Fatalf("expected fallback to swallow the failure, got %v", err)
	}
	if source != models.SourceSynthetic {
		t.Fatalf("expected synthetic source, got %s", source)
	}
	if len(series) != FallbackPoints {
		t.Fatalf("expected %d bars, got %d", FallbackPoints, len(series))
	}
}

func TestAdapterFallbackDisabled(t *testing.T) {
	for _, want := range []error{ErrUnavailable, ErrFormat} {
		a := NewAdapter(failingFetcher{err: want}, NewGenerator(42), false, nil, nil)
		_, _, err := a.Daily(context.Background(), "6E")
		if !errors.Is(err, want) {
			t.Fatalf("expected %v to propagate unchanged, got %v", want, err)
		}
	}
}

func TestGeneratorSeriesShape(t *testing.T) {
	fixed := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	g := NewGenerator(7, WithGeneratorClock(func() time.Time { return fixed }))

	series := g.Series()
	if len(series) != FallbackPoints {
		t.Fatalf("expected %d bars, got %d", FallbackPoints, len(series))
	}
	for i, bar := range series {
		if i > 0 && !series[i-1].Date.Before(bar.Date) {
			t.Fatalf("dates not strictly increasing at %d", i)
		}
		if bar.High < 50 || bar.High >= 150 {
			t.Fatalf("high out of range at %d: %v", i, bar.High)
		}
		if bar.Low < 20 || bar.Low >= 70 {
			t.Fatalf("low out of range at %d: %v", i, bar.Low)
		}
		if bar.Close < 30 || bar.Close >= 110 {
			t.Fatalf("close out of range at %d: %v", i, bar.Close)
		}
		if bar.Volume < 0 || bar.Volume >= 1000 {
			t.Fatalf("volume out of range at %d: %v", i, bar.Volume)
		}
	}
	last := series[len(series)-1].Date
	if !last.Equal(fixed.Truncate(24 * time.Hour)) {
		t.Fatalf("series should end today, got %v", last)
	}
}

func TestGeneratorDeterministicSeed(t *testing.T) {
	fixed := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }
	a := NewGenerator(99, WithGeneratorClock(clock)).Series()
	b := NewGenerator(99, WithGeneratorClock(clock)).Series()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed should generate identical series, diff at %d", i)
		}
	}
}
