package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"TrendCast/internal/domain/models"
	"TrendCast/internal/service/auth"
	"TrendCast/internal/service/provider"
	"TrendCast/internal/usecase"
	applogger "TrendCast/pkg/logger"
)

type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) Daily(ctx context.Context, instrument string) (models.Series, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return nil, provider.ErrUnavailable
}

type fixedForecaster struct{ probs []float64 }

func (f *fixedForecaster) Infer(ctx context.Context, seq models.FeatureSequence) ([]float64, error) {
	return f.probs, nil
}

func (f *fixedForecaster) Outcomes() []string { return []string{"down", "flat", "up"} }

type silentMetrics struct{}

func (silentMetrics) RecordPrediction(instrument, outcome, source string) {}

func (silentMetrics) RecordFallback(instrument string) {}

func (silentMetrics) RecordError(stage string) {}

func (silentMetrics) RecordAuth(result string) {}

func (silentMetrics) RecordLatency(stage string, seconds float64) {}

type fixture struct {
	e       *echo.Echo
	fetcher *countingFetcher
	clock   *time.Time
}

func newFixture(t *testing.T, useFallback bool) *fixture {
	t.Helper()

	logger, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	clock := &now
	authority := auth.New(
		map[string]string{"analyst": "s3cret"},
		"unit-test-signing-secret",
		15*time.Minute,
		auth.WithClock(func() time.Time { return *clock }),
	)

	fetcher := &countingFetcher{err: provider.ErrUnavailable}
	adapter := provider.NewAdapter(fetcher, provider.NewGenerator(7), useFallback, silentMetrics{}, logger)
	predictor := usecase.NewPredictor(adapter, &fixedForecaster{probs: []float64{0.2, 0.3, 0.5}},
		nil, silentMetrics{}, logger, 10, 4)

	h := NewPredictionsHandler(authority, predictor, silentMetrics{}, logger)
	e := echo.New()
	h.RegisterRoutes(e)

	return &fixture{e: e, fetcher: fetcher, clock: clock}
}

func (f *fixture) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) predict(t *testing.T, token, instrument string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"instrument":"` + instrument + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp.Data
}

func firstErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Data []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (%s)", err, rec.Body.String())
	}
	if len(resp.Data) == 0 {
		t.Fatalf("no error entries in %s", rec.Body.String())
	}
	return resp.Data[0].Code
}

func TestLoginAndPredict(t *testing.T) {
	f := newFixture(t, true)

	rec := f.login(t, "analyst", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	data := decodeData(t, rec)
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatal("no access_token in login response")
	}
	if data["token_type"] != "bearer" {
		t.Fatalf("token_type = %v", data["token_type"])
	}

	rec = f.predict(t, token, "AAPL")
	if rec.Code != http.StatusOK {
		t.Fatalf("predict status = %d, body %s", rec.Code, rec.Body.String())
	}
	pred := decodeData(t, rec)
	probs, ok := pred["probabilities"].([]interface{})
	if !ok || len(probs) != 3 {
		t.Fatalf("probabilities = %v", pred["probabilities"])
	}
	sum := 0.0
	for _, p := range probs {
		v := p.(float64)
		if v < 0 {
			t.Fatalf("negative probability %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("probabilities sum to %v", sum)
	}
	if pred["source"] != models.SourceSynthetic {
		t.Fatalf("source = %v, want synthetic", pred["source"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t, true)

	rec := f.login(t, "analyst", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := firstErrorCode(t, rec); code != "ERR_INVALID_CREDENTIALS" {
		t.Fatalf("code = %q", code)
	}
}

func TestPredictWithoutTokenSkipsPipeline(t *testing.T) {
	f := newFixture(t, true)

	rec := f.predict(t, "", "AAPL")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := firstErrorCode(t, rec); code != "ERR_TOKEN_MISSING" {
		t.Fatalf("code = %q", code)
	}
	if f.fetcher.calls != 0 {
		t.Fatalf("provider was called %d times without a token", f.fetcher.calls)
	}
}

func TestPredictWithExpiredToken(t *testing.T) {
	f := newFixture(t, true)

	rec := f.login(t, "analyst", "s3cret")
	token, _ := decodeData(t, rec)["access_token"].(string)
	if token == "" {
		t.Fatal("no token issued")
	}

	*f.clock = f.clock.Add(16 * time.Minute)

	rec = f.predict(t, token, "AAPL")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if code := firstErrorCode(t, rec); code != "ERR_TOKEN_EXPIRED" {
		t.Fatalf("code = %q", code)
	}
}

func TestPredictWithGarbageToken(t *testing.T) {
	f := newFixture(t, true)

	rec := f.predict(t, "not-a-jwt", "AAPL")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := firstErrorCode(t, rec); code != "ERR_TOKEN_INVALID" {
		t.Fatalf("code = %q", code)
	}
}

func TestPredictProviderDownWithoutFallback(t *testing.T) {
	f := newFixture(t, false)

	rec := f.login(t, "analyst", "s3cret")
	token, _ := decodeData(t, rec)["access_token"].(string)

	rec = f.predict(t, token, "AAPL")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if code := firstErrorCode(t, rec); code != "ERR_DATA_UNAVAILABLE" {
		t.Fatalf("code = %q", code)
	}
}

func TestPredictValidatesInstrument(t *testing.T) {
	f := newFixture(t, true)

	rec := f.login(t, "analyst", "s3cret")
	token, _ := decodeData(t, rec)["access_token"].(string)

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	w := httptest.NewRecorder()
	f.e.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}
