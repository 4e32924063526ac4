package provider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"TrendCast/internal/domain/models"
	xhttp "TrendCast/pkg/http"
	"TrendCast/pkg/util"
)

// Typed acquisition failures.
var (
	// ErrUnavailable covers network failures, timeouts and non-2xx replies.
	ErrUnavailable = errors.New("quote provider unavailable")
	// ErrFormat covers replies that lack the daily-series schema.
	ErrFormat = errors.New("quote provider format error")
)

// Client fetches daily OHLCV series from the remote quote provider.
type Client struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

// NewClient creates a provider client with a hard request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// dailyResponse mirrors the provider's daily-series payload. Numeric fields
// arrive as strings keyed by their positional names.
type dailyResponse struct {
	Series map[string]map[string]string `json:"Time Series (Daily)"`
}

// Daily fetches the daily series for an instrument, sorted by ascending date.
func (c *Client) Daily(ctx context.Context, instrument string) (models.Series, error) {
	var resp dailyResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/query",
		QueryParams: map[string][]string{
			"function": {"TIME_SERIES_DAILY"},
			"symbol":   {instrument},
			"apikey":   {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Series) == 0 {
		return nil, fmt.Errorf("%w: missing daily series field", ErrFormat)
	}

	series := make(models.Series, 0, len(resp.Series))
	for day, fields := range resp.Series {
		date, ok := util.ParseDay(day)
		if !ok {
			return nil, fmt.Errorf("%w: bad date key %q", ErrFormat, day)
		}
		bar := models.Bar{Date: date}
		var perr error
		bar.High, perr = parseField(fields, "2. high", perr)
		bar.Low, perr = parseField(fields, "3. low", perr)
		bar.Close, perr = parseField(fields, "4. close", perr)
		bar.Volume, perr = parseField(fields, "5. volume", perr)
		if perr != nil {
			return nil, perr
		}
		series = append(series, bar)
	}
	series.SortByDate()
	return series, nil
}

func parseField(fields map[string]string, key string, prev error) (float64, error) {
	if prev != nil {
		return 0, prev
	}
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrFormat, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %v", ErrFormat, key, err)
	}
	return v, nil
}
