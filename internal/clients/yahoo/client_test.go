package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "ETH-USD", "currency": "USD"},
      "timestamp": [1704067200, 1704153600, 1704240000, 1704326400, 1704369600],
      "indicators": {
        "quote": [{"close": [2300.5, 2350.0, null, 2200.0, 2210.0]}],
        "adjclose": [{"adjclose": [2300.5, 2350.0, null, 2200.0, 2210.0]}]
      }
    }],
    "error": null
  }
}`

func TestDailyCloses_ParsesChart(t *testing.T) {
	var gotPath, gotPeriod1, gotPeriod2, gotInterval, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPeriod1 = r.URL.Query().Get("period1")
		gotPeriod2 = r.URL.Query().Get("period2")
		gotInterval = r.URL.Query().Get("interval")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartBody))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(100))
	closes, err := client.DailyCloses(context.Background(), "ETH-USD", day(2024, 1, 1), day(2024, 1, 4))
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/ETH-USD", gotPath)
	assert.Equal(t, "1704067200", gotPeriod1)
	assert.Equal(t, "1704412800", gotPeriod2)
	assert.Equal(t, "1d", gotInterval)
	assert.NotEmpty(t, gotUA)

	// The null close on Jan 3 is dropped and the two Jan 4 bars collapse to the later one.
	require.Len(t, closes, 3)
	assert.Equal(t, day(2024, 1, 1), closes[0].Date)
	assert.Equal(t, 2300.5, closes[0].Close)
	assert.Equal(t, day(2024, 1, 2), closes[1].Date)
	assert.Equal(t, day(2024, 1, 4), closes[2].Date)
	assert.Equal(t, 2210.0, closes[2].Close)
}

func TestDailyCloses_FallsBackToRawClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"BTC-USD"},
			"timestamp":[1704067200,1704153600],
			"indicators":{"quote":[{"close":[42000.0,43000.0]}]}}],"error":null}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(100))
	closes, err := client.DailyCloses(context.Background(), "BTC-USD", day(2024, 1, 1), day(2024, 1, 2))
	require.NoError(t, err)

	require.Len(t, closes, 2)
	assert.Equal(t, 43000.0, closes[1].Close)
}

func TestDailyCloses_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(100))
	closes, err := client.DailyCloses(context.Background(), "SOL-USD", day(2024, 1, 1), day(2024, 1, 2))
	require.NoError(t, err)
	assert.Empty(t, closes)
}

func TestDailyCloses_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(100))
	_, err := client.DailyCloses(context.Background(), "FAKE-USD", day(2024, 1, 1), day(2024, 1, 2))
	assert.ErrorIs(t, err, ErrTickerNotFound)
}

func TestDailyCloses_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRateLimit(100))
	_, err := client.DailyCloses(context.Background(), "ETH-USD", day(2024, 1, 1), day(2024, 1, 2))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "ETH-USD", apiErr.Ticker)
}

func TestDailyCloses_InvalidWindow(t *testing.T) {
	client := NewClient()
	_, err := client.DailyCloses(context.Background(), "ETH-USD", day(2024, 1, 5), day(2024, 1, 1))
	assert.Error(t, err)
}

func TestDailyCloses_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(server.URL), WithTimeout(time.Second))
	_, err := client.DailyCloses(ctx, "ETH-USD", day(2024, 1, 1), day(2024, 1, 4))
	assert.ErrorIs(t, err, context.Canceled)
}
