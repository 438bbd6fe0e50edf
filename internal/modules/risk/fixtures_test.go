package risk

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/esfolk/DefiHedge/internal/domain"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
	testingpkg "github.com/esfolk/DefiHedge/internal/testing"
)

var testNow = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

// staticSource serves fixed close series by ticker
type staticSource map[string][]domain.DailyClose

func (s staticSource) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyClose, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series, ok := s[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	var out []domain.DailyClose
	for _, c := range series {
		if !c.Date.Before(start) && !c.Date.After(end) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s staticSource) add(ticker string, days []time.Time, closes []float64) {
	series := make([]domain.DailyClose, len(days))
	for i := range days {
		series[i] = domain.DailyClose{Date: days[i], Close: closes[i]}
	}
	s[ticker] = series
}

// marketSource has n days of ETH, BTC and SOL random walks and a pegged USDC.
func marketSource(n int) staticSource {
	days := testingpkg.Days(testNow, n)
	src := staticSource{}
	src.add("ETH-USD", days, testingpkg.RandomWalk(11, n, 3000, 0.0012, 0.035))
	src.add("BTC-USD", days, testingpkg.RandomWalk(12, n, 60000, 0.0008, 0.028))
	src.add("SOL-USD", days, testingpkg.RandomWalk(13, n, 150, 0.0015, 0.05))
	src.add("USDC-USD", days, testingpkg.Constant(n, 1.0))
	return src
}

func newTestAnalyzer(src domain.PriceSource, opts ...AnalyzerOption) *Analyzer {
	clock := func() time.Time { return testNow }
	fetcher := prices.NewFetcher(src, zerolog.Nop(), prices.WithClock(clock))
	opts = append([]AnalyzerOption{
		WithClock(clock),
		WithIDGenerator(func() string { return "test-analysis" }),
	}, opts...)
	return NewAnalyzer(fetcher, zerolog.Nop(), opts...)
}

// stubFetcher returns a fixed table or error
type stubFetcher struct {
	table *prices.Table
	err   error
}

func (f stubFetcher) FetchTable(ctx context.Context, symbols []string, lookbackDays int) (*prices.Table, error) {
	return f.table, f.err
}

// seriesOf builds a ReturnSeries from per-asset return columns
func seriesOf(assets []string, cols ...[]float64) *ReturnSeries {
	rows := len(cols[0])
	m := mat.NewDense(rows, len(cols), nil)
	for j, col := range cols {
		m.SetCol(j, col)
	}
	return &ReturnSeries{Assets: assets, Returns: m}
}

// tableOf builds a price table from per-symbol close columns ending at testNow
func tableOf(symbols []string, cols ...[]float64) *prices.Table {
	rows := len(cols[0])
	t := &prices.Table{
		Dates:   testingpkg.Days(testNow, rows),
		Symbols: symbols,
		Closes:  make([][]float64, rows),
	}
	for i := 0; i < rows; i++ {
		row := make([]float64, len(cols))
		for j, col := range cols {
			row[j] = col[i]
		}
		t.Closes[i] = row
	}
	return t
}

func weightsOf(assets []string, values ...float64) *Weights {
	return &Weights{Assets: assets, Values: values}
}

func randomReturns(seed int64, n int, drift, vol float64) []float64 {
	closes := testingpkg.RandomWalk(seed, n+1, 100, drift, vol)
	out := make([]float64, n)
	for i := 1; i <= n; i++ {
		out[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
	}
	return out
}
