package prices

import (
	"context"
	"sync"
	"time"

	"github.com/esfolk/DefiHedge/internal/domain"
	testingpkg "github.com/esfolk/DefiHedge/internal/testing"
)

type fakeSource struct {
	mu     sync.Mutex
	series map[string][]domain.DailyClose // keyed by ticker
	errs   map[string]error
	calls  map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		series: make(map[string][]domain.DailyClose),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeSource) set(ticker string, days []time.Time, closes []float64) {
	series := make([]domain.DailyClose, len(days))
	for i := range days {
		series[i] = domain.DailyClose{Date: days[i], Close: closes[i]}
	}
	f.series[ticker] = series
}

func (f *fakeSource) callCount(ticker string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ticker]
}

func (f *fakeSource) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyClose, error) {
	f.mu.Lock()
	f.calls[ticker]++
	err := f.errs[ticker]
	series := f.series[ticker]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	out := []domain.DailyClose{}
	for _, c := range series {
		if !c.Date.Before(domain.TruncateToDay(start)) && !c.Date.After(domain.TruncateToDay(end)) {
			out = append(out, c)
		}
	}
	return out, nil
}

var testNow = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

// seededSource returns a source with 91 days of data ending at testNow for
// ETH (random walk), BTC (random walk) and USDC (pegged).
func seededSource() *fakeSource {
	days := testingpkg.Days(testNow, 91)
	src := newFakeSource()
	src.set("ETH-USD", days, testingpkg.RandomWalk(1, len(days), 3000, 0.001, 0.03))
	src.set("BTC-USD", days, testingpkg.RandomWalk(2, len(days), 60000, 0.0005, 0.025))
	src.set("USDC-USD", days, testingpkg.Constant(len(days), 1.0))
	return src
}
