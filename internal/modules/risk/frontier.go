package risk

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// DefaultFrontierPoints is the number of target returns traced along the frontier
const DefaultFrontierPoints = 20

// ComputeEfficientFrontier traces the long-only efficient frontier from the
// minimum-volatility return up to the best single-asset return, and locates
// the minimum-volatility and maximum-Sharpe portfolios and the caller's
// current portfolio on it. Targets the optimizer cannot meet are skipped and
// counted in SkippedPoints.
func ComputeEfficientFrontier(r *ReturnSeries, cov *mat.SymDense, w *Weights, points int, log zerolog.Logger) (*EfficientFrontier, error) {
	n := r.NumAssets()
	if n < 2 {
		return nil, fmt.Errorf("%w: frontier needs at least 2 assets, have %d", ErrInsufficientAssets, n)
	}
	if points < 1 {
		points = DefaultFrontierPoints
	}

	mu := AnnualizedMeanReturns(r)
	opt, err := NewMVOptimizer(mu, AnnualizedCovariance(cov), log)
	if err != nil {
		return nil, err
	}

	minVol, err := opt.MinVolatility()
	if err != nil {
		return nil, fmt.Errorf("minimum volatility portfolio: %w", err)
	}

	maxSharpe, err := opt.MaxSharpe()
	if err != nil {
		// The frontier points below still yield a best-Sharpe candidate
		log.Warn().Err(err).Msg("Max Sharpe optimization failed, using best frontier point")
		maxSharpe = minVol
	}

	frontier := &EfficientFrontier{FrontierPoints: make([]FrontierPoint, 0, points)}
	for _, target := range frontierTargets(minVol.Return, opt.MaxReturn(), points) {
		alloc, err := opt.EfficientReturn(target)
		if err != nil {
			frontier.SkippedPoints++
			log.Debug().Err(err).Float64("target_return", target).Msg("Skipping frontier point")
			continue
		}

		frontier.FrontierPoints = append(frontier.FrontierPoints, toFrontierPoint(*alloc))

		// Keep min-vol the leftmost point and max-Sharpe the best ratio seen
		if alloc.Risk < minVol.Risk {
			minVol = alloc
		}
		if alloc.Sharpe() > maxSharpe.Sharpe() {
			maxSharpe = alloc
		}
	}
	if minVol.Sharpe() > maxSharpe.Sharpe() {
		maxSharpe = minVol
	}

	if frontier.SkippedPoints > 0 {
		log.Warn().
			Int("skipped", frontier.SkippedPoints).
			Int("points", points).
			Msg("Some frontier targets were infeasible")
	}

	frontier.CurrentPortfolio = toFrontierPoint(opt.Evaluate(w.Values))
	frontier.OptimalPortfolios = OptimalPortfolios{
		MaxSharpe:     toOptimalPortfolio(r.Assets, *maxSharpe),
		MinVolatility: toOptimalPortfolio(r.Assets, *minVol),
	}

	return frontier, nil
}

// frontierTargets returns points evenly spaced returns from lo to hi
// inclusive. A degenerate range yields the single target lo.
func frontierTargets(lo, hi float64, points int) []float64 {
	if points == 1 || hi-lo <= 1e-12 {
		return []float64{lo}
	}
	targets := make([]float64, points)
	step := (hi - lo) / float64(points-1)
	for i := range targets {
		targets[i] = lo + float64(i)*step
	}
	targets[points-1] = hi
	return targets
}

func toFrontierPoint(a Allocation) FrontierPoint {
	return FrontierPoint{
		Return:      a.Return * 100,
		Risk:        a.Risk * 100,
		SharpeRatio: a.Sharpe(),
	}
}

func toOptimalPortfolio(assets []string, a Allocation) OptimalPortfolio {
	weights := make(map[string]float64, len(assets))
	for i, asset := range assets {
		weights[asset] = a.Weights[i] * 100
	}
	return OptimalPortfolio{FrontierPoint: toFrontierPoint(a), Weights: weights}
}
