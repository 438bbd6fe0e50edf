package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	// returnPenalty weighs the squared target-return miss in efficientReturn
	returnPenalty = 1e4
	// returnTolerance is the accepted target miss, relative to the spread of μ
	returnTolerance = 1e-3
	// minSharpeVariance floors the variance in the Sharpe objective
	minSharpeVariance = 1e-12
	// dustWeight is the weight below which an optimized position is zeroed
	dustWeight = 1e-9
)

// Allocation is an optimized long-only portfolio. Return and Risk are
// annualized decimals.
type Allocation struct {
	Weights []float64
	Return  float64
	Risk    float64
}

// Sharpe returns Return/Risk with a zero risk-free rate
func (a Allocation) Sharpe() float64 {
	if a.Risk == 0 {
		return 0
	}
	return a.Return / a.Risk
}

// MVOptimizer solves long-only, fully invested mean-variance problems over
// annualized expected returns mu and covariance sigma.
//
// Weights are parameterized as w_i = z_i² / Σz_j², which keeps every
// candidate on the simplex (w ≥ 0, Σw = 1) so the problems can be handed to
// unconstrained solvers.
type MVOptimizer struct {
	mu    []float64
	sigma *mat.SymDense
	n     int

	// varScale and retScale bring the objectives to order one
	varScale float64
	retScale float64

	log zerolog.Logger
}

// NewMVOptimizer creates an optimizer for the given expected returns and covariance.
func NewMVOptimizer(mu []float64, sigma *mat.SymDense, log zerolog.Logger) (*MVOptimizer, error) {
	n := len(mu)
	if n == 0 {
		return nil, fmt.Errorf("%w: no assets to optimize", ErrInsufficientAssets)
	}
	if sigma.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: covariance size %d doesn't match %d expected returns",
			ErrInternal, sigma.SymmetricDim(), n)
	}

	varScale := 0.0
	for i := 0; i < n; i++ {
		varScale = math.Max(varScale, sigma.At(i, i))
	}
	if varScale <= 0 {
		varScale = 1
	}

	lo, hi := muRange(mu)
	retScale := hi - lo
	if retScale <= 0 {
		retScale = 1
	}

	return &MVOptimizer{
		mu:       mu,
		sigma:    sigma,
		n:        n,
		varScale: varScale,
		retScale: retScale,
		log:      log,
	}, nil
}

// MaxReturn returns the highest single-asset expected return
func (o *MVOptimizer) MaxReturn() float64 {
	_, hi := muRange(o.mu)
	return hi
}

// Evaluate returns the return and risk of fixed weights
func (o *MVOptimizer) Evaluate(w []float64) Allocation {
	ret := 0.0
	for i := range w {
		ret += o.mu[i] * w[i]
	}
	variance := math.Max(portfolioVariance(o.sigma, w), 0)
	return Allocation{
		Weights: append([]float64(nil), w...),
		Return:  ret,
		Risk:    math.Sqrt(variance),
	}
}

// MinVolatility minimizes wᵀΣw.
func (o *MVOptimizer) MinVolatility() (*Allocation, error) {
	return o.solve("min_volatility", func(w, grad []float64) float64 {
		sw := o.sigmaTimes(w)
		if grad != nil {
			for i := range grad {
				grad[i] = 2 * sw[i] / o.varScale
			}
		}
		return dot(w, sw) / o.varScale
	})
}

// MaxSharpe maximizes μᵀw / sqrt(wᵀΣw) with a zero risk-free rate.
func (o *MVOptimizer) MaxSharpe() (*Allocation, error) {
	return o.solve("max_sharpe", func(w, grad []float64) float64 {
		sw := o.sigmaTimes(w)
		ret := dot(o.mu, w)
		variance := math.Max(dot(w, sw), minSharpeVariance)
		sd := math.Sqrt(variance)
		if grad != nil {
			for i := range grad {
				grad[i] = -o.mu[i]/sd + ret*sw[i]/(variance*sd)
			}
		}
		return -ret / sd
	})
}

// EfficientReturn minimizes wᵀΣw subject to μᵀw = target. The return
// constraint is enforced with a quadratic penalty; solutions that miss the
// target by more than the tolerance are rejected with ErrOptimizerInfeasible.
func (o *MVOptimizer) EfficientReturn(target float64) (*Allocation, error) {
	lo, hi := muRange(o.mu)
	tol := returnTolerance*o.retScale + 1e-9
	if target < lo-tol || target > hi+tol {
		return nil, fmt.Errorf("%w: target return %.6f outside [%.6f, %.6f]",
			ErrOptimizerInfeasible, target, lo, hi)
	}

	alloc, err := o.solve("efficient_return", func(w, grad []float64) float64 {
		sw := o.sigmaTimes(w)
		miss := (dot(o.mu, w) - target) / o.retScale
		if grad != nil {
			for i := range grad {
				grad[i] = 2*sw[i]/o.varScale + 2*returnPenalty*miss*o.mu[i]/o.retScale
			}
		}
		return dot(w, sw)/o.varScale + returnPenalty*miss*miss
	})
	if err != nil {
		return nil, err
	}

	if math.Abs(alloc.Return-target) > tol {
		return nil, fmt.Errorf("%w: reached return %.6f for target %.6f",
			ErrOptimizerInfeasible, alloc.Return, target)
	}
	return alloc, nil
}

// weightObjective evaluates an objective at simplex weights w and, when grad
// is non-nil, writes ∂f/∂w into it.
type weightObjective func(w, grad []float64) float64

// solve minimizes obj over the simplex. BFGS runs first; Nelder-Mead is tried
// when BFGS fails to converge, and the better finite result wins.
func (o *MVOptimizer) solve(name string, obj weightObjective) (*Allocation, error) {
	n := o.n
	if n == 1 {
		alloc := o.Evaluate([]float64{1})
		return &alloc, nil
	}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			w := simplexWeights(z)
			return obj(w, nil)
		},
		Grad: func(grad, z []float64) {
			w := simplexWeights(z)
			s := 0.0
			for _, zi := range z {
				s += zi * zi
			}
			gw := make([]float64, n)
			obj(w, gw)
			if s == 0 {
				for i := range grad {
					grad[i] = 0
				}
				return
			}
			// Chain rule through w_k = z_k²/s
			gDotW := dot(gw, w)
			for k := range grad {
				grad[k] = 2 * z[k] * (gw[k] - gDotW) / s
			}
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1
	}
	settings := &optimize.Settings{MajorIterations: 1000}

	var best *optimize.Result
	consider := func(method string, result *optimize.Result, err error) bool {
		if result == nil {
			o.log.Debug().Err(err).Str("objective", name).Str("method", method).Msg("Optimizer returned no result")
			return false
		}
		if err != nil {
			o.log.Debug().Err(err).Str("objective", name).Str("method", method).Msg("Optimizer stopped with error")
		}
		if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
			return false
		}
		if best == nil || result.F < best.F {
			best = result
		}
		return err == nil && converged(result.Status)
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
	if !consider("bfgs", result, err) {
		result, err = optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
		consider("nelder_mead", result, err)
	}

	if best == nil {
		return nil, fmt.Errorf("%w: %s did not converge", ErrOptimizerInfeasible, name)
	}

	w := cleanWeights(simplexWeights(best.X))
	alloc := o.Evaluate(w)

	o.log.Debug().
		Str("objective", name).
		Str("status", best.Status.String()).
		Float64("return", alloc.Return).
		Float64("risk", alloc.Risk).
		Msg("Optimization finished")

	return &alloc, nil
}

func (o *MVOptimizer) sigmaTimes(w []float64) []float64 {
	out := make([]float64, o.n)
	for i := 0; i < o.n; i++ {
		for j := 0; j < o.n; j++ {
			out[i] += o.sigma.At(i, j) * w[j]
		}
	}
	return out
}

// converged reports whether a status is one of the successful terminations
func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.FunctionThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	default:
		return false
	}
}

// simplexWeights maps an unconstrained vector onto the simplex
func simplexWeights(z []float64) []float64 {
	w := make([]float64, len(z))
	s := 0.0
	for _, zi := range z {
		s += zi * zi
	}
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		for i := range w {
			w[i] = 1 / float64(len(w))
		}
		return w
	}
	for i, zi := range z {
		w[i] = zi * zi / s
	}
	return w
}

// cleanWeights zeroes dust positions and renormalizes to one
func cleanWeights(w []float64) []float64 {
	sum := 0.0
	for i := range w {
		if w[i] < dustWeight {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum > 0 {
		for i := range w {
			w[i] /= sum
		}
	}
	return w
}

func muRange(mu []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, m := range mu {
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}
	return lo, hi
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
