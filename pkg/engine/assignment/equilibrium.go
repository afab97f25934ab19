package assignment

import (
	"fmt"
	"math"
)

const (
	// DefaultTolerance is the relative-flow-change convergence criterion.
	DefaultTolerance = 1e-2
	// DefaultMaxIterations bounds the MSA loop so pathological inputs still
	// terminate.
	DefaultMaxIterations = 10000
)

// NonConvergenceError reports that the solver hit its iteration bound before
// the convergence metric dropped below tolerance. The network keeps the
// best-known flows and costs, so the caller may still accept the approximate
// solution.
type NonConvergenceError struct {
	Iterations int
	Metric     float64
	Tolerance  float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("equilibrium not reached after %d iterations: metric %g > tolerance %g",
		e.Iterations, e.Metric, e.Tolerance)
}

// ProgressFunc is called once per solver iteration with the iteration number
// and the current convergence metric.
type ProgressFunc func(iteration int, metric float64)

type solverConfig struct {
	tolerance     float64
	maxIterations int
	progress      ProgressFunc
}

type Option func(*solverConfig)

// WithTolerance overrides the relative-flow-change convergence criterion.
func WithTolerance(tolerance float64) Option {
	return func(cfg *solverConfig) {
		cfg.tolerance = tolerance
	}
}

// WithMaxIterations overrides the iteration bound.
func WithMaxIterations(n int) Option {
	return func(cfg *solverConfig) {
		cfg.maxIterations = n
	}
}

// WithProgress registers a per-iteration callback.
func WithProgress(fn ProgressFunc) Option {
	return func(cfg *solverConfig) {
		cfg.progress = fn
	}
}

// Summary describes one equilibrium solve.
type Summary struct {
	Iterations int     `json:"iterations"`
	Metric     float64 `json:"metric"`
	Converged  bool    `json:"converged"`
}

// SolveEquilibrium drives link flows to a Wardrop user equilibrium with the
// Frank-Wolfe scheme stepped by the method of successive averages:
//
//  1. Initialize flows with one all-or-nothing loading.
//  2. Each iteration k: recompute costs from current flows, compute a new AON
//     flow vector, and move every link toward it with step 1/k.
//  3. Stop when the maximum relative flow change drops to the tolerance.
//
// Link flows and costs are mutated in place; costs are recomputed one final
// time so flow and cost are consistent on exit. Exceeding the iteration
// bound returns *NonConvergenceError while keeping the best-known state.
func (e *Engine) SolveEquilibrium(opts ...Option) (Summary, error) {
	cfg := solverConfig{
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tolerance <= 0 {
		return Summary{}, fmt.Errorf("tolerance must be positive, got %g", cfg.tolerance)
	}
	if cfg.maxIterations < 1 {
		return Summary{}, fmt.Errorf("max iterations must be at least 1, got %d", cfg.maxIterations)
	}

	e.net.UpdateAllCosts()
	aonFlows, err := e.AllOrNothing()
	if err != nil {
		return Summary{}, err
	}
	links := e.net.Links()
	for key, link := range links {
		link.Flow = aonFlows[key]
	}

	iteration := 1
	metric := math.Inf(1)
	for iteration <= cfg.maxIterations {
		e.net.UpdateAllCosts()
		aonFlows, err = e.AllOrNothing()
		if err != nil {
			return Summary{Iterations: iteration, Metric: metric}, err
		}

		metric = 0
		for key, link := range links {
			move := link.Flow + (aonFlows[key]-link.Flow)/float64(iteration)
			relChange := 0.0
			if move != 0 {
				relChange = math.Abs(link.Flow-move) / move
			}
			link.Flow = move
			if relChange > metric {
				metric = relChange
			}
		}

		if cfg.progress != nil {
			cfg.progress(iteration, metric)
		}
		if metric <= cfg.tolerance {
			e.net.UpdateAllCosts()
			return Summary{Iterations: iteration, Metric: metric, Converged: true}, nil
		}
		iteration++
	}

	e.net.UpdateAllCosts()
	return Summary{Iterations: cfg.maxIterations, Metric: metric},
		&NonConvergenceError{Iterations: cfg.maxIterations, Metric: metric, Tolerance: cfg.tolerance}
}
