// Package gridsearch selects Holt smoothing parameters by evaluating every (alpha, beta) pair of a
// candidate grid and keeping the pair with the lowest in-sample mean squared error.
package gridsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/aouyang1/go-holt/score"
	"github.com/aouyang1/go-holt/smoothing"
)

var (
	ErrEmptyGrid               = errors.New("no candidate parameters in grid")
	ErrNegativeParallelization = errors.New("negative parallelization")
)

// Observer receives every evaluated grid cell and the final result of a search. ObserveCell
// may be called from multiple goroutines when the search runs in parallel.
type Observer interface {
	ObserveCell(p smoothing.Params, mse float64)
	ObserveSearch(res *Result, elapsed time.Duration)
}

// Options configures a grid search
type Options struct {
	// Parallelization is the maximum number of grid cells evaluated at once. 0 and 1 both run
	// sequentially.
	Parallelization int

	// Smoothing is passed through to every smoothing fit. nil uses the smoothing defaults.
	Smoothing *smoothing.Options

	// Observer is optional
	Observer Observer
}

// NewDefaultOptions returns a sequential search with default smoothing
func NewDefaultOptions() *Options {
	return &Options{
		Parallelization: 1,
		Smoothing:       smoothing.NewDefaultOptions(),
	}
}

// Validate runs basic validation on the search options, returning a copy with defaults filled in.
// The receiver is never modified so one Options can be shared across concurrent searches.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	out := *o
	if out.Parallelization < 0 {
		return nil, ErrNegativeParallelization
	}
	if out.Parallelization == 0 {
		out.Parallelization = 1
	}
	smoothOpt, err := out.Smoothing.Validate()
	if err != nil {
		return nil, err
	}
	out.Smoothing = smoothOpt
	return &out, nil
}

// Result is the best parameter pair found by a search
type Result struct {
	Params    smoothing.Params `json:"params"`
	MSE       float64          `json:"mean_squared_error"`
	Evaluated int              `json:"evaluated"`
}

type cell struct {
	mse float64
	err error
}

// SearchBestParams evaluates every alpha/beta pair sequentially, outer loop over alphas and inner
// loop over betas, returning the pair with the strictly smallest mean squared error. Ties keep the
// first pair encountered.
func SearchBestParams(series, alphas, betas []float64) (float64, float64, float64, error) {
	res, err := Search(context.Background(), series, alphas, betas, nil)
	if err != nil {
		return 0, 0, 0, err
	}
	return res.Params.Alpha, res.Params.Beta, res.MSE, nil
}

// Search evaluates the full alpha x beta grid. Cells may be evaluated concurrently, but the result
// is reduced in iteration order so the winner is the same as a sequential search.
func Search(ctx context.Context, series, alphas, betas []float64, opt *Options) (*Result, error) {
	if len(alphas) == 0 || len(betas) == 0 {
		return nil, fmt.Errorf("got %d alphas and %d betas, %w", len(alphas), len(betas), ErrEmptyGrid)
	}
	if len(series) == 0 {
		return nil, smoothing.ErrEmptySeries
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cells := make([]cell, len(alphas)*len(betas))
	if opt.Parallelization == 1 {
		err = searchSequential(ctx, series, alphas, betas, opt, cells)
	} else {
		err = searchParallel(ctx, series, alphas, betas, opt, cells)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to complete grid search, %w", err)
	}

	res, err := reduce(alphas, betas, cells)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	if opt.Observer != nil {
		opt.Observer.ObserveSearch(res, elapsed)
	}
	slog.Debug("grid search complete",
		"alpha", res.Params.Alpha,
		"beta", res.Params.Beta,
		"mse", res.MSE,
		"evaluated", res.Evaluated,
		"parallelization", opt.Parallelization,
		"elapsed", elapsed,
	)
	return res, nil
}

func searchSequential(ctx context.Context, series, alphas, betas []float64, opt *Options, cells []cell) error {
	for i, alpha := range alphas {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j, beta := range betas {
			cells[i*len(betas)+j] = evaluate(series, smoothing.Params{Alpha: alpha, Beta: beta}, opt)
		}
	}
	return nil
}

func searchParallel(ctx context.Context, series, alphas, betas []float64, opt *Options, cells []cell) error {
	sem := make(chan struct{}, opt.Parallelization)
	var wg sync.WaitGroup

dispatch:
	for idx := range cells {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		p := smoothing.Params{Alpha: alphas[idx/len(betas)], Beta: betas[idx%len(betas)]}
		go func(idx int, p smoothing.Params) {
			defer func() {
				wg.Done()
				<-sem
			}()
			cells[idx] = evaluate(series, p, opt)
		}(idx, p)
	}
	wg.Wait()

	return ctx.Err()
}

func evaluate(series []float64, p smoothing.Params, opt *Options) cell {
	comp, err := smoothing.Fit(series, p, opt.Smoothing)
	if err != nil {
		return cell{err: err}
	}
	mse, err := score.MSE(series, comp.Fitted)
	if err != nil {
		return cell{err: err}
	}
	if opt.Observer != nil {
		opt.Observer.ObserveCell(p, mse)
	}
	return cell{mse: mse}
}

// reduce walks the cells in alpha-major order keeping the first strictly smaller error. A NaN
// error only wins if nothing finite has been seen.
func reduce(alphas, betas []float64, cells []cell) (*Result, error) {
	res := &Result{Evaluated: len(cells)}
	for idx, c := range cells {
		if c.err != nil {
			return nil, fmt.Errorf("alpha=%v beta=%v, %w", alphas[idx/len(betas)], betas[idx%len(betas)], c.err)
		}
		if idx == 0 || better(c.mse, res.MSE) {
			res.Params = smoothing.Params{Alpha: alphas[idx/len(betas)], Beta: betas[idx%len(betas)]}
			res.MSE = c.mse
		}
	}
	return res, nil
}

func better(mse, best float64) bool {
	if math.IsNaN(mse) {
		return false
	}
	return mse < best || math.IsNaN(best)
}
