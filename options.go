package holt

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aouyang1/go-holt/gridsearch"
	"github.com/aouyang1/go-holt/smoothing"
)

var (
	ErrIncompleteGrid   = errors.New("both alphas and betas are required to search a grid")
	ErrNegativeInterval = errors.New("negative interval")
)

// OutlierOptions configures the Tukey fence used to flag residual outliers. Flagged points are
// only reported and never change the fit.
type OutlierOptions struct {
	LowerPercentile float64 `json:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

// NewOutlierOptions returns a default fence between the 10th and 90th percentile
func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// Options configures a Forecaster. When both Alphas and Betas are set the smoothing parameters
// are chosen by grid search and Params is ignored.
type Options struct {
	Params smoothing.Params `json:"params"`

	Alphas          []float64 `json:"alphas,omitempty"`
	Betas           []float64 `json:"betas,omitempty"`
	Parallelization int       `json:"parallelization"`

	SmoothingOptions *smoothing.Options `json:"smoothing_options"`
	OutlierOptions   *OutlierOptions    `json:"outlier_options,omitempty"`

	// Interval spaces forecasted points. 0 infers it from the training times.
	Interval time.Duration `json:"interval"`

	// Observer receives grid search progress and is not serialized
	Observer gridsearch.Observer `json:"-"`
}

// NewDefaultOptions smooths with alpha = beta = 0.3 and no grid search
func NewDefaultOptions() *Options {
	return &Options{
		Params:           smoothing.Params{Alpha: 0.3, Beta: 0.3},
		Parallelization:  1,
		SmoothingOptions: smoothing.NewDefaultOptions(),
	}
}

// Validate runs basic validation on the options, using defaults for a nil receiver. A validated
// copy is returned and the receiver is left untouched.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	if (len(o.Alphas) == 0) != (len(o.Betas) == 0) {
		return nil, fmt.Errorf("got %d alphas and %d betas, %w", len(o.Alphas), len(o.Betas), ErrIncompleteGrid)
	}
	if !o.UseGrid() {
		if err := o.Params.Validate(); err != nil {
			return nil, err
		}
	}
	if o.Parallelization < 0 {
		return nil, gridsearch.ErrNegativeParallelization
	}
	if o.Interval < 0 {
		return nil, ErrNegativeInterval
	}
	smoothOpt, err := o.SmoothingOptions.Validate()
	if err != nil {
		return nil, err
	}

	out := *o
	out.Alphas = slices.Clone(o.Alphas)
	out.Betas = slices.Clone(o.Betas)
	out.SmoothingOptions = &smoothing.Options{InitialTrend: smoothOpt.InitialTrend}
	if o.OutlierOptions != nil {
		outlierOpt := *o.OutlierOptions
		out.OutlierOptions = &outlierOpt
	}
	return &out, nil
}

// UseGrid reports whether Fit searches for the smoothing parameters
func (o *Options) UseGrid() bool {
	return len(o.Alphas) > 0 && len(o.Betas) > 0
}

func (o *Options) searchOptions() *gridsearch.Options {
	return &gridsearch.Options{
		Parallelization: o.Parallelization,
		Smoothing:       o.SmoothingOptions,
		Observer:        o.Observer,
	}
}
