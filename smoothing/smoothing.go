// Package smoothing implements Holt's double exponential smoothing of a univariate series,
// tracking a level and a trend component at every time step.
package smoothing

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptySeries    = errors.New("series has no observations")
	ErrNonFiniteParam = errors.New("smoothing parameter is not finite")
	ErrInvalidHorizon = errors.New("horizon must be at least 1")
	ErrNoComponents   = errors.New("no fitted components")
	ErrUnknownInit    = errors.New("unknown trend initialization")
)

// TrendInit selects how the trend component is seeded at the first observation.
type TrendInit string

const (
	// TrendInitFirstValue seeds the trend with the first observation, the same value as the level.
	TrendInitFirstValue TrendInit = "first_value"

	// TrendInitZero seeds the trend with 0 so a constant series is reproduced exactly.
	TrendInitZero TrendInit = "zero"

	// TrendInitFirstDifference seeds the trend with series[1]-series[0], or 0 for a single
	// observation.
	TrendInitFirstDifference TrendInit = "first_difference"
)

// Options configures the recursion outside of the smoothing factors
type Options struct {
	InitialTrend TrendInit `json:"initial_trend"`
}

// NewDefaultOptions returns the default smoothing options, seeding the trend with the first
// observation.
func NewDefaultOptions() *Options {
	return &Options{
		InitialTrend: TrendInitFirstValue,
	}
}

// Validate fills in defaults for a nil or empty receiver and rejects unknown initializations.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	switch o.InitialTrend {
	case "":
		return &Options{InitialTrend: TrendInitFirstValue}, nil
	case TrendInitFirstValue, TrendInitZero, TrendInitFirstDifference:
		return o, nil
	default:
		return nil, fmt.Errorf("%q, %w", o.InitialTrend, ErrUnknownInit)
	}
}

func (o *Options) initialTrend(series []float64) float64 {
	switch o.InitialTrend {
	case TrendInitZero:
		return 0.0
	case TrendInitFirstDifference:
		if len(series) < 2 {
			return 0.0
		}
		return series[1] - series[0]
	default:
		return series[0]
	}
}

// Params holds the smoothing factors. Alpha weighs new observations against the previous
// level and trend, beta weighs the latest level change against the previous trend. Both are
// conceptually in [0, 1] but the range is not enforced.
type Params struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// Validate rejects NaN or infinite parameters.
func (p Params) Validate() error {
	if math.IsNaN(p.Alpha) || math.IsInf(p.Alpha, 0) {
		return fmt.Errorf("alpha=%v, %w", p.Alpha, ErrNonFiniteParam)
	}
	if math.IsNaN(p.Beta) || math.IsInf(p.Beta, 0) {
		return fmt.Errorf("beta=%v, %w", p.Beta, ErrNonFiniteParam)
	}
	return nil
}

// Components stores the level, trend, and fitted values of a smoothed series. All slices
// have the same length as the input series.
type Components struct {
	Level  []float64 `json:"level"`
	Trend  []float64 `json:"trend"`
	Fitted []float64 `json:"fitted"`
}

// Fit runs the smoothing recursion over the series. The first level and fitted value are the
// first observation, and the first trend is seeded according to the options, defaulting to
// the first observation as well. For every later step the fitted value is the sum of the level
// and trend at that same step, which makes it an in-sample value rather than a forecast made
// strictly before the observation. A nil opt uses the defaults.
func Fit(series []float64, p Params, opt *Options) (*Components, error) {
	n := len(series)
	if n == 0 {
		return nil, ErrEmptySeries
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	level := make([]float64, n)
	trend := make([]float64, n)
	fitted := make([]float64, n)

	level[0] = series[0]
	trend[0] = opt.initialTrend(series)
	fitted[0] = series[0]

	for t := 1; t < n; t++ {
		level[t] = p.Alpha*series[t] + (1-p.Alpha)*(level[t-1]+trend[t-1])
		trend[t] = p.Beta*(level[t]-level[t-1]) + (1-p.Beta)*trend[t-1]
		fitted[t] = level[t] + trend[t]
	}

	return &Components{
		Level:  level,
		Trend:  trend,
		Fitted: fitted,
	}, nil
}

// Smooth returns the fitted values of the series for the given alpha and beta using the
// default options.
func Smooth(series []float64, alpha, beta float64) ([]float64, error) {
	c, err := Fit(series, Params{Alpha: alpha, Beta: beta}, nil)
	if err != nil {
		return nil, err
	}
	return c.Fitted, nil
}

// ForecastNext extrapolates one step past the end of the observed series.
func ForecastNext(lastLevel, lastTrend float64) float64 {
	return lastLevel + lastTrend
}

// LastLevel returns the level at the final observation
func (c *Components) LastLevel() float64 {
	return c.Level[len(c.Level)-1]
}

// LastTrend returns the trend at the final observation
func (c *Components) LastTrend() float64 {
	return c.Trend[len(c.Trend)-1]
}

// Next is the one step ahead forecast from the final level and trend.
func (c *Components) Next() float64 {
	return ForecastNext(c.LastLevel(), c.LastTrend())
}

// Horizon extrapolates h steps past the end of the series as level + k*trend for k = 1..h.
func (c *Components) Horizon(h int) ([]float64, error) {
	if c == nil || len(c.Level) == 0 {
		return nil, ErrNoComponents
	}
	return Extrapolate(c.LastLevel(), c.LastTrend(), h)
}

// Extrapolate projects a final level and trend forward h steps.
func Extrapolate(level, trend float64, h int) ([]float64, error) {
	if h < 1 {
		return nil, fmt.Errorf("got horizon of %d, %w", h, ErrInvalidHorizon)
	}
	out := make([]float64, h)
	for k := range h {
		out[k] = level + float64(k+1)*trend
	}
	return out, nil
}
