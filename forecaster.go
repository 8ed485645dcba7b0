// Package holt fits Holt's double exponential smoothing to a time stamped series and forecasts
// past the end of it. Smoothing parameters are either provided or chosen by a grid search over
// candidate pairs minimizing the in-sample mean squared error.
package holt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aouyang1/go-holt/gridsearch"
	"github.com/aouyang1/go-holt/score"
	"github.com/aouyang1/go-holt/smoothing"
	"github.com/aouyang1/go-holt/stats"
	"github.com/aouyang1/go-holt/timedataset"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrUntrainedForecaster = errors.New("forecaster has not been trained yet")
	ErrNoOptionsInModel    = errors.New("no options set in model")
	ErrCannotInferInterval = errors.New("cannot infer interval from training data time")
)

// Forecaster fits a Holt smoothing model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	params     smoothing.Params
	search     *gridsearch.Result
	components *smoothing.Components

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
	scores          *score.Scores

	level        float64
	trend        float64
	trainEndTime time.Time
	interval     time.Duration
	trained      bool
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecaster, %w", err)
	}
	return &Forecaster{opt: opt}, nil
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. This should be generated
// from a previous forecaster call to Model(). Only Predict and Model are usable since the training data
// is not part of the model.
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt, err := model.Options.Validate()
	if err != nil {
		return nil, fmt.Errorf("unable to load options from model, %w", err)
	}

	f := &Forecaster{
		opt:          opt,
		params:       model.Params,
		search:       model.Search,
		scores:       model.Scores,
		level:        model.Level,
		trend:        model.Trend,
		trainEndTime: model.TrainEndTime,
		interval:     model.Interval,
		trained:      true,
	}
	return f, nil
}

// Fit smooths the input series, searching for the parameters first if the options hold a grid
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	return f.FitContext(context.Background(), t, y)
}

// FitContext is Fit with a context bounding the grid search
func (f *Forecaster) FitContext(ctx context.Context, t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}

	params := f.opt.Params
	var search *gridsearch.Result
	if f.opt.UseGrid() {
		search, err = gridsearch.Search(ctx, td.Y, f.opt.Alphas, f.opt.Betas, f.opt.searchOptions())
		if err != nil {
			return fmt.Errorf("unable to search smoothing parameters, %w", err)
		}
		params = search.Params
	}

	comp, err := smoothing.Fit(td.Y, params, f.opt.SmoothingOptions)
	if err != nil {
		return fmt.Errorf("unable to smooth series, %w", err)
	}

	scores, err := score.NewScores(td.Y, comp.Fitted)
	if err != nil {
		return fmt.Errorf("unable to score fit, %w", err)
	}

	interval := f.opt.Interval
	if interval == 0 {
		// a single observation leaves the interval unknown until Predict needs it
		interval, _ = timedataset.TimeSlice(td.T).EstimateFreq()
	}

	residual := make([]float64, td.Len())
	floats.SubTo(residual, td.Y, comp.Fitted)

	f.params = params
	f.search = search
	f.components = comp
	f.fitTrainingData = td
	f.residual = residual
	f.scores = scores
	f.level = comp.LastLevel()
	f.trend = comp.LastTrend()
	f.trainEndTime = timedataset.TimeSlice(td.T).EndTime()
	f.interval = interval
	f.fitResults = &Results{
		T:        td.T,
		Forecast: comp.Fitted,
		Level:    comp.Level,
		Trend:    comp.Trend,
	}
	f.trained = true

	slog.Debug("fit holt smoothing",
		"alpha", params.Alpha,
		"beta", params.Beta,
		"observations", td.Len(),
		"train_start", timedataset.TimeSlice(td.T).StartTime(),
		"train_end", f.trainEndTime,
		"mse", scores.MSE,
		"grid_search", search != nil,
	)
	return nil
}

// Predict forecasts h steps past the end of the training data as level + k*trend
func (f *Forecaster) Predict(h int) (*Results, error) {
	if !f.trained {
		return nil, ErrUntrainedForecaster
	}
	if f.interval <= 0 {
		return nil, ErrCannotInferInterval
	}

	forecast, err := smoothing.Extrapolate(f.level, f.trend, h)
	if err != nil {
		return nil, fmt.Errorf("unable to extrapolate, %w", err)
	}

	return &Results{
		T:        timedataset.TimeSlice{f.trainEndTime}.Extend(h, f.interval),
		Forecast: forecast,
	}, nil
}

// Next is the one step ahead forecast past the training data
func (f *Forecaster) Next() (float64, error) {
	if !f.trained {
		return 0, ErrUntrainedForecaster
	}
	return smoothing.ForecastNext(f.level, f.trend), nil
}

// Outliers returns the indexes of residual outliers in the training data. nil is returned if no
// outlier options are set.
func (f *Forecaster) Outliers() ([]int, error) {
	if f.opt.OutlierOptions == nil {
		return nil, nil
	}
	if f.residual == nil {
		return nil, ErrUntrainedForecaster
	}
	return stats.DetectOutliers(
		f.residual,
		f.opt.OutlierOptions.LowerPercentile,
		f.opt.OutlierOptions.UpperPercentile,
		f.opt.OutlierOptions.TukeyFactor,
	)
}

// Residuals returns the actual minus the fitted value for every training point
func (f *Forecaster) Residuals() []float64 {
	return f.residual
}

// Params returns the smoothing parameters used for the fit
func (f *Forecaster) Params() smoothing.Params {
	return f.params
}

// SearchResult returns the grid search result, or nil if the parameters were provided
func (f *Forecaster) SearchResult() *gridsearch.Result {
	return f.search
}

// Components returns the level, trend, and fitted values over the training data
func (f *Forecaster) Components() *smoothing.Components {
	return f.components
}

// Scores returns the fit scores against the training data
func (f *Forecaster) Scores() *score.Scores {
	return f.scores
}

// TrainingData returns a copy of the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData.Copy()
}

// FitResults returns the fitted values along with the level and trend per training point
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}

// Model generates a serializeable representation of the fit options, smoothing parameters, and final
// state. This can be used to initialize a new Forecaster for immediate predictions skipping the training step.
func (f *Forecaster) Model() (Model, error) {
	if !f.trained {
		return Model{}, ErrUntrainedForecaster
	}
	opt, err := f.opt.Validate()
	if err != nil {
		return Model{}, fmt.Errorf("unable to copy options, %w", err)
	}
	return Model{
		Options:      opt,
		Params:       f.params,
		Search:       f.search,
		Scores:       f.scores,
		Level:        f.level,
		Trend:        f.trend,
		TrainEndTime: f.trainEndTime,
		Interval:     f.interval,
	}, nil
}
