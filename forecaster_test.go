package holt

import (
	"bytes"
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aouyang1/go-holt/gridsearch"
	"github.com/aouyang1/go-holt/score"
	"github.com/aouyang1/go-holt/smoothing"
	"github.com/aouyang1/go-holt/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	visits = []float64{120, 130, 115, 125, 110}
	grid   = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	start  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func dailyT(n int) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.AddDate(0, 0, i))
	}
	return t
}

func TestForecasterFit(t *testing.T) {
	tol := 1e-6
	f, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, f.Fit(dailyT(len(visits)), visits))

	assert.Equal(t, smoothing.Params{Alpha: 0.3, Beta: 0.3}, f.Params())
	assert.Nil(t, f.SearchResult())

	res := f.FitResults()
	assert.Equal(t, dailyT(len(visits)), res.T)
	assert.InDeltaSlice(t, []float64{120, 317.1, 348.381, 353.17341, 330.1424901}, res.Forecast, tol)
	assert.InDeltaSlice(t, []float64{120, 207, 256.47, 281.3667, 280.221387}, res.Level, tol)
	assert.InDeltaSlice(t, []float64{120, 110.1, 91.911, 71.80671, 49.9211031}, res.Trend, tol)

	assert.InDeltaSlice(t, []float64{0, -187.1, -233.381, -228.17341, -220.1424901}, f.Residuals(), tol)
	assert.InDelta(t, 37999.784427891354, f.Scores().MSE, tol)

	next, err := f.Next()
	require.Nil(t, err)
	assert.InDelta(t, 330.1424901, next, tol)

	pred, err := f.Predict(3)
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{330.1424901, 380.0635932, 429.9846963}, pred.Forecast, tol)
	assert.Equal(t, []time.Time{start.AddDate(0, 0, 5), start.AddDate(0, 0, 6), start.AddDate(0, 0, 7)}, pred.T)
	assert.Nil(t, pred.Level)
}

func TestTrainingDataIsCopy(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)
	assert.Nil(t, f.TrainingData())

	y := []float64{120, 130, 115, 125, 110}
	require.Nil(t, f.Fit(dailyT(len(y)), y))
	y[0] = 0

	td := f.TrainingData()
	require.NotNil(t, td)
	assert.Equal(t, visits, td.Y)
	assert.Equal(t, start, timedataset.TimeSlice(td.T).StartTime())

	td.Y[0] = -1
	td.T[0] = start.AddDate(-1, 0, 0)
	assert.Equal(t, visits, f.TrainingData().Y)
	assert.Equal(t, start, f.TrainingData().T[0])
}

func TestForecasterFitGrid(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		expected smoothing.Params
		mse      float64
	}{
		"trend seeded with first value": {
			opt:      &Options{Alphas: grid, Betas: grid},
			expected: smoothing.Params{Alpha: 0.9, Beta: 0.9},
			mse:      386.05570881008873,
		},
		"trend seeded with zero": {
			opt: &Options{
				Alphas:           grid,
				Betas:            grid,
				SmoothingOptions: &smoothing.Options{InitialTrend: smoothing.TrendInitZero},
			},
			expected: smoothing.Params{Alpha: 0.9, Beta: 0.2},
			mse:      0.2554866042552362,
		},
		"parallel": {
			opt:      &Options{Alphas: grid, Betas: grid, Parallelization: 4},
			expected: smoothing.Params{Alpha: 0.9, Beta: 0.9},
			mse:      386.05570881008873,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := New(td.opt)
			require.Nil(t, err)
			require.Nil(t, f.Fit(dailyT(len(visits)), visits))

			assert.Equal(t, td.expected, f.Params())
			require.NotNil(t, f.SearchResult())
			assert.Equal(t, len(grid)*len(grid), f.SearchResult().Evaluated)
			assert.InDelta(t, td.mse, f.SearchResult().MSE, 1e-6)
			assert.InDelta(t, td.mse, f.Scores().MSE, 1e-6)
		})
	}
}

func TestForecasterFitCancelled(t *testing.T) {
	f, err := New(&Options{Alphas: grid, Betas: grid})
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.FitContext(ctx, dailyT(len(visits)), visits)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = f.Predict(1)
	assert.ErrorIs(t, err, ErrUntrainedForecaster)
}

func TestNewErrors(t *testing.T) {
	testData := map[string]struct {
		opt *Options
		err error
	}{
		"alphas only":           {&Options{Alphas: grid}, ErrIncompleteGrid},
		"betas only":            {&Options{Betas: grid}, ErrIncompleteGrid},
		"nan alpha":             {&Options{Params: smoothing.Params{Alpha: math.NaN(), Beta: 0.1}}, smoothing.ErrNonFiniteParam},
		"negative parallel":     {&Options{Parallelization: -2}, gridsearch.ErrNegativeParallelization},
		"negative interval":     {&Options{Interval: -time.Hour}, ErrNegativeInterval},
		"unknown trend seeding": {&Options{SmoothingOptions: &smoothing.Options{InitialTrend: "x"}}, smoothing.ErrUnknownInit},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := New(td.opt)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestOptionsNotModified(t *testing.T) {
	opt := &Options{Alphas: grid, Betas: grid, OutlierOptions: NewOutlierOptions()}
	before := *opt

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := New(opt)
			assert.Nil(t, err)
			assert.Nil(t, f.Fit(dailyT(len(visits)), visits))
		}()
	}
	wg.Wait()
	assert.Equal(t, before, *opt)
	assert.Nil(t, opt.SmoothingOptions)

	f, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, f.Fit(dailyT(len(visits)), visits))

	m, err := f.Model()
	require.Nil(t, err)
	m.Options.Alphas[0] = 0.5
	m.Options.SmoothingOptions.InitialTrend = smoothing.TrendInitZero
	m.Options.OutlierOptions.TukeyFactor = 3.0

	m, err = f.Model()
	require.Nil(t, err)
	assert.Equal(t, 0.1, m.Options.Alphas[0])
	assert.Equal(t, smoothing.TrendInitFirstValue, m.Options.SmoothingOptions.InitialTrend)
	assert.Equal(t, 1.0, m.Options.OutlierOptions.TukeyFactor)
	assert.Equal(t, 0.1, grid[0])
}

func TestFitErrors(t *testing.T) {
	testData := map[string]struct {
		t   []time.Time
		y   []float64
		err error
	}{
		"empty":           {nil, nil, timedataset.ErrNoTrainingData},
		"length mismatch": {dailyT(2), visits, timedataset.ErrDatasetLenMismatch},
		"unordered":       {[]time.Time{start.AddDate(0, 0, 1), start}, []float64{1, 2}, timedataset.ErrNonMontonic},
		"nan":             {dailyT(2), []float64{1, math.NaN()}, timedataset.ErrNonFiniteValue},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := New(nil)
			require.Nil(t, err)
			err = f.Fit(td.t, td.y)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestPredictErrors(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)

	_, err = f.Predict(1)
	assert.ErrorIs(t, err, ErrUntrainedForecaster)
	_, err = f.Next()
	assert.ErrorIs(t, err, ErrUntrainedForecaster)
	_, err = f.Model()
	assert.ErrorIs(t, err, ErrUntrainedForecaster)

	require.Nil(t, f.Fit(dailyT(len(visits)), visits))
	_, err = f.Predict(0)
	assert.ErrorIs(t, err, smoothing.ErrInvalidHorizon)
}

func TestPredictSingleObservation(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, f.Fit(dailyT(1), []float64{50}))

	assert.Equal(t, []float64{50}, f.FitResults().Forecast)
	_, err = f.Predict(1)
	assert.ErrorIs(t, err, ErrCannotInferInterval)

	f, err = New(&Options{
		Params:           smoothing.Params{Alpha: 0.3, Beta: 0.3},
		SmoothingOptions: &smoothing.Options{InitialTrend: smoothing.TrendInitZero},
		Interval:         time.Hour,
	})
	require.Nil(t, err)
	require.Nil(t, f.Fit(dailyT(1), []float64{50}))

	pred, err := f.Predict(2)
	require.Nil(t, err)
	assert.Equal(t, []float64{50, 50}, pred.Forecast)
	assert.Equal(t, []time.Time{start.Add(time.Hour), start.Add(2 * time.Hour)}, pred.T)
}

func TestOutliers(t *testing.T) {
	n := 60
	spike := 15
	y := make(timedataset.Series, n)
	y.Add(timedataset.GenerateLinearY(n, 100, 2)).
		Add(timedataset.GenerateNoise(n, 1.0, rand.New(rand.NewPCG(3, 4)))).
		Add(timedataset.GenerateChange(n, spike, 80, 0)).
		Add(timedataset.GenerateChange(n, spike+1, -80, 0))

	f, err := New(&Options{
		Params:           smoothing.Params{Alpha: 0.5, Beta: 0.3},
		SmoothingOptions: &smoothing.Options{InitialTrend: smoothing.TrendInitFirstDifference},
		OutlierOptions:   NewOutlierOptions(),
	})
	require.Nil(t, err)
	require.Nil(t, f.Fit(dailyT(n), y))

	outliers, err := f.Outliers()
	require.Nil(t, err)
	assert.Contains(t, outliers, spike)
	assert.Less(t, len(outliers), 10)

	f, err = New(nil)
	require.Nil(t, err)
	require.Nil(t, f.Fit(dailyT(n), y))
	outliers, err = f.Outliers()
	require.Nil(t, err)
	assert.Nil(t, outliers)
}

func TestModelRoundTrip(t *testing.T) {
	f, err := New(&Options{Alphas: grid, Betas: grid})
	require.Nil(t, err)
	require.Nil(t, f.Fit(dailyT(len(visits)), visits))

	m, err := f.Model()
	require.Nil(t, err)
	assert.Equal(t, 24*time.Hour, m.Interval)
	assert.Equal(t, start.AddDate(0, 0, 4), m.TrainEndTime)

	b, err := json.Marshal(m)
	require.Nil(t, err)

	var loaded Model
	require.Nil(t, json.Unmarshal(b, &loaded))

	g, err := NewFromModel(loaded)
	require.Nil(t, err)
	assert.Equal(t, f.Params(), g.Params())
	assert.Equal(t, f.SearchResult(), g.SearchResult())

	expected, err := f.Predict(4)
	require.Nil(t, err)
	actual, err := g.Predict(4)
	require.Nil(t, err)
	assert.Equal(t, expected.Forecast, actual.Forecast)
	for i := range expected.T {
		assert.True(t, expected.T[i].Equal(actual.T[i]))
	}

	_, err = NewFromModel(Model{})
	assert.ErrorIs(t, err, ErrNoOptionsInModel)
}

func TestModelTablePrint(t *testing.T) {
	m := Model{
		Options: &Options{
			SmoothingOptions: &smoothing.Options{InitialTrend: smoothing.TrendInitZero},
		},
		Params:       smoothing.Params{Alpha: 0.9, Beta: 0.2},
		Search:       &gridsearch.Result{Evaluated: 81, MSE: 0.2554866},
		Scores:       &score.Scores{MAPE: 0.0012, MSE: 0.2554, R2: 0.9876},
		Level:        119.0,
		Trend:        -0.5,
		TrainEndTime: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Interval:     24 * time.Hour,
	}

	expected := `Holt:
  Training End Time: 2024-01-05 00:00:00 +0000 UTC
  Interval: 24h0m0s
  Initial Trend: zero
  Params:
    Alpha: 0.900    Beta: 0.200
  Grid Search:
    Evaluated: 81    MSE: 0.255
  Final State:
    Level: 119.000    Trend: -0.500    Next: 118.500
Scores:
  MAPE: 0.001    MSE: 0.255    R2: 0.988
`
	var buf bytes.Buffer
	require.Nil(t, m.TablePrint(&buf))
	assert.Equal(t, expected, buf.String())
}

func TestPlotFit(t *testing.T) {
	f, err := New(nil)
	require.Nil(t, err)

	var buf bytes.Buffer
	assert.ErrorIs(t, f.PlotFit(&buf, 3), ErrUntrainedForecaster)

	require.Nil(t, f.Fit(dailyT(len(visits)), visits))
	require.Nil(t, f.PlotFit(&buf, 3))

	out := buf.String()
	assert.True(t, strings.Contains(out, "Forecast Fit"))
	assert.True(t, strings.Contains(out, "Smoothing Components"))
	assert.True(t, strings.Contains(out, "Fit Residual"))
}
