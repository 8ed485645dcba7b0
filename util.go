package holt

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-holt/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// lineData converts values to echart points leaving NaNs as gaps
func lineData(y []float64) []opts.LineData {
	out := make([]opts.LineData, 0, len(y))
	for _, val := range y {
		if math.IsNaN(val) {
			out = append(out, opts.LineData{Value: "-"})
			continue
		}
		out = append(out, opts.LineData{Value: val})
	}
	return out
}

func padNaN(y []float64, n int) []float64 {
	out := make([]float64, 0, len(y)+n)
	out = append(out, y...)
	for i := 0; i < n; i++ {
		out = append(out, math.NaN())
	}
	return out
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must each have the same length as the input time slice.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(t)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData(y[i]))
	}
	return line
}

// LineForecaster generates an echart line chart for a fit result plotting the actual values
// along with the fitted values and the forecast past the training data.
func LineForecaster(trainingData *timedataset.TimeDataset, fitRes, forecastRes *Results) *charts.Line {
	n := len(trainingData.T)
	h := len(forecastRes.T)

	t := make([]time.Time, 0, n+h)
	t = append(t, trainingData.T...)
	t = append(t, forecastRes.T...)

	forecast := make([]float64, 0, n+h)
	for i := 0; i < n; i++ {
		forecast = append(forecast, math.NaN())
	}
	forecast = append(forecast, forecastRes.Forecast...)

	return LineTSeries(
		"Forecast Fit",
		[]string{"Actual", "Fitted", "Forecast"},
		t,
		[][]float64{
			padNaN(trainingData.Y, h),
			padNaN(fitRes.Forecast, h),
			forecast,
		},
	)
}

// PlotFit uses the Apache Echarts library to render an html page showing the resulting fit with a
// horizon of forecasts, the level and trend components, and the fit residual
func (f *Forecaster) PlotFit(w io.Writer, horizon int) error {
	td := f.fitTrainingData
	if td == nil || f.fitResults == nil {
		return ErrUntrainedForecaster
	}
	if horizon < 1 {
		horizon = 1
	}

	forecastRes, err := f.Predict(horizon)
	if err != nil {
		return fmt.Errorf("unable to predict with horizon, %w", err)
	}

	page := components.NewPage()
	page.AddCharts(
		LineForecaster(td, f.fitResults, forecastRes),
		LineTSeries(
			"Smoothing Components",
			[]string{"Level", "Trend"},
			td.T,
			[][]float64{
				f.fitResults.Level,
				f.fitResults.Trend,
			},
		),
		LineTSeries(
			"Fit Residual",
			[]string{"Residual"},
			td.T,
			[][]float64{f.Residuals()},
		),
	)
	return page.Render(w)
}
