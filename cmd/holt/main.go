// Command holt smooths a configured series with Holt's double exponential smoothing, reports the
// fit at the configured parameters, and searches the configured grid for the best pair.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	holt "github.com/aouyang1/go-holt"
	"github.com/aouyang1/go-holt/config"
	"github.com/aouyang1/go-holt/metrics"
	"github.com/aouyang1/go-holt/smoothing"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so deferred cleanup such as flushing the cpu profile
// runs before the process exits.
func realMain(args []string) int {
	fs := flag.NewFlagSet("holt", flag.ContinueOnError)
	configPath := fs.String("config", "cmd/holt/testdata/visits.yaml", "config file path")
	cpuProfile := fs.Bool("cpuprofile", false, "write a cpu profile to the working directory")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "path", *configPath, "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout, prometheus.NewRegistry()); err != nil {
		slog.Error("holt run failed", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, w io.Writer, reg *prometheus.Registry) error {
	t, err := cfg.Times()
	if err != nil {
		return err
	}
	interval, err := cfg.IntervalDuration()
	if err != nil {
		return err
	}

	smoothOpt := &smoothing.Options{InitialTrend: smoothing.TrendInit(cfg.InitialTrend)}
	var outlierOpt *holt.OutlierOptions
	if cfg.Outlier != nil {
		outlierOpt = &holt.OutlierOptions{
			LowerPercentile: *cfg.Outlier.LowerPercentile,
			UpperPercentile: *cfg.Outlier.UpperPercentile,
			TukeyFactor:     *cfg.Outlier.TukeyFactor,
		}
	}

	fixed, err := holt.New(&holt.Options{
		Params:           smoothing.Params{Alpha: *cfg.Alpha, Beta: *cfg.Beta},
		SmoothingOptions: smoothOpt,
		OutlierOptions:   outlierOpt,
		Interval:         interval,
	})
	if err != nil {
		return err
	}
	if err := fixed.FitContext(ctx, t, cfg.Series); err != nil {
		return fmt.Errorf("unable to fit configured parameters, %w", err)
	}

	fmt.Fprintln(w, "Forecast for each day:")
	for i, val := range fixed.FitResults().Forecast {
		fmt.Fprintf(w, "Day %d: %.2f\n", i+1, val)
	}

	next, err := fixed.Next()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nForecast for Day %d: %.2f\n", len(cfg.Series)+1, next)
	if cfg.Horizon > 1 {
		pred, err := fixed.Predict(cfg.Horizon)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Forecast for the next %d days:", cfg.Horizon)
		for _, val := range pred.Forecast {
			fmt.Fprintf(w, " %.2f", val)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\nMean Squared Error (MSE): %.2f\n", fixed.Scores().MSE)

	outliers, err := fixed.Outliers()
	if err != nil {
		return err
	}
	if outliers != nil {
		fmt.Fprintf(w, "Outlier days: %v\n", dayNumbers(outliers))
	}

	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return err
	}
	best, err := holt.New(&holt.Options{
		Alphas:           cfg.Alphas,
		Betas:            cfg.Betas,
		Parallelization:  cfg.Parallelization,
		SmoothingOptions: smoothOpt,
		Interval:         interval,
		Observer:         recorder,
	})
	if err != nil {
		return err
	}
	if err := best.FitContext(ctx, t, cfg.Series); err != nil {
		return fmt.Errorf("unable to search grid, %w", err)
	}
	p := best.Params()
	fmt.Fprintf(w, "\nBest alpha: %v, Best beta: %v, with the lowest MSE: %.2f\n", p.Alpha, p.Beta, best.SearchResult().MSE)

	logMetrics(reg)

	if cfg.Output.ModelPath != "" {
		if err := writeModel(best, cfg.Output.ModelPath); err != nil {
			return err
		}
	}
	if cfg.Output.PlotPath != "" {
		if err := writePlot(best, cfg.Output.PlotPath, cfg.Horizon); err != nil {
			return err
		}
	}
	return nil
}

func dayNumbers(idx []int) []int {
	days := make([]int, 0, len(idx))
	for _, i := range idx {
		days = append(days, i+1)
	}
	return days
}

func writeModel(f *holt.Forecaster, path string) error {
	m, err := f.Model()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal model, %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("unable to write model, %w", err)
	}
	slog.Info("wrote model", "path", path)
	return nil
}

func writePlot(f *holt.Forecaster, path string, horizon int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create plot file, %w", err)
	}
	defer file.Close()

	if err := f.PlotFit(file, horizon); err != nil {
		return fmt.Errorf("unable to plot fit, %w", err)
	}
	slog.Info("wrote plot", "path", path)
	return nil
}

func logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		slog.Warn("unable to gather metrics", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var val float64
			switch {
			case m.GetCounter() != nil:
				val = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				val = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				val = m.GetHistogram().GetSampleSum()
			}
			slog.Debug("metric", "name", mf.GetName(), "value", val)
		}
	}
}
