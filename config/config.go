// Package config loads the YAML run configuration for the holt command
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config describes a single smoothing run: the observations, the parameter pair to report on, and
// the candidate grid to search.
type Config struct {
	// Series is the ordered set of observations
	Series []float64 `yaml:"series" validate:"required,min=1"`

	// Alpha and Beta are pointers so an explicit 0 is kept instead of replaced by the default
	Alpha *float64 `yaml:"alpha" default:"0.3" validate:"required"`
	Beta  *float64 `yaml:"beta" default:"0.3" validate:"required"`

	// InitialTrend is one of first_value, zero, first_difference
	InitialTrend string `yaml:"initial_trend" default:"first_value" validate:"oneof=first_value zero first_difference"`

	Alphas []float64 `yaml:"alphas" default:"[0.1,0.2,0.3,0.4,0.5,0.6,0.7,0.8,0.9]" validate:"min=1"`
	Betas  []float64 `yaml:"betas" default:"[0.1,0.2,0.3,0.4,0.5,0.6,0.7,0.8,0.9]" validate:"min=1"`

	Parallelization int `yaml:"parallelization" default:"1" validate:"gte=1"`
	Horizon         int `yaml:"horizon" default:"1" validate:"gte=1"`

	// Start and Interval place the observations in time for plotting and model output
	Start    string `yaml:"start" default:"2024-01-01T00:00:00Z"`
	Interval string `yaml:"interval" default:"24h"`

	Outlier *Outlier `yaml:"outlier"`
	Output  Output   `yaml:"output"`
}

// Outlier enables residual outlier reporting
type Outlier struct {
	LowerPercentile *float64 `yaml:"lower_percentile" default:"0.1" validate:"required,gte=0,lte=1"`
	UpperPercentile *float64 `yaml:"upper_percentile" default:"0.9" validate:"required,gte=0,lte=1"`
	TukeyFactor     *float64 `yaml:"tukey_factor" default:"1.0" validate:"required,gte=0"`
}

// Output selects optional artifacts written after the run
type Output struct {
	ModelPath string `yaml:"model_path"`
	PlotPath  string `yaml:"plot_path"`
}

// Load reads a YAML configuration file, fills in defaults, and validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML document into a Config, fills in defaults, and validates it.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Outlier != nil && *c.Outlier.UpperPercentile <= *c.Outlier.LowerPercentile {
		return fmt.Errorf("outlier upper percentile %v must be greater than lower percentile %v",
			*c.Outlier.UpperPercentile, *c.Outlier.LowerPercentile)
	}
	return nil
}

// IntervalDuration parses Interval, which must be positive
func (c *Config) IntervalDuration() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q, %w", c.Interval, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("interval %s must be positive", interval)
	}
	return interval, nil
}

// Times places each observation in time starting at Start and spaced by Interval
func (c *Config) Times() ([]time.Time, error) {
	start, err := time.Parse(time.RFC3339, c.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid start %q, %w", c.Start, err)
	}
	interval, err := c.IntervalDuration()
	if err != nil {
		return nil, err
	}

	t := make([]time.Time, 0, len(c.Series))
	for i := range c.Series {
		t = append(t, start.Add(time.Duration(i)*interval))
	}
	return t, nil
}
