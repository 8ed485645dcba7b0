package holt

import "time"

// Results holds values per time point. Level and Trend are only populated for the training fit.
type Results struct {
	T        []time.Time `json:"time"`
	Forecast []float64   `json:"forecast"`
	Level    []float64   `json:"level,omitempty"`
	Trend    []float64   `json:"trend,omitempty"`
}
