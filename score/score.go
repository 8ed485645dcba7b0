// Package score computes fit errors between an observed series and its fitted values
package score

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrEmptyInput     = errors.New("no values to score")
)

// Scores tracks the fit scores
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// NewScores calculates the fit scores given the actual and predicted input slice values
func NewScores(actual, predicted []float64) (*Scores, error) {
	mse, err := MSE(actual, predicted)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mape, err := MAPE(actual, predicted)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}
	rs, err := RSquared(actual, predicted)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		MSE:  mse,
		MAPE: mape,
		R2:   rs,
	}, nil
}

func validate(actual, predicted []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	if len(actual) == 0 {
		return ErrEmptyInput
	}
	return nil
}

// MSE computes the mean squared error, sum((y-yhat)^2)/n. A score of 0 means a perfect match
// with no errors. NaNs are not skipped and propagate into the result.
func MSE(actual, predicted []float64) (float64, error) {
	if err := validate(actual, predicted); err != nil {
		return 0, err
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		diff := actual[i] - predicted[i]
		mse += diff * diff
	}
	mse /= float64(len(actual))
	return mse, nil
}

// MAPE calculates the mean average percent error. This is the same as sum(abs((y-yhat)/y))/n.
// Points where either value is NaN or the actual is 0 contribute nothing.
func MAPE(actual, predicted []float64) (float64, error) {
	if err := validate(actual, predicted); err != nil {
		return 0, err
	}

	mape := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) || actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	mape /= float64(len(actual))
	return mape, nil
}

// RSquared computes the r squared value between the actual and predicted where 1.0 means perfect
// fit and 0 represents no relationship
func RSquared(actual, predicted []float64) (float64, error) {
	if err := validate(actual, predicted); err != nil {
		return 0, err
	}

	predictCopy := make([]float64, 0, len(predicted))
	actualCopy := make([]float64, 0, len(actual))
	for i := 0; i < len(predicted); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		predictCopy = append(predictCopy, predicted[i])
		actualCopy = append(actualCopy, actual[i])
	}
	r2 := stat.RSquaredFrom(predictCopy, actualCopy, nil)
	if math.IsNaN(r2) {
		return 1.0, nil
	}
	return r2, nil
}
