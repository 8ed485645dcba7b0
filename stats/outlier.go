// Package stats contains residual diagnostics for a fitted series
package stats

import (
	"errors"
	"math"
	"sort"
)

var ErrInvalidPercentiles = errors.New("lower percentile must be less than upper percentile")

// DetectOutliers returns the indexes of values outside a Tukey style fence. The fence starts at
// the lower and upper percentile values of y and is widened on both sides by tukeyFactor times
// the range between them. Percentiles are clamped to [0, 1] and tukeyFactor to be non-negative.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) ([]int, error) {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)
	if lowerPerc >= upperPerc {
		return nil, ErrInvalidPercentiles
	}
	if len(y) == 0 {
		return nil, nil
	}

	yCopy := make([]float64, len(y))
	copy(yCopy, y)
	sort.Float64s(yCopy)

	last := len(yCopy) - 1
	lowerIdx := int(math.Floor(float64(last) * lowerPerc))
	upperIdx := int(math.Ceil(float64(last) * upperPerc))

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx, nil
}
