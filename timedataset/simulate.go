package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT returns n times spaced by interval ending before the minute truncated nowFunc
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLinearY returns intercept + slope*i for i = 0..n-1
func GenerateLinearY(n int, intercept, slope float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, intercept+slope*float64(i))
	}
	return Series(y)
}

func GenerateWaveY(t []time.Time, amp, periodSec, order, timeOffset float64) Series {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise draws n gaussian samples scaled by noiseScale. A nil r uses the global source.
func GenerateNoise(n int, noiseScale float64, r *rand.Rand) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		var z float64
		if r == nil {
			z = rand.NormFloat64()
		} else {
			z = r.NormFloat64()
		}
		y = append(y, z*noiseScale)
	}
	return Series(y)
}

// GenerateChange is 0 before the changepoint index and bias + slope*(i-chpt) from it onward
func GenerateChange(n, chpt int, bias, slope float64) Series {
	y := make([]float64, n)
	for i := chpt; i < n; i++ {
		y[i] = bias + slope*float64(i-chpt)
	}
	return Series(y)
}
