package timedataset

import (
	"time"
)

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}
	return t[len(t)-1]
}

// EstimateFreq returns the most common spacing between consecutive times. Ties go to the
// smaller spacing.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		frequencies[t[i].Sub(t[i-1])] += 1
	}

	var maxCnt int
	var maxDelta time.Duration
	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Extend generates n times after the end of the slice spaced by freq
func (t TimeSlice) Extend(n int, freq time.Duration) TimeSlice {
	end := t.EndTime()
	out := make(TimeSlice, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, end.Add(time.Duration(i)*freq))
	}
	return out
}
