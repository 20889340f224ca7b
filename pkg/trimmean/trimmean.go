// Package trimmean averages raw ADC windows while discarding the single
// lowest and highest sample.
package trimmean

import (
	"github.com/mikesmitty/thermocycle/pkg/ema"
)

// MinTrimmed is the smallest window for which the extremes are discarded.
const MinTrimmed = 5

// Mean returns the arithmetic mean of samples, excluding exactly one minimum
// and one maximum sample when there are at least MinTrimmed of them.
func Mean(samples []int) float64 {
	n := len(samples)
	if n <= 0 {
		return 0
	}
	if n < MinTrimmed {
		var sum int64
		for _, v := range samples {
			sum += int64(v)
		}
		return float64(sum) / float64(n)
	}

	min, max := samples[0], samples[1]
	if min > max {
		min, max = max, min
	}
	var sum int64
	for _, v := range samples[2:] {
		switch {
		case v < min:
			sum += int64(min)
			min = v
		case v > max:
			sum += int64(max)
			max = v
		default:
			sum += int64(v)
		}
	}
	return float64(sum) / float64(n-2)
}

// Averager keeps a fixed window of raw samples and produces a trimmed,
// optionally smoothed and clamped reading.
type Averager struct {
	window []int
	index  int
	count  int

	smooth   *ema.Filter
	min, max float64
}

// NewAverager returns an averager over size samples whose output is clamped
// to [min, max]. smooth may be nil to skip exponential smoothing.
func NewAverager(size int, smooth *ema.Filter, min, max float64) *Averager {
	if size < 1 {
		size = 1
	}
	return &Averager{
		window: make([]int, size),
		smooth: smooth,
		min:    min,
		max:    max,
	}
}

func (a *Averager) Add(v int) {
	a.window[a.index] = v
	a.index = (a.index + 1) % len(a.window)
	if a.count < len(a.window) {
		a.count++
	}
}

// Mean is the trimmed mean over the filled part of the window.
func (a *Averager) Mean() float64 {
	return Mean(a.window[:a.count])
}

// Read converts the trimmed mean, smooths it and clamps the result. A nil
// convert passes the mean through.
func (a *Averager) Read(convert func(float64) float64) float64 {
	v := a.Mean()
	if convert != nil {
		v = convert(v)
	}
	if a.smooth != nil {
		v = a.smooth.Add(v)
	}
	return Clamp(v, a.min, a.max)
}

func (a *Averager) Len() int {
	return a.count
}

func (a *Averager) Reset() {
	a.index = 0
	a.count = 0
	if a.smooth != nil {
		a.smooth.Reset()
	}
}

func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
