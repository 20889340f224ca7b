// Package ema implements a single-pole exponential moving average.
package ema

// DefaultAlpha is the smoothing coefficient used by New when none is given.
// Lower alpha means more smoothing.
const DefaultAlpha = 0.2

type Filter struct {
	alpha  float64
	value  float64
	seeded bool
}

// New returns a filter with the given alpha, falling back to DefaultAlpha
// when alpha is outside [0,1].
func New(alpha float64) *Filter {
	f := &Filter{alpha: DefaultAlpha}
	f.SetAlpha(alpha)
	return f
}

// Add feeds v into the average. The first sample seeds the average and is
// returned unchanged.
func (f *Filter) Add(v float64) float64 {
	if !f.seeded {
		f.value = v
		f.seeded = true
		return v
	}
	f.value = f.alpha*v + (1-f.alpha)*f.value
	return f.value
}

// SetAlpha ignores values outside [0,1].
func (f *Filter) SetAlpha(alpha float64) {
	if alpha >= 0 && alpha <= 1 {
		f.alpha = alpha
	}
}

func (f *Filter) Alpha() float64 {
	return f.alpha
}

func (f *Filter) Value() float64 {
	return f.value
}

func (f *Filter) Seeded() bool {
	return f.seeded
}

func (f *Filter) Reset() {
	f.value = 0
	f.seeded = false
}
