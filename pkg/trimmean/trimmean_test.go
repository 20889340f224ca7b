package trimmean

import (
	"testing"

	"github.com/mikesmitty/thermocycle/pkg/ema"
	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name    string
		samples []int
		want    float64
	}{
		{"empty", nil, 0},
		{"single", []int{7}, 7},
		{"short window is plain mean", []int{1, 2, 3, 10}, 4},
		{"drops min and max", []int{5, 1, 9, 3, 7}, 5},
		{"first two are extremes", []int{1, 9, 5, 5, 5}, 5},
		{"ties drop one occurrence", []int{2, 2, 2, 8, 8}, 4},
		{"constant", []int{4, 4, 4, 4, 4, 4}, 4},
		{"negative values", []int{-10, 0, -2, -4, 6}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Mean(tt.samples), 1e-9)
		})
	}
}

func TestAveragerUsesFilledPortion(t *testing.T) {
	a := NewAverager(40, nil, -100, 100)
	for _, v := range []int{5, 1, 9} {
		a.Add(v)
	}
	assert.Equal(t, 3, a.Len())
	assert.InDelta(t, 5.0, a.Mean(), 1e-9)

	for _, v := range []int{3, 7} {
		a.Add(v)
	}
	assert.InDelta(t, 5.0, a.Mean(), 1e-9)
}

func TestAveragerWraps(t *testing.T) {
	a := NewAverager(3, nil, 0, 100)
	for _, v := range []int{90, 90, 90, 1, 2, 3} {
		a.Add(v)
	}
	assert.Equal(t, 3, a.Len())
	assert.InDelta(t, 2.0, a.Mean(), 1e-9)
}

func TestAveragerReadSmoothsThenClamps(t *testing.T) {
	a := NewAverager(5, ema.New(0.5), 0, 14)
	a.Add(4)

	double := func(v float64) float64 { return v * 2 }
	assert.Equal(t, 8.0, a.Read(double))

	a.Reset()
	a.Add(20)
	// bootstrap again at 40, clamped to the ceiling
	assert.Equal(t, 14.0, a.Read(double))

	a.Add(20)
	a.Add(-30)
	// smoothing is still dominated by the 40 seed, so the ceiling holds
	assert.Equal(t, 14.0, a.Read(double))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 14))
	assert.Equal(t, 14.0, Clamp(15, 0, 14))
	assert.Equal(t, 7.5, Clamp(7.5, 0, 14))
}
