package stats

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/report"
	"gonum.org/v1/gonum/stat"
)

// Trend fits a line through the most recent temperature samples.
type Trend struct {
	mu   sync.Mutex
	size int
	x    []float64
	y    []float64
}

type Snapshot struct {
	Slope   float64 `json:"slope"` // °C per second
	StdDev  float64 `json:"stddev"`
	Spread  float64 `json:"spread"`
	Samples int     `json:"samples"`
}

func NewTrend(size int) *Trend {
	if size < 3 {
		size = 3
	}
	return &Trend{
		size: size,
		x:    make([]float64, 0, size),
		y:    make([]float64, 0, size),
	}
}

func (t *Trend) Add(at time.Duration, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.y) == t.size {
		copy(t.x, t.x[1:])
		copy(t.y, t.y[1:])
		t.x = t.x[:t.size-1]
		t.y = t.y[:t.size-1]
	}
	t.x = append(t.x, at.Seconds())
	t.y = append(t.y, value)
}

func (t *Trend) Slope() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, m := t.linearRegression()
	return m
}

func (t *Trend) linearRegression() (float64, float64) {
	if len(t.y) < 2 {
		return 0, 0
	}
	b, m := stat.LinearRegression(t.x, t.y, nil, false)
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, 0
	}
	return b, m
}

func (t *Trend) StdDev() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.y) < 2 {
		return 0
	}
	return stat.StdDev(t.y, nil)
}

// QuantileSpread is the pct quantile of absolute residuals around the fit.
func (t *Trend) QuantileSpread(pct float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.quantileSpread(pct)
}

func (t *Trend) quantileSpread(pct float64) float64 {
	if len(t.y) < 2 {
		return 0
	}
	b, m := t.linearRegression()
	res := make([]float64, len(t.y))
	for i, v := range t.y {
		res[i] = math.Abs(v - (m*t.x[i] + b))
	}
	slices.Sort(res)
	return stat.Quantile(pct, stat.Empirical, res, nil)
}

func (t *Trend) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Snapshot{Samples: len(t.y)}
	if len(t.y) < 2 {
		return s
	}
	_, s.Slope = t.linearRegression()
	s.StdDev = stat.StdDev(t.y, nil)
	s.Spread = t.quantileSpread(0.9)
	return s
}

// Run feeds the trend from reports, skipping ticks with a failed read.
func (t *Trend) Run(ctx context.Context, input <-chan report.Report) func() error {
	return func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-input:
				if !ok {
					return nil
				}
				if r.SensorError {
					continue
				}
				t.Add(r.Time, r.Temperature)
			}
		}
	}
}
