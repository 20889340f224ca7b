package stats

import (
	"context"
	"testing"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendSlope(t *testing.T) {
	tr := NewTrend(5)
	assert.Equal(t, 0.0, tr.Slope())

	for i := 0; i < 8; i++ {
		tr.Add(time.Duration(i)*time.Second, 20+0.5*float64(i))
	}
	assert.InDelta(t, 0.5, tr.Slope(), 1e-9)
	assert.InDelta(t, 0.0, tr.QuantileSpread(0.9), 1e-9)

	s := tr.Snapshot()
	assert.Equal(t, 5, s.Samples)
	assert.InDelta(t, 0.5, s.Slope, 1e-9)
	assert.Greater(t, s.StdDev, 0.0)
}

func TestTrendFlat(t *testing.T) {
	tr := NewTrend(4)
	for i := 0; i < 4; i++ {
		tr.Add(time.Duration(i)*time.Second, 60)
	}
	assert.InDelta(t, 0.0, tr.Slope(), 1e-12)
	assert.InDelta(t, 0.0, tr.StdDev(), 1e-12)
}

func TestTrendDuplicateTimes(t *testing.T) {
	tr := NewTrend(3)
	tr.Add(time.Second, 1)
	tr.Add(time.Second, 2)
	assert.Equal(t, 0.0, tr.Slope())
}

func TestTrendRunSkipsSensorErrors(t *testing.T) {
	tr := NewTrend(10)
	in := make(chan report.Report, 3)
	in <- report.Report{Time: 0, Temperature: 20}
	in <- report.Report{Time: time.Second, Temperature: 500, SensorError: true}
	in <- report.Report{Time: 2 * time.Second, Temperature: 22}
	close(in)

	require.NoError(t, tr.Run(context.Background(), in)())
	s := tr.Snapshot()
	assert.Equal(t, 2, s.Samples)
	assert.InDelta(t, 1.0, s.Slope, 1e-9)
}
