package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/stats"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New(nil)
	m.Observe(report.Report{Temperature: 42, Setpoint: 60, Duty: 200, State: thermocycle.Heating})
	m.Observe(report.Report{Temperature: 999, Setpoint: 60, State: thermocycle.Cooling, SensorError: true})

	assert.Equal(t, 42.0, testutil.ToFloat64(m.temperature))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.duty))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sensorErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.state.WithLabelValues("COOLING")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.state.WithLabelValues("HEATING")))
}

func TestRun(t *testing.T) {
	m := New(nil)
	in := make(chan report.Report, 1)
	in <- report.Report{Temperature: 30}
	close(in)

	run := m.Run(context.Background(), in,
		func() float64 { return 12.5 },
		func() stats.Snapshot { return stats.Snapshot{Slope: 0.25} })
	require.NoError(t, run())
	assert.Equal(t, 12.5, testutil.ToFloat64(m.dutyCycle))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.trendSlope))
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.Observe(report.Report{Temperature: 25.5})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "thermocycle_temperature_celsius 25.5")
	assert.Contains(t, string(body), "thermocycle_ticks_total 1")
}
