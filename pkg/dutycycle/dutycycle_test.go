package dutycycle

import (
	"context"
	"testing"

	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDutyCyclePercent(t *testing.T) {
	d := NewDutyCycle(4)
	assert.InDelta(t, 100.0, d.Add(255), 1e-9)
	assert.InDelta(t, 50.0, d.Add(0), 1e-9)
	d.Add(0)
	d.Add(0)
	assert.InDelta(t, 0.0, d.Add(0), 1e-9)
	assert.InDelta(t, 0.0, d.Percent(), 1e-9)
}

func TestDutyCycleRun(t *testing.T) {
	d := NewDutyCycle(0)
	in := make(chan report.Report, 2)
	in <- report.Report{Duty: 255}
	in <- report.Report{Duty: 127.5}
	close(in)

	require.NoError(t, d.Run(context.Background(), in)())
	assert.InDelta(t, 75.0, d.Percent(), 1e-9)
}
