package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThermistorCelsius(t *testing.T) {
	cfg := DefaultThermistorConfig()
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"balanced divider is 25C", cfg.Supply / 2, 25},
		{"zero volts pins low", 0, minCelsius},
		{"full supply pins low", cfg.Supply, minCelsius},
		{"above supply is bounded", 10, minCelsius},
		{"near supply pins high", 3.2, maxCelsius},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cfg.Celsius(tt.v), 0.01)
		})
	}
}

func TestThermistorCelsiusMonotonic(t *testing.T) {
	cfg := DefaultThermistorConfig()
	// higher divider voltage means lower thermistor resistance, so hotter
	assert.Greater(t, cfg.Celsius(2.5), cfg.Celsius(1.65))
	assert.Greater(t, cfg.Celsius(1.65), cfg.Celsius(1.0))
}

func TestThermistorRead(t *testing.T) {
	cfg := DefaultThermistorConfig()
	cfg.Settle = 0
	cfg.Offset = 1.5
	adc := &FakeADC{Volts: []float64{1.65}}
	th := NewThermistor(adc, cfg)

	v, err := th.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 26.5, v, 0.01)
	assert.Equal(t, cfg.Samples, adc.Reads)
}

func TestThermistorReadError(t *testing.T) {
	th := NewThermistor(&FakeADC{Err: errors.New("bus")}, DefaultThermistorConfig())
	_, err := th.Read(context.Background())
	assert.ErrorContains(t, err, "adc: bus")
}

func TestReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewThermistor(&FakeADC{}, DefaultThermistorConfig()).Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPHRead(t *testing.T) {
	p := NewPH(&FakeADC{Volts: []float64{2}}, 0, 0.1)
	v, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.0, v, 1e-3)

	p.SetOffset(-1)
	v, err = p.Read(context.Background())
	require.NoError(t, err)
	// 0.9*7 + 0.1*6
	assert.InDelta(t, 6.9, v, 1e-3)
}

func TestPHClamped(t *testing.T) {
	p := NewPH(&FakeADC{Volts: []float64{5}}, 0, 0.5)
	v, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14.0, v)
}

func TestPressure(t *testing.T) {
	assert.Equal(t, 0.0, PressureFromVolts(PressureVMin))
	assert.Equal(t, 1000.0, PressureFromVolts(PressureVMax))
	assert.InDelta(t, 500.0, PressureFromVolts(2.5), 1e-9)

	p := NewPressure(&FakeADC{Volts: []float64{0.1}}, 0)
	v, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, PressureVMin, p.Voltage())

	p = NewPressure(&FakeADC{Volts: []float64{2.5}}, 5)
	v, err = p.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 505.0, v, 0.01)
	assert.InDelta(t, 2.5, p.Voltage(), 1e-5)
}

func TestRTD(t *testing.T) {
	dev := &FakeEnv{Celsius: 40}
	r := NewRTD(dev, 0.5, 0.5)

	v, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 40.5, v, 1e-6)

	dev.Celsius = 50
	v, err = r.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 45.5, v, 1e-6)

	dev.Err = errors.New("fault")
	_, err = r.Read(context.Background())
	assert.ErrorContains(t, err, "max31865: fault")
}

func TestAmbientChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, run := AmbientChannel(ctx, &FakeEnv{Celsius: 20, Humidity: 50}, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- run() }()

	e := <-c
	assert.InDelta(t, 20.0, e.Temperature, 1e-6)
	assert.InDelta(t, 50.0, e.Humidity, 1e-6)
	assert.Less(t, e.Dewpoint, e.Temperature)

	cancel()
	require.NoError(t, <-done)
}

func TestAmbientChannelSkipsFailedRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dev := &FakeEnv{Celsius: 20, Humidity: 50, Err: errors.New("i2c nack"), FailOn: []int{2}}
	c, run := AmbientChannel(ctx, dev, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- run() }()

	for i := 0; i < 2; i++ {
		e, ok := <-c
		require.True(t, ok)
		assert.InDelta(t, 20.0, e.Temperature, 1e-6)
	}

	cancel()
	require.NoError(t, <-done)
}

func TestAmbientChannelGivesUp(t *testing.T) {
	dev := &FakeEnv{Err: errors.New("nack")}
	c, run := AmbientChannel(context.Background(), dev, time.Millisecond)

	require.NoError(t, run())
	_, ok := <-c
	assert.False(t, ok)
	assert.Equal(t, AmbientFailureLimit, dev.calls)
}

func TestFakeSource(t *testing.T) {
	f := &FakeSource{Values: []float64{1, 2}}
	for _, want := range []float64{1, 2, 2} {
		v, err := f.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}
