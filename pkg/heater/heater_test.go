package heater

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
)

func TestSwitchedClamps(t *testing.T) {
	f := &Fake{}
	s := NewSwitched(f, true)

	assert.NoError(t, s.Set(300))
	assert.NoError(t, s.Set(-5))
	assert.NoError(t, s.Set(100))
	assert.Equal(t, []float64{MaxDuty, 0, 100}, f.Duties())
	assert.Equal(t, 100.0, s.Duty())
}

func TestSwitchedDisabled(t *testing.T) {
	f := &Fake{}
	s := NewSwitched(f, true)
	assert.NoError(t, s.Set(120))

	assert.NoError(t, s.Disable())
	assert.False(t, s.Enabled())
	assert.Equal(t, 0.0, f.Last())

	assert.NoError(t, s.Set(200))
	assert.Equal(t, 0.0, f.Last())
	assert.Equal(t, 0.0, s.Duty())

	s.Enable()
	assert.NoError(t, s.Set(200))
	assert.Equal(t, 200.0, f.Last())
}

func TestHardStopKeepsEnable(t *testing.T) {
	f := &Fake{}
	s := NewSwitched(f, true)
	assert.NoError(t, s.Set(80))
	assert.NoError(t, s.HardStop())
	assert.True(t, s.Enabled())
	assert.Equal(t, 0.0, f.Last())
}

func TestSwitchedPropagatesError(t *testing.T) {
	s := NewSwitched(&Fake{Err: errors.New("gpio")}, true)
	assert.EqualError(t, s.Set(10), "gpio")
	assert.Equal(t, 0.0, s.Duty())
}

func TestDutyFraction(t *testing.T) {
	assert.Equal(t, gpio.Duty(0), DutyFraction(-1))
	assert.Equal(t, gpio.Duty(0), DutyFraction(0))
	assert.Equal(t, gpio.DutyMax, DutyFraction(MaxDuty))
	assert.Equal(t, gpio.DutyMax, DutyFraction(1000))
	assert.InDelta(t, float64(gpio.DutyHalf), float64(DutyFraction(MaxDuty/2)), 1)
}

func TestFakeLast(t *testing.T) {
	f := &Fake{}
	assert.Equal(t, -1.0, f.Last())
}
