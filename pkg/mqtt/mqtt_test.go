package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/stats"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	s := NewSample(3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Ready())
	}
	assert.Equal(t, []bool{false, false, true, false, false, true}, got)

	every := NewSample(0)
	assert.True(t, every.Ready())
	assert.True(t, every.Ready())
}

func TestEntityRegistration(t *testing.T) {
	c := newClient(nil, "bench rig", "thermocycle/bench", 1)
	e := c.NewEntity("Ambient Dewpoint", KindTemperature)
	assert.Equal(t, "Bench Rig", e.Device.Name)
	assert.Equal(t, "thermocycle/bench/sensor/ambient_dewpoint", e.StateTopic)
	assert.Equal(t, "thermocycle/bench/status", e.AvailabilityTopic)
	assert.Equal(t, "temperature", e.DeviceClass)
	assert.Equal(t, "measurement", e.StateClass)
	assert.Equal(t, "°C", e.UnitOfMeasurement)
	assert.Empty(t, e.CommandTopic)

	id := c.Register(e)
	assert.Equal(t, "bench_rig_ambient_dewpoint", id)
	assert.Equal(t, "homeassistant/sensor/bench_rig_ambient_dewpoint/config", c.entities[id].configTopic)
	assert.Equal(t, []string{"bench_rig"}, c.entities[id].Device.Identifiers)

	assert.Error(t, c.PublishState("missing", "1"))
}

func TestSwitchEntity(t *testing.T) {
	c := newClient(nil, "rig", "thermocycle/rig", 1)
	e := c.NewEntity("Heater Enable", KindSwitch)
	assert.Equal(t, "thermocycle/rig/switch/heater_enable/state", e.StateTopic)
	assert.Equal(t, "thermocycle/rig/switch/heater_enable/command", e.CommandTopic)
	assert.Empty(t, e.StateClass)

	id := c.Register(e)
	assert.Equal(t, "homeassistant/switch/rig_heater_enable/config", c.entities[id].configTopic)
}

func TestCycleStateEntity(t *testing.T) {
	c := newClient(nil, "rig", "thermocycle/rig", 1)
	e := c.NewEntity("Cycle State", KindCycleState)
	assert.Equal(t, "enum", e.DeviceClass)
	assert.Equal(t, []string{"HEATING", "COOLING", "STABILIZING"}, e.Options)
	assert.Empty(t, e.StateClass)
}

func TestEntityJSON(t *testing.T) {
	c := newClient(nil, "rig", "thermocycle/rig", 1)
	b, err := json.Marshal(c.NewEntity("pH", KindPH))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "ph", m["device_class"])
	assert.Equal(t, "thermocycle/rig/sensor/ph", m["state_topic"])
	assert.Equal(t, 2.0, m["suggested_display_precision"])
	assert.NotContains(t, m, "configTopic")
	assert.NotContains(t, m, "component")
	assert.NotContains(t, m, "command_topic")
}

func TestReportValues(t *testing.T) {
	r := report.Report{
		Temperature: 58.456,
		Setpoint:    60,
		Duty:        127.6,
		State:       thermocycle.Stabilizing,
		PH:          7.1,
		Pressure:    500,
		Voltage:     2.5,
		Integral:    1.23456,
	}
	extras := Extras{
		DutyCycle: func() float64 { return 42.5 },
		Trend:     func() stats.Snapshot { return stats.Snapshot{Slope: 0.01} },
	}
	v := ReportValues(r, extras)
	assert.Equal(t, "58.46", v["Temperature"])
	assert.Equal(t, "60.00", v["Setpoint"])
	assert.Equal(t, "128", v["Heater Duty"])
	assert.Equal(t, "STABILIZING", v["Cycle State"])
	assert.Equal(t, "2.500", v["Pressure Voltage"])
	assert.Equal(t, "1.2346", v["PID Integral"])
	assert.Equal(t, "42.50", v["Duty Cycle"])
	assert.Equal(t, "0.600", v["Temperature Trend"])
}

func TestReportValuesSensorError(t *testing.T) {
	v := ReportValues(report.Report{SensorError: true}, Extras{})
	assert.NotContains(t, v, "Temperature")
	assert.NotContains(t, v, "Duty Cycle")
	assert.Equal(t, "0", v["Heater Duty"])
}

func TestSwitchState(t *testing.T) {
	assert.Equal(t, "ON", switchState(true))
	assert.Equal(t, "OFF", switchState(false))
}
