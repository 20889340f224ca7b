package report

import (
	"math"
	"sync"
)

// Extremes tracks the peaks seen since start. Safe for concurrent use.
type Extremes struct {
	mu             sync.Mutex
	count          int
	maxVoltage     float64
	maxPressure    float64
	maxTemperature float64
	minTemperature float64
	maxPH          float64
	minPH          float64
}

type ExtremesSnapshot struct {
	Count          int     `json:"count"`
	MaxVoltage     float64 `json:"max_voltage"`
	MaxPressure    float64 `json:"max_pressure"`
	MaxTemperature float64 `json:"max_temperature"`
	MinTemperature float64 `json:"min_temperature"`
	MaxPH          float64 `json:"max_ph"`
	MinPH          float64 `json:"min_ph"`
}

func (e *Extremes) Observe(r Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r.SensorError {
		return
	}
	if e.count == 0 {
		e.maxVoltage, e.maxPressure = r.Voltage, r.Pressure
		e.maxTemperature, e.minTemperature = r.Temperature, r.Temperature
		e.maxPH, e.minPH = r.PH, r.PH
	}
	e.count++
	e.maxVoltage = math.Max(e.maxVoltage, r.Voltage)
	e.maxPressure = math.Max(e.maxPressure, r.Pressure)
	e.maxTemperature = math.Max(e.maxTemperature, r.Temperature)
	e.minTemperature = math.Min(e.minTemperature, r.Temperature)
	e.maxPH = math.Max(e.maxPH, r.PH)
	e.minPH = math.Min(e.minPH, r.PH)
}

func (e *Extremes) Snapshot() ExtremesSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ExtremesSnapshot{
		Count:          e.count,
		MaxVoltage:     e.maxVoltage,
		MaxPressure:    e.maxPressure,
		MaxTemperature: e.maxTemperature,
		MinTemperature: e.minTemperature,
		MaxPH:          e.maxPH,
		MinPH:          e.minPH,
	}
}

func (e *Extremes) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.count = 0
}
