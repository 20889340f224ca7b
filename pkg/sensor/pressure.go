package sensor

import (
	"context"

	"github.com/mikesmitty/thermocycle/pkg/trimmean"
)

// Ratiometric transducer output span and full scale.
const (
	PressureVMin = 0.5
	PressureVMax = 4.5
	PressureMax  = 100.0
)

type Pressure struct {
	adc     ADC
	samples int
	offset  float64
	voltage float64
}

func NewPressure(adc ADC, offset float64) *Pressure {
	return &Pressure{adc: adc, samples: 10, offset: offset, voltage: PressureVMin}
}

// Read samples the transducer and returns the scaled pressure. The bounded
// voltage behind it is kept for Voltage.
func (p *Pressure) Read(ctx context.Context) (float64, error) {
	samples, err := sampleMicrovolts(ctx, p.adc, p.samples, DefaultSettle)
	if err != nil {
		return 0, err
	}
	p.voltage = trimmean.Clamp(volts(meanInt(samples)), PressureVMin, PressureVMax)
	return PressureFromVolts(p.voltage) + p.offset, nil
}

// Voltage is the bounded transducer voltage from the last Read.
func (p *Pressure) Voltage() float64 {
	return p.voltage
}

func (p *Pressure) SetOffset(offset float64) {
	p.offset = offset
}

func PressureFromVolts(v float64) float64 {
	pressure := (v - PressureVMin) * PressureMax / (PressureVMax - PressureVMin) * 10
	return trimmean.Clamp(pressure, 0, PressureMax*10)
}
