// Package sensor turns raw bus readings into engineering units.
package sensor

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// DefaultSettle is the pause between consecutive raw ADC reads.
const DefaultSettle = 100 * time.Microsecond

// Source yields one measurement per call.
type Source interface {
	Read(ctx context.Context) (float64, error)
}

// ADC is a single analog input channel. ads1x15.PinADC satisfies it.
type ADC interface {
	Read() (analog.Sample, error)
}

// EnvSensor is satisfied by the max31865 and sht4x devices.
type EnvSensor interface {
	Sense(e *physic.Env) error
}

// sampleMicrovolts reads n samples from adc, pausing settle between reads.
func sampleMicrovolts(ctx context.Context, adc ADC, n int, settle time.Duration) ([]int, error) {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := adc.Read()
		if err != nil {
			return nil, fmt.Errorf("adc: %w", err)
		}
		out = append(out, microvolts(s.V))
		if settle > 0 && i < n-1 {
			time.Sleep(settle)
		}
	}
	return out, nil
}

func microvolts(v physic.ElectricPotential) int {
	return int(v / physic.MicroVolt)
}

func volts(uv float64) float64 {
	return uv / 1e6
}

func meanInt(v []int) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum int64
	for _, x := range v {
		sum += int64(x)
	}
	return float64(sum) / float64(len(v))
}
