package sensor

import (
	"context"
	"fmt"

	"github.com/mikesmitty/thermocycle/pkg/ema"
	"github.com/mikesmitty/thermocycle/pkg/trimmean"
)

const (
	PHWindow = 40
	PHSlope  = 3.5
)

// PH reads a probe amplifier one sample per call and reports the trimmed
// mean of the last PHWindow samples.
type PH struct {
	adc    ADC
	offset float64
	smooth *ema.Filter
	avg    *trimmean.Averager
}

func NewPH(adc ADC, offset, alpha float64) *PH {
	smooth := ema.New(alpha)
	return &PH{
		adc:    adc,
		offset: offset,
		smooth: smooth,
		avg:    trimmean.NewAverager(PHWindow, smooth, 0, 14),
	}
}

func (p *PH) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s, err := p.adc.Read()
	if err != nil {
		return 0, fmt.Errorf("ph: %w", err)
	}
	p.avg.Add(microvolts(s.V))
	return p.avg.Read(func(uv float64) float64 {
		return PHSlope*volts(uv) + p.offset
	}), nil
}

func (p *PH) SetOffset(offset float64) {
	p.offset = offset
}

func (p *PH) SetSmoothing(alpha float64) {
	p.smooth.SetAlpha(alpha)
}
