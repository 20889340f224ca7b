package sensor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikesmitty/thermocycle/pkg/ema"
	"periph.io/x/conn/v3/physic"
)

// RTD reads a platinum RTD through a MAX31865 converter.
type RTD struct {
	dev    EnvSensor
	offset float64
	smooth *ema.Filter
}

func NewRTD(dev EnvSensor, alpha, offset float64) *RTD {
	return &RTD{
		dev:    dev,
		offset: offset,
		smooth: ema.New(alpha),
	}
}

func (r *RTD) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var e physic.Env
	if err := r.dev.Sense(&e); err != nil {
		return 0, fmt.Errorf("max31865: %w", err)
	}
	c := e.Temperature.Celsius() + r.offset
	slog.Debug("rtd reading", "value", c, "module", "max31865")
	return r.smooth.Add(c), nil
}

func (r *RTD) SetSmoothing(alpha float64) {
	r.smooth.SetAlpha(alpha)
}

func (r *RTD) SetOffset(offset float64) {
	r.offset = offset
}
