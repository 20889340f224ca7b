package sensor

import (
	"context"
	"math"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/ema"
	"github.com/mikesmitty/thermocycle/pkg/trimmean"
)

const (
	kelvinOffset = 273.15
	minCelsius   = -40.0
	maxCelsius   = 125.0
)

type ThermistorConfig struct {
	Supply  float64 // divider supply, volts
	SeriesR float64 // fixed resistor, ohms
	R25     float64 // thermistor resistance at 25 °C, ohms
	Beta    float64
	Samples int
	Settle  time.Duration
	Alpha   float64
	Offset  float64
}

func DefaultThermistorConfig() ThermistorConfig {
	return ThermistorConfig{
		Supply:  3.3,
		SeriesR: 10000,
		R25:     10000,
		Beta:    3950,
		Samples: 10,
		Settle:  DefaultSettle,
		Alpha:   0.1,
	}
}

// Thermistor is an NTC thermistor in a voltage divider read through an ADC.
type Thermistor struct {
	adc    ADC
	cfg    ThermistorConfig
	smooth *ema.Filter
}

func NewThermistor(adc ADC, cfg ThermistorConfig) *Thermistor {
	if cfg.Samples < 1 {
		cfg.Samples = 1
	}
	return &Thermistor{
		adc:    adc,
		cfg:    cfg,
		smooth: ema.New(cfg.Alpha),
	}
}

// Read averages a burst of samples, converts to °C and smooths the result.
func (t *Thermistor) Read(ctx context.Context) (float64, error) {
	samples, err := sampleMicrovolts(ctx, t.adc, t.cfg.Samples, t.cfg.Settle)
	if err != nil {
		return 0, err
	}
	c := t.cfg.Celsius(volts(meanInt(samples))) + t.cfg.Offset
	return t.smooth.Add(c), nil
}

func (t *Thermistor) SetSmoothing(alpha float64) {
	t.smooth.SetAlpha(alpha)
}

func (t *Thermistor) SetOffset(offset float64) {
	t.cfg.Offset = offset
}

// Celsius converts a divider voltage with the Beta model. The result is
// bounded to the thermistor's rated range.
func (cfg ThermistorConfig) Celsius(v float64) float64 {
	if v <= 0 {
		v = 0.001
	}
	if v > cfg.Supply {
		v = cfg.Supply
	}
	r := cfg.SeriesR * (cfg.Supply/v - 1)
	if r <= 0 {
		r = 0.001
	}
	steinhart := math.Log(r/cfg.R25)/cfg.Beta + 1/(25+kelvinOffset)
	return trimmean.Clamp(1/steinhart-kelvinOffset, minCelsius, maxCelsius)
}
