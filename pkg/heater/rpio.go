package heater

import (
	"fmt"
	"math"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPIO drives the heater from the BCM2835 hardware PWM block through
// /dev/gpiomem, for boards where periph.io PWM is unavailable.
type RPIO struct {
	pin rpio.Pin
}

func NewRPIO(bcmPin, freq int) (*RPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio: %w", err)
	}
	pin := rpio.Pin(bcmPin)
	pin.Mode(rpio.Pwm)
	pin.Freq(freq * int(MaxDuty))
	pin.DutyCycle(0, uint32(MaxDuty))
	return &RPIO{pin: pin}, nil
}

func (r *RPIO) Set(duty float64) error {
	d := uint32(math.Round(math.Max(0, math.Min(duty, MaxDuty))))
	r.pin.DutyCycle(d, uint32(MaxDuty))
	return nil
}

func (r *RPIO) Close() error {
	r.pin.DutyCycle(0, uint32(MaxDuty))
	return rpio.Close()
}
