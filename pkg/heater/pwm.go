package heater

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

const DefaultFrequency = physic.KiloHertz

// PWM drives a MOSFET gate from a periph.io GPIO pin. The optional enable
// pin is raised at start and lowered by Close.
type PWM struct {
	freq   physic.Frequency
	pin    gpio.PinOut
	enable gpio.PinOut
}

func NewPWM(pinName, enableName string, freq physic.Frequency) (*PWM, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("failed to find heater pin %q", pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to set heater pin low: %w", err)
	}
	p := &PWM{freq: freq, pin: pin}
	if enableName != "" {
		en := gpioreg.ByName(enableName)
		if en == nil {
			return nil, fmt.Errorf("failed to find enable pin %q", enableName)
		}
		if err := en.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("failed to set enable pin high: %w", err)
		}
		p.enable = en
	}
	return p, nil
}

func (p *PWM) Set(duty float64) error {
	if duty <= 0 {
		return p.pin.Out(gpio.Low)
	}
	if err := p.pin.PWM(DutyFraction(duty), p.freq); err != nil {
		return fmt.Errorf("failed to set heater pwm: %w", err)
	}
	return nil
}

func (p *PWM) Close() error {
	errA := p.pin.Out(gpio.Low)
	var errB error
	if p.enable != nil {
		errB = p.enable.Out(gpio.Low)
	}
	if errA != nil || errB != nil {
		return fmt.Errorf("failed to stop heater: %v, %v", errA, errB)
	}
	return nil
}

// DutyFraction scales a 0..MaxDuty duty onto the gpio duty range.
func DutyFraction(duty float64) gpio.Duty {
	if duty >= MaxDuty {
		return gpio.DutyMax
	}
	if duty <= 0 {
		return 0
	}
	return gpio.Duty(duty / MaxDuty * float64(gpio.DutyMax))
}
