// Package pid implements the compensator that drives the heater duty.
//
// Controller is a positional PID with derivative-on-measurement, an integral
// accumulator clamped to ±IntegralLimit, output-rate limiting and output
// clamping with anti-windup. Time is supplied by the caller as elapsed
// monotonic time so the law can be driven deterministically.
package pid

import (
	"math"
	"time"
)

const (
	DefaultMinOutput     = 0.0
	DefaultMaxOutput     = 255.0
	DefaultMaxRate       = 50.0 // output units per second
	DefaultIntegralLimit = 30.0
)

// Compensator is the control law owned by the cycle controller.
type Compensator interface {
	SetSetpoint(target float64)
	Setpoint() float64
	Compute(measurement float64, now time.Duration) float64
	Reset()
	SetMaxRate(rate float64)
	SetIntegralLimit(limit float64)
	State() State
}

type Config struct {
	Kp, Ki, Kd    float64
	MinOutput     float64
	MaxOutput     float64
	MaxRate       float64
	IntegralLimit float64
}

// DefaultConfig returns the given gains with the default output range, rate
// and integral limit.
func DefaultConfig(kp, ki, kd float64) Config {
	return Config{
		Kp:            kp,
		Ki:            ki,
		Kd:            kd,
		MinOutput:     DefaultMinOutput,
		MaxOutput:     DefaultMaxOutput,
		MaxRate:       DefaultMaxRate,
		IntegralLimit: DefaultIntegralLimit,
	}
}

func (c Config) normalize() Config {
	if c.MinOutput > c.MaxOutput {
		c.MinOutput, c.MaxOutput = c.MaxOutput, c.MinOutput
	}
	if c.MaxRate <= 0 {
		c.MaxRate = DefaultMaxRate
	}
	if c.IntegralLimit <= 0 {
		c.IntegralLimit = DefaultIntegralLimit
	}
	return c
}

// State is a snapshot of the compensator's memory and last computed terms.
type State struct {
	Setpoint    float64
	Error       float64
	Integral    float64
	P, I, D     float64
	LastInput   float64
	LastOutput  float64
	LastTime    time.Duration
	Initialized bool
}

type Controller struct {
	cfg      Config
	setpoint float64

	integral    float64
	lastInput   float64
	lastOutput  float64
	lastTime    time.Duration
	initialized bool

	err     float64
	p, i, d float64
}

func New(cfg Config) *Controller {
	cfg = cfg.normalize()
	return &Controller{
		cfg:        cfg,
		lastOutput: cfg.MinOutput,
	}
}

// SetSetpoint clears the integral, the derivative memory and the time
// reference whenever the target actually changes.
func (c *Controller) SetSetpoint(target float64) {
	if target != c.setpoint {
		c.integral = 0
		c.lastInput = 0
		c.initialized = false
	}
	c.setpoint = target
}

func (c *Controller) Setpoint() float64 {
	return c.setpoint
}

// Compute advances the law to now. The first call after construction, Reset
// or a setpoint change only records the time reference and returns
// MinOutput.
func (c *Controller) Compute(measurement float64, now time.Duration) float64 {
	if math.IsNaN(measurement) || math.IsInf(measurement, 0) {
		return c.lastOutput
	}
	if !c.initialized {
		c.initialized = true
		c.lastTime = now
		c.lastOutput = c.cfg.MinOutput
		return c.cfg.MinOutput
	}

	dt := (now - c.lastTime).Seconds()
	if dt < 0 {
		dt = 0
	}
	e := c.setpoint - measurement
	c.err = e

	c.p = c.cfg.Kp * e

	c.integral = clamp(c.integral+e*dt, -c.cfg.IntegralLimit, c.cfg.IntegralLimit)
	c.i = c.cfg.Ki * c.integral

	c.d = 0
	if dt > 0 {
		c.d = -c.cfg.Kd * (measurement - c.lastInput) / dt
	}

	output := c.p + c.i + c.d

	if dt > 0 {
		rate := (output - c.lastOutput) / dt
		if rate > c.cfg.MaxRate {
			output = c.lastOutput + c.cfg.MaxRate*dt
		} else if rate < -c.cfg.MaxRate {
			output = c.lastOutput - c.cfg.MaxRate*dt
		}
	} else {
		// No time has passed, so no change is within the rate limit.
		output = c.lastOutput
	}

	if output > c.cfg.MaxOutput || output < c.cfg.MinOutput {
		output = clamp(output, c.cfg.MinOutput, c.cfg.MaxOutput)
		// Back out this tick's error so a saturated output cannot wind the
		// integral up.
		c.integral = clamp(c.integral-e*dt, -c.cfg.IntegralLimit, c.cfg.IntegralLimit)
	}

	c.lastInput = measurement
	c.lastOutput = output
	c.lastTime = now
	return output
}

func (c *Controller) Reset() {
	c.integral = 0
	c.lastInput = 0
	c.initialized = false
	c.lastOutput = c.cfg.MinOutput
}

// SetMaxRate ignores non-positive rates.
func (c *Controller) SetMaxRate(rate float64) {
	if rate > 0 {
		c.cfg.MaxRate = rate
	}
}

// SetIntegralLimit ignores non-positive limits. The accumulator is pulled
// inside a tighter limit immediately.
func (c *Controller) SetIntegralLimit(limit float64) {
	if limit > 0 {
		c.cfg.IntegralLimit = limit
		c.integral = clamp(c.integral, -limit, limit)
	}
}

func (c *Controller) Config() Config {
	return c.cfg
}

func (c *Controller) State() State {
	return State{
		Setpoint:    c.setpoint,
		Error:       c.err,
		Integral:    c.integral,
		P:           c.p,
		I:           c.i,
		D:           c.d,
		LastInput:   c.lastInput,
		LastOutput:  c.lastOutput,
		LastTime:    c.lastTime,
		Initialized: c.initialized,
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

var _ Compensator = (*Controller)(nil)
