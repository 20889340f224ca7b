package pid

import (
	"math"
	"time"

	einride "go.einride.tech/pid"
)

// DefaultLowPass is the derivative filter time constant used when none is
// configured. einride divides by it, so it must never be zero.
const DefaultLowPass = time.Second

// AntiWindup runs einride's back-calculation anti-windup controller behind
// the Compensator contract. Its derivative acts on the filtered error rather
// than the measurement; bootstrap, integral limit and rate limit match
// Controller.
type AntiWindup struct {
	c        einride.AntiWindupController
	cfg      Config
	setpoint float64

	lastOutput  float64
	lastTime    time.Duration
	initialized bool
}

func NewAntiWindup(cfg Config, antiWindupGain float64, lowPass time.Duration) *AntiWindup {
	cfg = cfg.normalize()
	if lowPass <= 0 {
		lowPass = DefaultLowPass
	}
	return &AntiWindup{
		c: einride.AntiWindupController{
			Config: einride.AntiWindupControllerConfig{
				ProportionalGain:    cfg.Kp,
				IntegralGain:        cfg.Ki,
				DerivativeGain:      cfg.Kd,
				AntiWindUpGain:      antiWindupGain,
				LowPassTimeConstant: lowPass,
				MaxOutput:           cfg.MaxOutput,
				MinOutput:           cfg.MinOutput,
			},
		},
		cfg:        cfg,
		lastOutput: cfg.MinOutput,
	}
}

func (a *AntiWindup) SetSetpoint(target float64) {
	if target != a.setpoint {
		a.c.Reset()
		a.initialized = false
	}
	a.setpoint = target
}

func (a *AntiWindup) Setpoint() float64 {
	return a.setpoint
}

func (a *AntiWindup) Compute(measurement float64, now time.Duration) float64 {
	if math.IsNaN(measurement) || math.IsInf(measurement, 0) {
		return a.lastOutput
	}
	if !a.initialized {
		a.initialized = true
		a.lastTime = now
		a.lastOutput = a.cfg.MinOutput
		return a.cfg.MinOutput
	}
	elapsed := now - a.lastTime
	if elapsed <= 0 {
		return a.lastOutput
	}

	a.c.Update(einride.AntiWindupControllerInput{
		ReferenceSignal:  a.setpoint,
		ActualSignal:     measurement,
		SamplingInterval: elapsed,
	})
	a.c.State.ControlErrorIntegral = clamp(a.c.State.ControlErrorIntegral, -a.cfg.IntegralLimit, a.cfg.IntegralLimit)

	dt := elapsed.Seconds()
	output := a.c.State.ControlSignal
	if rate := (output - a.lastOutput) / dt; rate > a.cfg.MaxRate {
		output = a.lastOutput + a.cfg.MaxRate*dt
	} else if rate < -a.cfg.MaxRate {
		output = a.lastOutput - a.cfg.MaxRate*dt
	}
	output = clamp(output, a.cfg.MinOutput, a.cfg.MaxOutput)

	a.lastOutput = output
	a.lastTime = now
	return output
}

func (a *AntiWindup) Reset() {
	a.c.Reset()
	a.initialized = false
	a.lastOutput = a.cfg.MinOutput
}

func (a *AntiWindup) SetMaxRate(rate float64) {
	if rate > 0 {
		a.cfg.MaxRate = rate
	}
}

func (a *AntiWindup) SetIntegralLimit(limit float64) {
	if limit > 0 {
		a.cfg.IntegralLimit = limit
		a.c.State.ControlErrorIntegral = clamp(a.c.State.ControlErrorIntegral, -limit, limit)
	}
}

func (a *AntiWindup) State() State {
	s := a.c.State
	return State{
		Setpoint:    a.setpoint,
		Error:       s.ControlError,
		Integral:    s.ControlErrorIntegral,
		P:           a.cfg.Kp * s.ControlError,
		I:           a.cfg.Ki * s.ControlErrorIntegral,
		D:           a.cfg.Kd * s.ControlErrorDerivative,
		LastOutput:  a.lastOutput,
		LastTime:    a.lastTime,
		Initialized: a.initialized,
	}
}

var _ Compensator = (*AntiWindup)(nil)
