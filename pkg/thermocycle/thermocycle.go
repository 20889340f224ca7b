// Package thermocycle alternates the controlled temperature between a low and
// a high target, dwelling at each extreme before reversing direction.
package thermocycle

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/pid"
)

// Off is the actuator value written while the heater must not drive.
const Off = 0.0

type State int

const (
	Heating State = iota
	Cooling
	Stabilizing
)

func (s State) String() string {
	switch s {
	case Heating:
		return "HEATING"
	case Cooling:
		return "COOLING"
	case Stabilizing:
		return "STABILIZING"
	}
	return "UNKNOWN"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Heating, Cooling, Stabilizing} {
		if string(text) == st.String() {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown cycle state: %q", text)
}

type Limits struct {
	Low       float64
	High      float64
	Threshold float64
	Dwell     time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		Low:       25,
		High:      60,
		Threshold: 2,
		Dwell:     10 * time.Second,
	}
}

// Step is the outcome of one evaluation of the transition table.
type Step struct {
	Next     State
	Entered  time.Duration
	ResetPID bool
}

// Transition evaluates the table once. heldHigh reports whether the target
// held through Stabilizing was the high one.
func Transition(l Limits, current State, entered time.Duration, heldHigh bool, measurement float64, now time.Duration) Step {
	step := Step{Next: current, Entered: entered}
	switch current {
	case Heating:
		if math.Abs(measurement-l.High) <= l.Threshold {
			step.Next, step.Entered = Stabilizing, now
		}
	case Cooling:
		if math.Abs(measurement-l.Low) <= l.Threshold {
			step.Next, step.Entered = Stabilizing, now
		}
	case Stabilizing:
		if now-entered >= l.Dwell {
			step.Next = Heating
			if heldHigh {
				step.Next = Cooling
			}
			step.Entered = now
			step.ResetPID = true
		}
	}
	return step
}

// Controller owns one compensator and decides which target it chases.
type Controller struct {
	pid     pid.Compensator
	limits  Limits
	state   State
	entered time.Duration
}

func New(c pid.Compensator, limits Limits) *Controller {
	return &Controller{
		pid:    c,
		limits: limits,
		state:  Heating,
	}
}

// Update advances the machine by at most one transition, runs the
// compensator against the active target and returns the actuator value.
// While Cooling the compensator still runs but its output is replaced by Off.
func (c *Controller) Update(measurement float64, now time.Duration) float64 {
	c.applyTarget()
	step := Transition(c.limits, c.state, c.entered, c.pid.Setpoint() == c.limits.High, measurement, now)
	if step.Next != c.state {
		slog.Info("cycle state change", "from", c.state, "to", step.Next, "temp", measurement, "elapsed", now, "module", "thermocycle")
	}
	c.state, c.entered = step.Next, step.Entered
	if step.ResetPID {
		c.pid.Reset()
	}
	c.applyTarget()

	output := c.pid.Compute(measurement, now)
	if c.state == Cooling {
		slog.Debug("heater held off while cooling", "discarded", output, "module", "thermocycle")
		return Off
	}
	return output
}

// applyTarget points the compensator at the target of the current state.
// Stabilizing keeps whatever target was last set.
func (c *Controller) applyTarget() {
	switch c.state {
	case Heating:
		c.pid.SetSetpoint(c.limits.High)
	case Cooling:
		c.pid.SetSetpoint(c.limits.Low)
	}
}

func (c *Controller) SetTargets(low, high float64) {
	c.limits.Low = low
	c.limits.High = high
}

func (c *Controller) SetDwell(d time.Duration) {
	c.limits.Dwell = d
}

func (c *Controller) SetThreshold(threshold float64) {
	c.limits.Threshold = threshold
}

func (c *Controller) SetMaxRate(rate float64) {
	c.pid.SetMaxRate(rate)
}

func (c *Controller) SetIntegralLimit(limit float64) {
	c.pid.SetIntegralLimit(limit)
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) StateEntered() time.Duration {
	return c.entered
}

func (c *Controller) Setpoint() float64 {
	return c.pid.Setpoint()
}

func (c *Controller) Limits() Limits {
	return c.limits
}

func (c *Controller) PID() pid.State {
	return c.pid.State()
}
