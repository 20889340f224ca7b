package dutycycle

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mikesmitty/thermocycle/pkg/heater"
	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/swma"
)

// DefaultWindow covers ten minutes of one-second ticks.
const DefaultWindow = 600

// DutyCycle is the rolling mean heater duty as a percentage of full power.
type DutyCycle struct {
	mu     sync.Mutex
	window *swma.SlidingWindow
	value  float64
}

func NewDutyCycle(window int) *DutyCycle {
	if window <= 0 {
		window = DefaultWindow
	}
	return &DutyCycle{window: swma.NewSlidingWindow(window)}
}

func (d *DutyCycle) Add(duty float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = d.window.Add(duty) / heater.MaxDuty * 100
	return d.value
}

func (d *DutyCycle) Percent() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

func (d *DutyCycle) Run(ctx context.Context, input <-chan report.Report) func() error {
	return func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-input:
				if !ok {
					return nil
				}
				slog.Debug("duty cycle", "value", d.Add(r.Duty), "module", "dutycycle")
			}
		}
	}
}
