package cycler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/clock"
	"github.com/mikesmitty/thermocycle/pkg/heater"
	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/sensor"
	"github.com/mikesmitty/thermocycle/pkg/swma"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
)

// dutyReporter is a heater that knows what it was last driven at.
type dutyReporter interface {
	Duty() float64
}

// VoltageSource is a reported-only sensor that also exposes the raw
// transducer voltage behind its last reading.
type VoltageSource interface {
	sensor.Source
	Voltage() float64
}

type Options struct {
	Source     sensor.Source
	PH         sensor.Source
	Pressure   VoltageSource
	Heater     heater.Sink
	Clock      clock.Clock
	Controller *thermocycle.Controller
	Reports    chan<- report.Report

	Interval time.Duration
	// InputAverage > 1 runs the measurement through a moving average first.
	InputAverage int
	// MaxTemperature forces the heater off at or above it. Zero disables.
	MaxTemperature float64
}

// Loop is the single goroutine that owns the controller.
type Loop struct {
	opts     Options
	avg      *swma.SlidingWindow
	lastTemp float64
}

func NewLoop(opts Options) *Loop {
	if opts.Clock == nil {
		opts.Clock = clock.NewMonotonic()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	l := &Loop{opts: opts}
	if opts.InputAverage > 1 {
		l.avg = swma.NewSlidingWindow(opts.InputAverage)
	}
	return l
}

// Tick samples, updates the controller, drives the heater and publishes the
// outcome. A failed temperature read skips the controller and writes Off.
func (l *Loop) Tick(ctx context.Context) (report.Report, error) {
	now := l.opts.Clock.Now()
	ctrl := l.opts.Controller

	r := report.Report{Time: now}
	duty := thermocycle.Off
	temp, err := l.opts.Source.Read(ctx)
	if err != nil {
		slog.Warn("temperature read failed, heater off", "error", err, "module", "cycler")
		r.SensorError = true
		temp = l.lastTemp
	} else {
		if l.avg != nil {
			temp = l.avg.Add(temp)
		}
		l.lastTemp = temp
		duty = ctrl.Update(temp, now)
		if l.opts.MaxTemperature > 0 && temp >= l.opts.MaxTemperature {
			slog.Error("over temperature, heater off", "temp", temp, "limit", l.opts.MaxTemperature, "module", "cycler")
			duty = thermocycle.Off
		}
	}

	var heaterErr error
	applied := duty
	if err := l.opts.Heater.Set(duty); err != nil {
		heaterErr = fmt.Errorf("heater: %w", err)
	}
	if d, ok := l.opts.Heater.(dutyReporter); ok {
		applied = d.Duty()
	} else if heaterErr != nil {
		applied = thermocycle.Off
	}

	r.Temperature = temp
	r.Duty = applied
	r.Requested = duty
	r.Setpoint = ctrl.Setpoint()
	r.State = ctrl.State()
	r.Integral = ctrl.PID().Integral
	l.readAuxiliary(ctx, &r)
	l.publish(r)
	return r, heaterErr
}

func (l *Loop) readAuxiliary(ctx context.Context, r *report.Report) {
	if l.opts.PH != nil {
		v, err := l.opts.PH.Read(ctx)
		if err != nil {
			slog.Warn("ph read failed", "error", err, "module", "cycler")
		}
		r.PH = v
	}
	if l.opts.Pressure != nil {
		v, err := l.opts.Pressure.Read(ctx)
		if err != nil {
			slog.Warn("pressure read failed", "error", err, "module", "cycler")
		}
		r.Pressure = v
		r.Voltage = l.opts.Pressure.Voltage()
	}
}

func (l *Loop) publish(r report.Report) {
	if l.opts.Reports == nil {
		return
	}
	select {
	case l.opts.Reports <- r:
	default:
		slog.Debug("report dropped, consumers behind", "module", "cycler")
	}
}

// Run ticks every Interval until ctx is done and leaves the heater off.
func (l *Loop) Run(ctx context.Context) func() error {
	return func() error {
		defer func() {
			if err := l.opts.Heater.Set(thermocycle.Off); err != nil {
				slog.Error("failed to stop heater", "error", err, "module", "cycler")
			}
		}()
		t := time.NewTicker(l.opts.Interval)
		defer t.Stop()
		for {
			if _, err := l.Tick(ctx); err != nil {
				slog.Error("tick failed", "error", err, "module", "cycler")
			}
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}
		}
	}
}
