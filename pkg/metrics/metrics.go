// Package metrics exports each tick as Prometheus gauges.
package metrics

import (
	"context"
	"net/http"

	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/stats"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "thermocycle"

type Metrics struct {
	gatherer     prometheus.Gatherer
	temperature  prometheus.Gauge
	setpoint     prometheus.Gauge
	duty         prometheus.Gauge
	state        *prometheus.GaugeVec
	ph           prometheus.Gauge
	pressure     prometheus.Gauge
	voltage      prometheus.Gauge
	integral     prometheus.Gauge
	dutyCycle    prometheus.Gauge
	trendSlope   prometheus.Gauge
	ticks        prometheus.Counter
	sensorErrors prometheus.Counter
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

// New registers the collectors with reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer:    reg,
		temperature: gauge("temperature_celsius", "Filtered controlled temperature."),
		setpoint:    gauge("setpoint_celsius", "Target the compensator is chasing."),
		duty:        gauge("heater_duty", "Heater duty written this tick (0-255)."),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_state",
			Help:      "1 for the active cycle state, 0 otherwise.",
		}, []string{"state"}),
		ph:         gauge("ph", "Smoothed pH reading."),
		pressure:   gauge("pressure", "Scaled pressure reading."),
		voltage:    gauge("pressure_voltage_volts", "Bounded pressure transducer voltage."),
		integral:   gauge("pid_integral", "Compensator integral accumulator."),
		dutyCycle:  gauge("duty_cycle_percent", "Rolling mean heater duty as a percentage."),
		trendSlope: gauge("temperature_trend_celsius_per_second", "Slope of the recent temperature fit."),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Control loop ticks reported.",
		}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_errors_total",
			Help:      "Ticks whose temperature read failed.",
		}),
	}
	reg.MustRegister(
		m.temperature,
		m.setpoint,
		m.duty,
		m.state,
		m.ph,
		m.pressure,
		m.voltage,
		m.integral,
		m.dutyCycle,
		m.trendSlope,
		m.ticks,
		m.sensorErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Observe(r report.Report) {
	m.ticks.Inc()
	if r.SensorError {
		m.sensorErrors.Inc()
	} else {
		m.temperature.Set(r.Temperature)
	}
	m.setpoint.Set(r.Setpoint)
	m.duty.Set(r.Duty)
	for _, s := range []thermocycle.State{thermocycle.Heating, thermocycle.Cooling, thermocycle.Stabilizing} {
		v := 0.0
		if s == r.State {
			v = 1
		}
		m.state.WithLabelValues(s.String()).Set(v)
	}
	m.ph.Set(r.PH)
	m.pressure.Set(r.Pressure)
	m.voltage.Set(r.Voltage)
	m.integral.Set(r.Integral)
}

// Run observes every report and samples dutyCycle and trend alongside it.
// Either func may be nil.
func (m *Metrics) Run(ctx context.Context, input <-chan report.Report, dutyCycle func() float64, trend func() stats.Snapshot) func() error {
	return func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-input:
				if !ok {
					return nil
				}
				m.Observe(r)
				if dutyCycle != nil {
					m.dutyCycle.Set(dutyCycle())
				}
				if trend != nil {
					m.trendSlope.Set(trend().Slope)
				}
			}
		}
	}
}
