// Package heater drives the resistive heater and gates it behind a runtime
// enable switch.
package heater

import (
	"log/slog"
	"sync"

	"github.com/mikesmitty/thermocycle/pkg/trimmean"
)

const MaxDuty = 255.0

// Sink accepts a duty in 0..MaxDuty.
type Sink interface {
	Set(duty float64) error
}

// Switched forwards duties to a Sink only while enabled. Disabled, it holds
// the heater at zero regardless of what is requested.
type Switched struct {
	sink    Sink
	enabled bool
	duty    float64
	mu      sync.Mutex
}

func NewSwitched(sink Sink, enabled bool) *Switched {
	return &Switched{sink: sink, enabled: enabled}
}

func (s *Switched) Set(duty float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	duty = trimmean.Clamp(duty, 0, MaxDuty)
	if !s.enabled {
		if duty > 0 {
			slog.Debug("duty requested while heater disabled", "duty", duty, "module", "heater")
		}
		duty = 0
	}
	if err := s.sink.Set(duty); err != nil {
		return err
	}
	s.duty = duty
	return nil
}

func (s *Switched) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		slog.Info("heater enabled", "module", "heater")
	}
	s.enabled = true
}

// Disable turns the heater off immediately and keeps it off until Enable.
func (s *Switched) Disable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		slog.Info("heater disabled", "module", "heater")
	}
	s.enabled = false
	s.duty = 0
	return s.sink.Set(0)
}

// HardStop writes zero without changing the enable state.
func (s *Switched) HardStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duty = 0
	return s.sink.Set(0)
}

func (s *Switched) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Duty is the last value the sink accepted.
func (s *Switched) Duty() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty
}
