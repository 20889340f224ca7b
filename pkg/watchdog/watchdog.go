package watchdog

import (
	"context"
	"log/slog"
	"time"
)

// NewWatchdog calls shutdown whenever a full interval passes without a
// value on input. It keeps watching afterwards so a recovered producer
// re-arms it.
func NewWatchdog[T any](ctx context.Context, interval time.Duration, shutdown func() error, input <-chan T) func() error {
	return func() error {
		t := time.NewTicker(interval)
		defer t.Stop()
		awake := true
		tripped := false
		slog.Debug("watchdog started", "timeout", interval, "module", "watchdog")
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-input:
				if !ok {
					return nil
				}
				if tripped {
					slog.Info("watchdog reports resumed", "module", "watchdog")
				}
				awake, tripped = true, false
			case <-t.C:
				if !awake && !tripped {
					slog.Error("watchdog timeout, stopping heater", "timeout", interval, "module", "watchdog")
					if err := shutdown(); err != nil {
						return err
					}
					tripped = true
				}
				awake = false
			}
		}
	}
}
