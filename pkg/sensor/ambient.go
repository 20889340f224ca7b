package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/env"
	"periph.io/x/conn/v3/physic"
)

// AmbientFailureLimit is how many reads in a row may fail before the ambient
// poller gives up and closes its channel.
const AmbientFailureLimit = 10

// AmbientChannel polls dev every interval and publishes the room conditions.
// A failed read is logged and skipped. After AmbientFailureLimit failures in
// a row the channel is closed and the returned func returns nil.
func AmbientChannel(ctx context.Context, dev EnvSensor, interval time.Duration) (<-chan env.Env, func() error) {
	c := make(chan env.Env, 1)
	ctx, cancelFunc := context.WithCancel(ctx)
	return c, func() error {
		defer cancelFunc()
		defer close(c)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		failures := 0
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				var e physic.Env
				if err := dev.Sense(&e); err != nil {
					failures++
					err = fmt.Errorf("sht4x: %w", err)
					if failures >= AmbientFailureLimit {
						slog.Error("ambient sensor failing, giving up", "error", err, "failures", failures, "module", "sht4x")
						return nil
					}
					slog.Warn("ambient read failed", "error", err, "failures", failures, "module", "sht4x")
					continue
				}
				failures = 0
				en := env.New(e.Temperature.Celsius(), float64(e.Humidity)/float64(physic.PercentRH))
				slog.Debug("ambient reading", "temp", en.Temperature, "humidity", en.Humidity, "module", "sht4x")
				select {
				case c <- en:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}
