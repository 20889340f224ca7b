package mqtt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// SwitchFn registers a Home Assistant switch for name and maps its command
// topic onto onFn/offFn. The state is republished every interval until ctx
// is done. Call it before HomeAssistant so the switch is announced.
func (c *Client) SwitchFn(ctx context.Context, name string, interval time.Duration, onFn func(), offFn func(), stateFn func() bool) func() error {
	e := c.NewEntity(name, KindSwitch)
	c.Register(e)
	commandTopic, stateTopic := e.CommandTopic, e.StateTopic

	return func() error {
		for !c.client.IsConnected() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}

		slog.Debug("subscribing to mqtt switch", "switch", name, "topic", commandTopic, "module", "mqtt")
		err := c.Subscribe(commandTopic, func(client paho.Client, msg paho.Message) {
			slog.Info("mqtt switch command received", "switch", name, "command", string(msg.Payload()), "module", "mqtt")
			if bytes.Equal(bytes.TrimSpace(msg.Payload()), []byte("ON")) {
				onFn()
			} else {
				offFn()
			}
			c.Publish(stateTopic, switchState(stateFn()))
		})
		if err != nil {
			return fmt.Errorf("mqtt switch %s: %w", name, err)
		}

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				if !c.client.IsConnected() {
					slog.Error("mqtt client not connected", "switch", name, "module", "mqtt")
					continue
				}
				c.Publish(stateTopic, switchState(stateFn()))
			}
		}
	}
}

func switchState(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
