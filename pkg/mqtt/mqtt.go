package mqtt

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikesmitty/thermocycle/pkg/env"
	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/stats"
)

const topicRoot = "thermocycle"

type Client struct {
	client      paho.Client
	clientID    string
	topicPrefix string
	qos         byte
	retained    bool
	sampleRate  int
	entities    map[string]Entity
	mu          sync.Mutex
}

func NewClient(broker *url.URL, sampleRate int) *Client {
	hostname, _ := os.Hostname()
	hostname = strings.Split(hostname, ".")[0]
	clientID := hostname
	if clientID == "" {
		sum := md5.Sum([]byte(strconv.FormatInt(time.Now().UnixNano(), 10)))
		clientID = hex.EncodeToString(sum[:])
	}

	topicPrefix := topicRoot + "/" + clientID
	slog.Info("connecting to mqtt", "url", broker, "clientid", clientID, "module", "mqtt")
	pc := paho.NewClient(&paho.ClientOptions{
		Servers:        []*url.URL{broker},
		ClientID:       clientID,
		ConnectRetry:   true,
		ConnectTimeout: 30 * time.Second,
		WillEnabled:    true,
		WillTopic:      topicPrefix + "/status",
		WillPayload:    []byte("offline"),
		WillQos:        1,
		WillRetained:   true,
	})
	return newClient(pc, clientID, topicPrefix, sampleRate)
}

func newClient(pc paho.Client, clientID, topicPrefix string, sampleRate int) *Client {
	if sampleRate < 1 {
		sampleRate = 1
	}
	return &Client{
		client:      pc,
		clientID:    clientID,
		topicPrefix: topicPrefix,
		qos:         1,
		sampleRate:  sampleRate,
		entities:    make(map[string]Entity),
	}
}

func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		slog.Error("mqtt connection failed", "error", token.Error(), "module", "mqtt")
		return token.Error()
	}
	c.publish(c.availabilityTopic(), "online", true)
	return nil
}

// Disconnect marks the device offline before closing the connection.
func (c *Client) Disconnect() {
	t := c.client.Publish(c.availabilityTopic(), c.qos, true, "offline")
	t.WaitTimeout(time.Second)
	c.client.Disconnect(250)
}

func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	if token := c.client.Subscribe(topic, c.qos, handler); token.Wait() && token.Error() != nil {
		slog.Error("mqtt subscription failed", "error", token.Error(), "module", "mqtt")
		return token.Error()
	}
	return nil
}

// Extras are values maintained outside the tick that ride along with each
// published report.
type Extras struct {
	DutyCycle func() float64
	Trend     func() stats.Snapshot
}

func (c *Client) GetPublisher(ctx context.Context, reports <-chan report.Report, ambient <-chan env.Env, extras Extras) func() error {
	sensors := map[string]string{}
	for _, s := range []struct {
		name string
		kind Kind
	}{
		{"Temperature", KindTemperature},
		{"Setpoint", KindTemperature},
		{"Heater Duty", KindGeneric},
		{"Cycle State", KindCycleState},
		{"pH", KindPH},
		{"Pressure", KindPressure},
		{"Pressure Voltage", KindVoltage},
		{"PID Integral", KindGeneric},
		{"Duty Cycle", KindPercent},
		{"Temperature Trend", KindGeneric},
		{"Ambient Temperature", KindTemperature},
		{"Ambient Humidity", KindHumidity},
		{"Ambient Dewpoint", KindTemperature},
	} {
		sensors[s.name] = c.Register(c.NewEntity(s.name, s.kind))
	}

	reportSample := NewSample(c.sampleRate)
	ambientSample := NewSample(c.sampleRate)

	return func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case r, ok := <-reports:
				if !ok {
					return nil
				}
				if !reportSample.Ready() {
					continue
				}
				slog.Debug("mqtt publishing", "field", "report", "value", r, "module", "mqtt")
				for name, value := range ReportValues(r, extras) {
					c.PublishState(sensors[name], value)
				}
			case a, ok := <-ambient:
				if !ok {
					ambient = nil
					continue
				}
				if !ambientSample.Ready() {
					continue
				}
				c.PublishState(sensors["Ambient Temperature"], formatFloat(a.Temperature, 2))
				c.PublishState(sensors["Ambient Humidity"], formatFloat(a.Humidity, 2))
				c.PublishState(sensors["Ambient Dewpoint"], formatFloat(a.Dewpoint, 2))
			}
		}
	}
}

// ReportValues maps sensor names to their published state strings.
func ReportValues(r report.Report, extras Extras) map[string]string {
	values := map[string]string{
		"Setpoint":         formatFloat(r.Setpoint, 2),
		"Heater Duty":      formatFloat(r.Duty, 0),
		"Cycle State":      r.State.String(),
		"pH":               formatFloat(r.PH, 2),
		"Pressure":         formatFloat(r.Pressure, 2),
		"Pressure Voltage": formatFloat(r.Voltage, 3),
		"PID Integral":     formatFloat(r.Integral, 4),
	}
	if !r.SensorError {
		values["Temperature"] = formatFloat(r.Temperature, 2)
	}
	if extras.DutyCycle != nil {
		values["Duty Cycle"] = formatFloat(extras.DutyCycle(), 2)
	}
	if extras.Trend != nil {
		// published per minute for readability
		values["Temperature Trend"] = formatFloat(extras.Trend().Slope*60, 3)
	}
	return values
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func (c *Client) Publish(topic string, msg string) {
	c.publish(topic, msg, c.retained)
}

func (c *Client) publish(topic, msg string, retained bool) {
	t := c.client.Publish(topic, c.qos, retained, msg)
	go func() {
		_ = t.WaitTimeout(5 * time.Second)
		if t.Error() != nil {
			slog.Error("mqtt message publish failed", "error", t.Error(), "module", "mqtt")
		}
	}()
}
