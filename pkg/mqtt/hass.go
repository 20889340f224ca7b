package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const hassStatusTopic = "homeassistant/status"

// Kind selects the Home Assistant device class and unit of an entity.
type Kind int

const (
	KindGeneric Kind = iota
	KindTemperature
	KindHumidity
	KindPressure
	KindVoltage
	KindPH
	KindPercent
	KindCycleState
	KindSwitch
)

// Entity is the discovery payload of one Home Assistant sensor or switch.
type Entity struct {
	component         string
	configTopic       string
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	Device            Device   `json:"device,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	StateClass        string   `json:"state_class,omitempty"`
	StateTopic        string   `json:"state_topic"`
	CommandTopic      string   `json:"command_topic,omitempty"`
	AvailabilityTopic string   `json:"availability_topic,omitempty"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	Precision         *int     `json:"suggested_display_precision,omitempty"`
	Options           []string `json:"options,omitempty"`
	Icon              string   `json:"icon,omitempty"`
}

type Device struct {
	Name         string   `json:"name,omitempty"`
	Identifiers  []string `json:"identifiers,omitempty"`
	Model        string   `json:"model,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
}

func (c *Client) availabilityTopic() string {
	return c.topicPrefix + "/status"
}

// HomeAssistant announces every registered entity now and again whenever
// Home Assistant reports itself back online.
func (c *Client) HomeAssistant() error {
	c.announceAll()
	return c.Subscribe(hassStatusTopic, func(client paho.Client, msg paho.Message) {
		payload := string(msg.Payload())
		slog.Info("homeassistant status", "status", payload, "module", "mqtt")
		if payload == "online" {
			c.announceAll()
		}
	})
}

func (c *Client) announceAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	slog.Info("announcing homeassistant entities", "count", len(c.entities), "module", "mqtt")
	for _, e := range c.entities {
		c.announce(e)
	}
}

func (c *Client) announce(e Entity) {
	payload, err := json.Marshal(e)
	if err != nil {
		slog.Error("json marshal error", "error", err, "entity", e.Name, "module", "mqtt")
		return
	}
	c.Publish(e.configTopic, string(payload))
}

// NewEntity fills in topics, units and device info for name.
func (c *Client) NewEntity(name string, kind Kind) Entity {
	e := Entity{
		component: "sensor",
		Name:      name,
		Device: Device{
			Name:         cases.Title(language.English).String(c.clientID),
			Model:        "thermocycle",
			Manufacturer: "mikesmitty",
		},
		AvailabilityTopic: c.availabilityTopic(),
	}
	switch kind {
	case KindTemperature:
		e.DeviceClass, e.UnitOfMeasurement = "temperature", "°C"
		e.Precision = precision(2)
	case KindHumidity:
		e.DeviceClass, e.UnitOfMeasurement = "humidity", "%"
		e.Precision = precision(1)
	case KindPressure:
		e.DeviceClass, e.UnitOfMeasurement = "pressure", "kPa"
		e.Precision = precision(1)
	case KindVoltage:
		e.DeviceClass, e.UnitOfMeasurement = "voltage", "V"
		e.Precision = precision(3)
	case KindPH:
		e.DeviceClass, e.UnitOfMeasurement = "ph", "pH"
		e.Precision = precision(2)
	case KindPercent:
		e.UnitOfMeasurement, e.Icon = "%", "mdi:percent"
	case KindCycleState:
		e.DeviceClass, e.Icon = "enum", "mdi:sync"
		for _, s := range []thermocycle.State{thermocycle.Heating, thermocycle.Cooling, thermocycle.Stabilizing} {
			e.Options = append(e.Options, s.String())
		}
	case KindSwitch:
		e.component, e.Icon = "switch", "mdi:radiator"
	}
	// Enum and switch states are not numeric.
	if kind != KindCycleState && kind != KindSwitch {
		e.StateClass = "measurement"
	}

	base := c.topicPrefix + "/" + e.component + "/" + slugify(name)
	if e.component == "switch" {
		e.StateTopic, e.CommandTopic = base+"/state", base+"/command"
	} else {
		e.StateTopic = base
	}
	return e
}

// Register stores e for announcement and returns its unique id.
func (c *Client) Register(e Entity) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.UniqueID == "" {
		e.UniqueID = slugify(e.Device.Name + "_" + e.Name)
	}
	if len(e.Device.Identifiers) == 0 {
		e.Device.Identifiers = []string{slugify(e.Device.Name)}
	}
	e.configTopic = fmt.Sprintf("homeassistant/%s/%s/config", e.component, e.UniqueID)
	c.entities[e.UniqueID] = e
	return e.UniqueID
}

// PublishState sends state on the state topic of the entity registered
// under uniqueID.
func (c *Client) PublishState(uniqueID, state string) error {
	c.mu.Lock()
	e, ok := c.entities[uniqueID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("entity not found: %s", uniqueID)
	}
	c.Publish(e.StateTopic, state)
	return nil
}

func precision(n int) *int {
	return &n
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}
