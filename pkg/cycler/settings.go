package cycler

import (
	"log/slog"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/pid"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
	"github.com/spf13/viper"
)

// Settings is the effective configuration after flags, environment and
// config file have been merged.
type Settings struct {
	Debug          bool           `yaml:"debug"`
	Interval       time.Duration  `yaml:"interval"`
	LowTemp        float64        `yaml:"low-temp"`
	HighTemp       float64        `yaml:"high-temp"`
	Threshold      float64        `yaml:"threshold"`
	Dwell          time.Duration  `yaml:"dwell"`
	MaxTemp        float64        `yaml:"max-temp"`
	InputAverage   int            `yaml:"input-average"`
	Smoothing      float64        `yaml:"smoothing"`
	HeaterEnabled  bool           `yaml:"heater-enabled"`
	PID            PIDSettings    `yaml:"pid"`
	Sensor         SensorSettings `yaml:"sensors"`
	Heater         HeaterSettings `yaml:"heater"`
	MQTTBroker     string         `yaml:"mqtt-broker"`
	MQTTSample     int            `yaml:"mqtt-sample-interval"`
	SerialPort     string         `yaml:"serial-port"`
	SerialBaud     int            `yaml:"serial-baud"`
	HTTPAddr       string         `yaml:"http-addr"`
	AmbientPoll    time.Duration  `yaml:"ambient-interval"`
	WatchdogPeriod time.Duration  `yaml:"watchdog-timeout"`
	DutyWindow     int            `yaml:"duty-window"`
	TrendWindow    int            `yaml:"trend-window"`
	HistorySize    int            `yaml:"history-size"`
}

type PIDSettings struct {
	Engine        string        `yaml:"engine"`
	Kp            float64       `yaml:"kp"`
	Ki            float64       `yaml:"ki"`
	Kd            float64       `yaml:"kd"`
	Ku            float64       `yaml:"ku"`
	Tu            time.Duration `yaml:"tu"`
	Algorithm     string        `yaml:"algorithm"`
	MaxRate       float64       `yaml:"max-rate"`
	IntegralLimit float64       `yaml:"integral-limit"`
	AntiWindup    float64       `yaml:"awg"`
	LowPass       time.Duration `yaml:"lp"`
}

type SensorSettings struct {
	Type             string  `yaml:"sensor"`
	SPIBus           string  `yaml:"spibus"`
	I2CBus           string  `yaml:"i2cbus"`
	TempOffset       float64 `yaml:"temp-offset"`
	ThermistorChan   int     `yaml:"thermistor-channel"`
	PHChan           int     `yaml:"ph-channel"`
	PHOffset         float64 `yaml:"ph-offset"`
	PressureChan     int     `yaml:"pressure-channel"`
	PressureOffset   float64 `yaml:"pressure-offset"`
	AmbientSensorOff bool    `yaml:"no-ambient"`
}

type HeaterSettings struct {
	Driver    string `yaml:"heater-driver"`
	Pin       string `yaml:"heater-pin"`
	EnablePin string `yaml:"heater-enable-pin"`
	RPIOPin   int    `yaml:"heater-rpio-pin"`
	Frequency int    `yaml:"heater-freq"`
}

// LoadSettings reads every key from v.
func LoadSettings(v *viper.Viper) Settings {
	return Settings{
		Debug:         v.GetBool("debug"),
		Interval:      v.GetDuration("interval"),
		LowTemp:       v.GetFloat64("low-temp"),
		HighTemp:      v.GetFloat64("high-temp"),
		Threshold:     v.GetFloat64("threshold"),
		Dwell:         v.GetDuration("dwell"),
		MaxTemp:       v.GetFloat64("max-temp"),
		InputAverage:  v.GetInt("input-average"),
		Smoothing:     v.GetFloat64("smoothing"),
		HeaterEnabled: v.GetBool("heater-enabled"),
		PID: PIDSettings{
			Engine:        v.GetString("pid-engine"),
			Kp:            v.GetFloat64("pid-kp"),
			Ki:            v.GetFloat64("pid-ki"),
			Kd:            v.GetFloat64("pid-kd"),
			Ku:            v.GetFloat64("pid-ku"),
			Tu:            v.GetDuration("pid-tu"),
			Algorithm:     v.GetString("pid-algorithm"),
			MaxRate:       v.GetFloat64("pid-max-rate"),
			IntegralLimit: v.GetFloat64("pid-integral-limit"),
			AntiWindup:    v.GetFloat64("pid-awg"),
			LowPass:       v.GetDuration("pid-lp"),
		},
		Sensor: SensorSettings{
			Type:             v.GetString("sensor"),
			SPIBus:           v.GetString("spibus"),
			I2CBus:           v.GetString("i2cbus"),
			TempOffset:       v.GetFloat64("temp-offset"),
			ThermistorChan:   v.GetInt("thermistor-channel"),
			PHChan:           v.GetInt("ph-channel"),
			PHOffset:         v.GetFloat64("ph-offset"),
			PressureChan:     v.GetInt("pressure-channel"),
			PressureOffset:   v.GetFloat64("pressure-offset"),
			AmbientSensorOff: v.GetBool("no-ambient"),
		},
		Heater: HeaterSettings{
			Driver:    v.GetString("heater-driver"),
			Pin:       v.GetString("heater-pin"),
			EnablePin: v.GetString("heater-enable-pin"),
			RPIOPin:   v.GetInt("heater-rpio-pin"),
			Frequency: v.GetInt("heater-freq"),
		},
		MQTTBroker:     v.GetString("mqtt-broker"),
		MQTTSample:     v.GetInt("mqtt-sample-interval"),
		SerialPort:     v.GetString("serial-port"),
		SerialBaud:     v.GetInt("serial-baud"),
		HTTPAddr:       v.GetString("http-addr"),
		AmbientPoll:    v.GetDuration("ambient-interval"),
		WatchdogPeriod: v.GetDuration("watchdog-timeout"),
		DutyWindow:     v.GetInt("duty-window"),
		TrendWindow:    v.GetInt("trend-window"),
		HistorySize:    v.GetInt("history-size"),
	}
}

// NewCompensator builds the configured PID engine. Ultimate gain and period,
// when both set, replace the explicit gains.
func (s Settings) NewCompensator() (pid.Compensator, error) {
	p := s.PID
	kp, ki, kd, err := pid.CalculateGains(p.Ku, p.Tu.Seconds(), p.Kp, p.Ki, p.Kd, p.Algorithm)
	if err != nil {
		return nil, err
	}
	cfg := pid.DefaultConfig(kp, ki, kd)
	slog.Info("pid gains", "kp", kp, "ki", ki, "kd", kd, "engine", p.Engine, "module", "cycler")
	if p.Engine == "einride" {
		return pid.NewAntiWindup(cfg, p.AntiWindup, p.LowPass), nil
	}
	return pid.New(cfg), nil
}

// Apply pushes the cycle settings through the controller setters. Values
// that make no sense are skipped and the defaults stay in force.
func (s Settings) Apply(c *thermocycle.Controller) {
	if s.LowTemp < s.HighTemp {
		c.SetTargets(s.LowTemp, s.HighTemp)
	} else {
		slog.Warn("ignoring targets, low must be below high", "low", s.LowTemp, "high", s.HighTemp, "module", "cycler")
	}
	if s.Dwell >= 0 {
		c.SetDwell(s.Dwell)
	}
	if s.Threshold > 0 {
		c.SetThreshold(s.Threshold)
	}
	c.SetMaxRate(s.PID.MaxRate)
	c.SetIntegralLimit(s.PID.IntegralLimit)
}
