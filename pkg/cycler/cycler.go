// Package cycler wires sensors, the cycle controller, the heater and the
// reporters together and runs them until interrupted.
package cycler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikesmitty/max31865"
	"github.com/mikesmitty/sht4x"
	"github.com/mikesmitty/thermocycle/pkg/clock"
	"github.com/mikesmitty/thermocycle/pkg/dutycycle"
	"github.com/mikesmitty/thermocycle/pkg/env"
	"github.com/mikesmitty/thermocycle/pkg/heater"
	"github.com/mikesmitty/thermocycle/pkg/metrics"
	"github.com/mikesmitty/thermocycle/pkg/mqtt"
	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/router"
	"github.com/mikesmitty/thermocycle/pkg/sensor"
	"github.com/mikesmitty/thermocycle/pkg/stats"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
	"github.com/mikesmitty/thermocycle/pkg/watchdog"
	"github.com/mikesmitty/thermocycle/pkg/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

func Root() func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s := LoadSettings(viper.GetViper())
		SetupLogging(s.Debug)
		if s.Interval <= 0 {
			s.Interval = time.Second
		}
		if s.AmbientPoll <= 0 {
			s.AmbientPoll = 6 * time.Second
		}

		hostState, err := host.Init()
		errChk(err)
		for i := range hostState.Loaded {
			slog.Debug("loaded", "driver", hostState.Loaded[i], "module", "host")
		}
		for i := range hostState.Failed {
			slog.Error("failed", "driver", hostState.Failed[i], "module", "host")
		}
		for i := range hostState.Skipped {
			slog.Debug("skipped", "driver", hostState.Skipped[i], "module", "host")
		}

		ctx, cancelFunc := context.WithCancel(context.Background())
		defer cancelFunc()
		g, ctx := errgroup.WithContext(ctx)

		// Heater
		sink, closeHeater, err := openHeater(s.Heater)
		errChk(err)
		defer closeHeater()
		sw := heater.NewSwitched(sink, s.HeaterEnabled)

		// Buses
		var bus i2c.BusCloser
		if s.Sensor.I2CBus != "" || s.Sensor.Type == "thermistor" {
			bus, err = i2creg.Open(s.Sensor.I2CBus)
			errChk(err)
			defer bus.Close()
		}
		var adc *ads1x15.Dev
		if bus != nil && (s.Sensor.Type == "thermistor" || s.Sensor.PHChan >= 0 || s.Sensor.PressureChan >= 0) {
			adc, err = ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
			errChk(err)
		}

		// Controlled temperature
		src, err := openSource(s, adc)
		errChk(err)

		// Reported-only inputs
		opts := Options{
			Source:         src,
			Heater:         sw,
			Clock:          clock.NewMonotonic(),
			Interval:       s.Interval,
			InputAverage:   s.InputAverage,
			MaxTemperature: s.MaxTemp,
		}
		if adc != nil && s.Sensor.PHChan >= 0 {
			pin, err := adcPin(adc, s.Sensor.PHChan)
			errChk(err)
			opts.PH = sensor.NewPH(pin, s.Sensor.PHOffset, s.Smoothing)
		}
		if adc != nil && s.Sensor.PressureChan >= 0 {
			pin, err := adcPin(adc, s.Sensor.PressureChan)
			errChk(err)
			opts.Pressure = sensor.NewPressure(pin, s.Sensor.PressureOffset)
		}

		// Controller
		comp, err := s.NewCompensator()
		errChk(err)
		ctrl := thermocycle.New(comp, thermocycle.DefaultLimits())
		s.Apply(ctrl)
		opts.Controller = ctrl
		slog.Info("cycle limits", "limits", ctrl.Limits(), "module", "cycler")

		reportCh := make(chan report.Report, 1)
		opts.Reports = reportCh
		reportFan := router.NewFan[report.Report]("report", reportCh)
		reportFan.SetDebug(s.Debug)

		// Statistics
		duty := dutycycle.NewDutyCycle(s.DutyWindow)
		g.Go(duty.Run(ctx, reportFan.MustSubscribe("dutycycle")))
		trend := stats.NewTrend(s.TrendWindow)
		g.Go(trend.Run(ctx, reportFan.MustSubscribe("trend")))

		// Metrics and HTTP
		met := metrics.New(prometheus.NewRegistry())
		g.Go(met.Run(ctx, reportFan.MustSubscribe("metrics"), duty.Percent, trend.Snapshot))
		if s.HTTPAddr != "" {
			srv := web.New(s.HTTPAddr, web.Options{
				Heater:      sw,
				Metrics:     met.Handler(),
				DutyCycle:   duty.Percent,
				Trend:       trend.Snapshot,
				HistorySize: s.HistorySize,
			})
			g.Go(srv.Run(ctx, reportFan.MustSubscribe("web")))
			g.Go(srv.ListenAndServe(ctx))
		}

		// Serial line protocol
		if s.SerialPort != "" {
			sp, err := report.OpenSerial(s.SerialPort, s.SerialBaud)
			errChk(err)
			g.Go(sp.Run(ctx, reportFan.MustSubscribe("serial")))
		}

		// MQTT
		if s.MQTTBroker != "" {
			mqttURL, err := url.Parse(s.MQTTBroker)
			errChk(err)
			mc := mqtt.NewClient(mqttURL, s.MQTTSample)
			errChk(mc.Connect())
			defer mc.Disconnect()

			refCh, refFn := ambientSource(ctx, s, bus)
			if refFn != nil {
				g.Go(refFn)
			}
			g.Go(mc.GetPublisher(ctx, reportFan.MustSubscribe("mqtt"), refCh, mqtt.Extras{
				DutyCycle: duty.Percent,
				Trend:     trend.Snapshot,
			}))
			g.Go(mc.SwitchFn(ctx, "Heater Enable", s.Interval*5, sw.Enable, func() {
				if err := sw.Disable(); err != nil {
					slog.Error("heater disable failed", "error", err, "module", "mqtt")
				}
			}, sw.Enabled))
			errChk(mc.HomeAssistant())
		}

		// Watchdog
		if s.WatchdogPeriod > 0 {
			g.Go(watchdog.NewWatchdog(ctx, s.WatchdogPeriod, sw.HardStop, reportFan.MustSubscribe("watchdog")))
		} else {
			slog.Warn("watchdog disabled", "module", "cycler")
		}

		g.Go(reportFan.Run(ctx))
		slog.Info("starting thermal cycle", "state", ctrl.State(), "module", "cycler")
		g.Go(NewLoop(opts).Run(ctx))

		// Signal handling
		chanSignal := make(chan os.Signal, 1)
		signal.Notify(chanSignal, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
		g.Go(func() error {
			defer cancelFunc()
			select {
			case <-ctx.Done():
			case sig := <-chanSignal:
				slog.Info("shutting down", "signal", sig.String(), "module", "cycler")
			}
			return sw.HardStop()
		})

		slog.Debug("waiting for goroutines to finish", "module", "cycler")
		errChk(g.Wait())
	}
}

// SetupLogging installs the default text logger on stderr.
func SetupLogging(debug bool) {
	slogOpts := slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if debug {
		slogOpts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slogOpts)))
}

func openHeater(s HeaterSettings) (heater.Sink, func(), error) {
	switch s.Driver {
	case "rpio":
		h, err := heater.NewRPIO(s.RPIOPin, s.Frequency)
		if err != nil {
			return nil, nil, err
		}
		return h, closer("rpio", h.Close), nil
	case "periph", "":
		h, err := heater.NewPWM(s.Pin, s.EnablePin, physic.Frequency(s.Frequency)*physic.Hertz)
		if err != nil {
			return nil, nil, err
		}
		return h, closer("pwm", h.Close), nil
	}
	return nil, nil, fmt.Errorf("unknown heater driver: %s", s.Driver)
}

func closer(name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			slog.Error("close failed", "driver", name, "error", err, "module", "heater")
		}
	}
}

func openSource(s Settings, adc *ads1x15.Dev) (sensor.Source, error) {
	switch s.Sensor.Type {
	case "thermistor":
		if adc == nil {
			return nil, fmt.Errorf("thermistor needs an i2c bus for the adc")
		}
		pin, err := adcPin(adc, s.Sensor.ThermistorChan)
		if err != nil {
			return nil, err
		}
		cfg := sensor.DefaultThermistorConfig()
		cfg.Alpha = s.Smoothing
		cfg.Offset = s.Sensor.TempOffset
		return sensor.NewThermistor(pin, cfg), nil
	case "rtd", "":
		sb, err := spireg.Open(s.Sensor.SPIBus)
		if err != nil {
			return nil, err
		}
		dev, err := max31865.New(sb, nil)
		if err != nil {
			return nil, fmt.Errorf("max31865: %w", err)
		}
		return sensor.NewRTD(dev, s.Smoothing, s.Sensor.TempOffset), nil
	}
	return nil, fmt.Errorf("unknown sensor type: %s", s.Sensor.Type)
}

var adsChannels = []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

func adcPin(adc *ads1x15.Dev, channel int) (ads1x15.PinADC, error) {
	if channel < 0 || channel >= len(adsChannels) {
		return nil, fmt.Errorf("adc channel out of range: %d", channel)
	}
	return adc.PinForChannel(adsChannels[channel], 5*physic.Volt, 860*physic.Hertz, ads1x15.BestQuality)
}

func ambientSource(ctx context.Context, s Settings, bus i2c.Bus) (<-chan env.Env, func() error) {
	if bus == nil || s.Sensor.AmbientSensorOff {
		return nil, nil
	}
	dev, err := sht4x.New(bus, nil)
	if err != nil {
		slog.Warn("ambient sensor unavailable", "error", err, "module", "sht4x")
		return nil, nil
	}
	return sensor.AmbientChannel(ctx, dev, s.AmbientPoll)
}

func errChk(err error) {
	if err != nil {
		slog.Error(err.Error(), "module", "cycler")
		os.Exit(1)
	}
}
