package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/cycler"
	"github.com/mikesmitty/thermocycle/pkg/dutycycle"
	"github.com/mikesmitty/thermocycle/pkg/pid"
	"github.com/mikesmitty/thermocycle/pkg/report"
	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "thermocycle",
	Short: "Cycle a heated sample between two temperatures",
	Long: `thermocycle drives a PWM heater with a PID loop, alternating between a
low and a high target and holding each for a dwell time once reached.
Readings are published over MQTT, a serial line protocol and HTTP.`,
	Run: cycler.Root(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	limits := thermocycle.DefaultLimits()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.thermocycle.yaml)")
	pf.Bool("debug", false, "enable debug logging")
	pf.Duration("interval", time.Second, "control loop interval")

	// Cycle
	pf.Float64("low-temp", limits.Low, "low target temperature (°C)")
	pf.Float64("high-temp", limits.High, "high target temperature (°C)")
	pf.Float64("threshold", limits.Threshold, "distance from a target that counts as reached (°C)")
	pf.Duration("dwell", limits.Dwell, "time held at a target before reversing")
	pf.Float64("max-temp", 95, "heater cut-off temperature, 0 disables")
	pf.Int("input-average", 0, "moving average window over the temperature reading, 0 disables")
	pf.Float64("smoothing", 0.1, "exponential smoothing alpha for sensor readings")
	pf.Bool("heater-enabled", true, "start with the heater enabled")

	// PID
	pf.String("pid-engine", "builtin", "PID engine: builtin or einride")
	pf.Float64("pid-kp", 10, "PID Kp")
	pf.Float64("pid-ki", 0.5, "PID Ki")
	pf.Float64("pid-kd", 1, "PID Kd")
	pf.Float64("pid-ku", 0, "ultimate gain for tuning rules, 0 uses the explicit gains")
	pf.Duration("pid-tu", 0, "ultimate oscillation period for tuning rules")
	pf.String("pid-algorithm", pid.DefaultTuningRule, "tuning rule: "+strings.Join(pid.TuningRules(), ", "))
	pf.Float64("pid-max-rate", pid.DefaultMaxRate, "maximum output change per second")
	pf.Float64("pid-integral-limit", pid.DefaultIntegralLimit, "integral accumulator bound")
	pf.Float64("pid-awg", 0.5, "anti-windup gain (einride engine)")
	pf.Duration("pid-lp", pid.DefaultLowPass, "derivative low-pass time constant (einride engine)")

	// Sensors
	pf.String("sensor", "rtd", "temperature sensor: rtd or thermistor")
	pf.String("spibus", "", "name of the spi bus")
	pf.String("i2cbus", "", "name of the i2c bus")
	pf.Float64("temp-offset", 0, "temperature calibration offset (°C)")
	pf.Int("thermistor-channel", 0, "adc channel of the thermistor divider")
	pf.Int("ph-channel", -1, "adc channel of the pH probe, -1 disables")
	pf.Float64("ph-offset", 0, "pH calibration offset")
	pf.Int("pressure-channel", -1, "adc channel of the pressure transducer, -1 disables")
	pf.Float64("pressure-offset", 0, "pressure calibration offset")
	pf.Bool("no-ambient", false, "skip the sht4x ambient sensor")
	pf.Duration("ambient-interval", 6*time.Second, "ambient sensor polling interval")

	// Heater
	pf.String("heater-driver", "periph", "heater driver: periph or rpio")
	pf.String("heater-pin", "GPIO12", "heater pwm pin name (periph)")
	pf.String("heater-enable-pin", "", "optional driver enable pin name (periph)")
	pf.Int("heater-rpio-pin", 12, "heater BCM pin number (rpio)")
	pf.Int("heater-freq", 1000, "heater pwm frequency (Hz)")

	// Reporting
	pf.String("mqtt-broker", "", "mqtt broker url")
	pf.Int("mqtt-sample-interval", 5, "publish every nth report over mqtt")
	pf.String("serial-port", "", "serial port for DATA line output")
	pf.Int("serial-baud", report.DefaultBaudRate, "serial baud rate")
	pf.String("http-addr", ":8080", "status server address, empty disables")
	pf.Duration("watchdog-timeout", 10*time.Second, "heater shutdown timeout without reports")
	pf.Int("duty-window", dutycycle.DefaultWindow, "duty cycle averaging window in reports")
	pf.Int("trend-window", 60, "temperature trend window in reports")
	pf.Int("history-size", report.DefaultHistorySize, "reports kept for the /history endpoint")

	viper.BindPFlags(pf)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".thermocycle" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".thermocycle")
	}

	viper.SetEnvPrefix("thermocycle")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
