package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/cycler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteSettings(t *testing.T) {
	in := cycler.Settings{
		LowTemp:  25,
		HighTemp: 60,
		Dwell:    10 * time.Second,
		PID:      cycler.PIDSettings{Engine: "builtin", Kp: 10},
		Sensor:   cycler.SensorSettings{Type: "rtd", PHChan: -1},
	}
	var buf bytes.Buffer
	require.NoError(t, writeSettings(&buf, in))

	out := buf.String()
	assert.Contains(t, out, "high-temp: 60\n")
	assert.Contains(t, out, "dwell: 10s\n")
	assert.Contains(t, out, "  engine: builtin\n")

	var back cycler.Settings
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, in, back)
}

func TestFlagsBound(t *testing.T) {
	for _, name := range []string{"low-temp", "high-temp", "dwell", "threshold", "smoothing", "pid-max-rate", "pid-integral-limit", "temp-offset", "ph-offset", "pressure-offset"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.NotNil(t, configCmd.Parent())
}
