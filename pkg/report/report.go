// Package report carries one tick's outcome to the reporting consumers.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mikesmitty/thermocycle/pkg/thermocycle"
)

const linePrefix = "DATA:"

// LineFormat is announced once when a serial reporter starts.
const LineFormat = "Format: DATA:voltage:pressure:temperature:ph:state:duty"

// Report is the outcome of one control tick. Duty is what the heater was
// actually driven at, Requested what the controller asked for.
type Report struct {
	Time        time.Duration     `json:"time"`
	Temperature float64           `json:"temperature"`
	Setpoint    float64           `json:"setpoint"`
	Duty        float64           `json:"duty"`
	Requested   float64           `json:"requested"`
	State       thermocycle.State `json:"state"`
	PH          float64           `json:"ph"`
	Pressure    float64           `json:"pressure"`
	Voltage     float64           `json:"voltage"`
	Integral    float64           `json:"integral"`
	SensorError bool              `json:"sensor_error,omitempty"`
}

// Line renders r in the colon separated serial format.
func Line(r Report) string {
	return fmt.Sprintf("%s%.3f:%.2f:%.2f:%.2f:%d:%.0f",
		linePrefix, r.Voltage, r.Pressure, r.Temperature, r.PH, int(r.State), r.Duty)
}

// ParseLine reads a line produced by Line. The trailing duty field is
// optional so six-field lines from older firmware still parse.
func ParseLine(line string) (Report, error) {
	var r Report
	i := strings.Index(line, linePrefix)
	if i < 0 {
		return r, fmt.Errorf("not a data line: %q", line)
	}
	parts := strings.Split(strings.TrimSpace(line[i+len(linePrefix):]), ":")
	if len(parts) < 5 {
		return r, fmt.Errorf("expected at least 5 fields, got %d", len(parts))
	}

	floats := []*float64{&r.Voltage, &r.Pressure, &r.Temperature, &r.PH}
	for j, dst := range floats {
		v, err := strconv.ParseFloat(parts[j], 64)
		if err != nil {
			return r, fmt.Errorf("field %d: %w", j+1, err)
		}
		*dst = v
	}

	state, err := strconv.Atoi(parts[4])
	if err != nil {
		return r, fmt.Errorf("state: %w", err)
	}
	if state < int(thermocycle.Heating) || state > int(thermocycle.Stabilizing) {
		return r, fmt.Errorf("unknown state code %d", state)
	}
	r.State = thermocycle.State(state)

	if len(parts) > 5 {
		if r.Duty, err = strconv.ParseFloat(parts[5], 64); err != nil {
			return r, fmt.Errorf("duty: %w", err)
		}
	}
	return r, nil
}
