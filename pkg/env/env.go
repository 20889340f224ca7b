package env

import (
	"math"
)

// Magnus coefficients (Sonntag 1990), valid roughly -45..60 °C.
const (
	magnusB = 17.625
	magnusC = 243.04
)

// Env is an ambient reading from the reference sensor.
type Env struct {
	Temperature float64
	Humidity    float64
	Dewpoint    float64
}

func New(temp, humidity float64) Env {
	return Env{
		Temperature: temp,
		Humidity:    humidity,
		Dewpoint:    Dewpoint(temp, humidity),
	}
}

// Dewpoint returns the dew point in °C for temperature t (°C) and relative
// humidity rh (%). Humidity is floored at 0.01% so dry air stays finite.
func Dewpoint(t, rh float64) float64 {
	rh = math.Max(rh, 0.01)
	gamma := math.Log(rh/100) + (magnusB*t)/(magnusC+t)
	return magnusC * gamma / (magnusB - gamma)
}
