package sensor

import (
	"context"
	"slices"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// FakeADC replays Volts, repeating the last value once exhausted.
type FakeADC struct {
	Volts []float64
	Err   error
	Reads int
}

func (f *FakeADC) Read() (analog.Sample, error) {
	if f.Err != nil {
		return analog.Sample{}, f.Err
	}
	v := 0.0
	if len(f.Volts) > 0 {
		i := f.Reads
		if i >= len(f.Volts) {
			i = len(f.Volts) - 1
		}
		v = f.Volts[i]
	}
	f.Reads++
	return analog.Sample{V: physic.ElectricPotential(v * float64(physic.Volt))}, nil
}

// FakeEnv reports a fixed temperature and humidity. Err is returned on every
// call, or only on the 1-based calls listed in FailOn when it is set.
type FakeEnv struct {
	Celsius  float64
	Humidity float64
	Err      error
	FailOn   []int
	calls    int
}

func (f *FakeEnv) Sense(e *physic.Env) error {
	f.calls++
	if f.Err != nil && (len(f.FailOn) == 0 || slices.Contains(f.FailOn, f.calls)) {
		return f.Err
	}
	e.Temperature = physic.ZeroCelsius + physic.Temperature(f.Celsius*float64(physic.Kelvin))
	e.Humidity = physic.RelativeHumidity(f.Humidity * float64(physic.PercentRH))
	return nil
}

// FakeSource replays Values, repeating the last one once exhausted.
type FakeSource struct {
	mu     sync.Mutex
	Values []float64
	Err    error
	i      int
}

func (f *FakeSource) Read(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	if len(f.Values) == 0 {
		return 0, nil
	}
	v := f.Values[min(f.i, len(f.Values)-1)]
	f.i++
	return v, nil
}

func (f *FakeSource) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}
