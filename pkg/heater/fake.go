package heater

import "sync"

// Fake records every duty it is given.
type Fake struct {
	mu     sync.Mutex
	duties []float64
	Err    error
}

func (f *Fake) Set(duty float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duties = append(f.duties, duty)
	return f.Err
}

func (f *Fake) Duties() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.duties...)
}

// Last returns the most recent duty, or -1 if none was set.
func (f *Fake) Last() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.duties) == 0 {
		return -1
	}
	return f.duties[len(f.duties)-1]
}
