package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Fan copies every value from its input to all subscribers. A subscriber
// that falls behind loses its oldest pending value, never blocking the
// producer.
type Fan[T any] struct {
	debug   bool
	name    string
	mu      sync.Mutex
	input   <-chan T
	outputs map[string]chan T
	dropped map[string]int
}

func NewFan[T any](name string, input <-chan T) *Fan[T] {
	return &Fan[T]{
		name:    name,
		input:   input,
		outputs: make(map[string]chan T),
		dropped: make(map[string]int),
	}
}

func (f *Fan[T]) SetDebug(debug bool) {
	f.debug = debug
}

func (f *Fan[T]) Subscribe(client string) (<-chan T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; ok {
		return nil, fmt.Errorf("client %q already subscribed to %s", client, f.name)
	}
	if f.debug {
		slog.Debug("subscribing to fan", "fan", f.name, "client", client, "module", "router")
	}
	c := make(chan T, 1)
	f.outputs[client] = c
	return c, nil
}

// MustSubscribe is Subscribe for start-up wiring with fixed client names.
func (f *Fan[T]) MustSubscribe(client string) <-chan T {
	c, err := f.Subscribe(client)
	if err != nil {
		panic(err)
	}
	return c
}

func (f *Fan[T]) Unsubscribe(client string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.outputs[client]
	if !ok {
		return fmt.Errorf("client %q not subscribed to %s", client, f.name)
	}
	if f.debug {
		slog.Debug("unsubscribing from fan", "fan", f.name, "client", client, "module", "router")
	}
	close(c)
	delete(f.outputs, client)
	delete(f.dropped, client)
	return nil
}

// Dropped reports how many values client has lost to back-pressure.
func (f *Fan[T]) Dropped(client string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped[client]
}

// Run forwards values until the input closes or ctx is done, then closes
// every subscriber channel.
func (f *Fan[T]) Run(ctx context.Context) func() error {
	return func() error {
		defer f.closeAll()
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-f.input:
				if !ok {
					return nil
				}
				f.send(v)
			}
		}
	}
}

func (f *Fan[T]) send(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, ch := range f.outputs {
		select {
		case ch <- v:
			continue
		default:
		}
		// full: discard the stale value and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
		f.dropped[k]++
		if f.debug {
			slog.Debug("fan subscriber behind", "fan", f.name, "subscriber", k, "dropped", f.dropped[k], "module", "router")
		}
	}
}

func (f *Fan[T]) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, ch := range f.outputs {
		close(ch)
		delete(f.outputs, k)
	}
}
