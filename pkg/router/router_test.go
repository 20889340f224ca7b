package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanDelivers(t *testing.T) {
	in := make(chan int)
	f := NewFan("test", in)
	a := f.MustSubscribe("a")
	b := f.MustSubscribe("b")

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background())() }()

	in <- 1
	assert.Equal(t, 1, <-a)
	assert.Equal(t, 1, <-b)

	close(in)
	require.NoError(t, <-done)
	_, ok := <-a
	assert.False(t, ok)
}

func TestFanSlowSubscriberKeepsNewest(t *testing.T) {
	in := make(chan int, 3)
	f := NewFan("test", in)
	slow := f.MustSubscribe("slow")

	in <- 1
	in <- 2
	in <- 3
	close(in)
	require.NoError(t, f.Run(context.Background())())

	assert.Equal(t, 3, <-slow)
	assert.Equal(t, 2, f.Dropped("slow"))
}

func TestFanSubscribeErrors(t *testing.T) {
	f := NewFan("test", make(chan int))
	_, err := f.Subscribe("a")
	require.NoError(t, err)
	_, err = f.Subscribe("a")
	assert.Error(t, err)

	assert.NoError(t, f.Unsubscribe("a"))
	assert.Error(t, f.Unsubscribe("a"))
	assert.Panics(t, func() {
		f.MustSubscribe("b")
		f.MustSubscribe("b")
	})
}

func TestFanStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewFan("test", make(chan int))
	c := f.MustSubscribe("a")
	cancel()
	require.NoError(t, f.Run(ctx)())
	_, ok := <-c
	assert.False(t, ok)
}
