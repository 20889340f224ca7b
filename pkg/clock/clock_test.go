package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicNonDecreasing(t *testing.T) {
	m := NewMonotonic()
	a := m.Now()
	b := m.Now()
	assert.GreaterOrEqual(t, b, a)
	assert.GreaterOrEqual(t, a, time.Duration(0))
}

func TestFakeAdvance(t *testing.T) {
	f := NewFake(time.Second)
	assert.Equal(t, time.Second, f.Now())

	f.Advance(500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, f.Now())

	// never goes backwards
	f.Advance(-time.Hour)
	assert.Equal(t, 1500*time.Millisecond, f.Now())
}
