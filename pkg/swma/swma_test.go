package swma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddPartialWindow(t *testing.T) {
	s := NewSlidingWindow(3)

	assert.Equal(t, 1.0, s.Add(1))
	assert.Equal(t, 1.5, s.Add(2))
	assert.Equal(t, 2.0, s.Add(3))
	assert.Equal(t, 3, s.Len())
}

func TestAddEvictsOldest(t *testing.T) {
	s := NewSlidingWindow(3)
	for _, v := range []float64{1, 2, 3} {
		s.Add(v)
	}

	// 1 drops out
	assert.Equal(t, 3.0, s.Add(4))
	// 2 drops out
	assert.Equal(t, 4.0, s.Add(5))
	assert.Equal(t, 12.0, s.Sum())
	assert.Equal(t, 3, s.Len())
}

func TestAverageEmpty(t *testing.T) {
	s := NewSlidingWindow(5)
	assert.Equal(t, 0.0, s.Average())
}

func TestAverageDoesNotMutate(t *testing.T) {
	s := NewSlidingWindow(4)
	s.Add(2)
	s.Add(4)

	assert.Equal(t, 3.0, s.Average())
	assert.Equal(t, 3.0, s.Average())
	assert.Equal(t, 2, s.Len())
}

func TestReset(t *testing.T) {
	s := NewSlidingWindow(2)
	s.Add(10)
	s.Add(20)
	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0.0, s.Average())
	assert.Equal(t, 7.0, s.Add(7))
}

func TestWindowSizeFloor(t *testing.T) {
	s := NewSlidingWindow(0)
	assert.Equal(t, 1, s.WindowSize())
	assert.Equal(t, 5.0, s.Add(5))
	assert.Equal(t, 9.0, s.Add(9))
}
