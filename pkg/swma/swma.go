package swma

// SlidingWindow is a simple moving average over the last windowSize samples.
// The buffer is allocated once; Add is O(1).
type SlidingWindow struct {
	sum        float64
	window     []float64
	windowSize int
	index      int
	count      int
}

func NewSlidingWindow(windowSize int) *SlidingWindow {
	if windowSize < 1 {
		windowSize = 1
	}
	return &SlidingWindow{
		window:     make([]float64, windowSize),
		windowSize: windowSize,
	}
}

// Add stores value, evicting the oldest sample once the window is full, and
// returns the average of the samples currently held.
func (s *SlidingWindow) Add(value float64) float64 {
	if s.count == s.windowSize {
		s.sum -= s.window[s.index]
	} else {
		s.count++
	}
	s.window[s.index] = value
	s.sum += value
	s.index = (s.index + 1) % s.windowSize
	return s.sum / float64(s.count)
}

func (s *SlidingWindow) Average() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *SlidingWindow) Reset() {
	s.sum = 0
	s.index = 0
	s.count = 0
	for i := range s.window {
		s.window[i] = 0
	}
}

func (s *SlidingWindow) Sum() float64 {
	return s.sum
}

// Len is the number of samples held, at most WindowSize.
func (s *SlidingWindow) Len() int {
	return s.count
}

func (s *SlidingWindow) WindowSize() int {
	return s.windowSize
}
