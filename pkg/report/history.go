package report

import "sync"

// DefaultHistorySize matches the plotting window of the serial dashboard.
const DefaultHistorySize = 100

// History keeps the most recent reports in a fixed ring. Safe for
// concurrent use.
type History struct {
	mu    sync.Mutex
	buf   []Report
	next  int
	count int
}

func NewHistory(size int) *History {
	if size < 1 {
		size = DefaultHistorySize
	}
	return &History{buf: make([]Report, size)}
}

// Add stores r, evicting the oldest report once full.
func (h *History) Add(r Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = r
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// Reports returns a copy of the held reports, oldest first.
func (h *History) Reports() []Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Report, 0, h.count)
	start := (h.next - h.count + len(h.buf)) % len(h.buf)
	for i := 0; i < h.count; i++ {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *History) Cap() int {
	return len(h.buf)
}
