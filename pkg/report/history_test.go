package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func temps(rs []Report) []float64 {
	var out []float64
	for _, r := range rs {
		out = append(out, r.Temperature)
	}
	return out
}

func TestHistoryPartial(t *testing.T) {
	h := NewHistory(3)
	assert.Empty(t, h.Reports())

	h.Add(Report{Temperature: 1})
	h.Add(Report{Temperature: 2})
	assert.Equal(t, []float64{1, 2}, temps(h.Reports()))
	assert.Equal(t, 2, h.Len())
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add(Report{Temperature: float64(i)})
	}
	assert.Equal(t, []float64{3, 4, 5}, temps(h.Reports()))
	assert.Equal(t, 3, h.Len())
}

func TestHistoryReportsIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Add(Report{Temperature: 1})
	rs := h.Reports()
	rs[0].Temperature = 99
	assert.Equal(t, []float64{1}, temps(h.Reports()))
}

func TestHistoryDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultHistorySize, NewHistory(0).Cap())
}
