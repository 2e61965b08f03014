package gpu

import (
	"math"
	"sync"
)

// History tracks min and max over the session and an average that is either
// over the last windowSize samples or, with windowSize <= 0, over the whole
// session.
type History struct {
	windowSize int
	window     []float64
	sum        float64
	count      int
	min        float64
	max        float64
	mu         sync.Mutex
}

func NewHistory(windowSize int) *History {
	return &History{
		windowSize: windowSize,
		min:        math.Inf(1),
		max:        math.Inf(-1),
	}
}

// Update records v and returns the current average.
func (h *History) Update(v float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)

	if h.windowSize <= 0 {
		h.sum += v
		h.count++
		return h.sum / float64(h.count)
	}

	h.window = append(h.window, v)
	if len(h.window) > h.windowSize {
		h.window = h.window[1:]
	}

	sum := 0.0
	for _, s := range h.window {
		sum += s
	}

	return sum / float64(len(h.window))
}

// Bounds returns the session minimum and maximum. Both are zero before the
// first Update.
func (h *History) Bounds() (float64, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if math.IsInf(h.min, 1) {
		return 0, 0
	}

	return h.min, h.max
}
