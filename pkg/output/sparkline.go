package output

import (
	"strings"
	"sync"
)

// SparklineTracker keeps a bounded history of values per key, for example the
// most recent frame intervals of each session.
type SparklineTracker struct {
	mu     sync.Mutex
	data   map[string][]float64
	maxLen int
}

// NewSparklineTracker creates a tracker with a fixed window size.
func NewSparklineTracker(maxLen int) *SparklineTracker {
	if maxLen < 1 {
		maxLen = 20
	}
	return &SparklineTracker{
		data:   make(map[string][]float64),
		maxLen: maxLen,
	}
}

// Record adds a value for key, dropping the oldest beyond the window.
func (s *SparklineTracker) Record(key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vals := append(s.data[key], value)
	if len(vals) > s.maxLen {
		vals = vals[len(vals)-s.maxLen:]
	}
	s.data[key] = vals
}

// Values returns a copy of the retained values for key, oldest first.
func (s *SparklineTracker) Values(key string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.data[key]...)
}

// Forget drops the history for key.
func (s *SparklineTracker) Forget(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Sparkline returns a Unicode sparkline for key, or "" without data.
func (s *SparklineTracker) Sparkline(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return renderSparkline(s.data[key])
}

// block characters from lowest to highest
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func renderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	span := hi - lo
	top := len(sparkBlocks) - 1
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(top))
		}
		b.WriteRune(sparkBlocks[max(0, min(idx, top))])
	}
	return b.String()
}
