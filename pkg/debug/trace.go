package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TraceLogger provides step-by-step trace logging for selector operations.
type TraceLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	enabled bool
	now     func() time.Time
}

// NewTraceLogger creates a trace logger writing to the given writer.
func NewTraceLogger(w io.Writer) *TraceLogger {
	if w == nil {
		w = defaultTraceWriter()
	}
	return &TraceLogger{
		writer:  w,
		enabled: true,
		now:     time.Now,
	}
}

// SetEnabled turns tracing on or off.
func (t *TraceLogger) SetEnabled(on bool) {
	t.mu.Lock()
	t.enabled = on
	t.mu.Unlock()
}

// Log records a trace entry for a component step.
func (t *TraceLogger) Log(component, step, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	fmt.Fprintf(t.writer, "[TRACE %s] %s: %s - %s\n",
		t.now().Format("15:04:05.000"), component, step, detail)
}

// LogValue records a sampled reading.
func (t *TraceLogger) LogValue(component, source string, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	fmt.Fprintf(t.writer, "[TRACE %s] %s: source=%s value=%.4f\n",
		t.now().Format("15:04:05.000"), component, source, value)
}

// defaultTraceWriter returns stderr for trace output.
func defaultTraceWriter() io.Writer {
	return os.Stderr
}
