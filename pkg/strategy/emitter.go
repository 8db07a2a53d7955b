package strategy

import (
	"sync"
	"sync/atomic"
	"time"
)

// emitter drives a ticker goroutine that stamps frames into a sink. It is the
// shared machinery behind Timer and Synthetic handles.
type emitter struct {
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	alive   atomic.Bool
	frames  atomic.Uint64
	started time.Time
}

// startEmitter ticks every interval and calls onTick until stop is called.
// A panic inside onTick ends the loop and marks the emitter dead.
func startEmitter(interval time.Duration, onTick func()) *emitter {
	e := &emitter{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		started: time.Now(),
	}
	e.alive.Store(true)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(e.stopped)
		defer ticker.Stop()
		defer e.alive.Store(false)
		defer func() { _ = recover() }()
		for {
			select {
			case <-e.done:
				return
			case <-ticker.C:
				onTick()
				e.frames.Add(1)
			}
		}
	}()
	return e
}

// stop ends the loop and waits for the goroutine to exit.
func (e *emitter) stop() {
	e.once.Do(func() { close(e.done) })
	<-e.stopped
}

func (e *emitter) running() bool {
	return e.alive.Load()
}
