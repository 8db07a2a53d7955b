package strategy

import "time"

// Clock returns a monotonic timestamp relative to an arbitrary fixed origin.
type Clock func() time.Duration

var processStart = time.Now()

// sinceStart is the portable fallback clock built on the runtime's monotonic
// reading.
func sinceStart() time.Duration {
	return time.Since(processStart)
}
