//go:build !linux && !darwin

package strategy

import "time"

// Monotonic returns the runtime's monotonic clock on platforms without
// clock_gettime.
func Monotonic() time.Duration {
	return sinceStart()
}
