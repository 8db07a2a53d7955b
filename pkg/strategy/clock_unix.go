//go:build linux || darwin

package strategy

import (
	"time"

	"golang.org/x/sys/unix"
)

// Monotonic returns CLOCK_MONOTONIC, falling back to the runtime clock if the
// syscall fails.
func Monotonic() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return sinceStart()
	}
	return time.Duration(ts.Nano())
}
