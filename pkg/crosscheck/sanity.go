package crosscheck

import (
	"fmt"

	"github.com/danpilch/fpsmon/pkg/selector"
	"github.com/danpilch/fpsmon/pkg/session"
)

// MaxPlausibleFPS bounds what any display pipeline can present.
const MaxPlausibleFPS = 1000.0

// SanityResult holds the outcome of a physical constraint check.
type SanityResult struct {
	Check   string
	Passed  bool
	Details string
}

// RunSanityChecks validates a report against physical constraints.
func RunSanityChecks(r session.Report) []SanityResult {
	var results []SanityResult

	for _, v := range []struct {
		name  string
		value float64
	}{
		{"current fps", r.CurrentFPS},
		{"average fps", r.AverageFPS},
		{"per-second fps", r.PerSecondFPS},
	} {
		switch {
		case v.value < 0:
			results = append(results, SanityResult{v.name, false, fmt.Sprintf("negative value: %.2f", v.value)})
		case v.value > MaxPlausibleFPS:
			results = append(results, SanityResult{v.name, false, fmt.Sprintf("%.1f exceeds %.0f", v.value, MaxPlausibleFPS)})
		default:
			results = append(results, SanityResult{v.name, true, fmt.Sprintf("%.1f within [0, %.0f]", v.value, MaxPlausibleFPS)})
		}
	}

	if r.LastInterval < 0 {
		results = append(results, SanityResult{"frame interval", false, fmt.Sprintf("negative interval: %s", r.LastInterval)})
	}
	if r.State == selector.StateActive.String() && r.ActiveStrategy == "" {
		results = append(results, SanityResult{"active strategy", false, "active without a strategy id"})
	}
	return results
}
