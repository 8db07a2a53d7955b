package output

import (
	"fmt"

	"github.com/danpilch/fpsmon/pkg/session"
)

// Suggestion represents a diagnostic next step.
type Suggestion struct {
	Command string
	Reason  string
}

// Suggestions returns follow-up commands for a session that had trouble
// capturing frames.
func Suggestions(r session.Report) []Suggestion {
	var out []Suggestion
	app := r.AppID
	if app == "" {
		app = "<app-id>"
	}

	if r.State == "failed" {
		out = append(out,
			Suggestion{fmt.Sprintf("fpsmon probe --app %s --trace", app), "Trace every activation attempt"},
		)
	}
	if r.ActivationFailures > 0 && r.Stealth == "cautious" {
		out = append(out,
			Suggestion{fmt.Sprintf("fpsmon probe --app %s --stealth 1", app), "See which hooks a less cautious level would allow"},
		)
	}
	if r.ActiveStrategy == "timer" {
		out = append(out,
			Suggestion{fmt.Sprintf("fpsmon classify %s", app), "Timer readings follow the sampling rate; check the engine profile"},
		)
	}
	if r.Stalls > 0 && !r.LowPower {
		out = append(out,
			Suggestion{fmt.Sprintf("fpsmon run --app %s --low-power", app), "Longer windows smooth over stalls"},
		)
	}
	return out
}
