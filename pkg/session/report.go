package session

import (
	"time"

	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/profile"
)

// Report is a point-in-time snapshot of a session.
type Report struct {
	SessionID          string          `json:"session_id"`
	AppID              string          `json:"app_id"`
	Profile            profile.Profile `json:"profile"`
	Stealth            string          `json:"stealth"`
	State              string          `json:"state"`
	ActiveStrategy     string          `json:"active_strategy,omitempty"`
	Attempts           int             `json:"attempts"`
	Fallbacks          int             `json:"fallbacks"`
	ActivationFailures int             `json:"activation_failures"`
	LastError          string          `json:"last_error,omitempty"`
	Mode               string          `json:"mode"`
	LowPower           bool            `json:"low_power"`
	CurrentFPS         float64         `json:"current_fps"`
	AverageFPS         float64         `json:"average_fps"`
	PerSecondFPS       float64         `json:"per_second_fps"`
	SampleCount        int64           `json:"sample_count"`
	Stalls             uint64          `json:"stalls"`
	LastInterval       time.Duration   `json:"last_interval_ns"`
	Uptime             time.Duration   `json:"uptime_ns"`
	Timestamp          time.Time       `json:"timestamp"`
}

// Report captures the current session state.
func (s *Session) Report() Report {
	st := s.sel.Status()
	stats := s.calc.Stats()
	r := Report{
		SessionID:          s.id,
		AppID:              s.opts.AppID,
		Profile:            s.Profile(),
		Stealth:            s.opts.Stealth.String(),
		State:              st.State.String(),
		ActiveStrategy:     st.ActiveID,
		Attempts:           st.Attempts,
		Fallbacks:          st.Fallbacks,
		ActivationFailures: st.ActivationFailures,
		Mode:               stats.Mode.String(),
		LowPower:           stats.LowPower,
		AverageFPS:         stats.AverageFPS,
		PerSecondFPS:       stats.PerSecondFPS,
		SampleCount:        stats.SampleCount,
		Stalls:             stats.Stalls,
		LastInterval:       stats.LastInterval,
		Uptime:             s.Uptime(),
		Timestamp:          time.Now(),
	}
	if stats.Mode == fps.ModePerSecond {
		r.CurrentFPS = stats.PerSecondFPS
	} else {
		r.CurrentFPS = stats.AverageFPS
	}
	if st.LastError != nil {
		r.LastError = st.LastError.Error()
	}
	return r
}
