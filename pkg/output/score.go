package output

import "github.com/danpilch/fpsmon/pkg/session"

// HealthScore computes a 0-100 score for how well frame capture is going.
// Starts at 100, -60 when failed, -15 per fallback, -5 per activation failure,
// -3 per stall.
func HealthScore(r session.Report) int {
	score := 100
	if r.State == "failed" {
		score -= 60
	}
	score -= 15 * r.Fallbacks
	score -= 5 * r.ActivationFailures
	score -= 3 * int(r.Stalls)
	if score < 0 {
		score = 0
	}
	return score
}

// ScoreLabel returns a human-readable label for a health score.
func ScoreLabel(score int) string {
	if score >= 80 {
		return "Healthy"
	}
	if score >= 50 {
		return "Degraded"
	}
	return "Critical"
}
