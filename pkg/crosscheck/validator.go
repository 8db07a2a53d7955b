// Package crosscheck compares the frame rate readings a session derives from
// the same frame stream and flags readings that disagree or break physical
// limits.
package crosscheck

import (
	"math"
	"sort"
	"time"

	"github.com/danpilch/fpsmon/pkg/session"
)

// ValidationStatus indicates the confidence level of a cross-checked metric.
type ValidationStatus string

const (
	StatusValid    ValidationStatus = "valid"
	StatusSuspect  ValidationStatus = "suspect"
	StatusConflict ValidationStatus = "conflict"
)

// Source is one reading of the frame rate.
type Source struct {
	Name  string
	Value float64
}

// ValidationResult holds the cross-check outcome for a metric.
type ValidationResult struct {
	Metric       string
	Sources      []Source
	Consensus    float64
	MaxDeviation float64
	Status       ValidationStatus
}

// Validator cross-checks readings against their median.
type Validator struct {
	SuspectThreshold  float64 // deviation % to mark suspect
	ConflictThreshold float64 // deviation % to mark conflict
}

// NewValidator creates a validator with default thresholds. Frame rates are
// noisier than kernel counters, so the bands are wider.
func NewValidator() *Validator {
	return &Validator{
		SuspectThreshold:  10.0,
		ConflictThreshold: 35.0,
	}
}

// Sources extracts every frame rate reading carried by a report. Readings
// that are zero because nothing has been measured yet are skipped.
func Sources(r session.Report) []Source {
	var out []Source
	add := func(name string, v float64) {
		if v > 0 {
			out = append(out, Source{Name: name, Value: v})
		}
	}
	add("average", r.AverageFPS)
	add("per-second", r.PerSecondFPS)
	if r.LastInterval > 0 {
		add("last-interval", float64(time.Second)/float64(r.LastInterval))
	}
	return out
}

// CrossCheck compares sources by their median and classifies the largest
// relative deviation.
func (v *Validator) CrossCheck(metric string, sources []Source) ValidationResult {
	result := ValidationResult{
		Metric:  metric,
		Sources: sources,
		Status:  StatusValid,
	}

	switch len(sources) {
	case 0:
		return result
	case 1:
		result.Consensus = sources[0].Value
		return result
	}

	values := make([]float64, len(sources))
	for i, s := range sources {
		values[i] = s.Value
	}
	sort.Float64s(values)
	if n := len(values); n%2 == 0 {
		result.Consensus = (values[n/2-1] + values[n/2]) / 2
	} else {
		result.Consensus = values[n/2]
	}

	for _, val := range values {
		if result.Consensus == 0 {
			if val != 0 {
				result.MaxDeviation = 100.0
			}
			continue
		}
		dev := math.Abs(val-result.Consensus) / result.Consensus * 100
		if dev > result.MaxDeviation {
			result.MaxDeviation = dev
		}
	}

	if result.MaxDeviation >= v.ConflictThreshold {
		result.Status = StatusConflict
	} else if result.MaxDeviation >= v.SuspectThreshold {
		result.Status = StatusSuspect
	}
	return result
}
