package crosscheck

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danpilch/fpsmon/pkg/fps"
	"github.com/danpilch/fpsmon/pkg/selector"
	"github.com/danpilch/fpsmon/pkg/session"
)

func TestCrossCheckStatus(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		name    string
		sources []Source
		want    ValidationStatus
	}{
		{"empty", nil, StatusValid},
		{"single", []Source{{"a", 60}}, StatusValid},
		{"agree", []Source{{"a", 60}, {"b", 61}, {"c", 59}}, StatusValid},
		{"suspect", []Source{{"a", 60}, {"b", 60}, {"c", 70}}, StatusSuspect},
		{"conflict", []Source{{"a", 60}, {"b", 60}, {"c", 120}}, StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.CrossCheck("fps", tt.sources).Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCrossCheckMedian(t *testing.T) {
	r := NewValidator().CrossCheck("fps", []Source{{"a", 50}, {"b", 70}})
	if r.Consensus != 60 {
		t.Errorf("consensus = %v, want 60", r.Consensus)
	}
}

func TestSourcesSkipsUnmeasured(t *testing.T) {
	r := session.Report{AverageFPS: 60, LastInterval: 20 * time.Millisecond}
	got := Sources(r)
	if len(got) != 2 {
		t.Fatalf("got %d sources, want 2: %+v", len(got), got)
	}
	if got[1].Name != "last-interval" || got[1].Value != 50 {
		t.Errorf("last interval source = %+v", got[1])
	}
}

func TestStallKeepsReadingsInAgreement(t *testing.T) {
	c := fps.NewCalculator(fps.Options{StallThreshold: time.Second})
	for i := 0; i < 62; i++ {
		_ = c.RecordFrameTick(time.Duration(i) * time.Second / 60)
	}
	if err := c.RecordFrameTick(10 * time.Second); !errors.Is(err, fps.ErrStallGap) {
		t.Fatalf("expected stall, got %v", err)
	}
	st := c.Stats()
	r := session.Report{AverageFPS: st.AverageFPS, PerSecondFPS: st.PerSecondFPS, LastInterval: st.LastInterval}
	if v := NewValidator().CrossCheck("fps", Sources(r)); v.Status != StatusValid {
		t.Errorf("status after stall = %s: %+v", v.Status, v.Sources)
	}
}

func TestSanityChecks(t *testing.T) {
	good := session.Report{
		State:          selector.StateActive.String(),
		ActiveStrategy: "timer",
		CurrentFPS:     60,
		AverageFPS:     60,
		PerSecondFPS:   59,
	}
	if n := Failed(RunSanityChecks(good)); n != 0 {
		t.Errorf("good report failed %d checks", n)
	}

	bad := good
	bad.ActiveStrategy = ""
	bad.PerSecondFPS = 5000
	if n := Failed(RunSanityChecks(bad)); n != 2 {
		t.Errorf("bad report failed %d checks, want 2", n)
	}
}

func TestReportOutput(t *testing.T) {
	r := session.Report{State: selector.StateActive.String(), ActiveStrategy: "timer", AverageFPS: 60, PerSecondFPS: 60}
	v, sanity := Check(r)

	var buf bytes.Buffer
	Report(&buf, v, sanity)
	if !strings.Contains(buf.String(), "Frame Rate Cross-Check") {
		t.Errorf("missing title:\n%s", buf.String())
	}

	buf.Reset()
	if err := ReportJSON(&buf, v, sanity); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Validation ValidationResult `json:"validation"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Validation.Consensus != 60 {
		t.Errorf("consensus = %v", decoded.Validation.Consensus)
	}
}
