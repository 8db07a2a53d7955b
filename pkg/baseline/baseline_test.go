package baseline

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/danpilch/fpsmon/pkg/session"
)

func report(app string, avg float64, fallbacks int) session.Report {
	return session.Report{
		AppID:        app,
		AverageFPS:   avg,
		PerSecondFPS: avg,
		LastInterval: time.Duration(float64(time.Second) / avg),
		Fallbacks:    fallbacks,
	}
}

func TestSaveLoadList(t *testing.T) {
	dir := t.TempDir()
	b := NewBaseline("before-patch", []session.Report{report("com.tencent.ig", 60, 0)})
	if err := b.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := NewBaseline("another", nil).Save(dir); err != nil {
		t.Fatal(err)
	}

	got, err := Load("before-patch", dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "before-patch" || len(got.Reports) != 1 || got.Reports[0].AverageFPS != 60 {
		t.Errorf("loaded %+v", got)
	}

	names, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "another" || names[1] != "before-patch" {
		t.Errorf("names = %v", names)
	}
}

func TestListMissingDir(t *testing.T) {
	names, err := List(t.TempDir() + "/nope")
	if err != nil || names != nil {
		t.Errorf("List = %v, %v", names, err)
	}
}

func TestRejectsPathNames(t *testing.T) {
	if err := NewBaseline("../escape", nil).Save(t.TempDir()); err == nil {
		t.Error("expected error for path traversal")
	}
	if _, err := Load("a/b", t.TempDir()); err == nil {
		t.Error("expected error for nested name")
	}
}

func TestCompareDirection(t *testing.T) {
	base := NewBaseline("b", []session.Report{
		report("com.tencent.ig", 60, 0),
		report("com.unity3d.demo", 30, 1),
	})
	current := []session.Report{
		report("com.tencent.ig", 40, 0),   // FPS dropped by a third
		report("com.unity3d.demo", 45, 1), // FPS rose by half
		report("com.new.app", 60, 0),      // not in baseline
	}

	comps := Compare(base, current)
	if len(comps) != 2*len(metrics) {
		t.Fatalf("comparisons = %d", len(comps))
	}

	sev := map[string]Severity{}
	for _, c := range comps {
		sev[c.AppID+"/"+c.Metric] = c.Severity
	}
	tests := map[string]Severity{
		"com.tencent.ig/" + MetricAverageFPS:   SeverityRegress,
		"com.tencent.ig/" + MetricFrameMillis:  SeverityRegress,
		"com.tencent.ig/" + MetricFallbacks:    SeverityNone,
		"com.unity3d.demo/" + MetricAverageFPS: SeverityMajor,
		"com.unity3d.demo/" + MetricFallbacks:  SeverityNone,
	}
	for key, want := range tests {
		if sev[key] != want {
			t.Errorf("%s severity = %s, want %s", key, sev[key], want)
		}
	}
	if got := Regressions(comps); got != 3 {
		t.Errorf("regressions = %d, want 3", got)
	}

	var buf bytes.Buffer
	RenderComparison(&buf, base, comps)
	if !strings.Contains(buf.String(), "3 potential regressions") {
		t.Errorf("render:\n%s", buf.String())
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		delta         float64
		higherIsWorse bool
		want          Severity
	}{
		{2, false, SeverityNone},
		{-10, false, SeverityMinor},
		{20, true, SeverityModerate},
		{-40, false, SeverityRegress},
		{40, false, SeverityMajor},
		{40, true, SeverityRegress},
	}
	for _, tt := range tests {
		if got := classifySeverity(tt.delta, tt.higherIsWorse); got != tt.want {
			t.Errorf("classifySeverity(%v, %v) = %s, want %s", tt.delta, tt.higherIsWorse, got, tt.want)
		}
	}
}
