package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danpilch/fpsmon/pkg/profile"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FPSMON_APP_ID", "")
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.json")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestClassifyJSON(t *testing.T) {
	out, err := execute(t, "classify", "--json", "com.tencent.ig", "com.unknown.app")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var got map[string]profile.Profile
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got["com.tencent.ig"].Engine != profile.EngineTargetGame {
		t.Errorf("com.tencent.ig engine = %s", got["com.tencent.ig"].Engine)
	}
	if got["com.unknown.app"] != profile.Unknown() {
		t.Errorf("com.unknown.app = %+v, want defaults", got["com.unknown.app"])
	}
}

func TestClassifyTable(t *testing.T) {
	out, err := execute(t, "classify", "com.unity3d.demo")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "com.unity3d.demo") || !strings.Contains(out, "HEALTH CHECK") {
		t.Errorf("unexpected table:\n%s", out)
	}
}

func TestInvalidLogFormat(t *testing.T) {
	if _, err := execute(t, "--log-format", "xml", "classify"); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestBaselineListEmpty(t *testing.T) {
	out, err := execute(t, "baseline", "list", "--baseline-dir", t.TempDir())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out != "" {
		t.Errorf("expected no baselines, got %q", out)
	}
}
