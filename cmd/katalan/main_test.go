package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testScenario = `
[radar]
equipment_id = "A7-north"
maximum_speed = 130

[[reply]]
photo = "car-1.jpg"
  [[reply.plates]]
  plate = "AB123CD"
  confidence = 0.9

[[trigger]]
measured_speed = 150
photo = "car-1.jpg"
triggered_at = 2024-03-01T08:30:00Z
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Scenario(t *testing.T) {
	path := writeFile(t, "scenario.toml", testScenario)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-scenario", path, "-log-level", "error"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &rec); err != nil {
		t.Fatalf("stdout is not one JSON record: %v (%q)", err, stdout.String())
	}
	if rec["plate_number"] != "AB123CD" || rec["considered_speed"] != float64(135) {
		t.Errorf("unexpected record: %v", rec)
	}
	if stderr.Len() != 0 {
		t.Errorf("expected no logs at error level, got %q", stderr.String())
	}
}

func TestRun_LogLevelAlias(t *testing.T) {
	path := writeFile(t, "scenario.toml", testScenario)

	for _, level := range []string{"WARN", "warning", "Error"} {
		t.Run(level, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run([]string{"-scenario", path, "-log-level", level}, &stdout, &stderr)
			if code != 0 {
				t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
			}
			if !strings.Contains(stdout.String(), `"plate_number":"AB123CD"`) {
				t.Errorf("expected infraction on stdout, got %q", stdout.String())
			}
		})
	}
}

func TestRun_ConfigFile(t *testing.T) {
	scenarioPath := writeFile(t, "scenario.toml", `
[[reply]]
photo = "p"
  [[reply.plates]]
  plate = "ZZ999ZZ"
  confidence = 1.0

[[trigger]]
measured_speed = 80
photo = "p"
`)
	configPath := writeFile(t, "katalan.toml", "[radar]\nmaximum_speed = 60\n\n[logging]\nlevel = \"error\"\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-s", scenarioPath, "-c", configPath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"plate_number":"ZZ999ZZ"`) {
		t.Errorf("expected infraction on stdout, got %q", stdout.String())
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing scenario flag", nil, 2},
		{"unknown flag", []string{"-bogus"}, 2},
		{"missing scenario file", []string{"-scenario", filepath.Join(t.TempDir(), "nope.toml")}, 1},
		{"bad log level", []string{"-scenario", "x.toml", "-log-level", "loud"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.code, stderr.String())
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "katalan dev") {
		t.Errorf("unexpected version output: %q", stdout.String())
	}
}
