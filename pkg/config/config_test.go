package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestResolveDefaults(t *testing.T) {
	t.Setenv(EnvLog, "")
	r, err := Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Version != DefaultVersion {
		t.Errorf("Version = %q", r.Version)
	}
	if r.QueueSize != DefaultQueueSize {
		t.Errorf("QueueSize = %d", r.QueueSize)
	}
	if !r.AsyncBounds {
		t.Error("AsyncBounds should default to true")
	}
	if r.PumpInterval != DefaultPumpInterval {
		t.Errorf("PumpInterval = %s", r.PumpInterval)
	}
	if r.LogEnabled || r.MetricsEnabled {
		t.Error("logging and metrics should be off by default")
	}
	if r.MetricsNamespace != DefaultNamespace || r.MetricsAddr != DefaultMetricsAddr {
		t.Errorf("metrics = %q %q", r.MetricsNamespace, r.MetricsAddr)
	}
}

func TestResolveFile(t *testing.T) {
	t.Setenv(EnvLog, "")
	dir := writeConfig(t, `
version: v1.2.0
logging:
  enabled: true
  verbose: true
dispatch:
  queue_size: 64
  async_bounds: false
  pump_interval: 5ms
webview:
  user_agent: "  Embed/2.0  "
metrics:
  enabled: true
  namespace: host
  addr: ":9000"
`)
	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := Resolved{
		Root:             dir,
		Version:          "v1.2.0",
		LogEnabled:       true,
		LogVerbose:       true,
		QueueSize:        64,
		AsyncBounds:      false,
		PumpInterval:     5 * time.Millisecond,
		UserAgent:        "Embed/2.0",
		MetricsEnabled:   true,
		MetricsNamespace: "host",
		MetricsAddr:      ":9000",
	}
	if *r != want {
		t.Errorf("Resolve =\n%+v\nwant\n%+v", *r, want)
	}
}

func TestResolveEnvOverride(t *testing.T) {
	dir := writeConfig(t, "logging:\n  enabled: false\n")

	t.Setenv(EnvLog, "1")
	r, err := Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !r.LogEnabled {
		t.Error("EMBEDVIEW_LOG=1 should enable logging")
	}

	dir = writeConfig(t, "logging:\n  enabled: true\n")
	t.Setenv(EnvLog, "0")
	r, err = Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	if r.LogEnabled {
		t.Error("EMBEDVIEW_LOG=0 should disable logging")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "logging: [", "failed to parse"},
		{"bad version", "version: one", "invalid config version"},
		{"major version", "version: v2.0.0", "only v1.x"},
		{"negative queue", "dispatch:\n  queue_size: -1", "queue_size"},
		{"bad interval", "dispatch:\n  pump_interval: soon", "pump_interval"},
		{"zero interval", "dispatch:\n  pump_interval: 0s", "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestFindConfigDir(t *testing.T) {
	root := writeConfig(t, "version: v1.0.0\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	got, err := FindConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	// Resolve symlinks so a temp dir under /private on macOS compares equal.
	want, _ := filepath.EvalSymlinks(root)
	got, _ = filepath.EvalSymlinks(got)
	if got != want {
		t.Errorf("FindConfigDir = %q, want %q", got, want)
	}
}
