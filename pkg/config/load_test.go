package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_OmittedMetricsEnabledDefaultsTrue(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:9100"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled by default when the file omits the field")
	}
}

func TestLoadConfig_ExplicitMetricsDisabled(t *testing.T) {
	path := writeConfigFile(t, `
metrics:
  enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected explicit enabled: false to be honored")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:9100"
  read_timeout: "60s"

metrics:
  enabled: true
  namespace: "gateway"
  max_series: 4096
  flush_interval: "500ms"
  latency_buckets: [0.01, 0.1, 1]

recorder:
  per_consumer: true
  params: ["id", "name"]

upstreams:
  - name: "backend"
    healthchecks: true
    targets:
      - host: "10.0.0.1"
        port: 8080

datastore:
  path: "./test.db"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9100" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9100", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Metrics.Namespace != "gateway" {
		t.Errorf("expected namespace %q, got %q", "gateway", cfg.Metrics.Namespace)
	}
	if cfg.Metrics.MaxSeries != 4096 {
		t.Errorf("expected max series 4096, got %d", cfg.Metrics.MaxSeries)
	}
	if cfg.Metrics.FlushInterval != 500*time.Millisecond {
		t.Errorf("expected flush interval 500ms, got %v", cfg.Metrics.FlushInterval)
	}
	if len(cfg.Metrics.LatencyBuckets) != 3 {
		t.Errorf("expected 3 latency buckets, got %v", cfg.Metrics.LatencyBuckets)
	}
	if !cfg.Recorder.PerConsumer {
		t.Error("expected per-consumer tracking enabled")
	}
	if len(cfg.Recorder.Params) != 2 || cfg.Recorder.Params[0] != "id" {
		t.Errorf("expected ordered params [id name], got %v", cfg.Recorder.Params)
	}
	if len(cfg.Upstreams) != 1 || cfg.Upstreams[0].Name != "backend" {
		t.Errorf("unexpected upstreams %v", cfg.Upstreams)
	}
	if !cfg.Upstreams[0].Healthchecks {
		t.Error("expected healthchecks enabled on backend upstream")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %q", cfg.Telemetry.Logging.Level)
	}

	// Unset fields pick up defaults.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Metrics.Shards != DefaultShards {
		t.Errorf("expected default shard count, got %d", cfg.Metrics.Shards)
	}
	if cfg.Datastore.Driver != DefaultDatastoreDriver {
		t.Errorf("expected default datastore driver, got %q", cfg.Datastore.Driver)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server:\n  listen_address: [broken\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "not-an-address"
metrics:
  shards: 3
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	fields := make(map[string]bool)
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	if !fields["server.listen_address"] {
		t.Error("expected field error for server.listen_address")
	}
	if !fields["metrics.shards"] {
		t.Error("expected field error for metrics.shards")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:9542"
metrics:
  namespace: "from_file"
`)

	t.Setenv("PROXYSTATS_SERVER_LISTEN_ADDRESS", "0.0.0.0:8888")
	t.Setenv("PROXYSTATS_METRICS_NAMESPACE", "from_env")
	t.Setenv("PROXYSTATS_METRICS_MAX_SERIES", "123")
	t.Setenv("PROXYSTATS_RECORDER_PARAMS", "id, name ,")
	t.Setenv("PROXYSTATS_METRICS_FLUSH_INTERVAL", "2s")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8888" {
		t.Errorf("expected env-overridden listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Metrics.Namespace != "from_env" {
		t.Errorf("expected env-overridden namespace, got %q", cfg.Metrics.Namespace)
	}
	if cfg.Metrics.MaxSeries != 123 {
		t.Errorf("expected env-overridden max series, got %d", cfg.Metrics.MaxSeries)
	}
	if cfg.Metrics.FlushInterval != 2*time.Second {
		t.Errorf("expected env-overridden flush interval, got %v", cfg.Metrics.FlushInterval)
	}
	want := []string{"id", "name"}
	if len(cfg.Recorder.Params) != 2 || cfg.Recorder.Params[0] != want[0] || cfg.Recorder.Params[1] != want[1] {
		t.Errorf("expected trimmed params %v, got %v", want, cfg.Recorder.Params)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverrideFailsValidation(t *testing.T) {
	path := writeConfigFile(t, "")

	t.Setenv("PROXYSTATS_SERVER_LISTEN_ADDRESS", "no port here")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("expected validation failure after bad env override")
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b ", []string{"a", "b"}},
		{"a,,b,", []string{"a", "b"}},
		{",", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}
