package notify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSinksEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notifiers.yaml")
	raw := `
sinks:
  - id: hook1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: hook2
    type: http
    enabled: true
    http:
      url: https://example.com/2
  - id: audit
    type: log
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadSinks(path)
	if err != nil {
		t.Fatalf("LoadSinks: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled sinks, got %d", len(enabled))
	}
	if enabled[0].ID != "hook2" || enabled[1].ID != "audit" {
		t.Fatalf("unexpected enabled sinks: %#v", enabled)
	}

	cfg, ok := reg.ByID("hook2")
	if !ok {
		t.Fatalf("expected hook2 in registry")
	}
	if cfg.HTTP.Method != "POST" {
		t.Fatalf("http method not defaulted: %s", cfg.HTTP.Method)
	}
	if cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http timeout not defaulted: %d", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoadSinksDuplicateID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notifiers.yaml")
	raw := `
sinks:
  - id: same
    type: log
  - id: same
    type: log
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := LoadSinks(path); err == nil {
		t.Fatalf("expected duplicate sink id error")
	}
}

func TestValidateSinkConfigRejectsIncomplete(t *testing.T) {
	cases := []struct {
		name string
		cfg  SinkConfig
	}{
		{"missing http block", SinkConfig{ID: "h1", Type: TypeHTTP}},
		{"missing sqs uri", SinkConfig{ID: "q1", Type: TypeSQS, SQS: &SQSSinkConfig{Region: "eu-west-1"}}},
		{"missing sns region", SinkConfig{ID: "t1", Type: TypeSNS, SNS: &SNSSinkConfig{TopicARN: "arn:aws:sns:::t"}}},
		{"missing pubsub topic", SinkConfig{ID: "p1", Type: TypeGCPPubSub, PubSub: &PubSubSinkConfig{ProjectID: "proj"}}},
		{"missing type", SinkConfig{ID: "x1"}},
	}
	for _, tc := range cases {
		if err := validateSinkConfig(tc.cfg); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	if err := validateSinkConfig(SinkConfig{ID: "ok", Type: TypeLog}); err != nil {
		t.Fatalf("log sink must validate without extra config: %v", err)
	}
}
