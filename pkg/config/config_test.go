package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if c.Analysis.Features.RollingWindow != 20 {
		t.Fatalf("rolling window default: got %d", c.Analysis.Features.RollingWindow)
	}
	if c.Analysis.Thresholds.PanicPrice != -2.5 {
		t.Fatalf("panic threshold default: got %v", c.Analysis.Thresholds.PanicPrice)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("server port default: got %d", c.Server.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	yaml := `
environment: production
server:
  port: 9090
analysis:
  features:
    rolling_window: 10
  thresholds:
    panic_price_threshold: -4.0
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port override: got %d", c.Server.Port)
	}
	if c.Analysis.Features.RollingWindow != 10 {
		t.Fatalf("window override: got %d", c.Analysis.Features.RollingWindow)
	}
	if c.Analysis.Thresholds.PanicPrice != -4.0 {
		t.Fatalf("threshold override: got %v", c.Analysis.Thresholds.PanicPrice)
	}
	// untouched fields keep defaults
	if c.Analysis.Thresholds.FOMOPrice != 2.5 {
		t.Fatalf("untouched threshold changed: got %v", c.Analysis.Thresholds.FOMOPrice)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	c := Default()
	c.Analysis.IQRMultiplier = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero iqr multiplier")
	}

	c = Default()
	c.Kafka.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for kafka enabled without brokers")
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROVIDER_API_KEY", "secret")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Provider.APIKey != "secret" {
		t.Fatalf("env override missed: %q", c.Provider.APIKey)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Fatalf("broker list: %v", c.Kafka.Brokers)
	}
}
