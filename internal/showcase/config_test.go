package showcase

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.Slots != 3 || c.RotateInterval != 10*time.Second || c.FadeDuration != 350*time.Millisecond {
		t.Fatalf("defaults: %+v", c)
	}
	if c.MaxRetries != 5 || c.ClickDelay != 220*time.Millisecond {
		t.Fatalf("defaults: %+v", c)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showcase.yaml")
	body := "slots: 4\nrotate_interval: 6s\nresume_delay: 1s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if c.Slots != 4 || c.RotateInterval != 6*time.Second || c.ResumeDelay != time.Second {
		t.Fatalf("loaded: %+v", c)
	}
	if c.SettleDelay != DefaultSettleDelay {
		t.Fatalf("missing key did not default: %s", c.SettleDelay)
	}
}

func TestLoadConfigFileInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"interval too short", "rotate_interval: 400ms\n"},
		{"too many slots", "slots: 100\n"},
		{"not yaml", "slots: [\n"},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadConfigFile(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
