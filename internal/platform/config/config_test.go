package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	def := DefaultConfig()
	if cfg.HTTPAddr != def.HTTPAddr || cfg.StoreDriver != DriverSQLite || cfg.TickInterval != time.Second {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	content := "STORE_DRIVER=memory\nTICK_INTERVAL=500ms\nMAX_CLIENTS=3\n"
	if err := os.WriteFile(filepath.Join(dir, "clicker.env"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLICKER_MAX_CLIENTS", "7")

	cfg, err := load(viper.New(), dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %v, want 500ms", cfg.TickInterval)
	}
	if cfg.MaxClients != 7 {
		t.Errorf("MaxClients = %d, env should win over file", cfg.MaxClients)
	}
}

func TestLoadRejectsInvalidDriver(t *testing.T) {
	t.Setenv("CLICKER_STORE_DRIVER", "floppy")
	if _, err := load(viper.New(), t.TempDir()); err == nil {
		t.Error("Expected unknown driver to be rejected")
	}
}

func TestValidate(t *testing.T) {
	cfg := LowResourceConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("LowResourceConfig invalid: %v", err)
	}

	cfg.StoreDriver = DriverPostgres
	if err := cfg.Validate(); err == nil {
		t.Error("postgres without DSN should be rejected")
	}

	cfg = DefaultConfig()
	cfg.TickInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero tick interval should be rejected")
	}
}
