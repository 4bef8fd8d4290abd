package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"teampulse/internal/config"
)

func TestGenerateDefaultRoundTrip(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault("acme")))
	if err != nil {
		t.Fatalf("parse default: %v", err)
	}
	if cfg.Tenant.ID != "acme" {
		t.Fatalf("tenant id = %q", cfg.Tenant.ID)
	}
	for _, unit := range []string{"Engineering", "Design", "Operations"} {
		if !cfg.KnownUnit(unit) {
			t.Fatalf("default catalog missing %s", unit)
		}
	}
	if cfg.KnownUnit("Bogus") {
		t.Fatal("unknown unit accepted")
	}
	if !cfg.KnownUnit("") {
		t.Fatal("empty unit must always be accepted")
	}
}

func TestKnownUnitEmptyCatalog(t *testing.T) {
	cfg, err := config.FromYAML([]byte("tenant:\n  id: acme\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.KnownUnit("Anything") {
		t.Fatal("empty catalog must accept any unit")
	}
}

func TestLoadFromWorkspace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "teampulse.yml")
	if err := os.WriteFile(path, []byte(config.GenerateDefault("acme")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tenant.ID != "acme" {
		t.Fatalf("tenant id = %q", cfg.Tenant.ID)
	}
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := config.Load(dir); err == nil {
		t.Fatal("expected error for missing config")
	}
	cfg, err := config.LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("optional load = %v, %v; want nil, nil", cfg, err)
	}
}

func TestValidateRejectsMissingTenant(t *testing.T) {
	if _, err := config.FromYAML([]byte("units:\n  catalog: {}\n")); err == nil {
		t.Fatal("expected validation error without tenant id")
	}
}
