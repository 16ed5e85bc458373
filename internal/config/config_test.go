package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Auth.MaxFailedLogins != 5 {
		t.Fatalf("max_failed_logins = %d", cfg.Auth.MaxFailedLogins)
	}
	if cfg.LockoutPeriod() != 15*time.Minute {
		t.Fatalf("lockout = %v", cfg.LockoutPeriod())
	}
	if cfg.Auth.TOTPIssuer != "VetClinic" {
		t.Fatalf("totp issuer = %q", cfg.Auth.TOTPIssuer)
	}
	if cfg.AccessTTL() != time.Hour {
		t.Fatalf("access ttl = %v", cfg.AccessTTL())
	}
	if cfg.Ledger.Mode != "memory" {
		t.Fatalf("ledger mode = %q", cfg.Ledger.Mode)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  addr: ":9999"
auth:
  lockout_period: 5m
ledger:
  mode: raft
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VETCLINIC_LEDGER_MODE", "http")
	t.Setenv("VETCLINIC_JWT_SEED", "c2VlZA==")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.LockoutPeriod() != 5*time.Minute {
		t.Fatalf("lockout = %v", cfg.LockoutPeriod())
	}
	// env pisa al YAML
	if cfg.Ledger.Mode != "http" {
		t.Fatalf("ledger mode = %q", cfg.Ledger.Mode)
	}
	if cfg.JWT.SeedB64 != "c2VlZA==" {
		t.Fatalf("seed = %q", cfg.JWT.SeedB64)
	}
}

func TestParseDur(t *testing.T) {
	if got := parseDur("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("90s -> %v", got)
	}
	if got := parseDur("900", time.Minute); got != 900*time.Second {
		t.Fatalf("900 -> %v", got)
	}
	if got := parseDur("", time.Minute); got != time.Minute {
		t.Fatalf("empty -> %v", got)
	}
	if got := parseDur("-5m", time.Minute); got != time.Minute {
		t.Fatalf("negative -> %v", got)
	}
}
