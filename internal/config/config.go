package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backend, cargada de YAML con
// overrides por variables de entorno (VETCLINIC_*).
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		MetricsAddr        string   `yaml:"metrics_addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns int `yaml:"max_open_conns"`
			MaxIdleConns int `yaml:"max_idle_conns"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
		// SeedB64 viene de env (VETCLINIC_JWT_SEED), nunca del YAML.
		SeedB64 string `yaml:"-"`
	} `yaml:"jwt"`

	Auth struct {
		MaxFailedLogins    int    `yaml:"max_failed_logins"`    // default 5
		LockoutPeriod      string `yaml:"lockout_period"`       // default 15m
		TOTPIssuer         string `yaml:"totp_issuer"`          // default VetClinic
		TOTPWindow         int    `yaml:"totp_window"`          // default 1 (+/- 30s)
		TempPasswordLength int    `yaml:"temp_password_length"` // default 12
	} `yaml:"auth"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Login struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`

	Ledger struct {
		// raft | http | memory
		Mode string `yaml:"mode"`
		// Owner es la cuenta de servicio bajo la cual se registran las
		// entradas (análogo al account del nodo que firma transacciones).
		Owner string `yaml:"owner"`
		HTTP  struct {
			BaseURL string `yaml:"base_url"`
			Timeout string `yaml:"timeout"`
			// ServeAddr expone la API del nodo embebido para otras
			// instancias (solo con mode=raft). Vacío = no se expone.
			ServeAddr string `yaml:"serve_addr"`
		} `yaml:"http"`
		Raft struct {
			NodeID    string            `yaml:"node_id"`
			Addr      string            `yaml:"addr"`
			Dir       string            `yaml:"dir"`
			Bootstrap bool              `yaml:"bootstrap"`
			Peers     map[string]string `yaml:"peers"`
		} `yaml:"raft"`
	} `yaml:"ledger"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`
}

// Load lee el YAML (si path no está vacío), aplica defaults y
// overrides de entorno.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VETCLINIC_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VETCLINIC_DB_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("VETCLINIC_DB_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("VETCLINIC_JWT_SEED"); v != "" {
		c.JWT.SeedB64 = v
	}
	if v := os.Getenv("VETCLINIC_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("VETCLINIC_LEDGER_MODE"); v != "" {
		c.Ledger.Mode = v
	}
	if v := os.Getenv("VETCLINIC_LEDGER_URL"); v != "" {
		c.Ledger.HTTP.BaseURL = v
	}
	if v := os.Getenv("VETCLINIC_REDIS_ADDR"); v != "" {
		c.Rate.Redis.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "vetclinic"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "1h"
	}
	if c.Auth.MaxFailedLogins <= 0 {
		c.Auth.MaxFailedLogins = 5
	}
	if c.Auth.LockoutPeriod == "" {
		c.Auth.LockoutPeriod = "15m"
	}
	if c.Auth.TOTPIssuer == "" {
		c.Auth.TOTPIssuer = "VetClinic"
	}
	if c.Auth.TOTPWindow <= 0 || c.Auth.TOTPWindow > 3 {
		c.Auth.TOTPWindow = 1
	}
	if c.Auth.TempPasswordLength <= 0 {
		c.Auth.TempPasswordLength = 12
	}
	if c.Rate.Kind == "" {
		c.Rate.Kind = "memory"
	}
	if c.Rate.Login.Limit <= 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == "" {
		c.Rate.Login.Window = "1m"
	}
	if c.Ledger.Mode == "" {
		c.Ledger.Mode = "memory"
	}
	if c.Ledger.Owner == "" {
		c.Ledger.Owner = "vetclinic-api"
	}
	if c.Ledger.HTTP.Timeout == "" {
		c.Ledger.HTTP.Timeout = "30s"
	}
	if c.Ledger.Raft.Dir == "" {
		c.Ledger.Raft.Dir = "./data/ledger"
	}
}

// AccessTTL parsea JWT.AccessTTL (default 1h).
func (c *Config) AccessTTL() time.Duration { return parseDur(c.JWT.AccessTTL, time.Hour) }

// LockoutPeriod parsea Auth.LockoutPeriod (default 15m).
func (c *Config) LockoutPeriod() time.Duration { return parseDur(c.Auth.LockoutPeriod, 15*time.Minute) }

// LoginRateWindow parsea Rate.Login.Window (default 1m).
func (c *Config) LoginRateWindow() time.Duration { return parseDur(c.Rate.Login.Window, time.Minute) }

// LedgerHTTPTimeout parsea Ledger.HTTP.Timeout (default 30s).
func (c *Config) LedgerHTTPTimeout() time.Duration {
	return parseDur(c.Ledger.HTTP.Timeout, 30*time.Second)
}

// ReadTimeout / WriteTimeout del servidor HTTP.
func (c *Config) ReadTimeout() time.Duration  { return parseDur(c.Server.ReadTimeout, 10*time.Second) }
func (c *Config) WriteTimeout() time.Duration { return parseDur(c.Server.WriteTimeout, 30*time.Second) }

func parseDur(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	// Permitir segundos numéricos pelados ("900")
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
