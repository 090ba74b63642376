package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
database:
  user: quicklift
  password: "secret"
  database: quicklift
rabbitmq:
  user: guest
  password: guest
`

func TestLoadFromFileDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults: %+v", cfg.Database)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("redis port default = %d", cfg.Redis.Port)
	}
	if cfg.Services.DispatchServicePort != 3000 {
		t.Errorf("dispatch port default = %d", cfg.Services.DispatchServicePort)
	}
	if cfg.Fare.RatePerKM != 11.00 {
		t.Errorf("rate per km default = %v", cfg.Fare.RatePerKM)
	}
	if cfg.Matching.Strategy != "first" {
		t.Errorf("matching strategy default = %q", cfg.Matching.Strategy)
	}
	if cfg.JWT.SecretKey == "" {
		t.Error("jwt secret not generated")
	}
}

func TestLoadFromFileFullConfig(t *testing.T) {
	body := `
# dispatch service configuration
database:
  host: db.internal
  port: 5433
  user: quicklift
  password: 'pw'
  database: quicklift
rabbitmq:
  host: mq.internal
  port: 5673
  user: quicklift
  password: pw
redis:
  host: cache.internal
  port: 6380
  db: 2
websocket:
  port: 9090
services:
  dispatch_service: 3100
jwt:
  secret_key: "super-secret"
fare:
  rate_per_km: 12.5
matching:
  strategy: nearest
  radius_km: 3.5
  limit: 5
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Redis.Host != "cache.internal" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.JWT.SecretKey != "super-secret" {
		t.Errorf("jwt secret = %q", cfg.JWT.SecretKey)
	}
	if cfg.Fare.RatePerKM != 12.5 {
		t.Errorf("rate per km = %v", cfg.Fare.RatePerKM)
	}
	if cfg.Matching.Strategy != "nearest" || cfg.Matching.RadiusKM != 3.5 || cfg.Matching.Limit != 5 {
		t.Errorf("matching = %+v", cfg.Matching)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"unknown section", "bogus:\n  x: 1\n", "unknown top-level key"},
		{"duplicate section", "database:\n  user: u\ndatabase:\n  user: u\n", "duplicate"},
		{"key without section", "  port: 1\n", "key without a section"},
		{"bad port", minimalConfig + "websocket:\n  port: http\n", "must be int"},
		{"bad rate", minimalConfig + "fare:\n  rate_per_km: free\n", "must be a number"},
		{"missing credentials", "database:\n  host: x\n", "database.user is required"},
		{"bad strategy", minimalConfig + "matching:\n  strategy: random\n", "matching.strategy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}
