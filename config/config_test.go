package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soilwater.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v", err)
	}
	if cfg.Pipeline.GridResolution != 50 || cfg.Pipeline.SensorFullScale != 4095 || cfg.Pipeline.BulkDensity != 1.3 {
		t.Errorf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if got := cfg.Database.DSN(); got != "root:root@tcp(127.0.0.1:3306)/soilwater?parseTime=true&charset=utf8mb4" {
		t.Errorf("DSN() = %q", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":9090"
  read_timeout: 5s
database:
  dbname: field_a
pipeline:
  grid_resolution: 20
  default_coefficients: [0.5, 1]
  default_strategy: kriging
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	// 文件里没写的字段保留默认值
	if cfg.Server.TCPAddr != "127.0.0.1:5432" || cfg.Database.Username != "root" {
		t.Errorf("defaults lost: %+v %+v", cfg.Server, cfg.Database)
	}
	if cfg.Database.DBName != "field_a" {
		t.Errorf("DBName = %q, want field_a", cfg.Database.DBName)
	}
	p := cfg.Pipeline
	if p.GridResolution != 20 || len(p.DefaultCoefficients) != 2 || p.DefaultStrategy != "kriging" || p.SensorFullScale != 4095 {
		t.Errorf("pipeline = %+v", p)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOILWATER_HTTP_ADDR", ":7070")
	t.Setenv("SOILWATER_GRID_RESOLUTION", "30")
	t.Setenv("SOILWATER_TOKEN_TTL", "1h")
	t.Setenv("SOILWATER_BULK_DENSITY", "1.45")
	t.Setenv("SOILWATER_DEFAULT_COEFFICIENTS", "0.1, 2")

	cfg, err := Load(writeConfig(t, "server:\n  http_addr: \":9090\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPAddr != ":7070" {
		t.Errorf("HTTPAddr = %q, want env value", cfg.Server.HTTPAddr)
	}
	if cfg.Pipeline.GridResolution != 30 || cfg.Auth.TokenTTL != time.Hour || cfg.Pipeline.BulkDensity != 1.45 {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Pipeline, cfg.Auth)
	}
	if c := cfg.Pipeline.DefaultCoefficients; len(c) != 2 || c[0] != 0.1 || c[1] != 2 {
		t.Errorf("DefaultCoefficients = %v", c)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{name: "bad yaml", file: "server: [", want: "failed to parse config"},
		{name: "bad env int", env: map[string]string{"SOILWATER_GRID_RESOLUTION": "many"}, want: "SOILWATER_GRID_RESOLUTION"},
		{name: "bad env duration", env: map[string]string{"SOILWATER_READ_TIMEOUT": "soon"}, want: "SOILWATER_READ_TIMEOUT"},
		{name: "coarse grid", file: "pipeline:\n  grid_resolution: 1\n", want: "grid_resolution"},
		{name: "unknown strategy", file: "pipeline:\n  default_strategy: nearest\n", want: "default_strategy"},
		{name: "empty coefficients", file: "pipeline:\n  default_coefficients: []\n", want: "default_coefficients"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing file) error = nil")
	}
}

func TestPipelineValidate(t *testing.T) {
	p := DefaultPipeline()
	p.SensorFullScale = 0
	p.BulkDensity = -1
	err := p.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"sensor_full_scale", "bulk_density"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v, want it to mention %s", err, want)
		}
	}
}

func TestMigrationsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range getMigrations() {
		if seen[m.Name] {
			t.Errorf("duplicate migration %s", m.Name)
		}
		seen[m.Name] = true
		if strings.TrimSpace(m.SQL) == "" {
			t.Errorf("migration %s has no SQL", m.Name)
		}
	}
}
