package config

import (
	"errors"
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Records != 3000 {
					t.Errorf("expected 3000 records, got %d", cfg.Records)
				}
				if cfg.Seed != 42 {
					t.Errorf("expected seed 42, got %d", cfg.Seed)
				}
				if cfg.Engine != EngineMemory {
					t.Errorf("expected memory engine, got %s", cfg.Engine)
				}
				if cfg.DataPath != "data/student_services_data.csv" {
					t.Errorf("unexpected data path %s", cfg.DataPath)
				}
				if cfg.Alpha != 0.05 {
					t.Errorf("expected alpha 0.05, got %v", cfg.Alpha)
				}
				if cfg.HotspotThreshold != 20 {
					t.Errorf("expected hotspot threshold 20, got %d", cfg.HotspotThreshold)
				}
				if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
					t.Errorf("unexpected log settings %s/%s", cfg.LogLevel, cfg.LogFormat)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"STUDENTOPS_RECORDS":           "500",
				"STUDENTOPS_SEED":              "7",
				"STUDENTOPS_ENGINE":            "SQLite",
				"STUDENTOPS_DATA_PATH":         "/tmp/data.csv",
				"STUDENTOPS_DASHBOARD_DIR":     "/tmp/dash",
				"STUDENTOPS_SUMMARY_PATH":      "/tmp/summary.json",
				"STUDENTOPS_METRICS_PATH":      "/tmp/metrics.prom",
				"STUDENTOPS_PROFILE":           "profile.yaml",
				"STUDENTOPS_ALPHA":             "0.01",
				"STUDENTOPS_HOTSPOT_THRESHOLD": "5",
				"LOG_LEVEL":                    "debug",
				"LOG_FORMAT":                   "json",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Records != 500 {
					t.Errorf("expected 500 records, got %d", cfg.Records)
				}
				if cfg.Seed != 7 {
					t.Errorf("expected seed 7, got %d", cfg.Seed)
				}
				if cfg.Engine != EngineSQLite {
					t.Errorf("expected sqlite engine, got %s", cfg.Engine)
				}
				if cfg.DashboardDir != "/tmp/dash" || cfg.SummaryPath != "/tmp/summary.json" {
					t.Errorf("unexpected output paths %s %s", cfg.DashboardDir, cfg.SummaryPath)
				}
				if cfg.MetricsPath != "/tmp/metrics.prom" {
					t.Errorf("expected /tmp/metrics.prom, got %s", cfg.MetricsPath)
				}
				if cfg.ProfilePath != "profile.yaml" {
					t.Errorf("expected profile.yaml, got %s", cfg.ProfilePath)
				}
				if cfg.Alpha != 0.01 {
					t.Errorf("expected alpha 0.01, got %v", cfg.Alpha)
				}
				if cfg.HotspotThreshold != 5 {
					t.Errorf("expected hotspot threshold 5, got %d", cfg.HotspotThreshold)
				}
				if cfg.LogFormat != "json" {
					t.Errorf("expected json log format, got %s", cfg.LogFormat)
				}
			},
		},
		{
			name:    "invalid STUDENTOPS_RECORDS",
			env:     map[string]string{"STUDENTOPS_RECORDS": "many"},
			wantErr: true,
		},
		{
			name:    "zero STUDENTOPS_RECORDS",
			env:     map[string]string{"STUDENTOPS_RECORDS": "0"},
			wantErr: true,
		},
		{
			name:    "invalid STUDENTOPS_SEED",
			env:     map[string]string{"STUDENTOPS_SEED": "abc"},
			wantErr: true,
		},
		{
			name:    "invalid STUDENTOPS_ALPHA",
			env:     map[string]string{"STUDENTOPS_ALPHA": "1.5"},
			wantErr: true,
		},
		{
			name:    "invalid STUDENTOPS_HOTSPOT_THRESHOLD",
			env:     map[string]string{"STUDENTOPS_HOTSPOT_THRESHOLD": "-"},
			wantErr: true,
		},
		{
			name:    "unknown engine",
			env:     map[string]string{"STUDENTOPS_ENGINE": "duckdb"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateUnknownEngine(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg.Engine = "postgres"
	if err := cfg.Validate(); !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("expected ErrUnknownEngine, got %v", err)
	}
}
