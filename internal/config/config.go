package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dennisdiepolder/studentops/internal/report"
)

// ErrUnknownEngine is returned for an engine name other than memory or sqlite.
var ErrUnknownEngine = errors.New("unknown engine")

// Engine names accepted by STUDENTOPS_ENGINE and --engine
const (
	EngineMemory = "memory"
	EngineSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Records          int
	Seed             int64
	DataPath         string
	DashboardDir     string
	SummaryPath      string
	MetricsPath      string
	Engine           string
	ProfilePath      string
	Alpha            float64
	HotspotThreshold int
	LogLevel         string
	LogFormat        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		DataPath:     getEnv("STUDENTOPS_DATA_PATH", "data/student_services_data.csv"),
		DashboardDir: getEnv("STUDENTOPS_DASHBOARD_DIR", "dashboards"),
		SummaryPath:  getEnv("STUDENTOPS_SUMMARY_PATH", "reports/summary.json"),
		MetricsPath:  getEnv("STUDENTOPS_METRICS_PATH", "reports/metrics.prom"),
		Engine:       strings.ToLower(getEnv("STUDENTOPS_ENGINE", EngineMemory)),
		ProfilePath:  getEnv("STUDENTOPS_PROFILE", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "console"),
	}

	records, err := strconv.Atoi(getEnv("STUDENTOPS_RECORDS", "3000"))
	if err != nil {
		return nil, fmt.Errorf("invalid STUDENTOPS_RECORDS: %w", err)
	}
	config.Records = records

	seed, err := strconv.ParseInt(getEnv("STUDENTOPS_SEED", "42"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid STUDENTOPS_SEED: %w", err)
	}
	config.Seed = seed

	alpha, err := strconv.ParseFloat(getEnv("STUDENTOPS_ALPHA", "0.05"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid STUDENTOPS_ALPHA: %w", err)
	}
	config.Alpha = alpha

	threshold, err := strconv.Atoi(getEnv("STUDENTOPS_HOTSPOT_THRESHOLD", strconv.Itoa(report.DefaultHotspotThreshold)))
	if err != nil {
		return nil, fmt.Errorf("invalid STUDENTOPS_HOTSPOT_THRESHOLD: %w", err)
	}
	config.HotspotThreshold = threshold

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that parse but make no sense. Flags are applied
// after Load, so the CLI calls it again.
func (c *Config) Validate() error {
	if c.Records <= 0 {
		return fmt.Errorf("invalid record count %d: must be positive", c.Records)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("invalid alpha %v: must be between 0 and 1", c.Alpha)
	}
	if c.HotspotThreshold < 0 {
		return fmt.Errorf("invalid hotspot threshold %d", c.HotspotThreshold)
	}
	switch c.Engine {
	case EngineMemory, EngineSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngine, c.Engine)
	}
	return nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
