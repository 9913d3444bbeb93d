package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	APIPort            string
	NumParserWorkers   int
	NumReportWorkers   int
	ResultsChannelSize int
	MaxUploadSizeMB    int
	ColumnSynonymsFile string
	AllowedOrigins     []string
	AllowCredentials   bool
	LogLevel           slog.Level
}

func New() (*Config, error) {
	cfg := &Config{
		APIPort:            "8080",
		NumParserWorkers:   4,
		NumReportWorkers:   4,
		ResultsChannelSize: 100,
		MaxUploadSizeMB:    32,
		ColumnSynonymsFile: os.Getenv("COLUMN_SYNONYMS_FILE"),
		AllowedOrigins:     []string{"http://localhost:3000"},
		LogLevel:           slog.LevelInfo,
	}

	if port := os.Getenv("API_PORT"); port != "" {
		cfg.APIPort = port
	}

	var err error
	cfg.NumParserWorkers, err = getEnvAsInt("NUM_PARSER_WORKERS", cfg.NumParserWorkers)
	if err != nil {
		return nil, err
	}

	cfg.NumReportWorkers, err = getEnvAsInt("NUM_REPORT_WORKERS", cfg.NumReportWorkers)
	if err != nil {
		return nil, err
	}

	cfg.ResultsChannelSize, err = getEnvAsInt("RESULTS_CHANNEL_SIZE", cfg.ResultsChannelSize)
	if err != nil {
		return nil, err
	}

	cfg.MaxUploadSizeMB, err = getEnvAsInt("MAX_UPLOAD_SIZE_MB", cfg.MaxUploadSizeMB)
	if err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = getEnvAsList("ALLOWED_ORIGINS", cfg.AllowedOrigins)

	cfg.AllowCredentials, err = getEnvAsBool("CORS_ALLOW_CREDENTIALS", cfg.AllowCredentials)
	if err != nil {
		return nil, err
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid value for LOG_LEVEL: %w", err)
		}
	}

	if cfg.NumParserWorkers < 1 || cfg.NumReportWorkers < 1 {
		return nil, fmt.Errorf("worker counts must be positive")
	}

	return cfg, nil
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) << 20
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}

	return value, nil
}

// getEnvAsList splits a comma separated variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
