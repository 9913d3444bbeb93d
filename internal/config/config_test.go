package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Success case - defaults", func(t *testing.T) {
		cfg, err := New()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.APIPort)
		assert.Equal(t, 4, cfg.NumParserWorkers)
		assert.Equal(t, 4, cfg.NumReportWorkers)
		assert.Equal(t, 100, cfg.ResultsChannelSize)
		assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes())
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
		assert.False(t, cfg.AllowCredentials)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	})

	t.Run("Success case - overrides", func(t *testing.T) {
		t.Setenv("API_PORT", "9000")
		t.Setenv("NUM_REPORT_WORKERS", "8")
		t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
		t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("COLUMN_SYNONYMS_FILE", "/etc/reports/columns.yaml")

		cfg, err := New()

		require.NoError(t, err)
		assert.Equal(t, "9000", cfg.APIPort)
		assert.Equal(t, 8, cfg.NumReportWorkers)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
		assert.True(t, cfg.AllowCredentials)
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, "/etc/reports/columns.yaml", cfg.ColumnSynonymsFile)
	})

	t.Run("Error case - invalid values", func(t *testing.T) {
		for key, value := range map[string]string{
			"NUM_PARSER_WORKERS":     "many",
			"MAX_UPLOAD_SIZE_MB":     "1.5",
			"CORS_ALLOW_CREDENTIALS": "maybe",
			"LOG_LEVEL":              "loud",
			"NUM_REPORT_WORKERS":     "0",
		} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				_, err := New()
				assert.Error(t, err)
			})
		}
	})
}
