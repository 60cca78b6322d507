package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.True(t, cfg.CSV.SkipHeader)
	assert.Contains(t, cfg.CSV.NullTokens, "NULL")
	assert.Contains(t, cfg.CSV.NullTokens, "")
	assert.Equal(t, "Energy", cfg.Rules.MacroPatterns.Calories)
	assert.Equal(t, "Total lipid", cfg.Rules.MacroPatterns.TotalFat)
	assert.Len(t, cfg.Rules.ExclusionCategories, 6)
	assert.Len(t, cfg.Rules.ExclusionKeywords, 9)
	assert.Equal(t, float64(140), cfg.Rules.Thresholds.SodiumMax)

	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
inputs:
  dir: /srv/usda
rules:
  thresholds:
    protein_min: 20
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/usda", cfg.Inputs.Dir)
	assert.Equal(t, float64(20), cfg.Rules.Thresholds.ProteinMin)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, "food.csv", cfg.Inputs.Food)
	assert.Equal(t, float64(140), cfg.Rules.Thresholds.SodiumMax)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inputs:\n  dir: /from/file\n"), 0644))

	t.Setenv("NUTRI_INPUTS_DIR", "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Inputs.Dir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty delimiter", func(c *Config) { c.CSV.Delimiter = "" }},
		{"multi-rune delimiter", func(c *Config) { c.CSV.Delimiter = ";;" }},
		{"no exclusion categories", func(c *Config) { c.Rules.ExclusionCategories = nil }},
		{"missing macro pattern", func(c *Config) { c.Rules.MacroPatterns.Sodium = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"calorie bounds out of order", func(c *Config) { c.Rules.Thresholds.CalorieLowMax = 50 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
