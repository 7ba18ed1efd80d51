package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, 5, cfg.Style.ClassCount)
	assert.Equal(t, 10, cfg.Style.MaxClasses)
	assert.Equal(t, "equal_interval", cfg.Style.Method)
	assert.Equal(t, "sequential", cfg.Style.Family)
	assert.Equal(t, 0, cfg.Style.SchemeIndex)
	assert.InDelta(t, 8.0, cfg.Style.PointSize, 0.001)
	assert.InDelta(t, 2.0, cfg.Style.LineWidth, 0.001)
	assert.InDelta(t, 0.5, cfg.Style.Opacity, 0.001)
	assert.Equal(t, "und", cfg.Style.LegendLocale)
	assert.Empty(t, cfg.Palettes.File)
	assert.Equal(t, 64, cfg.RenderCache.MaxEntries)
	assert.Equal(t, 300, cfg.RenderCache.TTLSecs)
	assert.Equal(t, 50000, cfg.PostGIS.MaxFeatures)
	assert.Equal(t, 3, cfg.PostGIS.RetryAttempts)
	assert.Equal(t, 250, cfg.PostGIS.RetryBackoffMs)
	assert.Empty(t, cfg.Datasets)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
style:
  method: quantile
  opacity: 0.8
datasets:
  - id: wells
    title: Water Wells
    driver: shapefile
    path: data/wells.shp
  - id: parcels
    driver: postgis
    table: gis.parcels
    geom_column: shape
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "quantile", cfg.Style.Method)
	assert.InDelta(t, 0.8, cfg.Style.Opacity, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 5, cfg.Style.ClassCount)

	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, DatasetConfig{ID: "wells", Title: "Water Wells", Driver: "shapefile", Path: "data/wells.shp"}, cfg.Datasets[0])
	assert.Equal(t, "gis.parcels", cfg.Datasets[1].Table)
	assert.Equal(t, "shape", cfg.Datasets[1].GeomColumn)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
style:
  family: diverging
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SYMBOLOGY_STYLE_FAMILY", "qualitative")
	t.Setenv("SYMBOLOGY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "qualitative", cfg.Style.Family)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("SYMBOLOGY_SERVER_PORT", "3000")
	t.Setenv("SYMBOLOGY_POSTGIS_DATABASE_URL", "postgres://localhost/gis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "postgres://localhost/gis", cfg.PostGIS.DatabaseURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("style: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 20
	cfg.RenderCache.MaxEntries = 64
	cfg.Style.ClassCount = 5
	cfg.Style.MaxClasses = 10
	cfg.Style.PointSize = 8
	cfg.Style.LineWidth = 2
	cfg.Style.Opacity = 0.5
	cfg.Style.LegendLocale = "en"
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	cfg := validDefaults()
	cfg.Datasets = []DatasetConfig{{ID: "wells", Driver: "shapefile", Path: "wells.shp"}}

	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	assert.NoError(t, cfg.Validate("cli"), "the cli does not listen")
}

func TestValidateServe_Datasets(t *testing.T) {
	cfg := validDefaults()
	cfg.Datasets = []DatasetConfig{
		{Driver: "geojson"},
		{ID: "a", Driver: "geojson"},
		{ID: "a", Driver: "geojson"},
		{ID: "b", Driver: "postgis", Table: "b"},
	}

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datasets[0].id is required")
	assert.Contains(t, err.Error(), `datasets[2].id "a" is duplicated`)
	assert.Contains(t, err.Error(), "postgis.database_url is empty")

	cfg.Datasets = cfg.Datasets[3:]
	cfg.PostGIS.DatabaseURL = "postgres://localhost/gis"
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"class count too low", func(c *Config) { c.Style.ClassCount = 1 }, "style.class_count"},
		{"class count above max", func(c *Config) { c.Style.ClassCount = 11 }, "style.class_count"},
		{"max classes too low", func(c *Config) { c.Style.MaxClasses = 1 }, "style.max_classes"},
		{"point size too large", func(c *Config) { c.Style.PointSize = 30 }, "style.point_size must be between 2 and 20"},
		{"point size too small", func(c *Config) { c.Style.PointSize = 1 }, "style.point_size"},
		{"line width too large", func(c *Config) { c.Style.LineWidth = 11 }, "style.line_width must be between 1 and 10"},
		{"zero line width", func(c *Config) { c.Style.LineWidth = 0 }, "style.line_width"},
		{"zero opacity", func(c *Config) { c.Style.Opacity = 0 }, "style.opacity"},
		{"bad locale", func(c *Config) { c.Style.LegendLocale = "not a tag!" }, "style.legend_locale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate("cli")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
