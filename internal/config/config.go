package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"

	"github.com/sells-group/symbology/internal/style"
)

// Config holds the full application configuration.
type Config struct {
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Style       StyleConfig       `yaml:"style" mapstructure:"style"`
	Palettes    PalettesConfig    `yaml:"palettes" mapstructure:"palettes"`
	RenderCache RenderCacheConfig `yaml:"render_cache" mapstructure:"render_cache"`
	PostGIS     PostGISConfig     `yaml:"postgis" mapstructure:"postgis"`
	Datasets    []DatasetConfig   `yaml:"datasets" mapstructure:"datasets"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// StyleConfig holds the styling defaults.
type StyleConfig struct {
	ClassCount   int     `yaml:"class_count" mapstructure:"class_count"`
	MaxClasses   int     `yaml:"max_classes" mapstructure:"max_classes"`
	Method       string  `yaml:"method" mapstructure:"method"`
	Family       string  `yaml:"family" mapstructure:"family"`
	SchemeIndex  int     `yaml:"scheme_index" mapstructure:"scheme_index"`
	PointSize    float64 `yaml:"point_size" mapstructure:"point_size"`
	LineWidth    float64 `yaml:"line_width" mapstructure:"line_width"`
	Opacity      float64 `yaml:"opacity" mapstructure:"opacity"`
	LegendLocale string  `yaml:"legend_locale" mapstructure:"legend_locale"`
}

// PalettesConfig points at an optional YAML file of extra palettes.
type PalettesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// RenderCacheConfig configures the styled output cache.
type RenderCacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
	TTLSecs    int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// PostGISConfig configures the postgis dataset driver. RetryAttempts is the
// total number of tries for a dataset query.
type PostGISConfig struct {
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	MaxFeatures    int    `yaml:"max_features" mapstructure:"max_features"`
	RetryAttempts  int    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// DatasetConfig describes one dataset loaded by the server.
type DatasetConfig struct {
	ID         string `yaml:"id" mapstructure:"id"`
	Title      string `yaml:"title" mapstructure:"title"`
	Driver     string `yaml:"driver" mapstructure:"driver"`
	Path       string `yaml:"path" mapstructure:"path"`
	Table      string `yaml:"table" mapstructure:"table"`
	Layer      string `yaml:"layer" mapstructure:"layer"`
	GeomColumn string `yaml:"geom_column" mapstructure:"geom_column"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SYMBOLOGY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("style.class_count", 5)
	v.SetDefault("style.max_classes", 10)
	v.SetDefault("style.method", "equal_interval")
	v.SetDefault("style.family", "sequential")
	v.SetDefault("style.scheme_index", 0)
	v.SetDefault("style.point_size", 8.0)
	v.SetDefault("style.line_width", 2.0)
	v.SetDefault("style.opacity", 0.5)
	v.SetDefault("style.legend_locale", "und")
	v.SetDefault("palettes.file", "")
	v.SetDefault("render_cache.max_entries", 64)
	v.SetDefault("render_cache.ttl_secs", 300)
	v.SetDefault("postgis.database_url", "")
	v.SetDefault("postgis.max_features", 50000)
	v.SetDefault("postgis.retry_attempts", 3)
	v.SetDefault("postgis.retry_backoff_ms", 250)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings needed by the given mode ("cli" or "serve")
// and reports every problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.RenderCache.MaxEntries < 1 {
			errs = append(errs, "render_cache.max_entries must be >= 1")
		}
		seen := make(map[string]bool, len(c.Datasets))
		for i, d := range c.Datasets {
			switch {
			case d.ID == "":
				errs = append(errs, fmt.Sprintf("datasets[%d].id is required", i))
			case seen[d.ID]:
				errs = append(errs, fmt.Sprintf("datasets[%d].id %q is duplicated", i, d.ID))
			}
			seen[d.ID] = true
			if d.Driver == "postgis" && c.PostGIS.DatabaseURL == "" {
				errs = append(errs, fmt.Sprintf("datasets[%d] uses postgis but postgis.database_url is empty", i))
			}
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Style.MaxClasses < 2 {
		errs = append(errs, "style.max_classes must be >= 2")
	}
	if c.Style.ClassCount < 2 || c.Style.ClassCount > c.Style.MaxClasses {
		errs = append(errs, "style.class_count must be between 2 and style.max_classes")
	}
	if c.Style.PointSize < style.MinPointSize || c.Style.PointSize > style.MaxPointSize {
		errs = append(errs, fmt.Sprintf("style.point_size must be between %d and %d", style.MinPointSize, style.MaxPointSize))
	}
	if c.Style.LineWidth < style.MinLineWidth || c.Style.LineWidth > style.MaxLineWidth {
		errs = append(errs, fmt.Sprintf("style.line_width must be between %d and %d", style.MinLineWidth, style.MaxLineWidth))
	}
	if c.Style.Opacity <= 0 || c.Style.Opacity > 1 {
		errs = append(errs, "style.opacity must be in (0, 1]")
	}
	if _, err := language.Parse(c.Style.LegendLocale); err != nil {
		errs = append(errs, "style.legend_locale is not a valid language tag")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
