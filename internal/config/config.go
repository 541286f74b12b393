package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	CDS      CDSConfig      `yaml:"cds" mapstructure:"cds"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Features FeaturesConfig `yaml:"features" mapstructure:"features"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CDSConfig configures the climate data store client.
type CDSConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Key           string `yaml:"key" mapstructure:"key"`
	Dataset       string `yaml:"dataset" mapstructure:"dataset"`
	ArchiveDir    string `yaml:"archive_dir" mapstructure:"archive_dir"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	FTPMirror     string `yaml:"ftp_mirror" mapstructure:"ftp_mirror"`
}

// StoreConfig configures the manifest database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FeaturesConfig configures the edge-feature engines.
type FeaturesConfig struct {
	Ellipsoid   string `yaml:"ellipsoid" mapstructure:"ellipsoid"`
	Resolution  int    `yaml:"resolution" mapstructure:"resolution"`
	KNeighbours int    `yaml:"k_neighbours" mapstructure:"k_neighbours"`
	CostSurface string `yaml:"cost_surface" mapstructure:"cost_surface"`
	CacheDir    string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// ServerConfig configures the HTTP query API.
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from hexfeatures.yaml and the environment.
// Environment variables use the HEXFEATURES_ prefix with underscores,
// e.g. HEXFEATURES_CDS_KEY overrides cds.key.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("hexfeatures")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.hexfeatures")

	v.SetEnvPrefix("HEXFEATURES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env take over.
		var notFound viper.ConfigFileNotFoundError
		if !eris.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cds.base_url", "https://cds.climate.copernicus.eu/api/v2")
	v.SetDefault("cds.dataset", "satellite-land-cover")
	v.SetDefault("cds.archive_dir", "archive")
	v.SetDefault("cds.max_concurrent", 10)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "hexfeatures.db")

	v.SetDefault("features.ellipsoid", "WGS84")
	v.SetDefault("features.k_neighbours", 1)
	v.SetDefault("features.cache_dir", "features")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
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
