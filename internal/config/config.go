package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	HTTPAddr string `mapstructure:"http_addr"`

	DBDriver string `mapstructure:"db_driver"` // sqlite|postgres|memory
	DBDSN    string `mapstructure:"db_dsn"`

	BlobBasePath string `mapstructure:"blob_base_path"`

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline"`

	CatalogSeedPath string        `mapstructure:"catalog_seed_path"`
	StoreTimeout    time.Duration `mapstructure:"store_timeout"`
	GeneralSelector string        `mapstructure:"general_selector"`
	TopN            int           `mapstructure:"top_n"`

	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	SiteID         string `mapstructure:"site_id"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// CORSOrigins returns the allowed origins for the active mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// FromEnv reads configuration from the environment (upper-cased keys, e.g.
// HTTP_ADDR) layered over an optional YAML file named by CONFIG_FILE.
func FromEnv() (Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

func Load(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("blob_base_path", "./data")
	v.SetDefault("cors_origins_online", "https://neurocare.example.com")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:8081,http://localhost:19006")
	v.SetDefault("catalog_seed_path", "")
	v.SetDefault("store_timeout", 5*time.Second)
	v.SetDefault("general_selector", "General Questions")
	v.SetDefault("top_n", 2)
	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)
	v.SetDefault("site_id", "local")
	v.SetDefault("metrics_enabled", true)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.CORSOriginsOnline = splitCSV(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = splitCSV(cfg.CORSOriginsOffline)
	if cfg.Mode != ModeOnline {
		cfg.Mode = ModeOffline
	}
	return cfg, nil
}

// splitCSV flattens "a,b" entries that arrive from the environment as a
// single string.
func splitCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
