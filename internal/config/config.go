// Package config loads service settings from defaults, an optional
// config file and MYBUSINESS_* environment variables, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the service needs to start.
type Config struct {
	ListenAddr     string        `mapstructure:"listen_addr"`
	BackendBaseURL string        `mapstructure:"backend_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Debug          bool          `mapstructure:"debug"`
}

// Load reads configuration. path may be empty, in which case only
// defaults and environment variables apply; a named file that cannot be
// read is an error, a missing default file is not.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", ":8081")
	v.SetDefault("backend_base_url", "http://localhost:8080")
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("debug", false)

	v.SetEnvPrefix("MYBUSINESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.BackendBaseURL == "" {
		return Config{}, fmt.Errorf("backend_base_url must not be empty")
	}
	return cfg, nil
}
