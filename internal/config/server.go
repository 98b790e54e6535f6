package config

import (
	"fmt"
	"strings"
	"time"

	"battery-dispatch/internal/logging"

	"github.com/spf13/viper"
)

// Server holds the API process settings. They come from API_* environment
// variables, optionally seeded by a YAML file.
type Server struct {
	Port       string        `mapstructure:"port"`
	Env        string        `mapstructure:"env"`
	StaticDir  string        `mapstructure:"static_dir"`
	BatteryDir string        `mapstructure:"battery_dir"`
	RunTTL     time.Duration `mapstructure:"run_ttl"`
	Workers    int           `mapstructure:"workers"`
	MaxPeriods int           `mapstructure:"max_periods"`
	MaxCells   int           `mapstructure:"max_cells"`

	Logging logging.Config `mapstructure:"logging"`
}

func (s Server) Production() bool { return s.Env == "production" }

// LoadServer reads server settings. path may be empty.
func LoadServer(path string) (*Server, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("static_dir", "./web/dist")
	v.SetDefault("battery_dir", "./examples/batteries")
	v.SetDefault("run_ttl", time.Hour)
	v.SetDefault("workers", 4)
	v.SetDefault("max_periods", 24*7)
	v.SetDefault("max_cells", 5_000_000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_file", "")

	v.SetEnvPrefix("API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read server config %s: %w", path, err)
		}
	}

	var s Server
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode server config: %w", err)
	}
	if s.Port == "" {
		return nil, fmt.Errorf("port is required")
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	return &s, nil
}
