package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets cadences be written as "24h" / "30m" in the YAML file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	MySQLDSN  string `yaml:"mysql_dsn"`
	RedisAddr string `yaml:"redis_addr"`

	MySQLMaxOpenConns int `yaml:"mysql_max_open_conns"`
	MySQLMaxIdleConns int `yaml:"mysql_max_idle_conns"`

	// CutoffHour is the local hour of day that closes the daily settlement
	// window and flips the dispatch wording.
	CutoffHour int `yaml:"cutoff_hour"`

	PurgeInterval Duration `yaml:"purge_interval"`
	PurgeGrace    Duration `yaml:"purge_grace"`
}

func defaults() *Config {
	return &Config{
		HTTPAddr:          ":8080",
		MySQLDSN:          "root:root@tcp(localhost:3306)/commerce?parseTime=true",
		RedisAddr:         "localhost:6379",
		MySQLMaxOpenConns: 50,
		MySQLMaxIdleConns: 25,
		CutoffHour:        14,
		PurgeInterval:     Duration(24 * time.Hour),
		PurgeGrace:        Duration(30 * 24 * time.Hour),
	}
}

// Load reads the YAML file at path (skipped when path is empty or missing)
// and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.MySQLDSN = getEnv("MYSQL_DSN", cfg.MySQLDSN)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.CutoffHour = getEnvInt("CUTOFF_HOUR", cfg.CutoffHour)

	if cfg.CutoffHour < 0 || cfg.CutoffHour > 23 {
		return nil, fmt.Errorf("cutoff hour %d out of range", cfg.CutoffHour)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
