package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the YAML file read by Load when POMONOTES_CONFIG is unset.
const DefaultConfigFile = "pomonotes.yaml"

func Load() (*Config, error) {
	return LoadFrom(getEnv("POMONOTES_CONFIG", DefaultConfigFile))
}

// LoadFrom applies defaults, then the optional YAML file at yamlPath, then the environment.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.DBPath = getEnv("DB_PATH", cfg.Server.DBPath)
	cfg.Server.JWTSecret = getEnv("JWT_SECRET", cfg.Server.JWTSecret)
	if hours := getEnvInt("TOKEN_TTL_HOURS", 0); hours > 0 {
		cfg.Server.TokenTTL = time.Duration(hours) * time.Hour
	}
	cfg.Server.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.Server.CORSOrigins)

	cfg.Client.APIURL = getEnv("POMONOTES_API_URL", cfg.Client.APIURL)
	cfg.Client.Token = getEnv("POMONOTES_TOKEN", cfg.Client.Token)
	cfg.Client.StatePath = getEnv("POMONOTES_STATE_PATH", cfg.Client.StatePath)
	cfg.Client.ProbeInterval = getEnvDuration("POMONOTES_PROBE_INTERVAL", cfg.Client.ProbeInterval)
	cfg.Client.RequestTimeout = getEnvDuration("POMONOTES_REQUEST_TIMEOUT", cfg.Client.RequestTimeout)

	cfg.Timer.WorkSeconds = getEnvInt("POMONOTES_WORK_SECONDS", cfg.Timer.WorkSeconds)
	cfg.Timer.ShortBreakSeconds = getEnvInt("POMONOTES_SHORT_BREAK_SECONDS", cfg.Timer.ShortBreakSeconds)
	cfg.Timer.LongBreakSeconds = getEnvInt("POMONOTES_LONG_BREAK_SECONDS", cfg.Timer.LongBreakSeconds)
	cfg.Timer.LongBreakEvery = getEnvInt("POMONOTES_LONG_BREAK_EVERY", cfg.Timer.LongBreakEvery)
	cfg.Timer.IntervalsPerSession = getEnvInt("POMONOTES_INTERVALS_PER_SESSION", cfg.Timer.IntervalsPerSession)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.File = getEnv("LOG_FILE", cfg.Logging.File)
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.TokenTTL <= 0 {
		return errors.New("server.token_ttl must be positive")
	}
	if cfg.Client.APIURL == "" {
		return errors.New("client.api_url is required")
	}
	if cfg.Client.ProbeInterval <= 0 {
		return errors.New("client.probe_interval must be positive")
	}
	if cfg.Timer.WorkSeconds <= 0 || cfg.Timer.ShortBreakSeconds <= 0 || cfg.Timer.LongBreakSeconds <= 0 {
		return errors.New("timer lengths must be positive")
	}
	if cfg.Timer.LongBreakEvery < 1 {
		return errors.New("timer.long_break_every must be >= 1")
	}
	if cfg.Timer.IntervalsPerSession < 1 {
		return errors.New("timer.intervals_per_session must be >= 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
