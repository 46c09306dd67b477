// Package config loads pomonotes configuration.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Client  Client  `yaml:"client"`
	Timer   Timer   `yaml:"timer"`
	Logging Logging `yaml:"logging"`
}

// Server configures the REST API.
type Server struct {
	Port        string        `yaml:"port"`
	DBPath      string        `yaml:"db_path"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	CORSOrigins []string      `yaml:"cors_origins"`
}

// Client configures the terminal client and its local state.
type Client struct {
	APIURL         string        `yaml:"api_url"`
	Token          string        `yaml:"token"`
	StatePath      string        `yaml:"state_path"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CacheMaxCost   int64         `yaml:"cache_max_cost"`
}

// Timer holds the nominal phase lengths handed to the state machine.
type Timer struct {
	WorkSeconds         int `yaml:"work_seconds"`
	ShortBreakSeconds   int `yaml:"short_break_seconds"`
	LongBreakSeconds    int `yaml:"long_break_seconds"`
	LongBreakEvery      int `yaml:"long_break_every"`
	IntervalsPerSession int `yaml:"intervals_per_session"`
}

type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	File    string `yaml:"file"`
}

func Defaults() Config {
	return Config{
		Server: Server{
			Port:        "8080",
			DBPath:      "./data/pomonotes.db",
			JWTSecret:   "change-this-secret",
			TokenTTL:    72 * time.Hour,
			CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Client: Client{
			APIURL:         "http://localhost:8080",
			StatePath:      defaultStatePath(),
			ProbeInterval:  5 * time.Second,
			RequestTimeout: 10 * time.Second,
			CacheMaxCost:   1024,
		},
		Timer: Timer{
			WorkSeconds:         25 * 60,
			ShortBreakSeconds:   5 * 60,
			LongBreakSeconds:    15 * 60,
			LongBreakEvery:      4,
			IntervalsPerSession: 4,
		},
		Logging: Logging{
			Level:   "info",
			Service: "pomonotes",
		},
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "./data/pomonotes-client.db"
	}
	return filepath.Join(dir, "pomonotes", "state.db")
}
