package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Quiz struct {
		QuestionsPerSession int    `yaml:"questions_per_session"`
		DailyGameLimit      int    `yaml:"daily_game_limit"`
		ChallengePoolSize   int    `yaml:"challenge_pool_size"`
		RevealDelay         string `yaml:"reveal_delay"`
		TTL                 string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		Secret          string `yaml:"secret"`
		StudentTTL      string `yaml:"student_ttl"`
		AdminTTL        string `yaml:"admin_ttl"`
		AdminPassphrase string `yaml:"admin_passphrase"`
	} `yaml:"auth"`
}

// Load reads YAML config from path, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error; variables already set win.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	overrides := []struct {
		key string
		dst *string
	}{
		{"PORT", &c.Server.Port},
		{"DATABASE_URL", &c.Postgres.URL},
		{"SQLITE_PATH", &c.SQLite.Path},
		{"REDIS_ADDR", &c.Redis.Addr},
		{"REDIS_PASSWORD", &c.Redis.Password},
		{"RABBITMQ_URL", &c.RabbitMQ.URL},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"ZOO_AUTH_SECRET", &c.Auth.Secret},
		{"ZOO_ADMIN_PASSPHRASE", &c.Auth.AdminPassphrase},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}
	if v := os.Getenv("ZOO_DAILY_GAME_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ZOO_DAILY_GAME_LIMIT: %w", err)
		}
		c.Quiz.DailyGameLimit = n
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
