package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Values come from the yaml file
// first; environment variables override field by field so container
// deployments don't need a file at all.
type Config struct {
	Port    string `yaml:"port"`
	DevMode bool   `yaml:"dev_mode"`

	DB struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"db"`

	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`

	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`

	S3 struct {
		Region          string        `yaml:"region"`
		Bucket          string        `yaml:"bucket"`
		AccessKeyID     string        `yaml:"access_key_id"`
		SecretAccessKey string        `yaml:"secret_access_key"`
		Endpoint        string        `yaml:"endpoint"`
		URLExpiration   time.Duration `yaml:"url_expiration"`
	} `yaml:"s3"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	RateLimit struct {
		Enabled bool `yaml:"enabled"`
		RPS     int  `yaml:"rps"`
		Burst   int  `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Load reads the yaml file at path (missing file is fine) and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{Port: "5000"}
	cfg.DB.Host = "localhost"
	cfg.DB.Port = "5432"
	cfg.DB.SSLMode = "disable"
	cfg.NATS.Subject = "detections.events"
	cfg.S3.URLExpiration = time.Hour
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.RateLimit.RPS = 20
	cfg.RateLimit.Burst = 40
	return cfg
}

func applyEnv(cfg *Config) {
	envStr("PORT", &cfg.Port)
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.DevMode, _ = strconv.ParseBool(v)
	}

	envStr("DB_HOST", &cfg.DB.Host)
	envStr("DB_PORT", &cfg.DB.Port)
	envStr("DB_USER", &cfg.DB.User)
	envStr("DB_PASSWORD", &cfg.DB.Password)
	envStr("DB_NAME", &cfg.DB.Name)
	envStr("DB_SSLMODE", &cfg.DB.SSLMode)

	envStr("REDIS_ADDR", &cfg.Redis.Addr)
	envStr("NATS_URL", &cfg.NATS.URL)
	envStr("NATS_SUBJECT", &cfg.NATS.Subject)

	envStr("AWS_REGION", &cfg.S3.Region)
	envStr("AWS_S3_BUCKET", &cfg.S3.Bucket)
	envStr("AWS_ACCESS_KEY_ID", &cfg.S3.AccessKeyID)
	envStr("AWS_SECRET_ACCESS_KEY", &cfg.S3.SecretAccessKey)
	envStr("AWS_S3_ENDPOINT", &cfg.S3.Endpoint)
	if v := os.Getenv("S3_URL_EXPIRATION"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.S3.URLExpiration = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitCSV(v)
	}
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DSN renders the postgres connection string for lib/pq.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
