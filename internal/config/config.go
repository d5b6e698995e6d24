package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret string
}

// Enabled reports whether position ingestion requires a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.AccessSecret != ""
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

func (n NATSConfig) Enabled() bool {
	return n.URL != ""
}

type LiveConfig struct {
	Workers       int
	SendBuffer    int
	SweepInterval time.Duration
	BuildTimeout  time.Duration
}

type Config struct {
	Environment string
	LogLevel    string
	Timezone    string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	NATS        NATSConfig
	Live        LiveConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("NATS_SUBJECT_PREFIX", "buses")
	v.SetDefault("LIVE_WORKERS", 16)
	v.SetDefault("LIVE_SEND_BUFFER", 16)
	v.SetDefault("LIVE_SWEEP_INTERVAL", 30*time.Second)
	v.SetDefault("LIVE_BUILD_TIMEOUT", 10*time.Second)

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Timezone:    v.GetString("APP_TIMEZONE"),
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		NATS: NATSConfig{
			URL:           v.GetString("NATS_URL"),
			SubjectPrefix: strings.Trim(v.GetString("NATS_SUBJECT_PREFIX"), "."),
		},
		Live: LiveConfig{
			Workers:       v.GetInt("LIVE_WORKERS"),
			SendBuffer:    v.GetInt("LIVE_SEND_BUFFER"),
			SweepInterval: v.GetDuration("LIVE_SWEEP_INTERVAL"),
			BuildTimeout:  v.GetDuration("LIVE_BUILD_TIMEOUT"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves Timezone, the zone trip dates and times are stored in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if cfg.Live.Workers <= 0 {
		return fmt.Errorf("LIVE_WORKERS must be positive")
	}
	if cfg.Live.SendBuffer <= 0 {
		return fmt.Errorf("LIVE_SEND_BUFFER must be positive")
	}
	if cfg.Live.SweepInterval <= 0 {
		return fmt.Errorf("LIVE_SWEEP_INTERVAL must be positive")
	}
	if cfg.NATS.Enabled() && cfg.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX is required when NATS_URL is set")
	}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return nil
}
