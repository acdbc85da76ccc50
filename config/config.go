package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DATABASE_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `yaml:"kafka" envPrefix:"KAFKA_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Google    GoogleConfig    `yaml:"google" envPrefix:"GOOGLE_"`
	Booking   BookingConfig   `yaml:"booking" envPrefix:"BOOKING_"`
	Worker    WorkerConfig    `yaml:"worker" envPrefix:"WORKER_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
	Client    ClientConfig    `yaml:"client" envPrefix:"CLIENT_"`
}

type HTTPConfig struct {
	Address     string `yaml:"address" env:"ADDRESS"`
	SwaggerFile string `yaml:"swagger_file" env:"SWAGGER_FILE"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"URL"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE"`
	Migrate  bool   `yaml:"migrate" env:"MIGRATE"`
}

// DSN prefers an explicit URL and falls back to the discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers" env:"BROKERS" envSeparator:","`
	TrackingTopic string   `yaml:"tracking_topic" env:"TRACKING_TOPIC"`
	GroupID       string   `yaml:"group_id" env:"GROUP_ID"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer          string `yaml:"issuer" env:"ISSUER"`
	BcryptCost      int    `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
	SessionCacheTTL int    `yaml:"session_cache_ttl_minutes" env:"SESSION_CACHE_TTL_MINUTES"`
}

func (a AuthConfig) CacheTTL() time.Duration {
	return time.Duration(a.SessionCacheTTL) * time.Minute
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"REDIRECT_URL"`
}

type BookingConfig struct {
	SubmitGuardSeconds int `yaml:"submit_guard_seconds" env:"SUBMIT_GUARD_SECONDS"`
}

type WorkerConfig struct {
	SessionSweepMinutes int `yaml:"session_sweep_minutes" env:"SESSION_SWEEP_MINUTES"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	Dev   bool   `yaml:"dev" env:"DEV"`
	File  string `yaml:"file" env:"FILE"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string `yaml:"service_name" env:"SERVICE_NAME"`
}

type ClientConfig struct {
	TokenDB string `yaml:"token_db" env:"TOKEN_DB"`
}

const envPrefix = "RM_"

func Default() Config {
	return Config{
		HTTP:      HTTPConfig{Address: ":8080"},
		Database:  DatabaseConfig{Port: 5432, SSLMode: "disable", Migrate: true},
		Kafka:     KafkaConfig{TrackingTopic: "rm.tracking", GroupID: "rm-worker"},
		Auth:      AuthConfig{Issuer: "rmgroups", BcryptCost: 12, SessionCacheTTL: 15},
		Booking:   BookingConfig{SubmitGuardSeconds: 10},
		Worker:    WorkerConfig{SessionSweepMinutes: 60},
		Log:       LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{ServiceName: "rmtravel"},
		Client:    ClientConfig{TokenDB: "rmctl.db"},
	}
}

// LoadConfig reads the YAML file at path (a missing file is not an error),
// then applies .env and RM_-prefixed environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	_ = godotenv.Load()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 bytes")
	}
	if c.Database.DSN() == "" {
		return errors.New("database url or host is required")
	}
	if c.Auth.SessionCacheTTL <= 0 {
		return errors.New("auth.session_cache_ttl_minutes must be positive")
	}
	return nil
}
