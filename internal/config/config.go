package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var errHTTPPortRequired = errors.New("http-port is required")

const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis     Redis     `yaml:"redis"`
	NATS      NATS      `yaml:"nats"`
	Store     Store     `yaml:"store"`
	RateLimit RateLimit `yaml:"rate-limit"`
	CORS      CORS      `yaml:"cors"`
	Stake     Stake     `yaml:"stake"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// NATS - event publishing is disabled while URL is empty.
type NATS struct {
	URL     string `yaml:"url" env:"NATS_URL"`
	Subject string `yaml:"subject" env:"NATS_SUBJECT" env-default:"tictactoe"`
	Token   string `yaml:"token" env:"NATS_TOKEN"`
}

type Store struct {
	Driver     string `yaml:"driver" env:"STORE_DRIVER" env-default:"redis"`
	MaxRetries int    `yaml:"max-retries" env:"STORE_MAX_RETRIES" env-default:"16"`
}

type RateLimit struct {
	Requests int           `yaml:"requests" env:"RATE_LIMIT" env-default:"120"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed-origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// Stake - Max of zero leaves only the overflow bound.
type Stake struct {
	Max uint64 `yaml:"max" env:"STAKE_MAX" env-default:"0"`
}

// MustLoad - load all configurations in config.yml file, environment variables take precedence.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) validate() error {
	switch that.Store.Driver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", that.Store.Driver)
	}

	if that.HTTPPort == "" {
		return errHTTPPortRequired
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
