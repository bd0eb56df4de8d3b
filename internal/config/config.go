package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ServiceOrders = "order_service"
	ServiceUsers  = "user_service"
)

type Config struct {
	Service     string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	UserService ServiceConfig
	Auth        AuthConfig
	Logging     LoggingConfig
	Features    FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// ConnectionString returns the DSN for the configured driver.
func (d DatabaseConfig) ConnectionString() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	OrdersTopic string
	UsersTopic  string
}

// ServiceConfig describes a downstream HTTP service.
type ServiceConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

type AuthConfig struct {
	SecretKey string
	Algorithm string
	TokenTTL  time.Duration
}

type LoggingConfig struct {
	Dir   string
	Level string
}

type FeatureFlags struct {
	EnableOrderCaching bool
	EnableEvents       bool
}

// Load reads the environment for the named service.
func Load(service string) *Config {
	defaultPort := 8082
	if service == ServiceUsers {
		defaultPort = 8081
	}

	return &Config{
		Service: service,
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", defaultPort),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       getEnvString("DB_DRIVER", "postgres"),
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_"+strings.TrimSuffix(service, "_service")+"s"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			Path:         getEnvString("DB_PATH", service+".db"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(getEnvString("KAFKA_BROKERS", "localhost:9092"), ","),
			OrdersTopic: getEnvString("KAFKA_ORDERS_TOPIC", "orders"),
			UsersTopic:  getEnvString("KAFKA_USERS_TOPIC", "users"),
		},
		UserService: ServiceConfig{
			BaseURL:       getEnvString("USER_SERVICE_URL", ""),
			Timeout:       getEnvDuration("USER_SERVICE_TIMEOUT", 10*time.Second),
			RetryAttempts: getEnvInt("USER_SERVICE_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("USER_SERVICE_RETRY_DELAY", 3*time.Second),
		},
		Auth: AuthConfig{
			SecretKey: getEnvString("SECRET_KEY", ""),
			Algorithm: getEnvString("ALGORITHM", "HS256"),
			TokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		},
		Logging: LoggingConfig{
			Dir:   getEnvString("LOG_DIR", ""),
			Level: getEnvString("LOG_LEVEL", "info"),
		},
		Features: FeatureFlags{
			EnableOrderCaching: getEnvBool("FEATURE_ORDER_CACHING", false),
			EnableEvents:       getEnvBool("FEATURE_EVENTS", false),
		},
	}
}

// Validate checks the settings the named service cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Service {
	case ServiceUsers:
		if c.Auth.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required")
		}
		switch c.Auth.Algorithm {
		case "HS256", "HS384", "HS512":
		default:
			return fmt.Errorf("unsupported ALGORITHM %q", c.Auth.Algorithm)
		}
	case ServiceOrders:
		if c.UserService.BaseURL == "" {
			return fmt.Errorf("USER_SERVICE_URL is required")
		}
		if _, err := url.ParseRequestURI(c.UserService.BaseURL); err != nil {
			return fmt.Errorf("invalid USER_SERVICE_URL: %w", err)
		}
		if c.UserService.RetryAttempts < 1 {
			return fmt.Errorf("USER_SERVICE_RETRY_ATTEMPTS must be at least 1")
		}
	default:
		return fmt.Errorf("unknown service %q", c.Service)
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
