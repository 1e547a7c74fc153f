package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the fully resolved process configuration.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Argon2   Argon2Config
	Auth     AuthConfig
	Ledger   LedgerConfig
	Kafka    KafkaConfig
	Log      LogConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StorageConfig selects the backing store. The memory driver keeps all data
// in process and is meant for local development.
type StorageConfig struct {
	Driver string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns a lib/pq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type JWTConfig struct {
	SecretKey string
	Expiry    time.Duration
	Issuer    string
}

// Argon2Config mirrors the argon2.IDKey parameters.
type Argon2Config struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength int
}

type AuthConfig struct {
	MaxFailedLogins int
	LockoutWindow   time.Duration
}

// LedgerConfig bounds every store interaction made by the ledger engine.
type LedgerConfig struct {
	StoreTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether any broker was configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig names a bootstrap admin login created at startup when both
// fields are set.
type AdminConfig struct {
	Email    string
	Password string
}

func (c AdminConfig) Enabled() bool {
	return c.Email != "" && c.Password != ""
}

var bindings = map[string]string{
	"server.port":             "PORT",
	"server.read_timeout":     "SERVER_READ_TIMEOUT",
	"server.write_timeout":    "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":     "SERVER_IDLE_TIMEOUT",
	"server.request_timeout":  "SERVER_REQUEST_TIMEOUT",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",
	"server.allowed_origins":  "SERVER_ALLOWED_ORIGINS",

	"storage.driver": "STORAGE_DRIVER",

	"database.host":              "DATABASE_HOST",
	"database.port":              "DATABASE_PORT",
	"database.user":              "DATABASE_USER",
	"database.password":          "DATABASE_PASSWORD",
	"database.name":              "DATABASE_NAME",
	"database.ssl_mode":          "DATABASE_SSL_MODE",
	"database.max_open_conns":    "DATABASE_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DATABASE_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DATABASE_CONN_MAX_LIFETIME",

	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"jwt.secret_key":   "JWT_SECRET_KEY",
	"jwt.expiry_hours": "JWT_EXPIRY_HOURS",
	"jwt.issuer":       "JWT_ISSUER",

	"argon2.time":        "ARGON2_TIME",
	"argon2.memory":      "ARGON2_MEMORY",
	"argon2.threads":     "ARGON2_THREADS",
	"argon2.key_length":  "ARGON2_KEY_LENGTH",
	"argon2.salt_length": "ARGON2_SALT_LENGTH",

	"auth.max_failed_logins": "AUTH_MAX_FAILED_LOGINS",
	"auth.lockout_window":    "AUTH_LOCKOUT_WINDOW",

	"ledger.store_timeout": "LEDGER_STORE_TIMEOUT",
	"ledger.max_retries":   "LEDGER_MAX_RETRIES",
	"ledger.retry_backoff": "LEDGER_RETRY_BACKOFF",

	"kafka.brokers": "KAFKA_BROKERS",
	"kafka.topic":   "KAFKA_TOPIC",

	"log.level":  "LOG_LEVEL",
	"log.format": "LOG_FORMAT",

	"admin.email":    "ADMIN_EMAIL",
	"admin.password": "ADMIN_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", "https://*,http://*")

	v.SetDefault("storage.driver", DriverPostgres)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "bank")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("jwt.issuer", "ledgerbank")

	v.SetDefault("argon2.time", 1)
	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.threads", 4)
	v.SetDefault("argon2.key_length", 32)
	v.SetDefault("argon2.salt_length", 16)

	v.SetDefault("auth.max_failed_logins", 5)
	v.SetDefault("auth.lockout_window", 15*time.Minute)

	v.SetDefault("ledger.store_timeout", 5*time.Second)
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.retry_backoff", 50*time.Millisecond)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "transaction_completed")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads an optional .env file, then the environment, into a Config.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return FromViper(v)
}

// FromViper resolves a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			AllowedOrigins:  splitList(v.GetString("server.allowed_origins")),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey: v.GetString("jwt.secret_key"),
			Expiry:    time.Duration(v.GetInt("jwt.expiry_hours")) * time.Hour,
			Issuer:    v.GetString("jwt.issuer"),
		},
		Argon2: Argon2Config{
			Time:       v.GetUint32("argon2.time"),
			Memory:     v.GetUint32("argon2.memory"),
			Threads:    uint8(v.GetUint("argon2.threads")),
			KeyLength:  v.GetUint32("argon2.key_length"),
			SaltLength: v.GetInt("argon2.salt_length"),
		},
		Auth: AuthConfig{
			MaxFailedLogins: v.GetInt("auth.max_failed_logins"),
			LockoutWindow:   v.GetDuration("auth.lockout_window"),
		},
		Ledger: LedgerConfig{
			StoreTimeout: v.GetDuration("ledger.store_timeout"),
			MaxRetries:   v.GetInt("ledger.max_retries"),
			RetryBackoff: v.GetDuration("ledger.retry_backoff"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("kafka.brokers")),
			Topic:   v.GetString("kafka.topic"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	if c.Storage.Driver != DriverPostgres && c.Storage.Driver != DriverMemory {
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", DriverPostgres, DriverMemory)
	}
	if c.Argon2.SaltLength < 8 || c.Argon2.KeyLength < 16 {
		return fmt.Errorf("argon2 salt_length must be >= 8 and key_length >= 16")
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("LEDGER_MAX_RETRIES must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
