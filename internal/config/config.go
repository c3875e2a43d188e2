// Package config loads typed settings from the environment, optionally seeded
// from a dotenv file.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Prefix is the environment prefix of every storefront setting.
const Prefix = "STOREFRONT"

var (
	envFileMu   sync.Mutex
	envFilePath string
)

// SetEnvFile selects the dotenv file read by New. An empty path falls back
// to ./.env when it exists.
func SetEnvFile(path string) {
	envFileMu.Lock()
	defer envFileMu.Unlock()
	envFilePath = strings.TrimSpace(path)
}

func resolveEnvPath() string {
	envFileMu.Lock()
	defer envFileMu.Unlock()
	return envFilePath
}

// MustNew is New that panics on error.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New exports the dotenv file into the process environment and decodes the
// environment into T. Variables already set win over the file.
func New[T any](prefix string) (*T, error) {
	if path := resolveEnvPath(); path != "" {
		if err := exportEnvironment(path); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Load reads the storefront Config and validates it.
func Load() (*Config, error) {
	conf, err := New[Config](Prefix)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config is the complete process configuration.
type Config struct {
	App        App
	Moltin     Moltin
	Redis      Redis
	Postgres   Postgres
	Dynamo     Dynamo
	AWS        AWS
	Telegram   Telegram
	HTTP       HTTP
	Kafka      Kafka
	Encryption Encryption
}

type App struct {
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string        `envconfig:"LOG_FORMAT" default:"text"`
	Store        string        `envconfig:"STORE" default:"file"`
	StorePath    string        `envconfig:"STORE_PATH" default:".storefront/sessions"`
	EventTimeout time.Duration `envconfig:"EVENT_TIMEOUT" default:"15s"`
	SaveTimeout  time.Duration `envconfig:"SAVE_TIMEOUT" default:"5s"`
	PhrasesFile  string        `envconfig:"PHRASES_FILE"`
}

type Moltin struct {
	BaseURL      string `envconfig:"BASE_URL" default:"https://api.moltin.com"`
	ClientID     string `envconfig:"CLIENT_ID"`
	ClientSecret string `envconfig:"CLIENT_SECRET"`
	// SecretParameter names an SSM parameter holding the client secret.
	SecretParameter string `envconfig:"SECRET_PARAMETER"`
}

type Redis struct {
	Addr     string        `envconfig:"ADDR" default:"localhost:6379"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	Prefix   string        `envconfig:"PREFIX" default:"storefront:session:"`
	TTL      time.Duration `envconfig:"TTL" default:"0s"`
	Lock     bool          `envconfig:"LOCK" default:"false"`
	LockTTL  time.Duration `envconfig:"LOCK_TTL" default:"30s"`
}

type Postgres struct {
	DSN   string `envconfig:"DSN"`
	Table string `envconfig:"TABLE" default:"storefront_sessions"`
}

type Dynamo struct {
	Table    string        `envconfig:"TABLE" default:"storefront-sessions"`
	TTL      time.Duration `envconfig:"TTL" default:"0s"`
	Endpoint string        `envconfig:"ENDPOINT"`
}

// AWS applies to Parameter Store and DynamoDB. Credentials follow the SDK's
// default chain.
type AWS struct {
	Region string `envconfig:"REGION"`
}

type Telegram struct {
	Token string `envconfig:"TOKEN"`
	// TokenParameter names an SSM parameter holding the bot token.
	TokenParameter string `envconfig:"TOKEN_PARAMETER"`
}

type HTTP struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"20s"`
}

type Kafka struct {
	Brokers []string `envconfig:"BROKERS"`
	Topic   string   `envconfig:"TOPIC" default:"storefront.audit"`
}

// Encryption keys are base64 encoded 32 byte AES keys.
type Encryption struct {
	Key            string   `envconfig:"KEY"`
	FallbackKeys   []string `envconfig:"FALLBACK_KEYS"`
	AllowPlaintext bool     `envconfig:"ALLOW_PLAINTEXT" default:"false"`
}

// Enabled reports whether sessions are sealed at rest.
func (e Encryption) Enabled() bool {
	return e.Key != ""
}

// Keys decodes the active and fallback keys.
func (e Encryption) Keys() (active []byte, fallback [][]byte, err error) {
	active, err = base64.StdEncoding.DecodeString(e.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	for i, k := range e.FallbackKeys {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(k))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		fallback = append(fallback, b)
	}
	return active, fallback, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.App.Store {
	case BackendMemory, BackendRedis, BackendDynamoDB:
	case BackendFile:
		if c.App.StorePath == "" {
			errs = append(errs, errors.New("STOREFRONT_APP_STORE_PATH is required for the file store"))
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("STOREFRONT_POSTGRES_DSN is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.App.Store))
	}

	switch strings.ToLower(c.App.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.App.LogFormat))
	}

	if c.App.EventTimeout <= 0 {
		errs = append(errs, errors.New("event timeout must be positive"))
	}
	if c.App.SaveTimeout <= 0 {
		errs = append(errs, errors.New("save timeout must be positive"))
	}
	if c.Redis.Lock && c.Redis.LockTTL <= 0 {
		errs = append(errs, errors.New("redis lock ttl must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	if c.Encryption.Enabled() {
		if _, _, err := c.Encryption.Keys(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MoltinConfigured reports whether the commerce backend can be reached.
func (c *Config) MoltinConfigured() bool {
	return c.Moltin.ClientID != "" && (c.Moltin.ClientSecret != "" || c.Moltin.SecretParameter != "")
}
