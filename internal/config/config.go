// Package config loads process configuration from an optional config.yaml,
// SOS_* environment variables and defaults, in increasing order of precedence
// for the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix      = "SOS"
	configFileName = "config"
	configFileType = "yaml"
)

// Config is the full process configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Log       LogConfig       `mapstructure:"log"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Crypto    CryptoConfig    `mapstructure:"crypto"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DualWrite DualWriteConfig `mapstructure:"dualwrite"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// Development reports whether the process runs in development mode.
func (a AppConfig) Development() bool { return a.Env == "development" }

type LogConfig struct {
	Level     string `mapstructure:"level"`
	File      string `mapstructure:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type MongoConfig struct {
	URI         string        `mapstructure:"uri"`
	Database    string        `mapstructure:"database"`
	MaxPoolSize uint64        `mapstructure:"max_pool_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CryptoConfig holds base64 master keys. LegacyKeys is a comma-separated list of
// retired keys that are still accepted for decryption.
type CryptoConfig struct {
	MasterKey  string `mapstructure:"master_key"`
	LegacyKeys string `mapstructure:"legacy_keys"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	PasswordMode      string        `mapstructure:"password_mode"`
	PasswordMinLength int           `mapstructure:"password_min_length"`
}

// DualWriteConfig enables the intent journal. Grace delays the first replay of a
// fresh intent so the coordinator can finish it inline.
type DualWriteConfig struct {
	Journal bool          `mapstructure:"journal"`
	Grace   time.Duration `mapstructure:"grace"`
}

type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	Lease        time.Duration `mapstructure:"lease"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_files", 5)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "sos911")
	v.SetDefault("mongo.max_pool_size", 50)
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("crypto.master_key", "")
	v.SetDefault("crypto.legacy_keys", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.password_mode", "reversible")
	v.SetDefault("auth.password_min_length", 8)
	v.SetDefault("dualwrite.journal", false)
	v.SetDefault("dualwrite.grace", 30*time.Second)
	v.SetDefault("worker.poll_interval", 5*time.Second)
	v.SetDefault("worker.batch_size", 100)
	v.SetDefault("worker.lease", 2*time.Minute)
}

// Load reads configuration. A missing config.yaml in dir is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every process needs to reach both stores.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri is required"))
	}
	if c.Crypto.MasterKey == "" {
		errs = append(errs, errors.New("crypto.master_key is required"))
	}
	switch c.Auth.PasswordMode {
	case "reversible", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("auth.password_mode %q must be reversible or bcrypt", c.Auth.PasswordMode))
	}
	return errors.Join(errs...)
}
