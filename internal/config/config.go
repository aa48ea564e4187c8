// Package config loads the server configuration from an optional .env file,
// an optional config.yaml and DEBTFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// KeyConfigFile holds the config file path, set by --config or DEBTFLOW_CONFIG
const KeyConfigFile = "config"

// Config holds the process configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Port string
}

type AuthConfig struct {
	Token string
}

type StorageConfig struct {
	Driver string
}

// DatabaseConfig describes the Postgres connection. DSN wins over the individual fields.
type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SeedConfig struct {
	Enabled bool
}

// ConnectionString returns the lib/pq connection string
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// New returns a viper instance carrying the defaults and the DEBTFLOW_* environment binding
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEBTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags registers --config on fs and binds it to v
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String(KeyConfigFile, "", "path to a config file (default: ./config.yaml when present)")
	return v.BindPFlag(KeyConfigFile, fs.Lookup(KeyConfigFile))
}

// Load reads the configuration through v. Without a config file path,
// config.yaml is looked up in the working directory and ignored when absent.
func Load(v *viper.Viper) (*Config, error) {
	// .env is a convenience for local runs
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := v.GetString(KeyConfigFile)
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		Auth: AuthConfig{
			Token: v.GetString("auth.token"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
		},
		Database: DatabaseConfig{
			DSN:      v.GetString("database.dsn"),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Seed: SeedConfig{
			Enabled: v.GetBool("seed.enabled"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have no usable fallback
func (c *Config) Validate() error {
	if c.Auth.Token == "" {
		return errors.New("auth token cannot be empty")
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("auth.token", "dev-token")
	v.SetDefault("storage.driver", StorageDriverPostgres)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "debtflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("seed.enabled", true)
}
