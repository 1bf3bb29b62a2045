package config

import (
	"fmt"
	"os"
	"strconv"

	"stock-historian/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides loading and validation logic.
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file, then overlays database credentials from a
// .env file (if present) and the process environment. Environment wins, so
// the YAML file never has to contain real secrets.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	config.overlayEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) overlayEnv() {
	db := &c.Storage.Database

	if v := os.Getenv("STOCKS_DB_HOST"); v != "" {
		db.Host = v
	}
	if v := os.Getenv("STOCKS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			db.Port = port
		}
	}
	if v := os.Getenv("STOCKS_DB_USER"); v != "" {
		db.User = v
	}
	if v := os.Getenv("STOCKS_DB_PASSWORD"); v != "" {
		db.Password = v
	}
	if v := os.Getenv("STOCKS_DB_NAME"); v != "" {
		db.DBName = v
	}
	if v := os.Getenv("STOCKS_DB_SSL_CA"); v != "" {
		db.SSLCA = v
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Port)
	}

	switch c.Storage.DBType {
	case "postgres":
		db := c.Storage.Database
		if db.Host == "" || db.User == "" || db.DBName == "" {
			return fmt.Errorf("postgres storage requires host, user and dbname")
		}
		if db.Port <= 0 || db.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", db.Port)
		}
	case "sqlite", "":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("sqlite storage requires db_path")
		}
	default:
		return fmt.Errorf("unknown db_type: %s", c.Storage.DBType)
	}

	if c.Network.RequestTimeout < 0 {
		return fmt.Errorf("network timeout cannot be negative")
	}

	if c.DataSource.DefaultRangeYears <= 0 {
		c.DataSource.DefaultRangeYears = 10
	}

	return nil
}
