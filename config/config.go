/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/tomoncle/comicdb/database"
	"github.com/tomoncle/comicdb/utils"
)

// Config is the process configuration. Every field maps to one environment
// variable: the koanf tag is the lowercased variable name.
type Config struct {
	Env      string         `koanf:"app_env" validate:"required"`
	Database DatabaseConfig `koanf:",squash"`
	Server   ServerConfig   `koanf:",squash"`
	Log      LogConfig      `koanf:",squash"`
}

type DatabaseConfig struct {
	Type                string        `koanf:"db_type" validate:"required,oneof=postgres postgresql pg mysql mariadb sqlite sqlite3"`
	Host                string        `koanf:"postgres_host"`
	Port                int           `koanf:"postgres_port" validate:"gte=0,lte=65535"`
	User                string        `koanf:"postgres_user"`
	Password            string        `koanf:"postgres_password"`
	Name                string        `koanf:"postgres_db"`
	SSLMode             string        `koanf:"db_sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	ForeignKeyFile      string        `koanf:"db_foreign_key_file"`
	SeedDir             string        `koanf:"db_seed_dir"`
	SeedOnMigrate       bool          `koanf:"db_seed_on_migrate"`
	EnableQueryLog      bool          `koanf:"db_enable_query_log"`
	SlowQueryTime       time.Duration `koanf:"db_slow_query_time" validate:"gte=0"`
	ConnectRetries      int           `koanf:"db_connect_retries" validate:"gte=0"`
	RetryInterval       time.Duration `koanf:"db_retry_interval" validate:"gte=0"`
	HealthCheckInterval time.Duration `koanf:"db_health_check_interval" validate:"gte=0"`
}

type ServerConfig struct {
	Port        int    `koanf:"api_port" validate:"required,gt=0,lte=65535"`
	BackendURL  string `koanf:"backend_url" validate:"required,url"`
	FrontendURL string `koanf:"frontend_url" validate:"omitempty,url"`
	// Testing disables the rate limiter.
	Testing bool `koanf:"testing"`
	// TrustProxy takes the client IP from X-Forwarded-For when the request
	// comes from a loopback or private address.
	TrustProxy bool `koanf:"trust_proxy"`
}

type LogConfig struct {
	Level  string `koanf:"log_level" validate:"required"`
	Format string `koanf:"log_format" validate:"oneof=text json"`
	File   string `koanf:"log_file"`
}

// Default returns the configuration used for unset variables.
func Default() *Config {
	return &Config{
		Env: "development",
		Database: DatabaseConfig{
			Type:                database.TypePostgres,
			Host:                "localhost",
			Port:                5432,
			SSLMode:             "disable",
			SeedDir:             "configs/sql",
			SlowQueryTime:       2 * time.Second,
			ConnectRetries:      3,
			RetryInterval:       2 * time.Second,
			HealthCheckInterval: time.Minute,
		},
		Server: ServerConfig{
			Port:       3000,
			BackendURL: "http://localhost:3000",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env (if present) and the environment over the defaults and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and requires credentials for server
// databases.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if database.NormalizeType(c.Database.Type) != database.TypeSQLite {
		var missing []string
		if c.Database.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if c.Database.Name == "" {
			missing = append(missing, "POSTGRES_DB")
		}
		if c.Database.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if c.Database.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if len(missing) > 0 {
			return fmt.Errorf("config validation failed: %s required for %s", strings.Join(missing, ", "), c.Database.Type)
		}
	}
	return nil
}

// DBConfig converts the settings into the database package config.
func (c *Config) DBConfig() *database.Config {
	conn := database.DefaultConnectionConfig()
	conn.Type = database.NormalizeType(c.Database.Type)
	conn.Host = c.Database.Host
	conn.Port = c.Database.Port
	conn.Username = c.Database.User
	conn.Password = c.Database.Password
	conn.DBName = c.Database.Name
	conn.SSLMode = c.Database.SSLMode
	conn.EnableQueryLog = c.Database.EnableQueryLog
	conn.SlowQueryTime = c.Database.SlowQueryTime
	conn.MaxReconnectTries = c.Database.ConnectRetries
	conn.ReconnectInterval = c.Database.RetryInterval
	conn.HealthCheckInterval = c.Database.HealthCheckInterval

	return &database.Config{
		ConnectionConfig: *conn,
		DataMigrateConfig: database.DataMigrateConfig{
			EnableMigrateOnStartup: true,
			ForeignKeyFile:         c.Database.ForeignKeyFile,
		},
		DataInitConfig: database.DataInitConfig{
			AutoInitOnMigration: c.Database.SeedOnMigrate,
			Filepath:            c.Database.SeedDir,
			Environment:         c.Env,
		},
	}
}

// LogOptions converts the settings into logger registry options.
func (c *Config) LogOptions() utils.LogOptions {
	return utils.LogOptions{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		File:   c.Log.File,
	}
}

// CORSOrigins lists the origins allowed to call the API with credentials.
func (c *Config) CORSOrigins() []string {
	origins := []string{"http://localhost:8080"}
	if c.Server.FrontendURL != "" && c.Server.FrontendURL != origins[0] {
		origins = append(origins, strings.TrimRight(c.Server.FrontendURL, "/"))
	}
	return origins
}

// Address is the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
