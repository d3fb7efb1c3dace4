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

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

var supportedTypes = []string{TypeMySQL, TypePostgres, TypeSQLite}

// BaseDatabaseFactory owns one configured database manager and exposes the
// helpers the rest of the application needs from it.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	config  *Config
	logger  Logger
}

// NewDatabaseFactory returns a factory logging through logger, or through the
// package default logger when nil.
func NewDatabaseFactory(logger Logger) *BaseDatabaseFactory {
	if logger == nil {
		logger = GetLogger()
	}
	return &BaseDatabaseFactory{logger: logger}
}

// CreateFromConfig validates cfg and constructs the database manager.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *Config) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	cfg.ConnectionConfig.Type = NormalizeType(cfg.ConnectionConfig.Type)

	supported := false
	for _, t := range supportedTypes {
		if cfg.ConnectionConfig.Type == t {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.ConnectionConfig.Type, supportedTypes)
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)

	f.config = cfg
	f.manager = manager
	return manager, nil
}

// InitializeDatabase connects, retrying up to MaxReconnectTries times with
// ReconnectInterval between attempts, then runs migrations when enabled.
// It gives up with the last connection error; callers treat that as fatal.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}

	conn := f.config.ConnectionConfig
	attempts := conn.MaxReconnectTries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = f.manager.Connect(ctx); err == nil {
			break
		}
		f.logger.Warn("Database connection attempt failed", "attempt", attempt, "of", attempts, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to database: %w", ctx.Err())
		case <-time.After(conn.ReconnectInterval):
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
	}

	if f.config.DataMigrateConfig.EnableMigrateOnStartup {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed")
	return nil
}

// Open creates a factory for cfg and initializes the database.
func Open(ctx context.Context, cfg *Config, logger Logger) (*BaseDatabaseFactory, error) {
	f := NewDatabaseFactory(logger)
	if _, err := f.CreateFromConfig(cfg); err != nil {
		return nil, err
	}
	if err := f.InitializeDatabase(ctx); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the current bun database, or nil if not connected. The value
// changes after a reconnect, so callers should not cache it.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// Close stops the health check and closes the connection pool.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus pings the database and reports pool usage.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			LastError:     "database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns connection pool statistics.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
