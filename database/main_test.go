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
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testPublisher struct {
	bun.BaseModel `bun:"table:test_publishers"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type testBook struct {
	bun.BaseModel `bun:"table:test_books"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Title       string `bun:"title,notnull"`
	PublisherID int64  `bun:"publisher_id,notnull"`
}

func init() {
	RegisteredModel(NewModelAdapter((*testBook)(nil), 2))
	RegisteredModel(NewModelAdapter((*testPublisher)(nil), 1))
	RegisterForeignKeys(ForeignKeyConstraint{
		Table:           "test_books",
		Column:          "publisher_id",
		ReferenceTable:  "test_publishers",
		ReferenceColumn: "id",
		OnDelete:        ActionRestrict,
	})
}

var dbSeq atomic.Int64

func sqliteConfig(t *testing.T) *Config {
	t.Helper()
	conn := DefaultConnectionConfig()
	conn.Type = TypeSQLite
	conn.DBName = fmt.Sprintf("file:%s_%d?mode=memory&cache=shared",
		strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), dbSeq.Add(1))
	conn.HealthCheckInterval = 0
	conn.MaxReconnectTries = 0
	return &Config{
		ConnectionConfig:  *conn,
		DataMigrateConfig: DataMigrateConfig{EnableMigrateOnStartup: true},
	}
}

func openSQLite(t *testing.T, cfg *Config) *BaseDatabaseFactory {
	t.Helper()
	f, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}
