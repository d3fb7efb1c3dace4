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

package repository

import (
	"context"
	"errors"

	"github.com/tomoncle/comicdb/types"
	"github.com/uptrace/bun"
)

// ErrNotConnected is returned when the provider has no open database.
var ErrNotConnected = errors.New("database not connected")

// DBProvider hands out the current database handle. The database manager
// replaces its handle on reconnect, so repositories ask for it per call.
type DBProvider interface {
	GetDB() *bun.DB
}

type staticProvider struct {
	db *bun.DB
}

func (p staticProvider) GetDB() *bun.DB { return p.db }

// StaticDB wraps a fixed handle as a DBProvider.
func StaticDB(db *bun.DB) DBProvider {
	return staticProvider{db: db}
}

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)

	Exists(ctx context.Context, id any) (bool, error)

	Create(ctx context.Context, entity *T) error

	// Update writes the given columns (all columns when none are given) of
	// the row matching the entity's primary key and reports matched rows.
	Update(ctx context.Context, entity *T, columns ...string) (int64, error)

	Delete(ctx context.Context, id any) (int64, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// TransactionRepository runs work in a transaction and binds the repository
// to an open one.
type TransactionRepository[T any] interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
	WithTx(tx bun.Tx) Repository[T]
}

// Repository combines CRUD, pagination, and transactional operations.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
}
