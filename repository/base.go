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
	"database/sql"

	"github.com/tomoncle/comicdb/types"
	"github.com/uptrace/bun"
)

const defaultOrder = "id ASC"

type baseRepositoryImpl[T any] struct {
	provider DBProvider
	tx       *bun.Tx
}

// NewRepository returns a generic repository that resolves its database
// through provider on every call.
func NewRepository[T any](provider DBProvider) Repository[T] {
	return &baseRepositoryImpl[T]{provider: provider}
}

func (r *baseRepositoryImpl[T]) conn() (bun.IDB, error) {
	if r.tx != nil {
		return *r.tx, nil
	}
	db := r.provider.GetDB()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db, nil
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	return &baseRepositoryImpl[T]{provider: r.provider, tx: &tx}
}

func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	db, err := r.conn()
	if err != nil {
		return err
	}
	return db.RunInTx(ctx, &sql.TxOptions{}, fn)
}

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	var entity T
	if err := db.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context, id any) (bool, error) {
	db, err := r.conn()
	if err != nil {
		return false, err
	}
	return db.NewSelect().Model((*T)(nil)).Where("id = ?", id).Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	var entities []*T
	query := db.NewSelect().Model(&entities)
	if f := pageRequest.GetFilter(); f != nil && f.Schema != "" {
		query = query.Where(f.Schema, f.Args...)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	orders := pageRequest.GetOrders()
	if len(orders) == 0 {
		orders = []string{defaultOrder}
	}
	err = query.
		Order(orders...).
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	if entities != nil {
		pagination.Items = entities
	}
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity *T) error {
	db, err := r.conn()
	if err != nil {
		return err
	}
	_, err = db.NewInsert().Model(entity).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T, columns ...string) (int64, error) {
	db, err := r.conn()
	if err != nil {
		return 0, err
	}
	query := db.NewUpdate().Model(entity).WherePK()
	if len(columns) > 0 {
		query = query.Column(columns...)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) (int64, error) {
	db, err := r.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
