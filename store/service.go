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

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/comicdb/database"
	"github.com/tomoncle/comicdb/repository"
	"github.com/tomoncle/comicdb/types"
	"github.com/tomoncle/comicdb/utils"
	"github.com/uptrace/bun"
)

const (
	opCreate = "create"
	opGet    = "get"
	opList   = "list"
	opUpdate = "update"
	opDelete = "delete"
)

// ListOptions selects a page of results. Zero values mean page 1 and the
// default page size.
type ListOptions struct {
	Page     int `query:"page" json:"page" validate:"gte=0"`
	PageSize int `query:"pageSize" json:"pageSize" validate:"gte=0,lte=100"`
}

func (o ListOptions) request(filter *types.QueryFilter) *types.PageRequest {
	return types.NewPageRequestWithFilter(o.Page, o.PageSize, filter)
}

// service holds the CRUD flow shared by every entity store and turns driver
// errors into the typed errors of this package.
type service[T any] struct {
	entity string
	repo   repository.Repository[T]
	logger *utils.Logger

	// uniqueField is reported on duplicate key violations.
	uniqueField string
	// referencedBy names the dependents that can block a delete.
	referencedBy string
	// fkField names the field of entity whose reference is dangling.
	fkField func(ctx context.Context, entity *T) string
}

func newService[T any](entity string, provider repository.DBProvider, logger *utils.Logger) *service[T] {
	return &service[T]{
		entity: entity,
		repo:   repository.NewRepository[T](provider),
		logger: logger,
	}
}

func (s *service[T]) get(ctx context.Context, id int64) (*T, error) {
	entity, err := s.repo.GetOne(ctx, id)
	if err != nil {
		return nil, s.translate(ctx, opGet, id, err, nil)
	}
	return entity, nil
}

// mustExist returns NotFoundError when no row has id.
func (s *service[T]) mustExist(ctx context.Context, id int64) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return s.translate(ctx, opGet, id, err, nil)
	}
	if !ok {
		return &NotFoundError{Entity: s.entity, ID: id}
	}
	return nil
}

func (s *service[T]) page(ctx context.Context, opts ListOptions, filter *types.QueryFilter) (*types.Pagination[T], error) {
	if err := validateInput(s.entity, opts); err != nil {
		return nil, err
	}
	page, err := s.repo.Page(ctx, opts.request(filter))
	if err != nil {
		return nil, s.translate(ctx, opList, 0, err, nil)
	}
	return page, nil
}

func (s *service[T]) create(ctx context.Context, entity *T) (*T, error) {
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, s.translate(ctx, opCreate, 0, err, entity)
	}
	s.logger.WithField("entity", s.entity).Debug("row created")
	return entity, nil
}

// update loads row id, lets apply change it and writes back the columns apply
// reports. When apply reports none the current row is returned untouched.
func (s *service[T]) update(ctx context.Context, id int64, apply func(*T) []string) (*T, error) {
	var candidate *T
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetOne(ctx, id)
		if err != nil {
			return err
		}
		columns := apply(current)
		candidate = current
		if len(columns) == 0 {
			return nil
		}
		n, err := repo.Update(ctx, current, columns...)
		if err != nil {
			return err
		}
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return nil, s.translate(ctx, opUpdate, id, err, candidate)
	}
	return candidate, nil
}

func (s *service[T]) delete(ctx context.Context, id int64) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.translate(ctx, opDelete, id, err, nil)
	}
	if n == 0 {
		return &NotFoundError{Entity: s.entity, ID: id}
	}
	s.logger.WithFields(logrus.Fields{"entity": s.entity, "id": id}).Debug("row deleted")
	return nil
}

func (s *service[T]) translate(ctx context.Context, op string, id int64, err error, entity *T) error {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
		connErr       *ConnectionError
	)
	if errors.As(err, &validationErr) || errors.As(err, &notFoundErr) ||
		errors.As(err, &conflictErr) || errors.As(err, &connErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotConnected) {
		return &ConnectionError{Op: op + " " + s.entity, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, s.entity, err)
	}

	_, kind := database.IsSqlError(err)
	switch kind {
	case database.NoRowsErr:
		return &NotFoundError{Entity: s.entity, ID: id}
	case database.ConnectionErr:
		s.logger.WithError(err).Errorf("%s %s: database unavailable", op, s.entity)
		return &ConnectionError{Op: op + " " + s.entity, Err: err}
	case database.DuplicateKeyErr:
		return &ValidationError{Entity: s.entity, Field: s.uniqueField, Reason: "must be unique", Err: err}
	case database.ForeignKeyViolationErr:
		if op == opDelete {
			return &ConflictError{Entity: s.entity, ID: id, Reason: "still referenced by " + s.referencedBy, Err: err}
		}
		var field string
		if s.fkField != nil && entity != nil {
			field = s.fkField(ctx, entity)
		}
		return &ValidationError{Entity: s.entity, Field: field, Reason: "references a record that does not exist", Err: err}
	case database.NotNullViolationErr, database.CheckConstraintViolationErr, database.DataTruncatedErr:
		return &ValidationError{Entity: s.entity, Reason: kind.String(), Err: err}
	}

	s.logger.WithError(err).Errorf("%s %s failed", op, s.entity)
	return fmt.Errorf("%s %s: %w", op, s.entity, err)
}
