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
	"strings"

	"github.com/tomoncle/comicdb/model"
	"github.com/tomoncle/comicdb/repository"
	"github.com/tomoncle/comicdb/types"
	"github.com/tomoncle/comicdb/utils"
)

const entityCompany = "company"

type CompanyInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CompanyPatch struct {
	Name *string `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
}

type CompanyFilter struct {
	ListOptions
	Name string `query:"name" json:"name"`
}

type CompanyStore struct {
	svc *service[model.Company]
}

func newCompanyStore(provider repository.DBProvider, logger *utils.Logger) *CompanyStore {
	svc := newService[model.Company](entityCompany, provider, logger)
	svc.uniqueField = "name"
	svc.referencedBy = "series"
	return &CompanyStore{svc: svc}
}

// Create inserts a company. A taken name fails with ValidationError on name.
func (s *CompanyStore) Create(ctx context.Context, in CompanyInput) (*model.Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(entityCompany, in); err != nil {
		return nil, err
	}
	return s.svc.create(ctx, &model.Company{Name: in.Name})
}

func (s *CompanyStore) Get(ctx context.Context, id int64) (*model.Company, error) {
	return s.svc.get(ctx, id)
}

func (s *CompanyStore) List(ctx context.Context, f CompanyFilter) (*types.Pagination[model.Company], error) {
	var filter *types.QueryFilter
	if f.Name != "" {
		filter = filter.And("name = ?", f.Name)
	}
	return s.svc.page(ctx, f.ListOptions, filter)
}

// Update applies the fields present in p.
func (s *CompanyStore) Update(ctx context.Context, id int64, p CompanyPatch) (*model.Company, error) {
	p.Name = trimPtr(p.Name)
	if err := validateInput(entityCompany, p); err != nil {
		return nil, err
	}
	return s.svc.update(ctx, id, func(c *model.Company) []string {
		if p.Name != nil && *p.Name != c.Name {
			c.Name = *p.Name
			return []string{"name"}
		}
		return nil
	})
}

// Delete removes a company. It fails with ConflictError while series
// reference it, unless the delete policy cascades.
func (s *CompanyStore) Delete(ctx context.Context, id int64) error {
	return s.svc.delete(ctx, id)
}
