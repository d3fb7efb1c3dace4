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

const entitySeries = "series"

type SeriesInput struct {
	Name      string `json:"name" validate:"required,max=255"`
	CompanyID int64  `json:"companyId" validate:"required,gt=0"`
}

type SeriesPatch struct {
	Name      *string `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	CompanyID *int64  `json:"companyId,omitempty" validate:"omitnil,gt=0"`
}

type SeriesFilter struct {
	ListOptions
	Name      string `query:"name" json:"name"`
	CompanyID int64  `query:"companyId" json:"companyId"`
}

type SeriesStore struct {
	svc       *service[model.Series]
	companies *service[model.Company]
}

func newSeriesStore(provider repository.DBProvider, logger *utils.Logger, companies *service[model.Company]) *SeriesStore {
	svc := newService[model.Series](entitySeries, provider, logger)
	svc.referencedBy = "characters"
	svc.fkField = func(context.Context, *model.Series) string { return "companyId" }
	return &SeriesStore{svc: svc, companies: companies}
}

// Create inserts a series. An unknown company fails with ValidationError on
// companyId.
func (s *SeriesStore) Create(ctx context.Context, in SeriesInput) (*model.Series, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(entitySeries, in); err != nil {
		return nil, err
	}
	return s.svc.create(ctx, &model.Series{Name: in.Name, CompanyID: in.CompanyID})
}

func (s *SeriesStore) Get(ctx context.Context, id int64) (*model.Series, error) {
	return s.svc.get(ctx, id)
}

func (s *SeriesStore) List(ctx context.Context, f SeriesFilter) (*types.Pagination[model.Series], error) {
	var filter *types.QueryFilter
	if f.Name != "" {
		filter = filter.And("name = ?", f.Name)
	}
	if f.CompanyID != 0 {
		filter = filter.And("company_id = ?", f.CompanyID)
	}
	return s.svc.page(ctx, f.ListOptions, filter)
}

// ForCompany lists the series owned by a company.
func (s *SeriesStore) ForCompany(ctx context.Context, companyID int64, opts ListOptions) (*types.Pagination[model.Series], error) {
	if err := s.companies.mustExist(ctx, companyID); err != nil {
		return nil, err
	}
	return s.svc.page(ctx, opts, types.NewQueryFilter("company_id = ?", companyID))
}

func (s *SeriesStore) Update(ctx context.Context, id int64, p SeriesPatch) (*model.Series, error) {
	p.Name = trimPtr(p.Name)
	if err := validateInput(entitySeries, p); err != nil {
		return nil, err
	}
	return s.svc.update(ctx, id, func(se *model.Series) []string {
		var columns []string
		if p.Name != nil && *p.Name != se.Name {
			se.Name = *p.Name
			columns = append(columns, "name")
		}
		if p.CompanyID != nil && *p.CompanyID != se.CompanyID {
			se.CompanyID = *p.CompanyID
			columns = append(columns, "company_id")
		}
		return columns
	})
}

func (s *SeriesStore) Delete(ctx context.Context, id int64) error {
	return s.svc.delete(ctx, id)
}
