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

const entityCity = "city"

type CityInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CityPatch struct {
	Name *string `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
}

type CityFilter struct {
	ListOptions
	Name string `query:"name" json:"name"`
}

type CityStore struct {
	svc *service[model.City]
}

func newCityStore(provider repository.DBProvider, logger *utils.Logger) *CityStore {
	svc := newService[model.City](entityCity, provider, logger)
	svc.referencedBy = "characters"
	return &CityStore{svc: svc}
}

func (s *CityStore) Create(ctx context.Context, in CityInput) (*model.City, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(entityCity, in); err != nil {
		return nil, err
	}
	return s.svc.create(ctx, &model.City{Name: in.Name})
}

func (s *CityStore) Get(ctx context.Context, id int64) (*model.City, error) {
	return s.svc.get(ctx, id)
}

func (s *CityStore) List(ctx context.Context, f CityFilter) (*types.Pagination[model.City], error) {
	var filter *types.QueryFilter
	if f.Name != "" {
		filter = filter.And("name = ?", f.Name)
	}
	return s.svc.page(ctx, f.ListOptions, filter)
}

func (s *CityStore) Update(ctx context.Context, id int64, p CityPatch) (*model.City, error) {
	p.Name = trimPtr(p.Name)
	if err := validateInput(entityCity, p); err != nil {
		return nil, err
	}
	return s.svc.update(ctx, id, func(c *model.City) []string {
		if p.Name != nil && *p.Name != c.Name {
			c.Name = *p.Name
			return []string{"name"}
		}
		return nil
	})
}

// Delete removes a city. Characters located there lose their city under the
// default policy.
func (s *CityStore) Delete(ctx context.Context, id int64) error {
	return s.svc.delete(ctx, id)
}
