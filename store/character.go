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
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/tomoncle/comicdb/model"
	"github.com/tomoncle/comicdb/repository"
	"github.com/tomoncle/comicdb/types"
	"github.com/tomoncle/comicdb/utils"
)

const entityCharacter = "character"

// NullableID is a patch field that tells "absent" apart from an explicit
// null. Set is true whenever the key appeared in the JSON body.
type NullableID struct {
	Set   bool
	Value *int64
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// SetTo returns a NullableID holding id, or an explicit null for nil.
func SetTo(id *int64) NullableID {
	return NullableID{Set: true, Value: id}
}

type CharacterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	SeriesID int64  `json:"seriesId" validate:"required,gt=0"`
	CityID   *int64 `json:"cityId" validate:"omitnil,gt=0"`
}

// CharacterPatch updates the fields present. CityID set to null clears the
// character's city.
type CharacterPatch struct {
	Name     *string    `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	SeriesID *int64     `json:"seriesId,omitempty" validate:"omitnil,gt=0"`
	CityID   NullableID `json:"cityId"`
}

type CharacterFilter struct {
	ListOptions
	Name     string `query:"name" json:"name"`
	SeriesID int64  `query:"seriesId" json:"seriesId"`
	CityID   int64  `query:"cityId" json:"cityId"`
}

type CharacterStore struct {
	svc    *service[model.Character]
	series *service[model.Series]
	cities *service[model.City]
}

func newCharacterStore(provider repository.DBProvider, logger *utils.Logger,
	series *service[model.Series], cities *service[model.City]) *CharacterStore {
	svc := newService[model.Character](entityCharacter, provider, logger)
	svc.fkField = func(ctx context.Context, c *model.Character) string {
		if ok, err := series.repo.Exists(ctx, c.SeriesID); err == nil && !ok {
			return "seriesId"
		}
		if c.CityID != nil {
			return "cityId"
		}
		return "seriesId"
	}
	return &CharacterStore{svc: svc, series: series, cities: cities}
}

// Create inserts a character. An unknown series or city fails with
// ValidationError naming seriesId or cityId.
func (s *CharacterStore) Create(ctx context.Context, in CharacterInput) (*model.Character, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(entityCharacter, in); err != nil {
		return nil, err
	}
	return s.svc.create(ctx, &model.Character{Name: in.Name, SeriesID: in.SeriesID, CityID: in.CityID})
}

func (s *CharacterStore) Get(ctx context.Context, id int64) (*model.Character, error) {
	return s.svc.get(ctx, id)
}

func (s *CharacterStore) List(ctx context.Context, f CharacterFilter) (*types.Pagination[model.Character], error) {
	var filter *types.QueryFilter
	if f.Name != "" {
		filter = filter.And("name = ?", f.Name)
	}
	if f.SeriesID != 0 {
		filter = filter.And("series_id = ?", f.SeriesID)
	}
	if f.CityID != 0 {
		filter = filter.And("city_id = ?", f.CityID)
	}
	return s.svc.page(ctx, f.ListOptions, filter)
}

// ForSeries lists the characters of a series.
func (s *CharacterStore) ForSeries(ctx context.Context, seriesID int64, opts ListOptions) (*types.Pagination[model.Character], error) {
	if err := s.series.mustExist(ctx, seriesID); err != nil {
		return nil, err
	}
	return s.svc.page(ctx, opts, types.NewQueryFilter("series_id = ?", seriesID))
}

// InCity lists the characters located in a city.
func (s *CharacterStore) InCity(ctx context.Context, cityID int64, opts ListOptions) (*types.Pagination[model.Character], error) {
	if err := s.cities.mustExist(ctx, cityID); err != nil {
		return nil, err
	}
	return s.svc.page(ctx, opts, types.NewQueryFilter("city_id = ?", cityID))
}

func (s *CharacterStore) Update(ctx context.Context, id int64, p CharacterPatch) (*model.Character, error) {
	p.Name = trimPtr(p.Name)
	if err := validateInput(entityCharacter, p); err != nil {
		return nil, err
	}
	if p.CityID.Set && p.CityID.Value != nil && *p.CityID.Value <= 0 {
		return nil, &ValidationError{Entity: entityCharacter, Field: "cityId", Reason: "must be greater than 0"}
	}
	return s.svc.update(ctx, id, func(c *model.Character) []string {
		var columns []string
		if p.Name != nil && *p.Name != c.Name {
			c.Name = *p.Name
			columns = append(columns, "name")
		}
		if p.SeriesID != nil && *p.SeriesID != c.SeriesID {
			c.SeriesID = *p.SeriesID
			columns = append(columns, "series_id")
		}
		if p.CityID.Set && !sameID(p.CityID.Value, c.CityID) {
			c.CityID = p.CityID.Value
			columns = append(columns, "city_id")
		}
		return columns
	})
}

func (s *CharacterStore) Delete(ctx context.Context, id int64) error {
	return s.svc.delete(ctx, id)
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
