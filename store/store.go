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
	"github.com/tomoncle/comicdb/repository"
	"github.com/tomoncle/comicdb/utils"
)

const loggerName = "STORE"

// Store groups the entity stores over one database.
type Store struct {
	Companies  *CompanyStore
	Series     *SeriesStore
	Cities     *CityStore
	Characters *CharacterStore
}

// New builds the entity stores. provider is consulted on every call, so a
// *database.BaseDatabaseFactory keeps working across reconnects.
func New(provider repository.DBProvider) *Store {
	logger := utils.NewLogger(loggerName)

	companies := newCompanyStore(provider, logger)
	series := newSeriesStore(provider, logger, companies.svc)
	cities := newCityStore(provider, logger)
	characters := newCharacterStore(provider, logger, series.svc, cities.svc)

	return &Store{
		Companies:  companies,
		Series:     series,
		Cities:     cities,
		Characters: characters,
	}
}
