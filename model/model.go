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

// Package model declares the persistent entities and registers their tables
// and foreign keys with the database package.
package model

import (
	"github.com/tomoncle/comicdb/database"
	"github.com/uptrace/bun"
)

const (
	CompanyTable   = "companies"
	SeriesTable    = "series"
	CityTable      = "cities"
	CharacterTable = "characters"
)

// Company owns zero or more Series. Name is unique across all rows.
type Company struct {
	bun.BaseModel `bun:"table:companies,alias:co"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,type:varchar(255),notnull,unique" json:"name"`
}

// Series belongs to exactly one Company.
type Series struct {
	bun.BaseModel `bun:"table:series,alias:se"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	Name      string `bun:"name,type:varchar(255),notnull" json:"name"`
	CompanyID int64  `bun:"company_id,notnull" json:"companyId"`
}

// City is referenced by Character as its location.
type City struct {
	bun.BaseModel `bun:"table:cities,alias:ci"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,type:varchar(255),notnull" json:"name"`
}

// Character belongs to a Series and may be located in a City.
type Character struct {
	bun.BaseModel `bun:"table:characters,alias:ch"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,type:varchar(255),notnull" json:"name"`
	SeriesID int64  `bun:"series_id,notnull" json:"seriesId"`
	CityID   *int64 `bun:"city_id,nullzero" json:"cityId"`
}

// ForeignKeys returns the default referential constraints between the tables.
func ForeignKeys() []database.ForeignKeyConstraint {
	return []database.ForeignKeyConstraint{
		{
			Table:           SeriesTable,
			Column:          "company_id",
			ReferenceTable:  CompanyTable,
			ReferenceColumn: "id",
			OnDelete:        database.ActionRestrict,
		},
		{
			Table:           CharacterTable,
			Column:          "series_id",
			ReferenceTable:  SeriesTable,
			ReferenceColumn: "id",
			OnDelete:        database.ActionRestrict,
		},
		{
			Table:           CharacterTable,
			Column:          "city_id",
			ReferenceTable:  CityTable,
			ReferenceColumn: "id",
			OnDelete:        database.ActionSetNull,
		},
	}
}

func init() {
	// Referenced tables first.
	database.RegisteredModel(database.NewModelAdapter((*Company)(nil), 10))
	database.RegisteredModel(database.NewModelAdapter((*Series)(nil), 20))
	database.RegisteredModel(database.NewModelAdapter((*City)(nil), 30))
	database.RegisteredModel(database.NewModelAdapter((*Character)(nil), 40))
	database.RegisterForeignKeys(ForeignKeys()...)
}
