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

package api

import (
	"github.com/labstack/echo/v4"
	"github.com/tomoncle/comicdb/store"
)

type handlers struct {
	env        string
	health     HealthChecker
	companies  *store.CompanyStore
	series     *store.SeriesStore
	cities     *store.CityStore
	characters *store.CharacterStore
	docs       *docs
}

func registerRoutes(g *echo.Group, h *handlers) {
	g.GET("/health", h.checkHealth)

	g.GET("/docs", h.docs.page)
	g.GET("/docs/openapi.yaml", h.docs.openAPIYAML)
	g.GET("/docs/openapi.json", h.docs.openAPIJSON)

	companies := g.Group("/companies")
	companies.GET("", h.listCompanies)
	companies.POST("", h.createCompany)
	companies.GET("/:id", h.getCompany)
	companies.PATCH("/:id", h.patchCompany)
	companies.PUT("/:id", h.putCompany)
	companies.DELETE("/:id", h.deleteCompany)
	companies.GET("/:id/series", h.companySeries)

	series := g.Group("/series")
	series.GET("", h.listSeries)
	series.POST("", h.createSeries)
	series.GET("/:id", h.getSeries)
	series.PATCH("/:id", h.patchSeries)
	series.PUT("/:id", h.putSeries)
	series.DELETE("/:id", h.deleteSeries)
	series.GET("/:id/characters", h.seriesCharacters)

	cities := g.Group("/cities")
	cities.GET("", h.listCities)
	cities.POST("", h.createCity)
	cities.GET("/:id", h.getCity)
	cities.PATCH("/:id", h.patchCity)
	cities.PUT("/:id", h.putCity)
	cities.DELETE("/:id", h.deleteCity)
	cities.GET("/:id/characters", h.cityCharacters)

	characters := g.Group("/characters")
	characters.GET("", h.listCharacters)
	characters.POST("", h.createCharacter)
	characters.GET("/:id", h.getCharacter)
	characters.PATCH("/:id", h.patchCharacter)
	characters.PUT("/:id", h.putCharacter)
	characters.DELETE("/:id", h.deleteCharacter)
}

// pathID reads the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	var id int64
	err := echo.PathParamsBinder(c).MustInt64("id", &id).BindError()
	return id, err
}

func bindQuery(c echo.Context, dst any) error {
	return (&echo.DefaultBinder{}).BindQueryParams(c, dst)
}

func bindBody(c echo.Context, dst any) error {
	return (&echo.DefaultBinder{}).BindBody(c, dst)
}
