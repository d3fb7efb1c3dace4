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
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tomoncle/comicdb/store"
)

func (h *handlers) listCities(c echo.Context) error {
	var f store.CityFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	page, err := h.cities.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *handlers) createCity(c echo.Context) error {
	var in store.CityInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	city, err := h.cities.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, city)
}

func (h *handlers) getCity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	city, err := h.cities.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, city)
}

func (h *handlers) patchCity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var p store.CityPatch
	if err := bindBody(c, &p); err != nil {
		return err
	}
	return h.updateCity(c, id, p)
}

func (h *handlers) putCity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in store.CityInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	return h.updateCity(c, id, store.CityPatch{Name: &in.Name})
}

func (h *handlers) updateCity(c echo.Context, id int64, p store.CityPatch) error {
	city, err := h.cities.Update(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, city)
}

// deleteCity leaves the characters in place with no city.
func (h *handlers) deleteCity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.cities.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) cityCharacters(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var opts store.ListOptions
	if err := bindQuery(c, &opts); err != nil {
		return err
	}
	page, err := h.characters.InCity(c.Request().Context(), id, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
