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

func (h *handlers) listSeries(c echo.Context) error {
	var f store.SeriesFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	page, err := h.series.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *handlers) createSeries(c echo.Context) error {
	var in store.SeriesInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	series, err := h.series.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, series)
}

func (h *handlers) getSeries(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	series, err := h.series.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, series)
}

func (h *handlers) patchSeries(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var p store.SeriesPatch
	if err := bindBody(c, &p); err != nil {
		return err
	}
	return h.updateSeries(c, id, p)
}

func (h *handlers) putSeries(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in store.SeriesInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	return h.updateSeries(c, id, store.SeriesPatch{Name: &in.Name, CompanyID: &in.CompanyID})
}

func (h *handlers) updateSeries(c echo.Context, id int64, p store.SeriesPatch) error {
	series, err := h.series.Update(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, series)
}

func (h *handlers) deleteSeries(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.series.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) seriesCharacters(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var opts store.ListOptions
	if err := bindQuery(c, &opts); err != nil {
		return err
	}
	page, err := h.characters.ForSeries(c.Request().Context(), id, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
