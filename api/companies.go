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

func (h *handlers) listCompanies(c echo.Context) error {
	var f store.CompanyFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	page, err := h.companies.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *handlers) createCompany(c echo.Context) error {
	var in store.CompanyInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	company, err := h.companies.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, company)
}

func (h *handlers) getCompany(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	company, err := h.companies.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

func (h *handlers) patchCompany(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var p store.CompanyPatch
	if err := bindBody(c, &p); err != nil {
		return err
	}
	return h.updateCompany(c, id, p)
}

// putCompany replaces every field, so a missing name is rejected.
func (h *handlers) putCompany(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in store.CompanyInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	return h.updateCompany(c, id, store.CompanyPatch{Name: &in.Name})
}

func (h *handlers) updateCompany(c echo.Context, id int64, p store.CompanyPatch) error {
	company, err := h.companies.Update(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

func (h *handlers) deleteCompany(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.companies.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) companySeries(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var opts store.ListOptions
	if err := bindQuery(c, &opts); err != nil {
		return err
	}
	page, err := h.series.ForCompany(c.Request().Context(), id, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}
