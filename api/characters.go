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

func (h *handlers) listCharacters(c echo.Context) error {
	var f store.CharacterFilter
	if err := bindQuery(c, &f); err != nil {
		return err
	}
	page, err := h.characters.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *handlers) createCharacter(c echo.Context) error {
	var in store.CharacterInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	character, err := h.characters.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, character)
}

func (h *handlers) getCharacter(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	character, err := h.characters.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, character)
}

// patchCharacter updates the fields present; "cityId": null clears the city.
func (h *handlers) patchCharacter(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var p store.CharacterPatch
	if err := bindBody(c, &p); err != nil {
		return err
	}
	return h.updateCharacter(c, id, p)
}

// putCharacter replaces every field. Omitting cityId clears the city.
func (h *handlers) putCharacter(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in store.CharacterInput
	if err := bindBody(c, &in); err != nil {
		return err
	}
	return h.updateCharacter(c, id, store.CharacterPatch{
		Name:     &in.Name,
		SeriesID: &in.SeriesID,
		CityID:   store.SetTo(in.CityID),
	})
}

func (h *handlers) updateCharacter(c echo.Context, id int64, p store.CharacterPatch) error {
	character, err := h.characters.Update(c.Request().Context(), id, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, character)
}

func (h *handlers) deleteCharacter(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.characters.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
