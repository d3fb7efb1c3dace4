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
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"
)

//go:embed static/openapi.yaml
var openAPISource []byte

//go:embed static/openapi.html
var openAPIPage string

// docs holds the OpenAPI document rendered once at startup.
type docs struct {
	yaml []byte
	json []byte
}

// newDocs fills servers[0].url with backendURL + "/api".
func newDocs(backendURL string) (*docs, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPISource, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	doc["servers"] = []any{
		map[string]any{"url": strings.TrimRight(backendURL, "/") + "/api"},
	}

	y, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI yaml: %w", err)
	}
	j, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI json: %w", err)
	}
	return &docs{yaml: y, json: j}, nil
}

// jsonCompatible turns yaml maps with non-string keys, such as unquoted
// response codes, into string keyed maps.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}

func (d *docs) page(c echo.Context) error {
	return c.HTML(http.StatusOK, openAPIPage)
}

func (d *docs) openAPIYAML(c echo.Context) error {
	return c.Blob(http.StatusOK, "application/yaml", d.yaml)
}

func (d *docs) openAPIJSON(c echo.Context) error {
	return c.JSONBlob(http.StatusOK, d.json)
}
