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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/comicdb/config"
	"github.com/tomoncle/comicdb/database"
	"github.com/tomoncle/comicdb/repository"
	"github.com/tomoncle/comicdb/store"
)

var dbSeq atomic.Int64

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Type = database.TypeSQLite
	cfg.Database.Name = fmt.Sprintf("file:api_%s_%d?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"), dbSeq.Add(1))
	cfg.Database.ConnectRetries = 0
	cfg.Database.HealthCheckInterval = 0
	cfg.Server.Testing = true
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (http.Handler, *database.BaseDatabaseFactory) {
	t.Helper()
	f, err := database.Open(context.Background(), cfg.DBConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	srv, err := New(cfg, store.New(f), f)
	require.NoError(t, err)
	return srv.Handler(), f
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type entity struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CompanyID int64  `json:"companyId"`
	SeriesID  int64  `json:"seriesId"`
	CityID    *int64 `json:"cityId"`
}

type page struct {
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Total    int       `json:"total"`
	Items    []*entity `json:"items"`
}

func TestCompanyLifecycle(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))

	rec := do(t, h, http.MethodPost, "/api/companies", `{"name":"Marvel"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	marvel := decode[entity](t, rec)
	assert.EqualValues(t, 1, marvel.ID)
	assert.Equal(t, "Marvel", marvel.Name)

	rec = do(t, h, http.MethodPost, "/api/companies", `{"name":"Marvel"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	herr := decode[HTTPError](t, rec)
	assert.Equal(t, "BAD_REQUEST", herr.Code)
	assert.Equal(t, http.StatusBadRequest, herr.Status)
	require.Len(t, herr.Errors, 1)
	assert.Equal(t, "name", herr.Errors[0].Field)

	rec = do(t, h, http.MethodGet, "/api/companies/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Marvel", decode[entity](t, rec).Name)

	rec = do(t, h, http.MethodPatch, "/api/companies/1", `{"name":"Marvel Comics"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Marvel Comics", decode[entity](t, rec).Name)

	rec = do(t, h, http.MethodPut, "/api/companies/1", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", decode[HTTPError](t, rec).Errors[0].Field)

	rec = do(t, h, http.MethodPut, "/api/companies/1", `{"name":"Marvel"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Marvel", decode[entity](t, rec).Name)

	rec = do(t, h, http.MethodDelete, "/api/companies/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/companies/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	herr = decode[HTTPError](t, rec)
	assert.Equal(t, "NOT_FOUND", herr.Code)
	assert.Equal(t, "company 1 not found", herr.Message)

	rec = do(t, h, http.MethodDelete, "/api/companies/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeriesNeedExistingCompany(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))

	rec := do(t, h, http.MethodPost, "/api/series", `{"name":"Avengers","companyId":999}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	herr := decode[HTTPError](t, rec)
	require.Len(t, herr.Errors, 1)
	assert.Equal(t, "companyId", herr.Errors[0].Field)

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/companies", `{"name":"Marvel"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/series", `{"name":"X-Men","companyId":1}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/series", `{"name":"Avengers","companyId":1}`).Code)

	rec = do(t, h, http.MethodGet, "/api/companies/1/series", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[page](t, rec)
	assert.Equal(t, 2, p.Total)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "X-Men", p.Items[0].Name)

	rec = do(t, h, http.MethodGet, "/api/series?companyId=1&name=Avengers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[page](t, rec).Total)

	rec = do(t, h, http.MethodGet, "/api/companies/42/series", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/companies/1", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decode[HTTPError](t, rec).Code)
}

func TestCharacterCity(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/companies", `{"name":"Marvel"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/series", `{"name":"X-Men","companyId":1}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/cities", `{"name":"New York"}`).Code)

	rec := do(t, h, http.MethodPost, "/api/characters", `{"name":"Wolverine","seriesId":1,"cityId":7}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cityId", decode[HTTPError](t, rec).Errors[0].Field)

	rec = do(t, h, http.MethodPost, "/api/characters", `{"name":"Wolverine","seriesId":1,"cityId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	logan := decode[entity](t, rec)
	require.NotNil(t, logan.CityID)
	assert.EqualValues(t, 1, *logan.CityID)

	rec = do(t, h, http.MethodGet, "/api/cities/1/characters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[page](t, rec).Total)

	rec = do(t, h, http.MethodGet, "/api/characters?seriesId=1&cityId=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[page](t, rec).Total)

	rec = do(t, h, http.MethodPatch, "/api/characters/1", `{"name":"Logan"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[entity](t, rec)
	assert.Equal(t, "Logan", updated.Name)
	require.NotNil(t, updated.CityID)

	rec = do(t, h, http.MethodPatch, "/api/characters/1", `{"cityId":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[entity](t, rec).CityID)

	rec = do(t, h, http.MethodPut, "/api/characters/1", `{"name":"Wolverine","seriesId":1,"cityId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decode[entity](t, rec).CityID)

	rec = do(t, h, http.MethodDelete, "/api/series/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/cities/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/characters/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[entity](t, rec).CityID)

	rec = do(t, h, http.MethodGet, "/api/series/1/characters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[page](t, rec).Total)
}

func TestBadRequests(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))

	rec := do(t, h, http.MethodGet, "/api/companies/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	herr := decode[HTTPError](t, rec)
	require.Len(t, herr.Errors, 1)
	assert.Equal(t, "id", herr.Errors[0].Field)

	rec = do(t, h, http.MethodGet, "/api/companies?pageSize=101", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "pageSize", decode[HTTPError](t, rec).Errors[0].Field)

	rec = do(t, h, http.MethodGet, "/api/companies?page=first", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/companies", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/series", `{"name":"X-Men","companyId":"one"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/cities", `{"name":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", decode[HTTPError](t, rec).Errors[0].Field)

	rec = do(t, h, http.MethodGet, "/api/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode[HTTPError](t, rec).Message)
}

func TestListPaging(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))
	for _, name := range []string{"Metropolis", "Gotham", "Star City"} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/cities", fmt.Sprintf(`{"name":%q}`, name)).Code)
	}

	rec := do(t, h, http.MethodGet, "/api/cities?page=2&pageSize=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[page](t, rec)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 2, p.PageSize)
	assert.Equal(t, 3, p.Total)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Star City", p.Items[0].Name)

	rec = do(t, h, http.MethodGet, "/api/characters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"page":1,"pageSize":20,"total":0,"items":[]}`, rec.Body.String())
}

func TestResponseHeaders(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestFrontendOriginAllowed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.FrontendURL = "https://comics.example.com/"
	h, _ := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	req.Header.Set("Origin", "https://comics.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://comics.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Testing = false
	h, _ := newTestServer(t, cfg)

	get := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	for i := 0; i < rateLimitRequests; i++ {
		require.Equal(t, http.StatusOK, get("192.0.2.1:4000"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, get("192.0.2.1:4000"))
	assert.Equal(t, http.StatusOK, get("192.0.2.2:4000"))
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Testing = false
	h, _ := newTestServer(t, cfg)

	get := func(i int) int {
		req := httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i%250))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	for i := 0; i < rateLimitRequests; i++ {
		require.Equal(t, http.StatusOK, get(i), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(rateLimitRequests))
}

func TestIPExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4000"
	req.Header.Set(echo.HeaderXForwardedFor, "203.0.113.7")

	assert.Equal(t, "10.0.0.5", ipExtractor(false)(req))
	assert.Equal(t, "203.0.113.7", ipExtractor(true)(req))

	// forwarded headers from a public peer are not trusted
	req.RemoteAddr = "192.0.2.1:4000"
	assert.Equal(t, "192.0.2.1", ipExtractor(true)(req))
}

func TestCancelledRequest(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/companies", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, StatusClientClosedRequest, rec.Code)
	body := decode[HTTPError](t, rec)
	assert.Equal(t, "CLIENT_CLOSED_REQUEST", body.Code)
}

func TestRateLimitDisabledWhenTesting(t *testing.T) {
	h, _ := newTestServer(t, testConfig(t))
	for i := 0; i <= rateLimitRequests; i++ {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/docs/openapi.yaml", "").Code)
	}
}

func TestDocs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.BackendURL = "https://api.example.com/"
	h, _ := newTestServer(t, cfg)

	rec := do(t, h, http.MethodGet, "/api/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")

	rec = do(t, h, http.MethodGet, "/api/docs/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		OpenAPI string `json:"openapi"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.0", doc.OpenAPI)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://api.example.com/api", doc.Servers[0].URL)
	assert.Contains(t, doc.Paths, "/characters/{id}")

	rec = do(t, h, http.MethodGet, "/api/docs/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://api.example.com/api")
}

func TestHealth(t *testing.T) {
	h, f := newTestServer(t, testConfig(t))

	rec := do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status      string `json:"status"`
		Environment string `json:"environment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "development", body.Environment)

	require.NoError(t, f.Close())
	rec = do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
}

type downDB struct{}

func (downDB) GetHealthStatus(context.Context) *database.HealthStatus {
	return &database.HealthStatus{LastError: "connection refused"}
}

func TestDatabaseUnavailable(t *testing.T) {
	srv, err := New(testConfig(t), store.New(repository.StaticDB(nil)), downDB{})
	require.NoError(t, err)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/companies", `{"name":"Marvel"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	herr := decode[HTTPError](t, rec)
	assert.Equal(t, "SERVICE_UNAVAILABLE", herr.Code)
	assert.Equal(t, "database unavailable", herr.Message)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
