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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/tomoncle/comicdb/config"
	"github.com/tomoncle/comicdb/database"
	"github.com/tomoncle/comicdb/store"
	"github.com/tomoncle/comicdb/utils"
)

const loggerName = "HTTP"

// HealthChecker reports database health. *database.BaseDatabaseFactory
// implements it.
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) *database.HealthStatus
}

// Server is the HTTP front of the entity store.
type Server struct {
	cfg    *config.Config
	logger *utils.Logger
	echo   *echo.Echo

	httpServer *http.Server
}

// New builds the echo router with its middleware chain and routes.
func New(cfg *config.Config, st *store.Store, health HealthChecker) (*Server, error) {
	d, err := newDocs(cfg.Server.BackendURL)
	if err != nil {
		return nil, err
	}

	logger := utils.NewLogger(loggerName)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)
	e.IPExtractor = ipExtractor(cfg.Server.TrustProxy)

	e.Use(
		middleware.Recover(),
		requestIDMiddleware(),
		requestLogger(logger),
		corsMiddleware(cfg.CORSOrigins()),
		middleware.Secure(),
		middleware.Gzip(),
	)

	g := e.Group("/api", headerHandler, rateLimiter(logger, cfg.Server.Testing), middleware.BodyLimit(bodyLimit))
	registerRoutes(g, &handlers{
		env:        cfg.Env,
		health:     health,
		companies:  st.Companies,
		series:     st.Series,
		cities:     st.Cities,
		characters: st.Characters,
		docs:       d,
	})

	return &Server{
		cfg:    cfg,
		logger: logger,
		echo:   e,
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      e,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).
		WithField("env", s.cfg.Env).
		Info("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
