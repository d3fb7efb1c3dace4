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
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	// 100 requests per client IP every 15 minutes.
	rateLimitRequests = 100
	rateLimitWindow   = 15 * time.Minute

	bodyLimit = "1M"
)

// ipExtractor uses the socket address unless a proxy is trusted. Forwarded
// headers are then honoured only for hops from loopback and private ranges.
func ipExtractor(trustProxy bool) echo.IPExtractor {
	if trustProxy {
		return echo.ExtractIPFromXFFHeader()
	}
	return echo.ExtractIPDirect()
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func requestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    func() string { return uuid.New().String() },
		TargetHeader: RequestIDHeader,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(requestIDKey, id)
		},
	})
}

// requestLogger writes one line per request. Errors returned by handlers
// have not been rendered yet when this runs, so the status is taken from the
// error where possible.
func requestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := v.Status
			if v.Error != nil {
				status = toHTTPError(v.Error).Status
			}

			entry := logger.WithFields(logrus.Fields{
				"request_id": requestID(c),
				"latency":    v.Latency.String(),
				"status":     status,
				"method":     v.Method,
				"uri":        v.URI,
				"host":       v.Host,
				"ip":         c.RealIP(),
				"user_agent": c.Request().UserAgent(),
			})
			switch {
			case isContextErr(v.Error):
				entry.WithError(v.Error).Warn("API")
			case status >= http.StatusInternalServerError:
				entry.WithError(v.Error).Error("API")
			case status >= http.StatusBadRequest:
				entry.Warn("API")
			default:
				entry.Info("API")
			}
			return nil
		},
	})
}

func corsMiddleware(origins []string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
	})
}

// headerHandler marks API responses as uncacheable.
func headerHandler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set(echo.HeaderCacheControl, "no-store")
		h.Set(echo.HeaderXContentTypeOptions, "nosniff")
		return next(c)
	}
}

// rateLimiter limits each client IP. It is skipped entirely when disabled.
func rateLimiter(logger *logrus.Logger, disabled bool) echo.MiddlewareFunc {
	limiterStore := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(rateLimitWindow / rateLimitRequests),
		Burst:     rateLimitRequests,
		ExpiresIn: rateLimitWindow,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(echo.Context) bool { return disabled },
		Store:   limiterStore,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			ip := c.RealIP()
			if ip == "" {
				return "", errors.New("client address unknown")
			}
			return ip, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return NewHTTPError(http.StatusForbidden, "could not identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.WithFields(logrus.Fields{
				"ip":   identifier,
				"path": c.Path(),
			}).Warn("rate limit exceeded")
			return NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	})
}
