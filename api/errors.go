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
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/comicdb/store"
)

// FieldError points at one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the body of every error response.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError builds an error whose code is derived from the status text,
// e.g. 404 becomes NOT_FOUND.
func NewHTTPError(status int, message string, fields ...FieldError) *HTTPError {
	return &HTTPError{
		Code:    statusCode(status),
		Message: message,
		Status:  status,
		Errors:  fields,
	}
}

// StatusClientClosedRequest reports a request abandoned by its client.
const StatusClientClosedRequest = 499

func statusCode(status int) string {
	if status == StatusClientClosedRequest {
		return "CLIENT_CLOSED_REQUEST"
	}
	text := http.StatusText(status)
	if text == "" {
		text = "Unknown Error"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

// toHTTPError maps store and echo errors onto response bodies. Anything
// unrecognised is reported as a 500 without leaking its message.
func toHTTPError(err error) *HTTPError {
	var (
		httpErr       *HTTPError
		validationErr *store.ValidationError
		notFoundErr   *store.NotFoundError
		conflictErr   *store.ConflictError
		connErr       *store.ConnectionError
		bindErr       *echo.BindingError
		echoErr       *echo.HTTPError
	)

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, context.Canceled):
		return NewHTTPError(StatusClientClosedRequest, "client closed request")
	case errors.Is(err, context.DeadlineExceeded):
		return NewHTTPError(http.StatusServiceUnavailable, "request timed out")
	case errors.As(err, &validationErr):
		var fields []FieldError
		if validationErr.Field != "" {
			fields = append(fields, FieldError{Field: validationErr.Field, Error: validationErr.Reason})
		}
		return NewHTTPError(http.StatusBadRequest, validationErr.Error(), fields...)
	case errors.As(err, &notFoundErr):
		return NewHTTPError(http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &conflictErr):
		return NewHTTPError(http.StatusConflict, conflictErr.Error())
	case errors.As(err, &connErr):
		return NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	case errors.As(err, &bindErr):
		return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", bindErr.Field),
			FieldError{Field: bindErr.Field, Error: "must be an integer"})
	case errors.As(err, &echoErr):
		if echoErr.Code == http.StatusNotFound {
			return NewHTTPError(http.StatusNotFound, "Route not found")
		}
		return NewHTTPError(echoErr.Code, fmt.Sprint(echoErr.Message))
	default:
		return NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

// isContextErr reports a request cancelled by its client or cut off by its
// deadline. Neither points at a server fault.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// errorHandler writes the JSON error body unless the handler already
// committed a response.
func errorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		herr := toHTTPError(err)
		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"method":     c.Request().Method,
			"path":       c.Path(),
		}).WithError(err)
		switch {
		case isContextErr(err):
			entry.Info("request abandoned")
		case herr.Status >= http.StatusInternalServerError:
			entry.Error("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(herr.Status)
		} else {
			werr = c.JSON(herr.Status, herr)
		}
		if werr != nil {
			logger.WithError(werr).Error("failed to write error response")
		}
	}
}
