// Package api serves the entity store over HTTP under /api using echo.
// Store errors are turned into JSON error bodies by a single error handler.
package api
