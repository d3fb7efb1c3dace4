// Package store is the entity store for companies, series, cities and
// characters. Each store offers create, get, list, partial update and delete,
// plus explicit accessors for related rows, and reports failures as
// ValidationError, NotFoundError, ConflictError or ConnectionError.
package store
