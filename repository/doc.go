// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations, filtered listing, pagination and transactions. The
// database handle is resolved per call through a DBProvider.
package repository
