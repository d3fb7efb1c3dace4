// Package database provides connection management for postgres, mysql and
// sqlite on top of bun, versioned migrations that create the registered
// tables with their foreign keys, SQL seed files, driver error
// classification and health reporting.
package database
