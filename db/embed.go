// Package db provides the embedded database schema and default catalog.
package db

import _ "embed"

// Schema contains the DDL statements for the key-value table.
//
//go:embed migrations/001_schema.sql
var Schema string

// Products is the default catalog served when no catalog file is configured.
//
//go:embed seed/products.json
var Products []byte
