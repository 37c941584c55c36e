// Package db embeds the SQL schema applied at startup.
package db

import _ "embed"

// Schema is the DDL for every table the service owns. Statements are
// idempotent so it can be applied on every boot.
//
//go:embed migrations/001_schema.sql
var Schema string
