// Package db embeds the schema and the default seed catalog shipped
// with the storefront binaries.
package db

import _ "embed"

// Schema holds the DDL for every storefront table. RunMigrations
// applies it at startup.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedItems is the default catalog used by seed-catalog when no items
// file is given.
//
//go:embed seed/items.json
var SeedItems []byte
