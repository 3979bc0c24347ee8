package migrations

import "embed"

// FS contains embedded PostgreSQL migrations for rooms storage.
//
//go:embed *.sql
var FS embed.FS
