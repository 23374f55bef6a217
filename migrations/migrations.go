// Package migrations embeds the database schema migrations.
package migrations

import "embed"

// Files holds all .up.sql migrations, applied in filename order.
//
//go:embed *.sql
var Files embed.FS
