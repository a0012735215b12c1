// Package migrations embeds the goose migrations of the local metadata store.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
