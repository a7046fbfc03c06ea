// Package migrations embeds the goose migration set applied to the audit
// log's Postgres backend (C18), mirroring the embed.FS pattern the audit,
// auth, history, simulation and report services each expose from their own
// migrations package.
package migrations

import "embed"

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
