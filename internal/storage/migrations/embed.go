// Package migrations creates the moderation_decisions tables in PostgreSQL
// and ClickHouse from embedded SQL files, applied in file-name order.
package migrations

import "embed"

// PostgresFS holds the decision log schema for PostgreSQL.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the decision log schema for ClickHouse.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
