// Package migrations embeds the goose SQL migrations so both the API
// service and the test suites can apply the schema without a checkout
// of the migration files next to the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
