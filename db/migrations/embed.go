// Package dbmigrations exposes embedded SQL migrations for cryptoarb binaries.
package dbmigrations

import "embed"

// Files contains the embedded SQL migrations bundled into cryptoarb binaries.
//
//go:embed *.sql
var Files embed.FS
