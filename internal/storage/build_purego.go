//go:build !sqlite_cgo

package storage

// Default build: pure Go SQLite, no C compiler required.
//
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"

	// foreignKeysParam enables foreign key enforcement through the DSN;
	// modernc runs _pragma on every new connection
	foreignKeysParam = "_pragma=foreign_keys(1)"
)
