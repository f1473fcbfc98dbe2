//go:build sqlite_cgo

package storage

// CGO build using the reference SQLite C library.
//
//   CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"

	// foreignKeysParam enables foreign key enforcement through the DSN;
	// mattn applies _foreign_keys on every new connection
	foreignKeysParam = "_foreign_keys=1"
)
