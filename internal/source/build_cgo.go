//go:build sqlite_cgo
// +build sqlite_cgo

package source

// This file is compiled when building with CGO and the sqlite_cgo tag.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
//
// The CGO driver is faster for large local stores.
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// SQLiteDriverName is the SQLite driver to use
	SQLiteDriverName = "sqlite3"

	// SQLiteBuildMode describes the current build configuration
	SQLiteBuildMode = "cgo"
)
