//go:build !sqlite_cgo
// +build !sqlite_cgo

package source

// This file is compiled by default and when CGO is unavailable.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// The pure Go driver requires no C compiler and cross-compiles cleanly,
// which is what local development and CI want.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// SQLiteDriverName is the SQLite driver to use
	SQLiteDriverName = "sqlite"

	// SQLiteBuildMode describes the current build configuration
	SQLiteBuildMode = "purego"
)
