package source

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a schema migration for the embedded store.
type Migration struct {
	Version int
	Up      string
}

// AllMigrations contains all embedded-store migrations in order.
var AllMigrations = []Migration{
	{Version: 1, Up: migrationV1Up},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Content table: one row per browsable item
CREATE TABLE IF NOT EXISTS content (
    id TEXT PRIMARY KEY,
    slug TEXT,
    title TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    description TEXT,
    category TEXT,
    tags TEXT NOT NULL DEFAULT '[]',  -- JSON array of normalized tags
    image_url TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_content_category ON content(category);
CREATE INDEX IF NOT EXISTS idx_content_created_at ON content(created_at);

-- Engagement tables, joined only by the aggregate projection
CREATE TABLE IF NOT EXISTS likes (
    content_id TEXT NOT NULL REFERENCES content(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_likes_content ON likes(content_id);

CREATE TABLE IF NOT EXISTS views (
    content_id TEXT NOT NULL REFERENCES content(id) ON DELETE CASCADE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_views_content ON views(content_id);

CREATE TABLE IF NOT EXISTS comments (
    content_id TEXT NOT NULL REFERENCES content(id) ON DELETE CASCADE,
    body TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_comments_content ON comments(content_id);

CREATE TABLE IF NOT EXISTS ratings (
    content_id TEXT NOT NULL REFERENCES content(id) ON DELETE CASCADE,
    value REAL NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ratings_content ON ratings(content_id);
`

// ApplyMigrations brings the embedded store schema up to date.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
        version INTEGER PRIMARY KEY,
        applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range AllMigrations {
		if current.Valid && m.Version <= int(current.Int64) {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
