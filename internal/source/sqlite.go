package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/avelar/feedlight/pkg/types"
)

// lightColumns is the cheap display projection, no aggregate joins.
const lightColumns = "id, slug, title, author, description, category, tags, image_url, created_at"

// SQLiteSource implements Source against an embedded SQLite database. It is
// used for local development and tests; hosted deployments use Postgres.
type SQLiteSource struct {
	db     *sql.DB
	closed atomic.Bool
}

var (
	_ Source             = (*SQLiteSource)(nil)
	_ EngagementRecorder = (*SQLiteSource)(nil)
)

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(SQLiteDriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteSource opens (or creates) an embedded content store. Pass
// ":memory:" for an ephemeral store.
func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSource) guard() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// FetchLight runs the light projection query, newest first.
func (s *SQLiteSource) FetchLight(ctx context.Context, q LightQuery) ([]Row, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	query := "SELECT " + lightColumns + " FROM content"
	var args []any
	if q.Category != "" {
		query += " WHERE category = ?"
		args = append(args, q.Category)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, clampLimit(q.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("light query: %w", err)
	}
	return scanRows(rows)
}

// aggregateSelect joins engagement counts onto the light projection.
const aggregateSelect = `
SELECT c.id, c.slug, c.title, c.author, c.description, c.category, c.tags,
       c.image_url, c.created_at,
       (SELECT COUNT(*) FROM likes l WHERE l.content_id = c.id) AS likes_count,
       (SELECT COUNT(*) FROM views v WHERE v.content_id = c.id) AS views_count,
       (SELECT COUNT(*) FROM comments m WHERE m.content_id = c.id) AS comments_count,
       COALESCE((SELECT AVG(r.value) FROM ratings r WHERE r.content_id = c.id), 0) AS avg_rating,
       (SELECT COUNT(*) FROM ratings r WHERE r.content_id = c.id) AS rating_count
FROM content c`

// FetchAggregate runs the aggregate projection query, newest first.
func (s *SQLiteSource) FetchAggregate(ctx context.Context, q AggregateQuery) ([]Row, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	query, args := aggregateWhere(aggregateSelect, q)
	query += " ORDER BY c.created_at DESC LIMIT ?"
	args = append(args, clampLimit(q.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate query: %w", err)
	}
	return scanRows(rows)
}

// aggregateWhere appends filter clauses shared by aggregate queries.
func aggregateWhere(query string, q AggregateQuery) (string, []any) {
	var clauses []string
	var args []any

	if q.Category != "" {
		clauses = append(clauses, "c.category = ?")
		args = append(args, q.Category)
	}
	if q.Tag != "" {
		// Tags are stored as a JSON array of normalized strings, so a
		// containment check is a quoted substring match.
		clauses = append(clauses, "c.tags LIKE ?")
		args = append(args, `%"`+q.Tag+`"%`)
	}
	if q.TextPattern != "" {
		pattern := "%" + strings.ToLower(q.TextPattern) + "%"
		clauses = append(clauses, "(LOWER(c.title) LIKE ? OR LOWER(c.author) LIKE ? OR LOWER(c.description) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	return query, args
}

// sortOrder maps a sort key to its ORDER BY clause over the aggregate
// projection.
func sortOrder(sort types.SortKey) (string, error) {
	switch sort {
	case types.SortNewest:
		return "c.created_at DESC", nil
	case types.SortLikes:
		return "likes_count DESC, c.created_at DESC", nil
	case types.SortRating:
		return "avg_rating DESC, rating_count DESC", nil
	case types.SortViews:
		return "views_count DESC, c.created_at DESC", nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownSortKey, sort)
	}
}

// TopBySort returns up to limit rows ordered by the precomputed sort.
func (s *SQLiteSource) TopBySort(ctx context.Context, sort types.SortKey, category string, limit int) ([]Row, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	order, err := sortOrder(sort)
	if err != nil {
		return nil, err
	}

	query, args := aggregateWhere(aggregateSelect, AggregateQuery{Category: category})
	query += " ORDER BY " + order + " LIMIT ?"
	args = append(args, clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top-by-sort query: %w", err)
	}
	return scanRows(rows)
}

// Categories lists the distinct categories present in the store.
func (s *SQLiteSource) Categories(ctx context.Context) ([]string, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM content
         WHERE category IS NOT NULL AND category != ''
         ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("categories query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveMany upserts content records in a single transaction.
func (s *SQLiteSource) SaveMany(ctx context.Context, records []types.ContentRecord) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	const upsert = `INSERT INTO content (id, slug, title, author, description, category, tags, image_url, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            slug = excluded.slug,
            title = excluded.title,
            author = excluded.author,
            description = excluded.description,
            category = excluded.category,
            tags = excluded.tags,
            image_url = excluded.image_url`

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %q: %w", rec.ID, err)
		}

		tags, err := json.Marshal(rec.Tags)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal tags for %q: %w", rec.ID, err)
		}

		if _, err := tx.ExecContext(ctx, upsert,
			rec.ID, rec.Slug, rec.Title, rec.Author, rec.Description,
			rec.Category, string(tags), rec.ImageURL, rec.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %q: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// Like records a like for a content item.
func (s *SQLiteSource) Like(ctx context.Context, contentID, userID string) error {
	return s.record(ctx, `INSERT INTO likes (content_id, user_id) VALUES (?, ?)`, contentID, userID)
}

// View records a view of a content item.
func (s *SQLiteSource) View(ctx context.Context, contentID string) error {
	return s.record(ctx, `INSERT INTO views (content_id) VALUES (?)`, contentID)
}

// Comment records a comment on a content item.
func (s *SQLiteSource) Comment(ctx context.Context, contentID, body string) error {
	return s.record(ctx, `INSERT INTO comments (content_id, body) VALUES (?, ?)`, contentID, body)
}

// Rate records a rating for a content item.
func (s *SQLiteSource) Rate(ctx context.Context, contentID string, value float64) error {
	return s.record(ctx, `INSERT INTO ratings (content_id, value) VALUES (?, ?)`, contentID, value)
}

func (s *SQLiteSource) record(ctx context.Context, query string, args ...any) error {
	if err := s.guard(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record engagement: %w", err)
	}
	return nil
}

// scanRows converts a result set into raw rows for the normalizer. []byte
// column values are converted to string so downstream coercion sees text.
func scanRows(rows *sql.Rows) ([]Row, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
