package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/avelar/feedlight/pkg/types"
)

// PostgresSource implements Source against the hosted Postgres backend.
type PostgresSource struct {
	db *sqlx.DB
}

var (
	_ Source             = (*PostgresSource)(nil)
	_ EngagementRecorder = (*PostgresSource)(nil)
)

// NewPostgresSource connects to the hosted backend.
func NewPostgresSource(dsn string) (*PostgresSource, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresSource{db: db}, nil
}

// Close closes the connection pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// FetchLight runs the light projection query, newest first.
func (s *PostgresSource) FetchLight(ctx context.Context, q LightQuery) ([]Row, error) {
	query := "SELECT " + lightColumns + " FROM content"
	var args []any
	if q.Category != "" {
		query += " WHERE category = $1"
		args = append(args, q.Category)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, clampLimit(q.Limit))

	return s.queryRows(ctx, query, args...)
}

// pgAggregateSelect mirrors the SQLite aggregate projection with Postgres
// placeholders filled in by pgWhere.
const pgAggregateSelect = `
SELECT c.id, c.slug, c.title, c.author, c.description, c.category, c.tags,
       c.image_url, c.created_at,
       (SELECT COUNT(*) FROM likes l WHERE l.content_id = c.id) AS likes_count,
       (SELECT COUNT(*) FROM views v WHERE v.content_id = c.id) AS views_count,
       (SELECT COUNT(*) FROM comments m WHERE m.content_id = c.id) AS comments_count,
       COALESCE((SELECT AVG(r.value) FROM ratings r WHERE r.content_id = c.id), 0) AS avg_rating,
       (SELECT COUNT(*) FROM ratings r WHERE r.content_id = c.id) AS rating_count
FROM content c`

// pgWhere builds the shared aggregate filter with $n placeholders.
func pgWhere(q AggregateQuery) (string, []any) {
	var clauses []string
	var args []any

	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if q.Category != "" {
		clauses = append(clauses, "c.category = "+next())
		args = append(args, q.Category)
	}
	if q.Tag != "" {
		// tags is a jsonb array of normalized strings.
		clauses = append(clauses, "c.tags @> "+next())
		tag, _ := json.Marshal([]string{q.Tag})
		args = append(args, string(tag))
	}
	if q.TextPattern != "" {
		p := next()
		clauses = append(clauses, fmt.Sprintf("(c.title ILIKE %s OR c.author ILIKE %s OR c.description ILIKE %s)", p, p, p))
		args = append(args, "%"+q.TextPattern+"%")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// FetchAggregate runs the aggregate projection query, newest first.
func (s *PostgresSource) FetchAggregate(ctx context.Context, q AggregateQuery) ([]Row, error) {
	where, args := pgWhere(q)
	query := pgAggregateSelect + where +
		fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, clampLimit(q.Limit))

	return s.queryRows(ctx, query, args...)
}

// TopBySort returns up to limit rows ordered by the precomputed sort. This is
// the stand-in for the backend's named RPC endpoints (newest, top-liked,
// highest-rated, top-viewed).
func (s *PostgresSource) TopBySort(ctx context.Context, sort types.SortKey, category string, limit int) ([]Row, error) {
	order, err := sortOrder(sort)
	if err != nil {
		return nil, err
	}

	where, args := pgWhere(AggregateQuery{Category: category})
	query := pgAggregateSelect + where +
		fmt.Sprintf(" ORDER BY %s LIMIT $%d", order, len(args)+1)
	args = append(args, clampLimit(limit))

	return s.queryRows(ctx, query, args...)
}

// Categories lists the distinct categories present in the store.
func (s *PostgresSource) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.SelectContext(ctx, &out,
		`SELECT DISTINCT category FROM content
         WHERE category IS NOT NULL AND category != ''
         ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("categories query: %w", err)
	}
	return out, nil
}

// SaveMany upserts content records in a single transaction.
func (s *PostgresSource) SaveMany(ctx context.Context, records []types.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	const upsert = `INSERT INTO content (id, slug, title, author, description, category, tags, image_url, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            slug = EXCLUDED.slug,
            title = EXCLUDED.title,
            author = EXCLUDED.author,
            description = EXCLUDED.description,
            category = EXCLUDED.category,
            tags = EXCLUDED.tags,
            image_url = EXCLUDED.image_url`

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
func (s *PostgresSource) Like(ctx context.Context, contentID, userID string) error {
	return s.exec(ctx, `INSERT INTO likes (content_id, user_id) VALUES ($1, $2)`, contentID, userID)
}

// View records a view of a content item.
func (s *PostgresSource) View(ctx context.Context, contentID string) error {
	return s.exec(ctx, `INSERT INTO views (content_id) VALUES ($1)`, contentID)
}

// Comment records a comment on a content item.
func (s *PostgresSource) Comment(ctx context.Context, contentID, body string) error {
	return s.exec(ctx, `INSERT INTO comments (content_id, body) VALUES ($1, $2)`, contentID, body)
}

// Rate records a rating for a content item.
func (s *PostgresSource) Rate(ctx context.Context, contentID string, value float64) error {
	return s.exec(ctx, `INSERT INTO ratings (content_id, value) VALUES ($1, $2)`, contentID, value)
}

func (s *PostgresSource) exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record engagement: %w", err)
	}
	return nil
}

// queryRows runs a query and collects raw rows via sqlx.MapScan.
func (s *PostgresSource) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		row := make(Row)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for col, v := range row {
			if b, ok := v.([]byte); ok {
				row[col] = string(b)
			}
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
