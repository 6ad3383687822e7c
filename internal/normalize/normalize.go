package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avelar/feedlight/pkg/types"
)

// Field aliases seen across backend projections. Light queries use snake_case
// column names; the RPC endpoints return camelCase.
var (
	imageKeys    = []string{"image_url", "imageUrl", "image"}
	createdKeys  = []string{"created_at", "createdAt"}
	likesKeys    = []string{"likes_count", "likesCount", "likes"}
	viewsKeys    = []string{"views_count", "viewsCount", "views"}
	commentsKeys = []string{"comments_count", "commentsCount", "comments"}
	ratingKeys   = []string{"avg_rating", "avgRating", "rating"}
	ratingCtKeys = []string{"rating_count", "ratingCount", "ratings"}
)

// Normalize coerces a raw backend row into a canonical ContentRecord. It is
// total: any input, including nil, produces a valid record.
func Normalize(raw map[string]any) types.ContentRecord {
	rec := types.ContentRecord{
		ID:          String(raw["id"]),
		Slug:        String(raw["slug"]),
		Title:       String(raw["title"]),
		Author:      String(raw["author"]),
		Description: String(raw["description"]),
		Category:    String(raw["category"]),
		Tags:        Tags(raw["tags"]),
		ImageURL:    String(first(raw, imageKeys)),
		CreatedAt:   Timestamp(first(raw, createdKeys)),

		LikesCount:    Count(first(raw, likesKeys)),
		ViewsCount:    Count(first(raw, viewsKeys)),
		CommentsCount: Count(first(raw, commentsKeys)),
		AvgRating:     Number(first(raw, ratingKeys)),
		RatingCount:   Count(first(raw, ratingCtKeys)),
	}

	if rec.Title == "" {
		rec.Title = types.DefaultTitle
	}

	return rec
}

// first returns the value of the first alias present in the row.
func first(raw map[string]any, keys []string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// String coerces any value to a trimmed string. nil becomes "".
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	case float64:
		// Bare numbers render without a trailing ".0" so numeric ids
		// round-trip cleanly.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprint(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// Tags coerces a backend tags value into a normalized tag set: lowercased,
// trimmed, no empties, duplicates dropped keeping first-occurrence order.
func Tags(v any) []string {
	var parts []string

	switch val := v.(type) {
	case nil:
		return []string{}
	case []string:
		parts = val
	case []any:
		parts = make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, String(item))
		}
	case string:
		// SQLite and some RPC paths deliver tags as a JSON-encoded array.
		trimmed := strings.TrimSpace(val)
		if strings.HasPrefix(trimmed, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return Tags(decoded)
			}
		}
		parts = []string{trimmed}
	default:
		parts = []string{String(val)}
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.ToLower(strings.TrimSpace(String(part)))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// timestampLayouts are tried in order for string-encoded timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp coerces a backend timestamp value. Unparseable values yield the
// zero time, which sorts last under newest-first ordering.
func Timestamp(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case string:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, strings.TrimSpace(val)); err == nil {
				return ts
			}
		}
		return time.Time{}
	case float64:
		if val <= 0 {
			return time.Time{}
		}
		return time.Unix(int64(val), 0).UTC()
	case int64:
		if val <= 0 {
			return time.Time{}
		}
		return time.Unix(val, 0).UTC()
	default:
		return time.Time{}
	}
}

// Records normalizes a batch of raw rows, skipping rows that produce no id.
func Records(rows []map[string]any) []types.ContentRecord {
	out := make([]types.ContentRecord, 0, len(rows))
	for _, row := range rows {
		rec := Normalize(row)
		if rec.ID == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}
