package types

import "time"

// DefaultTitle is used when a backend row has no usable title.
const DefaultTitle = "Untitled"

// ContentRecord is the canonical shape of one piece of browsable content
// (a business idea, book summary, quote, course, or audiobook).
type ContentRecord struct {
	// Identification
	ID   string `json:"id"`
	Slug string `json:"slug,omitempty"` // friendly identifier, preferred for addressing when set

	// Display fields
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description,omitempty"` // short preview text, never the long-form body
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags"` // lowercased, trimmed, no empties or duplicates
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`

	// Engagement aggregates (zero until the full-phase fetch fills them in)
	LikesCount    int64   `json:"likes_count"`
	ViewsCount    int64   `json:"views_count"`
	CommentsCount int64   `json:"comments_count"`
	AvgRating     float64 `json:"avg_rating"`
	RatingCount   int64   `json:"rating_count"`
}

// Validate checks the record invariants.
func (r *ContentRecord) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}

	if r.LikesCount < 0 || r.ViewsCount < 0 || r.CommentsCount < 0 || r.RatingCount < 0 {
		return ErrNegativeCount
	}

	if r.AvgRating < 0 {
		return ErrNegativeRating
	}

	return nil
}

// HasTag reports whether the record carries the given (already normalized) tag.
func (r *ContentRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScoredRecord is a ContentRecord with an ephemeral relevance score. Scores
// are recomputed per query and never persisted.
type ScoredRecord struct {
	ContentRecord
	Score float64 `json:"score"`
}
