package scorer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/avelar/feedlight/pkg/types"
)

// Match weights. Whole-query matches dominate; token boosts refine.
const (
	weightTitleExact     = 300
	weightTitleContains  = 120
	weightSlugContains   = 100
	weightAuthorContains = 60
	weightDescContains   = 40
	weightTagExact       = 60
	weightTagPartial     = 20
	weightTitleToken     = 30
	weightDescToken      = 10
	weightTagTokenExact  = 20
)

// DefaultPageSize caps the related set when the caller passes no limit.
const DefaultPageSize = 12

// Result holds the outcome of a search over an in-memory record pool.
type Result struct {
	// Primary is the scored result set, best match first.
	Primary []types.ScoredRecord
	// Related is a secondary suggestion set disjoint from Primary.
	Related []types.ContentRecord
	// Fallback reports that the primary set came from the substring
	// fallback pass rather than scoring.
	Fallback bool
}

// Fold lowercases text and strips everything but letters, digits, and
// spaces, collapsing runs of whitespace. Both record fields and queries are
// folded before matching.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// Score computes the relevance of a record for a query. It is pure and
// non-negative, and zero for an empty (or fully punctuation) query.
func Score(rec types.ContentRecord, query string) float64 {
	q := Fold(query)
	if q == "" {
		return 0
	}

	title := Fold(rec.Title)
	slug := Fold(rec.Slug)
	author := Fold(rec.Author)
	desc := Fold(rec.Description)

	var score float64

	if title == q {
		score += weightTitleExact
	}
	if title != "" && strings.Contains(title, q) {
		score += weightTitleContains
	}
	if slug != "" && strings.Contains(slug, q) {
		score += weightSlugContains
	}
	if author != "" && strings.Contains(author, q) {
		score += weightAuthorContains
	}
	if desc != "" && strings.Contains(desc, q) {
		score += weightDescContains
	}

	for _, tag := range rec.Tags {
		folded := Fold(tag)
		if folded == "" {
			continue
		}
		switch {
		case folded == q:
			score += weightTagExact
		case strings.Contains(folded, q) || strings.Contains(q, folded):
			score += weightTagPartial
		}
	}

	// Per-token boosts keep multi-word queries useful when no single field
	// contains the whole phrase. Single-word queries earn them on top of
	// the whole-query weights.
	for _, token := range strings.Fields(q) {
		if title != "" && strings.Contains(title, token) {
			score += weightTitleToken
		}
		if desc != "" && strings.Contains(desc, token) {
			score += weightDescToken
		}
		for _, tag := range rec.Tags {
			if Fold(tag) == token {
				score += weightTagTokenExact
			}
		}
	}

	return score
}

// Search scores a pool of records against a query and assembles primary,
// fallback, and related sets. pageSize caps the related set; zero means
// DefaultPageSize.
func Search(records []types.ContentRecord, query string, pageSize int) Result {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	q := Fold(query)
	if q == "" {
		return Result{}
	}

	primary := make([]types.ScoredRecord, 0, len(records))
	for _, rec := range records {
		if s := Score(rec, query); s > 0 {
			primary = append(primary, types.ScoredRecord{ContentRecord: rec, Score: s})
		}
	}

	// Stable sort keeps input order as the deterministic tie-break.
	sort.SliceStable(primary, func(i, j int) bool {
		return primary[i].Score > primary[j].Score
	})

	result := Result{Primary: primary}

	if len(primary) == 0 {
		result.Primary = fallbackPass(records, q)
		result.Fallback = len(result.Primary) > 0
	}

	result.Related = relatedSet(records, result.Primary, q, pageSize)
	return result
}

// fallbackPass does boolean substring containment of any query token against
// title, description, author, and tags. Matched records carry a zero score.
func fallbackPass(records []types.ContentRecord, foldedQuery string) []types.ScoredRecord {
	tokens := strings.Fields(foldedQuery)

	var out []types.ScoredRecord
	for _, rec := range records {
		if tokenMatches(rec, tokens) {
			out = append(out, types.ScoredRecord{ContentRecord: rec})
		}
	}
	return out
}

// tokenMatches reports whether any token appears in any indexed field.
func tokenMatches(rec types.ContentRecord, tokens []string) bool {
	haystacks := []string{Fold(rec.Title), Fold(rec.Description), Fold(rec.Author)}
	for _, tag := range rec.Tags {
		haystacks = append(haystacks, Fold(tag))
	}

	for _, token := range tokens {
		for _, hay := range haystacks {
			if hay != "" && strings.Contains(hay, token) {
				return true
			}
		}
	}
	return false
}

// relatedSet picks a secondary suggestion set from the pool that is disjoint
// from the primary set. Predicates are tried in priority order; the first
// one yielding any matches wins.
func relatedSet(pool []types.ContentRecord, primary []types.ScoredRecord, foldedQuery string, pageSize int) []types.ContentRecord {
	if len(primary) == 0 {
		return nil
	}

	inPrimary := make(map[string]struct{}, len(primary))
	primaryTags := make(map[string]struct{})
	for _, sr := range primary {
		inPrimary[sr.ID] = struct{}{}
		for _, tag := range sr.Tags {
			primaryTags[tag] = struct{}{}
		}
	}
	topCategory := primary[0].Category

	remaining := make([]types.ContentRecord, 0, len(pool))
	for _, rec := range pool {
		if _, taken := inPrimary[rec.ID]; !taken {
			remaining = append(remaining, rec)
		}
	}

	tokens := strings.Fields(foldedQuery)
	predicates := []func(types.ContentRecord) bool{
		// (a) shares at least one tag with any primary result
		func(rec types.ContentRecord) bool {
			for _, tag := range rec.Tags {
				if _, ok := primaryTags[tag]; ok {
					return true
				}
			}
			return false
		},
		// (b) shares the top primary result's category
		func(rec types.ContentRecord) bool {
			return topCategory != "" && rec.Category == topCategory
		},
		// (c) contains any query token in title or description
		func(rec types.ContentRecord) bool {
			title, desc := Fold(rec.Title), Fold(rec.Description)
			for _, token := range tokens {
				if (title != "" && strings.Contains(title, token)) ||
					(desc != "" && strings.Contains(desc, token)) {
					return true
				}
			}
			return false
		},
	}

	for _, pred := range predicates {
		var matched []types.ContentRecord
		for _, rec := range remaining {
			if pred(rec) {
				matched = append(matched, rec)
				if len(matched) == pageSize {
					break
				}
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}

	return nil
}
