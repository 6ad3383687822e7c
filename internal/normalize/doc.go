// Package normalize coerces raw backend rows into canonical ContentRecords.
//
// The hosted backend returns partially-null rows whose numeric aggregates
// arrive in several encodings: a bare number, a numeric string, a wrapper
// object keyed by count/avg/value/rating, or an array of such wrappers.
// Normalize is total over all of them: it never panics and every field of the
// result has a safe default, so downstream packages can assume a valid record.
//
//	rec := normalize.Normalize(row)
//	// rec.Title is never empty, rec.Tags contains no duplicates,
//	// rec.LikesCount >= 0, and so on.
package normalize
