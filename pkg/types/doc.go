// Package types defines the canonical content data model shared across the
// feedlight engine.
//
// The central type is ContentRecord, the normalized shape of a backend row.
// Backend rows arrive with missing fields, nullable columns, and aggregate
// counts in several encodings; the normalize package coerces them into this
// one shape so the scorer, ranker, and feed coordinator never deal with raw
// rows directly.
//
// SectionKey identifies an independently loaded slice of the feed (for
// example "most liked in Finance"). It is a comparable value type so it can
// be used directly as a map key without string concatenation.
package types
