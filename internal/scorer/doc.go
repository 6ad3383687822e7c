// Package scorer implements heuristic multi-field relevance scoring for
// content search.
//
// Scoring is additive across fields so multi-field matches compound: a query
// matching both title and tags outranks one matching the title alone. Whole
// query matches carry the large weights; per-token boosts let multi-word
// queries surface records that match only part of the phrase.
//
// Search layers two policies on top of the raw score:
//
//   - Fallback: when no record scores above zero, a second pass does plain
//     substring containment of any query token, trading precision for a
//     non-empty result over a dead end.
//   - Related: after the primary set is chosen, a secondary set is picked
//     from the remaining pool by tag overlap, then category, then token
//     containment; the first predicate with any matches wins.
package scorer
