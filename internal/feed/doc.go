// Package feed implements the progressive fetch coordinator.
//
// Every feed section (a category/tag/sort combination) loads in two phases:
//
//  1. Fast phase: a cheap light-projection fetch populates the section with
//     placeholder records immediately. Fast results are cached per category
//     in an injected cache so repeat visits skip the round trip.
//  2. Full phase: a background aggregate fetch replaces the placeholders
//     with engagement counts. The result is applied only when its
//     generation token still matches the section's current generation;
//     superseded work is cancelled via context and any result that slips
//     through is discarded.
//
// A failed full phase leaves the section at its fast-phase data; fast-loaded
// is a valid terminal state, not an error. Sibling sections are isolated:
// one section failing never blocks another.
//
// Global browsing loads categories in fixed-size batches. LoadNextBatch is
// idempotent and safe to call repeatedly while a batch is in flight (it
// no-ops), which lets a scroll sentinel fire as often as it likes.
package feed
