// Package api exposes the feed engine over HTTP.
//
// Responses follow a {meta, data} envelope: meta carries counts and request
// echoes, data carries the records. Read endpoints return the current
// section or browse state immediately; full-phase refinement continues in
// the background, so clients poll the same endpoint to observe phase
// transitions.
package api
