// Package source defines the contract with the hosted content backend and
// provides two implementations: Postgres for hosted deployments and an
// embedded SQLite store for local development and tests.
//
// The backend is treated as a black-box data source exposing three query
// shapes:
//
//   - Light projection: display-critical columns only, no aggregate joins.
//     Cheap, used for the fast phase of a section load.
//   - Aggregate projection: light columns plus joined engagement counts
//     (likes, views, comments) and the average rating.
//   - Precomputed sort: top-N by a named sort key, the moral equivalent of
//     the backend's RPC endpoints. Callers fall back to an aggregate query
//     plus client-side ordering when this path errors.
//
// All queries return raw rows ([]map[string]any) so the normalize package
// remains the single place where backend shapes are interpreted.
package source
