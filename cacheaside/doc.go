// Package cacheaside layers cache-aside reads and cascading
// invalidation over a relational data layer.
//
// Repository wraps a Datastore (the source of truth) with one cache
// region per entity class: URL lookups in url-lookup, category and post
// listings in medium, the admin rollup in admin-stats. Reads go through
// the region first and populate on miss; mutations hit the Datastore
// first, then invalidate the entity's direct keys, any list or
// aggregate caches that could contain it, and for association changes
// the list caches of both the previously and newly associated
// categories.
//
// Invalidation is best-effort, not transactional with the relational
// write: a crash between the two leaves a stale entry until its TTL
// expires.
//
// Admin exposes the operator surface: cache warming, URL invalidation,
// full flush, a stats report with a live backend health probe, and TTL
// policy reconfiguration (which always flushes the namespace).
package cacheaside
