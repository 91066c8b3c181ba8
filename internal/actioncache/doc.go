// Package actioncache is the process-wide instruction cache: a durable
// mapping from exact instruction text to the low-level action it resolved
// to. Entries have no TTL and no site-version awareness; after a portal
// layout change, stale actions execute and fail downstream, and the only
// recovery path is manual deletion (Clear, or the cache subcommand).
//
// Two backends exist behind the same narrow interface: a JSON file for
// single-host runs and a redis store when the cache is shared across hosts.
// Neither backend deduplicates racing writers on the same key; actions
// resolved from identical instruction text are assumed equivalent, so a
// redundant overwrite is accepted.
package actioncache
