// Package keycache is a time-boxed local cache of per-network FHE public
// key material, keyed by ACL address. It layers an in-memory TTL cache over
// an optional persistent store selected by URI (file://, s3://, vault://,
// memory://).
//
// The cache is consulted opportunistically and is never required for
// correctness: a miss, a stale entry, or a store failure always degrades to
// "not cached" and must never block provisioning.
package keycache
