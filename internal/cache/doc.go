// Package cache holds the derived, time-bounded projections that sit in front
// of the relational store: the identity cache, the per-owner task page cache,
// the admin statistics cache and the token revocation registry.
//
// Every projection is built on a small key/value Store so the same code runs
// against the in-process MemoryStore or a shared Redis instance.
package cache
