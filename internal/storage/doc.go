// Package storage persists small JSON documents (the OAuth token set, the
// receipt log, the device identifier) under the configured data directory.
//
// Every write replaces the whole file through a temporary file and rename,
// keeping the on-disk format identical to a plain whole-file rewrite while
// avoiding truncated files after a crash mid-write.
package storage
