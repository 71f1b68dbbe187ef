// Package kv defines the two-level key/value store the fragments service keeps its
// metadata and payloads in.
//
// Entries are addressed by a (primary, secondary) key pair. The primary key partitions
// the store (one partition per owner); the secondary key identifies an item inside the
// partition. Values are opaque bytes.
//
// # Backends
//
//   - kv/memory: in-process maps, the reference implementation
//   - kv/sqlite: SQLite via modernc.org/sqlite
//   - kv/postgres: PostgreSQL via pgx
//   - kv/bolt: embedded bbolt file via storm
//   - kv/filesystem: one file per entry under an os.Root
//   - kv/s3: S3 and S3-compatible object storage
//
// Every backend runs the kv/kvtest conformance suite. The storage package selects and
// opens a backend from configuration.
package kv
