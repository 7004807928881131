// Package placement provisions the partitioning scheme of the GridFS collections
// before any data is written.
//
// GridFS stores every object as one document in `<bucket>.files` and a run of
// chunk documents in `<bucket>.chunks`. On a sharded cluster those collections
// are range partitioned: `files` on `_id`, `chunks` on `(files_id, n)`. Object
// ids are random UUID strings, so ingest traffic is spread evenly over the
// 32-bit space of the leading eight hex digits.
//
// Key Concepts:
//   - Sharding: enable partitioning for the database and declare both collections
//   - Pre-splitting: cut each collection into N equal ranges up front so writes
//     land on every shard from the first upload instead of waiting for the
//     balancer to split hot ranges
//   - Boundaries: boundary i = i × floor(2^32 / N), rendered as the leading
//     eight hex digits of a UUID with the remaining groups zeroed
//   - Contention: a split races with the balancer and other splits for the
//     collection's distributed lock; a LockBusy reply is retried every second
//     with no ceiling, any other failure aborts provisioning
//
// Example:
//
//	ComputeBoundaries(4)
//	// 00000000-0000-0000-0000-000000000000
//	// 40000000-0000-0000-0000-000000000000
//	// 80000000-0000-0000-0000-000000000000
//	// c0000000-0000-0000-0000-000000000000
package placement

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// keyspaceSize is the number of distinct leading 32-bit UUID prefixes.
const keyspaceSize = uint64(1) << 32

// boundarySuffix zeroes the UUID groups after the 32-bit prefix.
const boundarySuffix = "-0000-0000-0000-000000000000"

// AdminRunner issues administrative commands against the cluster.
//
// Implementations return the command's reply document on success. Contention
// on the collection lock must be reported as an error recognised by
// errors.IsLockBusy; every other error is treated as fatal.
type AdminRunner interface {
	RunAdminCommand(ctx context.Context, cmd bson.D) (bson.M, error)
}

// ComputeBoundaries returns buckets evenly spaced split keys over the UUID
// keyspace, starting at the minimum key. buckets < 1 yields no boundaries.
func ComputeBoundaries(buckets int) []string {
	if buckets < 1 {
		return nil
	}

	increment := keyspaceSize / uint64(buckets)
	boundaries := make([]string, 0, buckets)
	for i := uint64(0); i < uint64(buckets); i++ {
		boundaries = append(boundaries, fmt.Sprintf("%08x%s", i*increment, boundarySuffix))
	}
	return boundaries
}

// FilesNamespace returns the namespace of the GridFS files collection.
func FilesNamespace(database, bucket string) string {
	return fmt.Sprintf("%s.%s.files", database, bucket)
}

// ChunksNamespace returns the namespace of the GridFS chunks collection.
func ChunksNamespace(database, bucket string) string {
	return fmt.Sprintf("%s.%s.chunks", database, bucket)
}
