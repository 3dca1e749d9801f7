// Package syncutil provides the per-rental serialization primitive.
// Every mutating operation on a rental (status transition, escrow
// movement, report filing, extension response, dispute resolution) runs
// under the same lock, so concurrent actions from the two parties, the
// administrator, and the processor callback cannot interleave.
package syncutil

import "sync"

const shardCount = 128

// RentalMutex is a fixed pool of mutexes keyed by rental id. Memory
// stays bounded regardless of how many rentals exist, at the cost of
// occasional false sharing between ids that map to the same shard.
type RentalMutex struct {
	shards [shardCount]sync.Mutex
}

// NewRentalMutex returns a ready-to-use lock pool.
func NewRentalMutex() *RentalMutex {
	return &RentalMutex{}
}

// Lock acquires the mutex for the given rental id and returns the
// unlock function. The caller must invoke it before dispatching any
// notifications.
func (m *RentalMutex) Lock(rentalID int64) func() {
	mu := &m.shards[uint64(rentalID)%shardCount]
	mu.Lock()
	return mu.Unlock
}
