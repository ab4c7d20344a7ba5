// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package runtime

// AckMode selects when a mutation command's reply is returned: on in-memory
// apply, or on durable acknowledgement from the persistence worker.
type AckMode uint8

const (
	// AckInMemory replies as soon as the store mutation and (if a sink is
	// configured) the persist-queue submission succeed; durability is
	// asynchronous.
	AckInMemory AckMode = iota
	// AckDurable replies only once the worker has acknowledged the
	// mutation's seq as durable.
	AckDurable
)

func (m AckMode) String() string {
	if m == AckDurable {
		return "durable"
	}
	return "in_memory"
}

// Config controls the runtime's batching, backpressure and checkpoint
// behavior. There is no file/CLI loader here (out of scope per spec.md §1);
// callers build one directly, same shape as the original's RuntimeConfig.
type Config struct {
	// AckMode selects when a mutation reply is returned.
	AckMode AckMode

	// FlushOnInsert forces the persistence worker to flush its buffer
	// immediately whenever it buffers an Insert.
	FlushOnInsert bool

	// BatchMaxOps is the largest number of ops the worker buffers before
	// appending them as one batch.
	BatchMaxOps int

	// BatchMaxLatencyMs is the longest a non-empty buffer waits before
	// the worker force-flushes it.
	BatchMaxLatencyMs uint64

	// PersistQueueBound is the capacity of the writer-to-worker op
	// channel; a full channel fails the mutation with ErrPersistQueueFull.
	PersistQueueBound int

	// SnapshotEveryOps triggers an auto-checkpoint after this many
	// mutations; 0 disables auto-checkpointing.
	SnapshotEveryOps int

	// CompactAfterSnapshot additionally compacts the journal through the
	// snapshot's seq whenever an auto-checkpoint runs.
	CompactAfterSnapshot bool

	// EventBufferSize is the per-subscriber buffer depth for the event
	// hub. Not part of spec.md's RuntimeConfig table (§6) — an ambient
	// addition so the hub's drop-on-lag behavior has a tunable knob.
	EventBufferSize int
}

// DefaultConfig mirrors the original runtime's Default impl.
func DefaultConfig() Config {
	return Config{
		AckMode:              AckInMemory,
		FlushOnInsert:        true,
		BatchMaxOps:          32,
		BatchMaxLatencyMs:    75,
		PersistQueueBound:    64,
		SnapshotEveryOps:     2000,
		CompactAfterSnapshot: false,
		EventBufferSize:      1024,
	}
}

// commandQueueBound is the writer's inbound command channel capacity,
// matching the original's fixed mpsc::channel::<Command>(256).
const commandQueueBound = 256

// durableQueueBound sizes the worker-to-writer durability-result channel.
// The worker emits at most one result per flush, and the writer drains it
// on every loop iteration, so this only needs headroom for a burst of
// flushes the writer hasn't gotten around to consuming yet.
const durableQueueBound = 4096
