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

// Package sink defines the abstract durable-storage contract the runtime's
// persistence worker drives. The concrete backend (sqlitesink) is the only
// implementation this module ships, but callers should depend only on this
// interface.
package sink

import (
	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/store"
)

// Sink is the durable backend a runtime's persistence worker writes
// through. Implementations own their own I/O; the worker never touches a
// concrete database handle directly.
type Sink interface {
	// AppendOps durably writes ops (already StoredOp-sequenced by the
	// store) as a single atomic batch and returns the highest seq now
	// durable. An empty batch returns the sink's current latest seq.
	AppendOps(ops []op.StoredOp) (op.Seq, error)

	// Flush forces any buffered checkpointing so that every previously
	// appended op is durable independent of this call; AppendOps alone
	// already guarantees that, so Flush exists for sinks whose storage
	// engine buffers beyond the transaction boundary (e.g. WAL).
	Flush() error

	// WriteSnapshot persists snap as the latest checkpoint covering
	// lastSeq.
	WriteSnapshot(snap store.Snapshot, lastSeq op.Seq) error

	// CompactThrough deletes journal entries with seq <= cutoff and
	// returns the number removed.
	CompactThrough(cutoff op.Seq) (int, error)
}

// LoadStore rebuilds a store from whatever s currently holds: the latest
// snapshot (if any) plus every journal entry strictly after it. It needs
// only LoadLatestSnapshot and LoadEventsAfter, which are not part of the
// Sink interface, so any backend that provides those two methods can use it.
func LoadStore(s interface {
	LoadLatestSnapshot() (store.Snapshot, bool, error)
	LoadEventsAfter(seq op.Seq) ([]op.StoredOp, error)
}) (*store.Store, error) {
	var st *store.Store

	snap, ok, err := s.LoadLatestSnapshot()
	if err != nil {
		return nil, err
	}
	if ok {
		st = store.FromSnapshot(snap)
	} else {
		st = store.New()
	}

	startSeq := st.LatestOpSeq()
	events, err := s.LoadEventsAfter(startSeq)
	if err != nil {
		return nil, err
	}
	for _, stored := range events {
		if err := st.ApplyReplayedOp(stored); err != nil {
			return nil, err
		}
	}
	return st, nil
}
