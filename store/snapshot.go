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

package store

import "github.com/chadsbrown/qsolog/qso"

// Snapshot is the store's full round-trippable state: enough to rebuild
// records, order and (derived) secondary indices without replaying the op
// journal from the beginning.
type Snapshot struct {
	NextQsoID qso.ID
	NextOpSeq uint64
	Order     []qso.ID
	Records   []qso.Record
}

// ExportSnapshot captures the store's current records, in canonical order,
// plus the counters needed to resume issuing new ids/seqs.
func (s *Store) ExportSnapshot() Snapshot {
	records := make([]qso.Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.records[id].Clone())
	}
	return Snapshot{
		NextQsoID: s.nextQsoID,
		NextOpSeq: s.nextOpSeq,
		Order:     append([]qso.ID(nil), s.order...),
		Records:   records,
	}
}

// FromSnapshot rebuilds a store from a previously exported Snapshot,
// reconstructing both secondary indices from scratch. Undo/redo/pending-ops
// all start empty: a loaded snapshot carries no undoable history.
func FromSnapshot(snap Snapshot) *Store {
	s := New()
	s.nextQsoID = snap.NextQsoID
	s.nextOpSeq = snap.NextOpSeq
	s.order = append([]qso.ID(nil), snap.Order...)

	for idx, id := range s.order {
		s.pos[id] = idx
	}
	for _, rec := range snap.Records {
		s.records[rec.ID] = rec.Clone()
		s.insertIndices(rec)
	}
	return s
}
