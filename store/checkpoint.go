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

import (
	"fmt"

	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/qso"
)

// Checkpoint is a pre-mutation snapshot of the store's bookkeeping, captured
// around a single Insert/Patch/Void/Undo/Redo call so the runtime can undo
// the whole thing if the resulting StoredOp can't be enqueued for
// persistence (spec's backpressure-rollback contract).
type Checkpoint struct {
	nextQsoID  qso.ID
	nextOpSeq  op.Seq
	undo       []op.Op
	redo       []op.Op
	pendingLen int
}

// Checkpoint captures the store's current counters and stacks.
func (s *Store) Checkpoint() Checkpoint {
	return Checkpoint{
		nextQsoID:  s.nextQsoID,
		nextOpSeq:  s.nextOpSeq,
		undo:       append([]op.Op(nil), s.undo...),
		redo:       append([]op.Op(nil), s.redo...),
		pendingLen: len(s.pendingOps),
	}
}

func (s *Store) restoreCounters(cp Checkpoint) {
	s.nextQsoID = cp.nextQsoID
	s.nextOpSeq = cp.nextOpSeq
	s.undo = cp.undo
	s.redo = cp.redo
	s.pendingOps = s.pendingOps[:cp.pendingLen]
}

// Rollback undoes the single mutation that produced forward (the just-run
// Insert/Patch/Void op, not its inverse) and restores every counter and
// stack cp recorded, leaving the store exactly as it was before that
// mutation ran.
func (s *Store) Rollback(cp Checkpoint, forward op.Op) error {
	switch forward.Kind {
	case op.KindInsert:
		return s.rollbackInsert(cp, forward.Qso.ID)
	case op.KindPatch:
		return s.rollbackPatch(cp, forward.ID, forward.Prev)
	case op.KindVoid:
		return s.rollbackVoid(cp, forward.ID, forward.PrevIsVoid)
	default:
		return fmt.Errorf("store: rollback: invalid op kind %v", forward.Kind)
	}
}

// rollbackInsert removes the record the checkpointed insert created. It must
// be the most recently appended id; inserts and rollbacks are always
// strictly nested, so this never fires out of order.
func (s *Store) rollbackInsert(cp Checkpoint, id qso.ID) error {
	rec, ok := s.records[id]
	if !ok {
		return &MissingQsoError{ID: id}
	}
	last := len(s.order) - 1
	if last < 0 || s.order[last] != id {
		return fmt.Errorf("store: rollback insert: %d is not the most recent id in order", id)
	}
	s.order = s.order[:last]
	delete(s.pos, id)
	delete(s.records, id)
	removeFromIndex(s.byCall, rec.CallsignNorm, id)
	removeFromIndex(s.byContest, rec.ContestInstanceID, id)
	s.restoreCounters(cp)
	return nil
}

// rollbackPatch applies prev (the inverse the checkpointed patch captured)
// back onto id, repairing indices exactly as applyPatchWithSeq would.
func (s *Store) rollbackPatch(cp Checkpoint, id qso.ID, prev qso.Patch) error {
	rec, ok := s.records[id]
	if !ok {
		return &MissingQsoError{ID: id}
	}
	oldCall, oldContest := rec.CallsignNorm, rec.ContestInstanceID
	prev.ApplyTo(&rec)
	s.records[id] = rec

	if rec.CallsignNorm != oldCall {
		removeFromIndex(s.byCall, oldCall, id)
		insertSorted(s.byCall, s.pos, rec.CallsignNorm, id)
	}
	if rec.ContestInstanceID != oldContest {
		removeFromIndex(s.byContest, oldContest, id)
		insertSorted(s.byContest, s.pos, rec.ContestInstanceID, id)
	}
	s.restoreCounters(cp)
	return nil
}

// rollbackVoid flips id's flag back to the value it held before the
// checkpointed void ran.
func (s *Store) rollbackVoid(cp Checkpoint, id qso.ID, prevIsVoid bool) error {
	rec, ok := s.records[id]
	if !ok {
		return &MissingQsoError{ID: id}
	}
	rec.Flags.IsVoid = prevIsVoid
	s.records[id] = rec
	s.restoreCounters(cp)
	return nil
}
