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

// Package store holds the authoritative, ordered QSO log: a single-writer,
// in-memory record table with insertion-ordered secondary indices and
// undo/redo stacks, emitting a monotonic StoredOp stream as it mutates.
//
// A Store is not safe for concurrent use; the runtime package serializes
// all access through a single command-loop goroutine (spec §5's
// "exactly one task mutates the QsoStore").
package store

import (
	"time"

	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/qso"
)

// Store is the ordered, indexed QSO record table.
type Store struct {
	records map[qso.ID]qso.Record
	order   []qso.ID
	pos     map[qso.ID]int

	byCall    map[string][]qso.ID
	byContest map[qso.ContestInstanceID][]qso.ID

	undo []op.Op
	redo []op.Op

	pendingOps []op.StoredOp

	nextOpSeq op.Seq
	nextQsoID qso.ID
}

// New returns an empty store ready to accept its first insert.
func New() *Store {
	return &Store{
		records:   make(map[qso.ID]qso.Record),
		pos:       make(map[qso.ID]int),
		byCall:    make(map[string][]qso.ID),
		byContest: make(map[qso.ContestInstanceID][]qso.ID),
		nextOpSeq: 1,
		nextQsoID: 1,
	}
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}

func (s *Store) takeNextOpSeq() op.Seq {
	seq := s.nextOpSeq
	s.nextOpSeq++
	return seq
}

func (s *Store) bumpNextSeqFrom(seq op.Seq) {
	if seq+1 > s.nextOpSeq {
		s.nextOpSeq = seq + 1
	}
}

func (s *Store) insertIndices(rec qso.Record) {
	insertSorted(s.byCall, s.pos, rec.CallsignNorm, rec.ID)
	insertSorted(s.byContest, s.pos, rec.ContestInstanceID, rec.ID)
}

// Insert assigns a fresh id to draft, appends it to the canonical order,
// pushes its inverse (a Void) onto the undo stack, clears redo, and buffers
// the resulting StoredOp.
func (s *Store) Insert(draft qso.Draft) (qso.ID, op.StoredOp, error) {
	id := s.nextQsoID
	s.nextQsoID++
	rec := draft.ToRecord(id)

	stored, inverse, err := s.applyInsert(rec)
	if err != nil {
		return 0, op.StoredOp{}, err
	}
	s.undo = append(s.undo, inverse)
	s.redo = s.redo[:0]
	s.pendingOps = append(s.pendingOps, stored)
	return id, stored, nil
}

func (s *Store) applyInsert(rec qso.Record) (op.StoredOp, op.Op, error) {
	seq := s.takeNextOpSeq()
	return s.applyInsertWithSeq(rec, seq)
}

func (s *Store) applyInsertWithSeq(rec qso.Record, seq op.Seq) (op.StoredOp, op.Op, error) {
	if _, exists := s.records[rec.ID]; exists {
		return op.StoredOp{}, op.Op{}, &AlreadyExistsError{ID: rec.ID}
	}
	if rec.ID+1 > s.nextQsoID {
		s.nextQsoID = rec.ID + 1
	}

	s.pos[rec.ID] = len(s.order)
	s.order = append(s.order, rec.ID)
	s.records[rec.ID] = rec.Clone()
	s.insertIndices(rec)

	s.bumpNextSeqFrom(seq)
	stored := op.StoredOp{Seq: seq, TsMs: nowMs(), Op: op.Insert(rec)}
	inverse := op.Void(rec.ID, false)
	return stored, inverse, nil
}

// Patch computes the inverse of patch against id's current value, applies
// patch, repairs only the secondary indices whose key changed, pushes the
// inverse onto the undo stack, clears redo, and buffers the resulting
// StoredOp.
func (s *Store) Patch(id qso.ID, patch qso.Patch) (op.StoredOp, error) {
	stored, inverse, err := s.applyPatch(id, patch)
	if err != nil {
		return op.StoredOp{}, err
	}
	s.undo = append(s.undo, inverse)
	s.redo = s.redo[:0]
	s.pendingOps = append(s.pendingOps, stored)
	return stored, nil
}

func (s *Store) applyPatch(id qso.ID, patch qso.Patch) (op.StoredOp, op.Op, error) {
	seq := s.takeNextOpSeq()
	return s.applyPatchWithSeq(id, patch, seq)
}

func (s *Store) applyPatchWithSeq(id qso.ID, patch qso.Patch, seq op.Seq) (op.StoredOp, op.Op, error) {
	rec, ok := s.records[id]
	if !ok {
		return op.StoredOp{}, op.Op{}, &MissingQsoError{ID: id}
	}
	oldCall, oldContest := rec.CallsignNorm, rec.ContestInstanceID

	prev := patch.CaptureInverseFor(rec)
	patch.ApplyTo(&rec)
	s.records[id] = rec

	if rec.CallsignNorm != oldCall {
		removeFromIndex(s.byCall, oldCall, id)
		insertSorted(s.byCall, s.pos, rec.CallsignNorm, id)
	}
	if rec.ContestInstanceID != oldContest {
		removeFromIndex(s.byContest, oldContest, id)
		insertSorted(s.byContest, s.pos, rec.ContestInstanceID, id)
	}

	s.bumpNextSeqFrom(seq)
	stored := op.StoredOp{Seq: seq, TsMs: nowMs(), Op: op.PatchOp(id, patch, prev)}
	inverse := op.PatchOp(id, prev, patch)
	return stored, inverse, nil
}

// Void toggles id's is_void flag, pushes the inverse Void onto the undo
// stack, clears redo, and buffers the resulting StoredOp.
func (s *Store) Void(id qso.ID) (op.StoredOp, error) {
	rec, ok := s.records[id]
	if !ok {
		return op.StoredOp{}, &MissingQsoError{ID: id}
	}
	stored, inverse, err := s.applyVoid(id, rec.Flags.IsVoid)
	if err != nil {
		return op.StoredOp{}, err
	}
	s.undo = append(s.undo, inverse)
	s.redo = s.redo[:0]
	s.pendingOps = append(s.pendingOps, stored)
	return stored, nil
}

func (s *Store) applyVoid(id qso.ID, prevIsVoid bool) (op.StoredOp, op.Op, error) {
	seq := s.takeNextOpSeq()
	return s.applyVoidWithSeq(id, prevIsVoid, seq)
}

func (s *Store) applyVoidWithSeq(id qso.ID, prevIsVoid bool, seq op.Seq) (op.StoredOp, op.Op, error) {
	rec, ok := s.records[id]
	if !ok {
		return op.StoredOp{}, op.Op{}, &MissingQsoError{ID: id}
	}
	rec.Flags.IsVoid = !prevIsVoid
	s.records[id] = rec

	s.bumpNextSeqFrom(seq)
	stored := op.StoredOp{Seq: seq, TsMs: nowMs(), Op: op.Void(id, prevIsVoid)}
	inverse := op.Void(id, rec.Flags.IsVoid)
	return stored, inverse, nil
}

func (s *Store) applyOp(o op.Op) (op.StoredOp, op.Op, error) {
	switch o.Kind {
	case op.KindInsert:
		return s.applyInsert(o.Qso)
	case op.KindPatch:
		return s.applyPatch(o.ID, o.Patch)
	case op.KindVoid:
		return s.applyVoid(o.ID, o.PrevIsVoid)
	default:
		return op.StoredOp{}, op.Op{}, &MissingQsoError{ID: o.QsoID()}
	}
}

// Undo pops the most recent entry off the undo stack and re-applies it as a
// fresh mutation, emitting a new StoredOp and pushing the inverse onto the
// redo stack. It does not clear redo.
func (s *Store) Undo() (op.StoredOp, error) {
	if len(s.undo) == 0 {
		return op.StoredOp{}, ErrNothingToUndo
	}
	entry := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]

	stored, inverse, err := s.applyOp(entry)
	if err != nil {
		return op.StoredOp{}, err
	}
	s.redo = append(s.redo, inverse)
	s.pendingOps = append(s.pendingOps, stored)
	return stored, nil
}

// Redo is Undo's mirror image: it pops from redo and pushes back onto undo.
func (s *Store) Redo() (op.StoredOp, error) {
	if len(s.redo) == 0 {
		return op.StoredOp{}, ErrNothingToRedo
	}
	entry := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]

	stored, inverse, err := s.applyOp(entry)
	if err != nil {
		return op.StoredOp{}, err
	}
	s.undo = append(s.undo, inverse)
	s.pendingOps = append(s.pendingOps, stored)
	return stored, nil
}

// ApplyReplayedOp reapplies a StoredOp read back from the journal, preserving
// its original seq. Replayed history is not user-undoable, so both stacks
// are cleared.
func (s *Store) ApplyReplayedOp(stored op.StoredOp) error {
	var err error
	switch stored.Op.Kind {
	case op.KindInsert:
		_, _, err = s.applyInsertWithSeq(stored.Op.Qso, stored.Seq)
	case op.KindPatch:
		_, _, err = s.applyPatchWithSeq(stored.Op.ID, stored.Op.Patch, stored.Seq)
	case op.KindVoid:
		_, _, err = s.applyVoidWithSeq(stored.Op.ID, stored.Op.PrevIsVoid, stored.Seq)
	default:
		err = &MissingQsoError{ID: stored.Op.QsoID()}
	}
	if err != nil {
		return err
	}
	s.undo = s.undo[:0]
	s.redo = s.redo[:0]
	return nil
}

// Get returns a copy of id's current record.
func (s *Store) Get(id qso.ID) (qso.Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return qso.Record{}, false
	}
	return rec.Clone(), true
}

// Recent returns up to n most-recently-inserted records, in insertion order.
func (s *Store) Recent(n int) []qso.Record {
	if n <= 0 {
		return nil
	}
	start := 0
	if len(s.order) > n {
		start = len(s.order) - n
	}
	out := make([]qso.Record, 0, len(s.order)-start)
	for _, id := range s.order[start:] {
		out = append(out, s.records[id].Clone())
	}
	return out
}

// ByCall returns every record whose current normalized callsign is
// callNorm, in insertion order.
func (s *Store) ByCall(callNorm string) []qso.Record {
	ids := s.byCall[callNorm]
	out := make([]qso.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Clone())
	}
	return out
}

// ByContest returns every record currently belonging to contestID, in
// insertion order.
func (s *Store) ByContest(contestID qso.ContestInstanceID) []qso.Record {
	ids := s.byContest[contestID]
	out := make([]qso.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].Clone())
	}
	return out
}

// OrderedIDs returns the canonical insertion order.
func (s *Store) OrderedIDs() []qso.ID {
	return append([]qso.ID(nil), s.order...)
}

// LatestOpSeq returns the highest seq emitted so far, or 0 if none have been.
func (s *Store) LatestOpSeq() op.Seq {
	if s.nextOpSeq == 0 {
		return 0
	}
	return s.nextOpSeq - 1
}

// DrainPendingOps returns and clears the buffer of StoredOps emitted since
// the last drain.
func (s *Store) DrainPendingOps() []op.StoredOp {
	out := s.pendingOps
	s.pendingOps = nil
	return out
}

// UndoLen and RedoLen report the depth of each stack, for tests and metrics.
func (s *Store) UndoLen() int { return len(s.undo) }
func (s *Store) RedoLen() int { return len(s.redo) }
