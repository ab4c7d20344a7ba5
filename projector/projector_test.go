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

package projector

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/chadsbrown/qsolog/engine"
	"github.com/chadsbrown/qsolog/internal/testengine"
	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/qso"
	"github.com/chadsbrown/qsolog/store"
)

func draft(call string) qso.Draft {
	return qso.Draft{
		ContestInstanceID: 7,
		CallsignRaw:       call,
		CallsignNorm:      call,
		Band:              qso.Band20m,
		Mode:              qso.ModeCW,
		FreqHz:            14_010_000,
		TsMs:              1,
	}
}

// fullRecompute is the oracle: it evaluates the engine over every live
// record from scratch, independent of any cached dependency graph.
func fullRecompute(st *store.Store) map[qso.ID]engine.Applied[testengine.Eval] {
	eng := testengine.Engine{}
	state := eng.NewState()
	out := make(map[qso.ID]engine.Applied[testengine.Eval])

	for _, id := range st.OrderedIDs() {
		rec, ok := st.Get(id)
		if !ok || rec.Flags.IsVoid {
			continue
		}
		out[id] = eng.Apply(state, rec)
	}
	return out
}

func TestIncrementalMatchesFullRecomputeAndUndoRedoRestores(t *testing.T) {
	st := store.New()
	proj := New[*testengine.State, testengine.Eval](testengine.Engine{})

	a, opA, err := st.Insert(draft("A1AA"))
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opA); err != nil {
		t.Fatalf("proj a: %v", err)
	}

	_, opB, err := st.Insert(draft("B1BB"))
	if err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opB); err != nil {
		t.Fatalf("proj b: %v", err)
	}

	c, opC, err := st.Insert(draft("C1CC"))
	if err != nil {
		t.Fatalf("insert c: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opC); err != nil {
		t.Fatalf("proj c: %v", err)
	}

	beforePatch := cloneApplied(proj.Applied())

	newCall := "C1CC"
	opPatch, err := st.Patch(a, qso.Patch{CallsignRaw: &newCall, CallsignNorm: &newCall})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opPatch); err != nil {
		t.Fatalf("proj patch: %v", err)
	}

	afterPatch := cloneApplied(proj.Applied())

	if reflect.DeepEqual(beforePatch[a], afterPatch[a]) {
		t.Fatal("record a's evaluation should have changed after the patch")
	}
	if reflect.DeepEqual(beforePatch[c], afterPatch[c]) {
		t.Fatal("record c's evaluation should have changed: it now shares a's new dupe bucket")
	}

	full := fullRecompute(st)
	if !reflect.DeepEqual(full, afterPatch) {
		t.Fatalf("incremental projection diverges from full recompute:\nincremental=%+v\nfull=%+v", afterPatch, full)
	}

	opUndo, err := st.Undo()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opUndo); err != nil {
		t.Fatalf("proj undo: %v", err)
	}
	if !reflect.DeepEqual(cloneApplied(proj.Applied()), beforePatch) {
		t.Fatal("projection after undo should match the pre-patch snapshot")
	}

	opRedo, err := st.Redo()
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opRedo); err != nil {
		t.Fatalf("proj redo: %v", err)
	}
	if !reflect.DeepEqual(cloneApplied(proj.Applied()), afterPatch) {
		t.Fatal("projection after redo should match the post-patch snapshot")
	}
}

func TestVoidRemovesRecordFromProjection(t *testing.T) {
	st := store.New()
	proj := New[*testengine.State, testengine.Eval](testengine.Engine{})

	id, opIns, err := st.Insert(draft("K1ABC"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opIns); err != nil {
		t.Fatalf("proj insert: %v", err)
	}
	if _, ok := proj.Applied()[id]; !ok {
		t.Fatal("expected an applied entry after insert")
	}

	opVoid, err := st.Void(id)
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if err := proj.ApplyStoredOp(st, opVoid); err != nil {
		t.Fatalf("proj void: %v", err)
	}
	if _, ok := proj.Applied()[id]; ok {
		t.Fatal("voided records must not remain in the applied cache")
	}

	full := fullRecompute(st)
	if len(full) != 0 {
		t.Fatalf("full recompute over an all-void store should be empty, got %+v", full)
	}
}

// TestRandomizedIncrementalMatchesFullRecompute is spec.md §8 invariant 8's
// property test: for a seeded random sequence of inserts, patches and voids,
// the projector's incrementally maintained applied map must equal a full
// from-scratch recompute after every single StoredOp, not just in the
// hand-picked scenario above.
func TestRandomizedIncrementalMatchesFullRecompute(t *testing.T) {
	rng := rand.New(rand.NewSource(98765))
	st := store.New()
	proj := New[*testengine.State, testengine.Eval](testengine.Engine{})

	calls := []string{"A1AA", "B1BB", "C1CC", "D1DD"}
	bands := []qso.Band{qso.Band20m, qso.Band40m}
	modes := []qso.Mode{qso.ModeCW, qso.ModeSSB}
	contests := []qso.ContestInstanceID{1, 2}

	const steps = 200
	for step := 0; step < steps; step++ {
		ids := st.OrderedIDs()
		var stored op.StoredOp
		var err error

		switch rng.Intn(3) {
		case 0: // insert
			d := qso.Draft{
				ContestInstanceID: contests[rng.Intn(len(contests))],
				CallsignRaw:       calls[rng.Intn(len(calls))],
				CallsignNorm:      calls[rng.Intn(len(calls))],
				Band:              bands[rng.Intn(len(bands))],
				Mode:              modes[rng.Intn(len(modes))],
				FreqHz:            14_000_000,
				TsMs:              uint64(step + 1),
			}
			_, stored, err = st.Insert(d)

		case 1: // patch
			if len(ids) == 0 {
				continue
			}
			id := ids[rng.Intn(len(ids))]
			newCall := calls[rng.Intn(len(calls))]
			newBand := bands[rng.Intn(len(bands))]
			stored, err = st.Patch(id, qso.Patch{CallsignRaw: &newCall, CallsignNorm: &newCall, Band: &newBand})

		case 2: // void
			if len(ids) == 0 {
				continue
			}
			id := ids[rng.Intn(len(ids))]
			stored, err = st.Void(id)
		}
		if err != nil {
			t.Fatalf("step %d: mutate: %v", step, err)
		}

		if err := proj.ApplyStoredOp(st, stored); err != nil {
			t.Fatalf("step %d: apply stored op: %v", step, err)
		}

		incremental := cloneApplied(proj.Applied())
		full := fullRecompute(st)
		if !reflect.DeepEqual(incremental, full) {
			t.Fatalf("step %d: incremental projection diverges from full recompute:\nincremental=%+v\nfull=%+v", step, incremental, full)
		}
	}
}

func cloneApplied(m map[qso.ID]engine.Applied[testengine.Eval]) map[qso.ID]engine.Applied[testengine.Eval] {
	out := make(map[qso.ID]engine.Applied[testengine.Eval], len(m))
	for id, applied := range m {
		deps := make(map[engine.DepKey]struct{}, len(applied.Deps))
		for k := range applied.Deps {
			deps[k] = struct{}{}
		}
		out[id] = engine.Applied[testengine.Eval]{Eval: applied.Eval, Deps: deps}
	}
	return out
}
