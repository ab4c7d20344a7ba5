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

// Package projector incrementally keeps a per-record contest evaluation in
// sync with a QsoStore as it mutates, touching only the records a change
// could possibly have affected rather than recomputing the whole log.
package projector

import (
	"github.com/chadsbrown/qsolog/engine"
	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/qso"
	"github.com/chadsbrown/qsolog/store"
)

// Projector drives an engine.ContestEngine[S, Eval] over a QsoStore,
// maintaining a cached Applied verdict per live (non-void) record and the
// reverse dependency index needed to find who else a change invalidates.
type Projector[S any, Eval comparable] struct {
	engine engine.ContestEngine[S, Eval]
	state  S

	applied  map[qso.ID]engine.Applied[Eval]
	depIndex map[engine.DepKey]map[qso.ID]struct{}
}

// New builds a Projector with a fresh engine state and an empty cache.
func New[S any, Eval comparable](e engine.ContestEngine[S, Eval]) *Projector[S, Eval] {
	return &Projector[S, Eval]{
		engine:   e,
		state:    e.NewState(),
		applied:  make(map[qso.ID]engine.Applied[Eval]),
		depIndex: make(map[engine.DepKey]map[qso.ID]struct{}),
	}
}

// Applied returns the live cache of per-id evaluations. Callers must treat
// it as read-only.
func (p *Projector[S, Eval]) Applied() map[qso.ID]engine.Applied[Eval] {
	return p.applied
}

// ApplyStoredOp brings the cache up to date with a single StoredOp just
// emitted by st, recomputing only the records transitively reachable from
// the changed id through the dependency graph.
func (p *Projector[S, Eval]) ApplyStoredOp(st *store.Store, stored op.StoredOp) error {
	var changedID qso.ID
	var oldRecord *qso.Record

	switch stored.Op.Kind {
	case op.KindInsert:
		changedID = stored.Op.Qso.ID

	case op.KindPatch:
		changedID = stored.Op.ID
		rec, ok := st.Get(changedID)
		if !ok {
			return &MissingQsoError{ID: changedID}
		}
		stored.Op.Prev.ApplyTo(&rec)
		oldRecord = &rec

	case op.KindVoid:
		changedID = stored.Op.ID
		rec, ok := st.Get(changedID)
		if !ok {
			return &MissingQsoError{ID: changedID}
		}
		rec.Flags.IsVoid = stored.Op.PrevIsVoid
		oldRecord = &rec
	}

	return p.incrementalReconcile(st, changedID, oldRecord)
}

func (p *Projector[S, Eval]) incrementalReconcile(st *store.Store, changedID qso.ID, oldRecordForChanged *qso.Record) error {
	impacted := map[qso.ID]struct{}{changedID: {}}

	var keyQueue []engine.DepKey
	if old, ok := p.applied[changedID]; ok {
		for dep := range old.Deps {
			keyQueue = append(keyQueue, dep)
		}
	}
	for len(keyQueue) > 0 {
		key := keyQueue[0]
		keyQueue = keyQueue[1:]
		for id := range p.depIndex[key] {
			impacted[id] = struct{}{}
		}
	}

	oldOnce := oldRecordForChanged
	for {
		changedKeys, err := p.recomputeImpacted(st, impacted, changedID, oldOnce)
		if err != nil {
			return err
		}
		oldOnce = nil

		expanded := false
		for key := range changedKeys {
			for id := range p.depIndex[key] {
				if _, present := impacted[id]; !present {
					impacted[id] = struct{}{}
					expanded = true
				}
			}
		}
		if !expanded {
			break
		}
	}
	return nil
}

// recomputeImpacted runs a full retract pass then a full apply pass over
// every id in impacted (in canonical order, so engine state mutations stay
// deterministic), and returns the set of DepKeys whose meaning changed.
func (p *Projector[S, Eval]) recomputeImpacted(st *store.Store, impacted map[qso.ID]struct{}, changedID qso.ID, oldRecordForChanged *qso.Record) (map[engine.DepKey]struct{}, error) {
	oldSubset := make(map[qso.ID]engine.Applied[Eval])

	for _, id := range st.OrderedIDs() {
		if _, ok := impacted[id]; !ok {
			continue
		}
		oldApplied, ok := p.applied[id]
		if !ok {
			continue
		}
		delete(p.applied, id)

		var recForRetract qso.Record
		if id == changedID && oldRecordForChanged != nil {
			recForRetract = *oldRecordForChanged
		} else {
			rec, ok := st.Get(id)
			if !ok {
				return nil, &MissingQsoError{ID: id}
			}
			recForRetract = rec
		}

		p.engine.Retract(p.state, recForRetract, oldApplied)
		p.removeDepLinks(id, oldApplied.Deps)
		oldSubset[id] = oldApplied
	}

	newSubset := make(map[qso.ID]engine.Applied[Eval])

	for _, id := range st.OrderedIDs() {
		if _, ok := impacted[id]; !ok {
			continue
		}
		rec, ok := st.Get(id)
		if !ok {
			return nil, &MissingQsoError{ID: id}
		}
		if rec.Flags.IsVoid {
			continue
		}

		applied := p.engine.Apply(p.state, rec)
		p.addDepLinks(id, applied.Deps)
		p.applied[id] = applied
		newSubset[id] = applied
	}

	changedKeys := make(map[engine.DepKey]struct{})
	for id := range impacted {
		oldAp, hasOld := oldSubset[id]
		newAp, hasNew := newSubset[id]

		switch {
		case hasOld && hasNew:
			if !appliedEqual(oldAp, newAp) {
				diff := p.engine.DiffInvalidation(oldAp, newAp)
				for _, k := range diff.KeysChanged {
					changedKeys[k] = struct{}{}
				}
			}
		case hasOld && !hasNew:
			for k := range oldAp.Deps {
				changedKeys[k] = struct{}{}
			}
		case !hasOld && hasNew:
			for k := range newAp.Deps {
				changedKeys[k] = struct{}{}
			}
		}
	}
	return changedKeys, nil
}

// appliedEqual reports whether two Applied values carry the same verdict and
// the same dep set. Eval is comparable so it can use ==, but Applied as a
// whole can't because Deps is a map, so the two halves are compared by hand.
func appliedEqual[Eval comparable](a, b engine.Applied[Eval]) bool {
	if a.Eval != b.Eval {
		return false
	}
	if len(a.Deps) != len(b.Deps) {
		return false
	}
	for k := range a.Deps {
		if _, ok := b.Deps[k]; !ok {
			return false
		}
	}
	return true
}

func (p *Projector[S, Eval]) addDepLinks(id qso.ID, deps map[engine.DepKey]struct{}) {
	for dep := range deps {
		ids, ok := p.depIndex[dep]
		if !ok {
			ids = make(map[qso.ID]struct{})
			p.depIndex[dep] = ids
		}
		ids[id] = struct{}{}
	}
}

func (p *Projector[S, Eval]) removeDepLinks(id qso.ID, deps map[engine.DepKey]struct{}) {
	for dep := range deps {
		ids, ok := p.depIndex[dep]
		if !ok {
			continue
		}
		delete(ids, id)
		if len(ids) == 0 {
			delete(p.depIndex, dep)
		}
	}
}
