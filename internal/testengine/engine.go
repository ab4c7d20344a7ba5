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

// Package testengine is a small dupe+multiplier ContestEngine used only by
// this module's own tests, so the projector can be exercised against
// something that actually has dependency structure.
package testengine

import (
	"fmt"

	"github.com/chadsbrown/qsolog/engine"
	"github.com/chadsbrown/qsolog/qso"
)

// Eval is this engine's per-record verdict: first claimant of a (call,
// band, mode) bucket scores a point, every later claimant is a dupe worth
// zero; first claimant of a contest-instance "multiplier" earns a bonus.
type Eval struct {
	Points int
	IsDupe bool
	IsMult bool
}

// State tracks, per dupe bucket and per multiplier key, which record id
// currently owns it.
type State struct {
	DupeOwner map[engine.DepKey]qso.ID
	MultOwner map[string]qso.ID
}

// Engine implements engine.ContestEngine[*State, Eval].
type Engine struct{}

func (Engine) NewState() *State {
	return &State{
		DupeOwner: make(map[engine.DepKey]qso.ID),
		MultOwner: make(map[string]qso.ID),
	}
}

func multKey(rec qso.Record) string {
	return fmt.Sprintf("contest:%d", rec.ContestInstanceID)
}

func (Engine) Apply(state *State, rec qso.Record) engine.Applied[Eval] {
	dupeKey := engine.Dupe(rec.CallsignNorm, rec.Band, rec.Mode)
	mKey := multKey(rec)

	isDupe := false
	if owner, ok := state.DupeOwner[dupeKey]; ok && owner != rec.ID {
		isDupe = true
	} else {
		state.DupeOwner[dupeKey] = rec.ID
	}

	isMult := false
	if _, ok := state.MultOwner[mKey]; !ok {
		state.MultOwner[mKey] = rec.ID
		isMult = true
	}

	points := 0
	if !isDupe {
		points = 1
		if isMult {
			points += 10
		}
	}

	return engine.Applied[Eval]{
		Eval: Eval{Points: points, IsDupe: isDupe, IsMult: isMult},
		Deps: map[engine.DepKey]struct{}{
			dupeKey:          {},
			engine.Mult(mKey): {},
		},
	}
}

func (Engine) Retract(state *State, rec qso.Record, applied engine.Applied[Eval]) {
	dupeKey := engine.Dupe(rec.CallsignNorm, rec.Band, rec.Mode)
	if owner, ok := state.DupeOwner[dupeKey]; ok && owner == rec.ID {
		delete(state.DupeOwner, dupeKey)
	}
	mKey := multKey(rec)
	if owner, ok := state.MultOwner[mKey]; ok && owner == rec.ID {
		delete(state.MultOwner, mKey)
	}
}

// DiffInvalidation always reports the symmetric difference of the two dep
// sets, since a key leaving or joining a record's dependency set changes
// who that record's presence affects regardless of whether its own verdict
// moved. When the verdict also changed, every dep the record touched under
// either the old or new evaluation is added too, since that verdict change
// is itself new information for every one of those keys' other dependents.
func (Engine) DiffInvalidation(oldApplied, newApplied engine.Applied[Eval]) engine.Invalidation {
	seen := make(map[engine.DepKey]struct{})
	var keys []engine.DepKey
	add := func(k engine.DepKey) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}

	for k := range oldApplied.Deps {
		if _, inNew := newApplied.Deps[k]; !inNew {
			add(k)
		}
	}
	for k := range newApplied.Deps {
		if _, inOld := oldApplied.Deps[k]; !inOld {
			add(k)
		}
	}

	if oldApplied.Eval != newApplied.Eval {
		for k := range oldApplied.Deps {
			add(k)
		}
		for k := range newApplied.Deps {
			add(k)
		}
	}

	return engine.Invalidation{KeysChanged: keys}
}
