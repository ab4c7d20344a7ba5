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

// Package engine defines the abstract contest-scoring contract the
// projector drives. The scoring rules themselves are out of scope (spec
// §1); this package only fixes the shape every engine implementation must
// satisfy.
package engine

import "github.com/chadsbrown/qsolog/qso"

// DepKeyKind tags which field of a DepKey is populated.
type DepKeyKind uint8

const (
	DepKindDupe DepKeyKind = iota
	DepKindMult
	DepKindSerial
	DepKindCustom
)

// DepKey is an engine-declared invalidation key: a change to the set of
// records resolving to this key may alter every other record's dependents.
// It is comparable so it can key a map directly (see the projector's depIndex).
type DepKey struct {
	Kind DepKeyKind

	// Populated when Kind == DepKindDupe.
	DupeCall string
	DupeBand qso.Band
	DupeMode qso.Mode

	// Populated when Kind == DepKindMult.
	MultKey string

	// Populated when Kind == DepKindSerial.
	SerialKey string

	// Populated when Kind == DepKindCustom.
	CustomKey string
}

// Dupe builds a DepKey for a (call, band, mode) dupe-check bucket.
func Dupe(call string, band qso.Band, mode qso.Mode) DepKey {
	return DepKey{Kind: DepKindDupe, DupeCall: call, DupeBand: band, DupeMode: mode}
}

// Mult builds a DepKey for a multiplier category.
func Mult(key string) DepKey {
	return DepKey{Kind: DepKindMult, MultKey: key}
}

// Serial builds a DepKey for a serial-number allocation bucket.
func Serial(key string) DepKey {
	return DepKey{Kind: DepKindSerial, SerialKey: key}
}

// Custom builds an engine-specific DepKey not covered by the built-in kinds.
func Custom(key string) DepKey {
	return DepKey{Kind: DepKindCustom, CustomKey: key}
}

// Applied is the result of evaluating one record: its scoring verdict and
// the set of DepKeys the evaluation consulted.
type Applied[Eval comparable] struct {
	Eval Eval
	Deps map[DepKey]struct{}
}

// Invalidation names the DepKeys whose dependents may need re-evaluation
// after an Applied value changed.
type Invalidation struct {
	KeysChanged []DepKey
}

// ContestEngine is the pure-function contract the projector drives. State is
// engine-owned and mutated only through Apply/Retract; implementations
// should make State a pointer type (e.g. *MyEngineState) so mutations made
// inside Apply/Retract are visible to the projector's single shared copy.
// Eval must be value-equatable (spec §4.3) so the projector can detect
// no-op recomputation without engine help.
type ContestEngine[State any, Eval comparable] interface {
	// NewState returns a fresh, empty engine state.
	NewState() State

	// Apply evaluates qso against state, mutating state as needed, and
	// returns the verdict plus the DepKeys the evaluation depended on.
	Apply(state State, qso qso.Record) Applied[Eval]

	// Retract undoes exactly the mutation the Apply call that produced
	// applied made. It must be an exact inverse of that Apply call.
	Retract(state State, qso qso.Record, applied Applied[Eval])

	// DiffInvalidation reports which DepKeys changed meaning between two
	// Applied values for the same record.
	DiffInvalidation(oldApplied, newApplied Applied[Eval]) Invalidation
}
