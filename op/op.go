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

// Package op defines the store's mutation-op model and its durable envelope.
package op

import (
	"github.com/chadsbrown/qsolog/qso"
)

// Kind tags which variant of Op is populated. It doubles as the journal
// table's "kind" column (spec §6): 1=Insert, 2=Patch, 3=Void.
type Kind uint8

const (
	KindInsert Kind = 1
	KindPatch  Kind = 2
	KindVoid   Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindPatch:
		return "patch"
	case KindVoid:
		return "void"
	default:
		return "unknown"
	}
}

// Op is one logical store mutation. Kind selects which of Insert/Patch/Void
// it is; only the fields listed for that kind carry meaning. A flat struct
// of value fields (rather than an interface) keeps Op a plain, RLP-friendly
// value.
type Op struct {
	Kind  Kind
	Qso   qso.Record   // Kind == KindInsert
	ID    qso.ID       // Kind == KindPatch || KindVoid
	Patch qso.Patch    // Kind == KindPatch: the forward patch
	Prev  qso.Patch    // Kind == KindPatch: the inverse, captured pre-mutation
	PrevIsVoid bool    // Kind == KindVoid: the flag's value before this op
}

// QsoID returns the id the op affects, for any variant.
func (o Op) QsoID() qso.ID {
	if o.Kind == KindInsert {
		return o.Qso.ID
	}
	return o.ID
}

// Insert builds an Insert op.
func Insert(rec qso.Record) Op {
	return Op{Kind: KindInsert, Qso: rec}
}

// PatchOp builds a Patch op with its captured inverse.
func PatchOp(id qso.ID, patch, prev qso.Patch) Op {
	return Op{Kind: KindPatch, ID: id, Patch: patch, Prev: prev}
}

// Void builds a Void op toggling the flag from prevIsVoid.
func Void(id qso.ID, prevIsVoid bool) Op {
	return Op{Kind: KindVoid, ID: id, PrevIsVoid: prevIsVoid}
}

// Inverse returns the op that exactly undoes o, per spec §3 invariant 6:
// an insert's inverse is Void{prev_is_void=false}; a void's inverse is the
// same Void with the flag flipped; a patch's inverse swaps patch and prev.
func (o Op) Inverse() Op {
	switch o.Kind {
	case KindInsert:
		return Void(o.Qso.ID, false)
	case KindVoid:
		return Void(o.ID, !o.PrevIsVoid)
	case KindPatch:
		return PatchOp(o.ID, o.Prev, o.Patch)
	default:
		panic("op: invalid kind")
	}
}
