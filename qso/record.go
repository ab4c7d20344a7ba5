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

package qso

// Flags are the soft-state bits carried on a record. Void is a
// soft-deletion marker, never a removal from the store.
type Flags struct {
	IsVoid       bool
	DupeOverride bool
}

// Record is an immutable-by-convention QSO value. Callers never mutate a
// Record in place; the store replaces it via Patch.
type Record struct {
	ID                 ID
	ContestInstanceID  ContestInstanceID
	CallsignRaw        string
	CallsignNorm       string
	Band               Band
	Mode               Mode
	FreqHz             uint64
	TsMs               uint64
	RadioID            RadioID
	OperatorID         OperatorID
	Exchange           []byte
	Flags              Flags
}

// Clone returns a deep copy of the record, safe to mutate independently.
func (r Record) Clone() Record {
	out := r
	if r.Exchange != nil {
		out.Exchange = append([]byte(nil), r.Exchange...)
	}
	return out
}

// Draft is the caller-supplied shape for a new QSO, before the store assigns
// an ID.
type Draft struct {
	ContestInstanceID ContestInstanceID
	CallsignRaw       string
	CallsignNorm      string
	Band              Band
	Mode              Mode
	FreqHz            uint64
	TsMs              uint64
	RadioID           RadioID
	OperatorID        OperatorID
	Exchange          []byte
	Flags             Flags
}

// ToRecord builds the full record for a freshly assigned id.
func (d Draft) ToRecord(id ID) Record {
	return Record{
		ID:                id,
		ContestInstanceID: d.ContestInstanceID,
		CallsignRaw:       d.CallsignRaw,
		CallsignNorm:      d.CallsignNorm,
		Band:              d.Band,
		Mode:              d.Mode,
		FreqHz:            d.FreqHz,
		TsMs:              d.TsMs,
		RadioID:           d.RadioID,
		OperatorID:        d.OperatorID,
		Exchange:          d.Exchange,
		Flags:             d.Flags,
	}
}
