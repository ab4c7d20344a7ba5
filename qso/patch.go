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

// Patch is a sparse replacement over a Record: a nil field is left
// untouched, a non-nil field overwrites. ApplyTo and CaptureInverseFor only
// read through these pointers, so one box may be shared by several patches
// (a stored patch op and its inverse share the same boxes).
type Patch struct {
	ContestInstanceID *ContestInstanceID
	CallsignRaw       *string
	CallsignNorm      *string
	Band              *Band
	Mode              *Mode
	FreqHz            *uint64
	TsMs              *uint64
	RadioID           *RadioID
	OperatorID        *OperatorID
	Exchange          []byte
	ExchangeSet       bool // Exchange is present-but-empty vs absent can't be told apart from nil alone.
	IsVoid            *bool
	DupeOverride      *bool
}

// IsEmpty reports whether the patch touches no fields at all.
func (p Patch) IsEmpty() bool {
	return p.ContestInstanceID == nil &&
		p.CallsignRaw == nil &&
		p.CallsignNorm == nil &&
		p.Band == nil &&
		p.Mode == nil &&
		p.FreqHz == nil &&
		p.TsMs == nil &&
		p.RadioID == nil &&
		p.OperatorID == nil &&
		!p.ExchangeSet &&
		p.IsVoid == nil &&
		p.DupeOverride == nil
}

// CaptureInverseFor builds the inverse patch: for every field present in p,
// the inverse carries rec's current value for that field; every field absent
// in p is absent in the inverse too. Applying p and then the inverse to rec
// leaves rec unchanged.
func (p Patch) CaptureInverseFor(rec Record) Patch {
	var inv Patch
	if p.ContestInstanceID != nil {
		inv.ContestInstanceID = ptr(rec.ContestInstanceID)
	}
	if p.CallsignRaw != nil {
		inv.CallsignRaw = ptr(rec.CallsignRaw)
	}
	if p.CallsignNorm != nil {
		inv.CallsignNorm = ptr(rec.CallsignNorm)
	}
	if p.Band != nil {
		inv.Band = ptr(rec.Band)
	}
	if p.Mode != nil {
		inv.Mode = ptr(rec.Mode)
	}
	if p.FreqHz != nil {
		inv.FreqHz = ptr(rec.FreqHz)
	}
	if p.TsMs != nil {
		inv.TsMs = ptr(rec.TsMs)
	}
	if p.RadioID != nil {
		inv.RadioID = ptr(rec.RadioID)
	}
	if p.OperatorID != nil {
		inv.OperatorID = ptr(rec.OperatorID)
	}
	if p.ExchangeSet {
		inv.ExchangeSet = true
		inv.Exchange = append([]byte(nil), rec.Exchange...)
	}
	if p.IsVoid != nil {
		inv.IsVoid = ptr(rec.Flags.IsVoid)
	}
	if p.DupeOverride != nil {
		inv.DupeOverride = ptr(rec.Flags.DupeOverride)
	}
	return inv
}

// ApplyTo overwrites every field present in p onto rec; absent fields are
// untouched.
func (p Patch) ApplyTo(rec *Record) {
	if p.ContestInstanceID != nil {
		rec.ContestInstanceID = *p.ContestInstanceID
	}
	if p.CallsignRaw != nil {
		rec.CallsignRaw = *p.CallsignRaw
	}
	if p.CallsignNorm != nil {
		rec.CallsignNorm = *p.CallsignNorm
	}
	if p.Band != nil {
		rec.Band = *p.Band
	}
	if p.Mode != nil {
		rec.Mode = *p.Mode
	}
	if p.FreqHz != nil {
		rec.FreqHz = *p.FreqHz
	}
	if p.TsMs != nil {
		rec.TsMs = *p.TsMs
	}
	if p.RadioID != nil {
		rec.RadioID = *p.RadioID
	}
	if p.OperatorID != nil {
		rec.OperatorID = *p.OperatorID
	}
	if p.ExchangeSet {
		rec.Exchange = append([]byte(nil), p.Exchange...)
	}
	if p.IsVoid != nil {
		rec.Flags.IsVoid = *p.IsVoid
	}
	if p.DupeOverride != nil {
		rec.Flags.DupeOverride = *p.DupeOverride
	}
}

func ptr[T any](v T) *T { return &v }
