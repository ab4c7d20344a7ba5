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

package op

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/chadsbrown/qsolog/qso"
)

// rlpRecord is the RLP-encodable shadow of qso.Record.
type rlpRecord struct {
	ID                uint64
	ContestInstanceID uint64
	CallsignRaw       string
	CallsignNorm      string
	Band              uint8
	Mode              uint8
	FreqHz            uint64
	TsMs              uint64
	RadioID           uint32
	OperatorID        uint32
	Exchange          []byte
	IsVoid            bool
	DupeOverride      bool
}

func toRlpRecord(r qso.Record) rlpRecord {
	return rlpRecord{
		ID:                r.ID,
		ContestInstanceID: r.ContestInstanceID,
		CallsignRaw:       r.CallsignRaw,
		CallsignNorm:      r.CallsignNorm,
		Band:              uint8(r.Band),
		Mode:              uint8(r.Mode),
		FreqHz:            r.FreqHz,
		TsMs:              r.TsMs,
		RadioID:           r.RadioID,
		OperatorID:        r.OperatorID,
		Exchange:          r.Exchange,
		IsVoid:            r.Flags.IsVoid,
		DupeOverride:      r.Flags.DupeOverride,
	}
}

func (r rlpRecord) toRecord() qso.Record {
	return qso.Record{
		ID:                r.ID,
		ContestInstanceID: r.ContestInstanceID,
		CallsignRaw:       r.CallsignRaw,
		CallsignNorm:      r.CallsignNorm,
		Band:              qso.Band(r.Band),
		Mode:              qso.Mode(r.Mode),
		FreqHz:            r.FreqHz,
		TsMs:              r.TsMs,
		RadioID:           r.RadioID,
		OperatorID:        r.OperatorID,
		Exchange:          r.Exchange,
		Flags: qso.Flags{
			IsVoid:       r.IsVoid,
			DupeOverride: r.DupeOverride,
		},
	}
}

// rlpPatch is the RLP-encodable shadow of qso.Patch: every optional field is
// a presence bool plus a concrete value, since RLP has no native "absent"
// encoding for scalar fields.
type rlpPatch struct {
	HasContestInstanceID bool
	ContestInstanceID    uint64
	HasCallsignRaw       bool
	CallsignRaw          string
	HasCallsignNorm      bool
	CallsignNorm         string
	HasBand              bool
	Band                 uint8
	HasMode              bool
	Mode                 uint8
	HasFreqHz            bool
	FreqHz               uint64
	HasTsMs              bool
	TsMs                 uint64
	HasRadioID           bool
	RadioID              uint32
	HasOperatorID        bool
	OperatorID           uint32
	HasExchange          bool
	Exchange             []byte
	HasIsVoid            bool
	IsVoid               bool
	HasDupeOverride      bool
	DupeOverride         bool
}

func toRlpPatch(p qso.Patch) rlpPatch {
	var out rlpPatch
	if p.ContestInstanceID != nil {
		out.HasContestInstanceID, out.ContestInstanceID = true, *p.ContestInstanceID
	}
	if p.CallsignRaw != nil {
		out.HasCallsignRaw, out.CallsignRaw = true, *p.CallsignRaw
	}
	if p.CallsignNorm != nil {
		out.HasCallsignNorm, out.CallsignNorm = true, *p.CallsignNorm
	}
	if p.Band != nil {
		out.HasBand, out.Band = true, uint8(*p.Band)
	}
	if p.Mode != nil {
		out.HasMode, out.Mode = true, uint8(*p.Mode)
	}
	if p.FreqHz != nil {
		out.HasFreqHz, out.FreqHz = true, *p.FreqHz
	}
	if p.TsMs != nil {
		out.HasTsMs, out.TsMs = true, *p.TsMs
	}
	if p.RadioID != nil {
		out.HasRadioID, out.RadioID = true, *p.RadioID
	}
	if p.OperatorID != nil {
		out.HasOperatorID, out.OperatorID = true, *p.OperatorID
	}
	if p.ExchangeSet {
		out.HasExchange, out.Exchange = true, p.Exchange
	}
	if p.IsVoid != nil {
		out.HasIsVoid, out.IsVoid = true, *p.IsVoid
	}
	if p.DupeOverride != nil {
		out.HasDupeOverride, out.DupeOverride = true, *p.DupeOverride
	}
	return out
}

func (r rlpPatch) toPatch() qso.Patch {
	var out qso.Patch
	if r.HasContestInstanceID {
		v := r.ContestInstanceID
		out.ContestInstanceID = &v
	}
	if r.HasCallsignRaw {
		v := r.CallsignRaw
		out.CallsignRaw = &v
	}
	if r.HasCallsignNorm {
		v := r.CallsignNorm
		out.CallsignNorm = &v
	}
	if r.HasBand {
		v := qso.Band(r.Band)
		out.Band = &v
	}
	if r.HasMode {
		v := qso.Mode(r.Mode)
		out.Mode = &v
	}
	if r.HasFreqHz {
		v := r.FreqHz
		out.FreqHz = &v
	}
	if r.HasTsMs {
		v := r.TsMs
		out.TsMs = &v
	}
	if r.HasRadioID {
		v := r.RadioID
		out.RadioID = &v
	}
	if r.HasOperatorID {
		v := r.OperatorID
		out.OperatorID = &v
	}
	if r.HasExchange {
		out.ExchangeSet = true
		out.Exchange = r.Exchange
	}
	if r.HasIsVoid {
		v := r.IsVoid
		out.IsVoid = &v
	}
	if r.HasDupeOverride {
		v := r.DupeOverride
		out.DupeOverride = &v
	}
	return out
}

// rlpOp is the RLP-encodable shadow of Op.
type rlpOp struct {
	Kind       uint8
	Qso        rlpRecord
	ID         uint64
	Patch      rlpPatch
	Prev       rlpPatch
	PrevIsVoid bool
}

func toRlpOp(o Op) rlpOp {
	return rlpOp{
		Kind:       uint8(o.Kind),
		Qso:        toRlpRecord(o.Qso),
		ID:         o.ID,
		Patch:      toRlpPatch(o.Patch),
		Prev:       toRlpPatch(o.Prev),
		PrevIsVoid: o.PrevIsVoid,
	}
}

func (r rlpOp) toOp() Op {
	return Op{
		Kind:       Kind(r.Kind),
		Qso:        r.Qso.toRecord(),
		ID:         r.ID,
		Patch:      r.Patch.toPatch(),
		Prev:       r.Prev.toPatch(),
		PrevIsVoid: r.PrevIsVoid,
	}
}

// rlpStoredOp is the RLP-encodable shadow of StoredOp.
type rlpStoredOp struct {
	Seq  uint64
	TsMs uint64
	Op   rlpOp
}

// rlpEnvelope is the RLP-encodable shadow of Envelope.
type rlpEnvelope struct {
	FormatVersion uint16
	Stored        rlpStoredOp
}

// EncodeEnvelope encodes an Envelope to RLP bytes.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	shadow := rlpEnvelope{
		FormatVersion: env.FormatVersion,
		Stored: rlpStoredOp{
			Seq:  env.Stored.Seq,
			TsMs: env.Stored.TsMs,
			Op:   toRlpOp(env.Stored.Op),
		},
	}
	return rlp.EncodeToBytes(&shadow)
}

// DecodeEnvelope decodes RLP bytes to an Envelope, rejecting any
// format_version other than the one this build understands. If data doesn't
// decode as an envelope at all, DecodeEnvelope falls back to decoding it as
// a bare StoredOp (the legacy, pre-envelope on-disk shape) so older journals
// remain readable.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var shadow rlpEnvelope
	if err := rlp.DecodeBytes(data, &shadow); err == nil {
		if shadow.FormatVersion != FormatVersion {
			return Envelope{}, fmt.Errorf("op: unsupported envelope format_version %d", shadow.FormatVersion)
		}
		return Envelope{
			FormatVersion: shadow.FormatVersion,
			Stored: StoredOp{
				Seq:  shadow.Stored.Seq,
				TsMs: shadow.Stored.TsMs,
				Op:   shadow.Stored.Op.toOp(),
			},
		}, nil
	}

	var legacy rlpStoredOp
	if err := rlp.DecodeBytes(data, &legacy); err != nil {
		return Envelope{}, fmt.Errorf("op: payload is neither an envelope nor a legacy stored op: %w", err)
	}
	return NewEnvelope(StoredOp{
		Seq:  legacy.Seq,
		TsMs: legacy.TsMs,
		Op:   legacy.Op.toOp(),
	}), nil
}
