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
	"testing"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/chadsbrown/qsolog/qso"
)

func TestOpInverses(t *testing.T) {
	rec := qso.Record{ID: 7, CallsignNorm: "K1ABC"}

	ins := Insert(rec)
	if inv := ins.Inverse(); inv.Kind != KindVoid || inv.ID != rec.ID || inv.PrevIsVoid {
		t.Fatalf("insert inverse = %+v, want Void{id=%d, prev_is_void=false}", inv, rec.ID)
	}

	v := Void(7, false)
	if inv := v.Inverse(); inv.Kind != KindVoid || !inv.PrevIsVoid {
		t.Fatalf("void inverse = %+v, want prev_is_void=true", inv)
	}

	freq := uint64(14_030_000)
	prevFreq := uint64(14_000_000)
	p := PatchOp(7, qso.Patch{FreqHz: &freq}, qso.Patch{FreqHz: &prevFreq})
	inv := p.Inverse()
	if inv.Kind != KindPatch || *inv.Patch.FreqHz != prevFreq || *inv.Prev.FreqHz != freq {
		t.Fatalf("patch inverse did not swap patch/prev: %+v", inv)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	freq := uint64(14_025_000)
	stored := StoredOp{
		Seq:  3,
		TsMs: 1000,
		Op: PatchOp(5, qso.Patch{FreqHz: &freq}, qso.Patch{}),
	}
	env := NewEnvelope(stored)

	data, err := EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.FormatVersion != FormatVersion {
		t.Fatalf("format version = %d, want %d", got.FormatVersion, FormatVersion)
	}
	if got.Stored.Seq != 3 || got.Stored.Op.ID != 5 || *got.Stored.Op.Patch.FreqHz != freq {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeEnvelopeFallsBackToLegacyBareStoredOp(t *testing.T) {
	rec := qso.Record{ID: 9, CallsignNorm: "K1ABC"}
	legacy := rlpStoredOp{Seq: 11, TsMs: 500, Op: toRlpOp(Insert(rec))}

	data, err := rlp.EncodeToBytes(&legacy)
	if err != nil {
		t.Fatalf("encode legacy shape: %v", err)
	}

	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode legacy payload: %v", err)
	}
	if env.Stored.Seq != 11 || env.Stored.Op.Qso.ID != 9 {
		t.Fatalf("decoded legacy payload = %+v, want seq=11 qso.id=9", env.Stored)
	}
}

func TestDecodeEnvelopeRejectsUnknownVersion(t *testing.T) {
	env := Envelope{FormatVersion: 99, Stored: StoredOp{Seq: 1, Op: Void(1, false)}}
	data, err := EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeEnvelope(data); err == nil {
		t.Fatal("expected an error decoding an unknown format_version")
	}
}
