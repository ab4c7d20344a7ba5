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

import "testing"

func TestPatchInverseRoundTrip(t *testing.T) {
	rec := Record{
		ID:           1,
		CallsignRaw:  "K1ABC",
		CallsignNorm: "K1ABC",
		FreqHz:       14_025_000,
		Flags:        Flags{DupeOverride: false},
	}

	patch := Patch{
		CallsignRaw:  ptr("K1XYZ"),
		CallsignNorm: ptr("K1XYZ"),
		FreqHz:       ptr(uint64(14_030_000)),
		DupeOverride: ptr(true),
	}

	inverse := patch.CaptureInverseFor(rec)

	mutated := rec
	patch.ApplyTo(&mutated)
	if mutated.CallsignRaw != "K1XYZ" || mutated.FreqHz != 14_030_000 || !mutated.Flags.DupeOverride {
		t.Fatalf("patch did not apply: %+v", mutated)
	}

	inverse.ApplyTo(&mutated)
	if mutated.CallsignRaw != rec.CallsignRaw || mutated.FreqHz != rec.FreqHz || mutated.Flags != rec.Flags {
		t.Fatalf("inverse did not restore original: got %+v want %+v", mutated, rec)
	}
}

func TestPatchIsEmpty(t *testing.T) {
	if !(Patch{}).IsEmpty() {
		t.Fatal("zero-value patch should be empty")
	}
	if (Patch{FreqHz: ptr(uint64(1))}).IsEmpty() {
		t.Fatal("patch with a set field should not be empty")
	}
}

func TestPatchExchangeSetVsAbsent(t *testing.T) {
	rec := Record{Exchange: []byte("059")}

	absent := Patch{}
	if !absent.IsEmpty() {
		t.Fatal("expected empty patch")
	}

	present := Patch{ExchangeSet: true, Exchange: []byte{}}
	if present.IsEmpty() {
		t.Fatal("present-but-empty exchange must not read as empty patch")
	}

	inv := present.CaptureInverseFor(rec)
	if !inv.ExchangeSet {
		t.Fatal("inverse of a present field must also be present")
	}
	if string(inv.Exchange) != "059" {
		t.Fatalf("inverse exchange = %q, want 059", inv.Exchange)
	}
}
