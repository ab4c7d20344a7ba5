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

// Seq is a store-lifetime-monotonic op sequence number.
type Seq = uint64

// FormatVersion is the current on-wire/on-disk envelope format.
const FormatVersion uint16 = 1

// StoredOp is an Op with the sequence number and timestamp the store
// assigned it at emission time.
type StoredOp struct {
	Seq  Seq
	TsMs uint64
	Op   Op
}

// Envelope is the on-wire/on-disk shape: a StoredOp plus a format version,
// so readers can reject payloads written by an incompatible future version.
type Envelope struct {
	FormatVersion uint16
	Stored        StoredOp
}

// NewEnvelope wraps stored at the current FormatVersion.
func NewEnvelope(stored StoredOp) Envelope {
	return Envelope{FormatVersion: FormatVersion, Stored: stored}
}
