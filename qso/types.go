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

// Package qso holds the QSO domain record shape and the sparse patch that
// mutates it. It has no knowledge of the store, the engine, or persistence.
package qso

import "fmt"

// ID identifies a QsoRecord. It is assigned by the store and is stable and
// monotonic within a store's lifetime.
type ID = uint64

// ContestInstanceID scopes a QSO to a competition event.
type ContestInstanceID = uint64

// RadioID identifies the radio a QSO was logged on.
type RadioID = uint32

// OperatorID identifies the operator who logged a QSO.
type OperatorID = uint32

// Band is the amateur-radio band a QSO was worked on.
type Band uint8

const (
	Band160m Band = iota
	Band80m
	Band40m
	Band20m
	Band15m
	Band10m
	BandOther
)

func (b Band) String() string {
	switch b {
	case Band160m:
		return "160m"
	case Band80m:
		return "80m"
	case Band40m:
		return "40m"
	case Band20m:
		return "20m"
	case Band15m:
		return "15m"
	case Band10m:
		return "10m"
	case BandOther:
		return "other"
	default:
		return fmt.Sprintf("Band(%d)", uint8(b))
	}
}

// Mode is the transmission mode a QSO was worked in.
type Mode uint8

const (
	ModeCW Mode = iota
	ModeSSB
	ModeDigital
	ModeOther
)

func (m Mode) String() string {
	switch m {
	case ModeCW:
		return "CW"
	case ModeSSB:
		return "SSB"
	case ModeDigital:
		return "Digital"
	case ModeOther:
		return "other"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}
