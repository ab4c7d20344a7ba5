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

package sqlitesink

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/chadsbrown/qsolog/qso"
	"github.com/chadsbrown/qsolog/store"
)

// SnapshotFormatVersion is the on-disk snapshot envelope version this build
// writes and the only one it will load.
const SnapshotFormatVersion uint16 = 1

type rlpSnapshotRecord struct {
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

type rlpSnapshot struct {
	NextQsoID uint64
	NextOpSeq uint64
	Order     []uint64
	Records   []rlpSnapshotRecord
}

type rlpSnapshotEnvelope struct {
	FormatVersion uint16
	Snapshot      rlpSnapshot
}

func toRlpSnapshot(snap store.Snapshot) rlpSnapshot {
	order := make([]uint64, len(snap.Order))
	for i, id := range snap.Order {
		order[i] = id
	}
	records := make([]rlpSnapshotRecord, len(snap.Records))
	for i, r := range snap.Records {
		records[i] = rlpSnapshotRecord{
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
	return rlpSnapshot{
		NextQsoID: snap.NextQsoID,
		NextOpSeq: snap.NextOpSeq,
		Order:     order,
		Records:   records,
	}
}

func (s rlpSnapshot) toSnapshot() store.Snapshot {
	order := make([]qso.ID, len(s.Order))
	for i, id := range s.Order {
		order[i] = id
	}
	records := make([]qso.Record, len(s.Records))
	for i, r := range s.Records {
		records[i] = qso.Record{
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
	return store.Snapshot{
		NextQsoID: s.NextQsoID,
		NextOpSeq: s.NextOpSeq,
		Order:     order,
		Records:   records,
	}
}

// encodeSnapshot wraps snap in the current-version envelope and RLP-encodes it.
func encodeSnapshot(snap store.Snapshot) ([]byte, error) {
	env := rlpSnapshotEnvelope{FormatVersion: SnapshotFormatVersion, Snapshot: toRlpSnapshot(snap)}
	return rlp.EncodeToBytes(&env)
}

// decodeSnapshot decodes a snapshot envelope, rejecting any format_version
// this build doesn't understand.
func decodeSnapshot(data []byte) (store.Snapshot, error) {
	var env rlpSnapshotEnvelope
	if err := rlp.DecodeBytes(data, &env); err != nil {
		return store.Snapshot{}, fmt.Errorf("sqlitesink: decode snapshot envelope: %w", err)
	}
	if env.FormatVersion != SnapshotFormatVersion {
		return store.Snapshot{}, fmt.Errorf("sqlitesink: unsupported snapshot format_version %d", env.FormatVersion)
	}
	return env.Snapshot.toSnapshot(), nil
}
