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
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/qso"
	"github.com/chadsbrown/qsolog/sink"
	"github.com/chadsbrown/qsolog/store"
)

func draft(call string, ts uint64) qso.Draft {
	return qso.Draft{
		ContestInstanceID: 1,
		CallsignRaw:       call,
		CallsignNorm:      call,
		Band:              qso.Band20m,
		Mode:              qso.ModeCW,
		FreqHz:            14_000_000,
		TsMs:              ts,
	}
}

func TestAppendFlushAndReload(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	st := store.New()
	var batch []op.StoredOp
	for i, call := range []string{"K1ABC", "K2DEF", "K3GHI"} {
		_, stored, err := st.Insert(draft(call, uint64(i+1)))
		if err != nil {
			t.Fatalf("insert %s: %v", call, err)
		}
		batch = append(batch, stored)
	}

	seq, err := s.AppendOps(batch)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if seq != batch[len(batch)-1].Seq {
		t.Fatalf("append returned seq %d, want %d", seq, batch[len(batch)-1].Seq)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded, err := sink.LoadStore(s)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	for _, id := range st.OrderedIDs() {
		want, _ := st.Get(id)
		got, ok := reloaded.Get(id)
		if !ok {
			t.Fatalf("reloaded store missing id %d", id)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("id %d: reloaded record = %+v, want %+v", id, got, want)
		}
	}
	if reloaded.LatestOpSeq() != st.LatestOpSeq() {
		t.Fatalf("reloaded latest seq = %d, want %d", reloaded.LatestOpSeq(), st.LatestOpSeq())
	}
}

func TestSnapshotThenReplayOnlyAppliesLaterEvents(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	st := store.New()
	_, stored1, _ := st.Insert(draft("K1ABC", 1))
	if _, err := s.AppendOps([]op.StoredOp{stored1}); err != nil {
		t.Fatalf("append 1: %v", err)
	}
	if err := s.WriteSnapshot(st.ExportSnapshot(), st.LatestOpSeq()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	_, stored2, _ := st.Insert(draft("K2DEF", 2))
	if _, err := s.AppendOps([]op.StoredOp{stored2}); err != nil {
		t.Fatalf("append 2: %v", err)
	}

	reloaded, err := sink.LoadStore(s)
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if len(reloaded.OrderedIDs()) != 2 {
		t.Fatalf("reloaded has %d records, want 2", len(reloaded.OrderedIDs()))
	}
	if reloaded.LatestOpSeq() != stored2.Seq {
		t.Fatalf("reloaded latest seq = %d, want %d", reloaded.LatestOpSeq(), stored2.Seq)
	}
}

func TestCompactThroughRemovesOldEvents(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	st := store.New()
	var last op.StoredOp
	for i, call := range []string{"K1ABC", "K2DEF", "K3GHI"} {
		_, stored, _ := st.Insert(draft(call, uint64(i+1)))
		if _, err := s.AppendOps([]op.StoredOp{stored}); err != nil {
			t.Fatalf("append: %v", err)
		}
		last = stored
	}
	if err := s.WriteSnapshot(st.ExportSnapshot(), last.Seq); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	removed, err := s.CompactThrough(last.Seq)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if removed != 3 {
		t.Fatalf("compacted %d events, want 3", removed)
	}

	events, err := s.LoadEventsAfter(0)
	if err != nil {
		t.Fatalf("load events after compaction: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no journal rows after compaction, got %d", len(events))
	}

	reloaded, err := sink.LoadStore(s)
	if err != nil {
		t.Fatalf("load store after compaction: %v", err)
	}
	if len(reloaded.OrderedIDs()) != 3 {
		t.Fatalf("reloaded has %d records, want 3 (from snapshot alone)", len(reloaded.OrderedIDs()))
	}
}

func TestAppendEmptyBatchReturnsLatestSeq(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	st := store.New()
	_, stored, _ := st.Insert(draft("K1ABC", 1))
	if _, err := s.AppendOps([]op.StoredOp{stored}); err != nil {
		t.Fatalf("append: %v", err)
	}

	seq, err := s.AppendOps(nil)
	if err != nil {
		t.Fatalf("append empty: %v", err)
	}
	if seq != stored.Seq {
		t.Fatalf("empty append returned seq %d, want %d", seq, stored.Seq)
	}
}

func TestEnsureMetaInitializesDefaults(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	version, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("schema version = %d, want %d", version, CurrentSchemaVersion)
	}

	for _, key := range []string{metaKeyOpFormatVersion, metaKeySnapshotFormatVersion, metaKeyStationInstanceID} {
		value, ok, err := s.getMeta(key)
		if err != nil {
			t.Fatalf("read meta %q: %v", key, err)
		}
		if !ok || value == "" {
			t.Fatalf("meta key %q not initialized", key)
		}
	}

	stationID, err := s.StationInstanceID()
	if err != nil {
		t.Fatalf("station instance id: %v", err)
	}
	if stationID == "" {
		t.Fatalf("station instance id is empty")
	}
}

func TestEnsureMetaPreservesStationInstanceIDAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qsolog.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("open 1: %v", err)
	}
	id1, err := s1.StationInstanceID()
	if err != nil {
		t.Fatalf("station instance id 1: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close 1: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("open 2: %v", err)
	}
	defer s2.Close()
	id2, err := s2.StationInstanceID()
	if err != nil {
		t.Fatalf("station instance id 2: %v", err)
	}

	if id1 != id2 {
		t.Fatalf("station instance id changed across reopen: %q -> %q", id1, id2)
	}
	version, err := s2.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("schema version after reopen = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestEnsureMetaMigratesLegacyDatabaseMissingSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Simulate a database that predates the meta table: open it normally,
	// delete every meta row so no schema_version is left, then reopen it.
	pre, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := pre.db.Exec(`DELETE FROM meta`); err != nil {
		t.Fatalf("strip meta: %v", err)
	}
	if err := pre.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	migrated, err := Open(path)
	if err != nil {
		t.Fatalf("reopen legacy db: %v", err)
	}
	defer migrated.Close()

	version, err := migrated.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Fatalf("legacy database not migrated: schema version = %d, want %d", version, CurrentSchemaVersion)
	}
	if _, err := migrated.StationInstanceID(); err != nil {
		t.Fatalf("station instance id not backfilled: %v", err)
	}
}

func TestEnsureMetaRejectsNewerSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.setMeta(metaKeySchemaVersion, "999"); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatalf("expected open to fail on unrecognized schema_version, got nil error")
	}
}
