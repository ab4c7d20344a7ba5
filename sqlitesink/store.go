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

// Package sqlitesink is the one concrete durable sink.Sink this module
// ships: an append-only op journal plus a snapshot table, both backed by
// SQLite through the pure-Go modernc.org/sqlite driver so the module never
// needs cgo.
package sqlitesink

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ethereum/go-ethereum/log"

	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/store"
)

// Sink is a SQLite-backed sink.Sink. A single *sql.DB is shared by both the
// events and snapshots tables; callers open exactly one Sink per database
// file, matching the original's one-Connection-per-store convention.
type Sink struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at path, enabling WAL mode and
// relaxed synchronous durability (appends are still durable per-transaction;
// WAL only defers the checkpoint into the file, not the write-ahead log).
func Open(path string) (*Sink, error) {
	return open(path)
}

// OpenInMemory opens a private, in-memory SQLite database, useful for tests
// and for runtimes that want an ack_mode=InMemory sink with no actual disk
// backing.
func OpenInMemory() (*Sink, error) {
	return open(":memory:")
}

func open(dsn string) (*Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitesink: open %s: %w", dsn, err)
	}
	// The pure-Go driver serializes writers internally; a single
	// connection avoids SQLITE_BUSY from concurrent writer handles.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitesink: init schema: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitesink: enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitesink: set synchronous: %w", err)
	}

	s := &Sink{db: db}
	if err := s.ensureMeta(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("opened qsolog sqlite sink", "dsn", dsn)
	return s, nil
}

// AppendOps durably writes ops as a single transaction and returns the
// highest seq now durable. An empty batch is a no-op that just reports the
// sink's current latest seq.
func (s *Sink) AppendOps(ops []op.StoredOp) (op.Seq, error) {
	if len(ops) == 0 {
		return s.LatestSeq()
	}
	start := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		appendErrors.Inc(1)
		return 0, fmt.Errorf("sqlitesink: begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO events(seq, ts_ms, kind, qso_id, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		appendErrors.Inc(1)
		return 0, fmt.Errorf("sqlitesink: prepare append: %w", err)
	}
	defer stmt.Close()

	for _, stored := range ops {
		payload, err := op.EncodeEnvelope(op.NewEnvelope(stored))
		if err != nil {
			appendErrors.Inc(1)
			return 0, fmt.Errorf("sqlitesink: encode stored op seq %d: %w", stored.Seq, err)
		}
		kind, qsoID := kindAndID(stored.Op)
		if _, err := stmt.Exec(stored.Seq, stored.TsMs, kind, qsoID, payload); err != nil {
			appendErrors.Inc(1)
			return 0, fmt.Errorf("sqlitesink: insert event seq %d: %w", stored.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		appendErrors.Inc(1)
		return 0, fmt.Errorf("sqlitesink: commit append: %w", err)
	}

	lastSeq := ops[len(ops)-1].Seq
	appendLatency.UpdateSince(start)
	journalDepth.Update(int64(lastSeq))
	log.Debug("qsolog sink appended ops", "count", len(ops), "last_seq", lastSeq)
	return lastSeq, nil
}

// Flush forces the WAL checkpoint. AppendOps already commits each batch
// durably, so this only matters for callers that want the WAL drained into
// the main database file on a schedule.
func (s *Sink) Flush() error {
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(PASSIVE)`); err != nil {
		return fmt.Errorf("sqlitesink: flush: %w", err)
	}
	return nil
}

// WriteSnapshot inserts a new row into the snapshots table. Old snapshots
// are never overwritten in place, so a write that fails mid-encode never
// destroys the previously durable checkpoint.
func (s *Sink) WriteSnapshot(snap store.Snapshot, lastSeq op.Seq) error {
	payload, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("sqlitesink: encode snapshot: %w", err)
	}
	tsMs := uint64(time.Now().UnixMilli())
	if _, err := s.db.Exec(
		`INSERT INTO snapshots(last_seq, ts_ms, payload) VALUES (?, ?, ?)`,
		lastSeq, tsMs, payload,
	); err != nil {
		return fmt.Errorf("sqlitesink: write snapshot: %w", err)
	}
	log.Info("qsolog sink wrote snapshot", "last_seq", lastSeq)
	return nil
}

// CompactThrough deletes every journal row with seq <= cutoff and returns
// how many were removed.
func (s *Sink) CompactThrough(cutoff op.Seq) (int, error) {
	res, err := s.db.Exec(`DELETE FROM events WHERE seq <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sqlitesink: compact through %d: %w", cutoff, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlitesink: compact through %d: %w", cutoff, err)
	}
	if n > 0 {
		compactedTotal.Inc(n)
		log.Debug("qsolog sink compacted journal", "cutoff", cutoff, "removed", n)
	}
	return int(n), nil
}

// LatestSeq returns the highest seq currently in the events table, or 0 if
// it is empty.
func (s *Sink) LatestSeq() (op.Seq, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("sqlitesink: latest seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return op.Seq(seq.Int64), nil
}

// LoadLatestSnapshot returns the newest row in the snapshots table, if any.
func (s *Sink) LoadLatestSnapshot() (store.Snapshot, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Snapshot{}, false, nil
	}
	if err != nil {
		return store.Snapshot{}, false, fmt.Errorf("sqlitesink: load latest snapshot: %w", err)
	}
	snap, err := decodeSnapshot(payload)
	if err != nil {
		return store.Snapshot{}, false, err
	}
	return snap, true, nil
}

// LoadEventsAfter returns every journal row with seq > seq, ordered
// ascending, tolerating both enveloped and legacy bare-StoredOp payloads
// (op.DecodeEnvelope handles the fallback). The row's own seq/ts_ms columns
// are authoritative over whatever the decoded payload carries, matching the
// original sink's replay path.
func (s *Sink) LoadEventsAfter(seq op.Seq) ([]op.StoredOp, error) {
	rows, err := s.db.Query(`SELECT seq, ts_ms, payload FROM events WHERE seq > ? ORDER BY seq ASC`, seq)
	if err != nil {
		return nil, fmt.Errorf("sqlitesink: load events after %d: %w", seq, err)
	}
	defer rows.Close()

	var out []op.StoredOp
	for rows.Next() {
		var rowSeq, tsMs uint64
		var payload []byte
		if err := rows.Scan(&rowSeq, &tsMs, &payload); err != nil {
			return nil, fmt.Errorf("sqlitesink: scan event: %w", err)
		}
		env, err := op.DecodeEnvelope(payload)
		if err != nil {
			return nil, fmt.Errorf("sqlitesink: decode event seq %d: %w", rowSeq, err)
		}
		stored := env.Stored
		stored.Seq = rowSeq
		stored.TsMs = tsMs
		out = append(out, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitesink: load events after %d: %w", seq, err)
	}
	return out, nil
}

// Close closes the underlying database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

func kindAndID(o op.Op) (int64, int64) {
	switch o.Kind {
	case op.KindInsert:
		return 1, int64(o.Qso.ID)
	case op.KindPatch:
		return 2, int64(o.ID)
	case op.KindVoid:
		return 3, int64(o.ID)
	default:
		return 0, 0
	}
}
