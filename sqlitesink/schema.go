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

// schema creates the journal and snapshot tables on first open. events.seq
// is the primary key so SQLite's own rowid ordering gives us range-by-seq
// for free; snapshots keeps every checkpoint ever written (newest by id
// wins) rather than overwriting in place, so a corrupt latest snapshot
// never destroys the previous one.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq     INTEGER PRIMARY KEY,
	ts_ms   INTEGER NOT NULL,
	kind    INTEGER NOT NULL,
	qso_id  INTEGER,
	payload BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	last_seq INTEGER NOT NULL,
	ts_ms    INTEGER NOT NULL,
	payload  BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
