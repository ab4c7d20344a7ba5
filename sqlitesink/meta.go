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
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/chadsbrown/qsolog/op"
)

// CurrentSchemaVersion is the meta.schema_version row this build writes into
// a freshly initialized database and the newest version it knows how to open.
const CurrentSchemaVersion = 1

const (
	metaKeySchemaVersion         = "schema_version"
	metaKeyOpFormatVersion       = "op_format_version"
	metaKeySnapshotFormatVersion = "snapshot_format_version"
	metaKeyStationInstanceID     = "station_instance_id"
)

// legacySchemaVersion is the implicit version of any database that predates
// the meta table: no schema_version row at all. It is a supported, older
// version that gets migrated forward rather than rejected.
const legacySchemaVersion = 0

// ensureMeta reads schema_version out of the meta table (treating its
// absence as legacySchemaVersion), rejects anything newer than this build
// understands, and backfills any of the four required keys that are still
// missing to their current defaults. It is called once, inside open(), after
// the schema has been created.
func (s *Sink) ensureMeta() error {
	version, err := s.readMetaInt(metaKeySchemaVersion, legacySchemaVersion)
	if err != nil {
		return err
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("sqlitesink: unrecognized schema_version %d (this build understands up to %d)", version, CurrentSchemaVersion)
	}
	if version < CurrentSchemaVersion {
		log.Info("qsolog sink migrating meta schema", "from", version, "to", CurrentSchemaVersion)
	}

	if err := s.backfillMetaDefault(metaKeyOpFormatVersion, strconv.Itoa(int(op.FormatVersion))); err != nil {
		return err
	}
	if err := s.backfillMetaDefault(metaKeySnapshotFormatVersion, strconv.Itoa(int(SnapshotFormatVersion))); err != nil {
		return err
	}
	stationID, err := randomStationInstanceID()
	if err != nil {
		return err
	}
	if err := s.backfillMetaDefault(metaKeyStationInstanceID, stationID); err != nil {
		return err
	}
	return s.setMeta(metaKeySchemaVersion, strconv.Itoa(CurrentSchemaVersion))
}

// readMetaInt returns the integer value of key, or def if the row is absent.
func (s *Sink) readMetaInt(key string, def int) (int, error) {
	raw, ok, err := s.getMeta(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("sqlitesink: meta key %q has non-integer value %q: %w", key, raw, err)
	}
	return n, nil
}

// backfillMetaDefault writes def under key only if key has no row yet,
// leaving any existing value (e.g. a station_instance_id from a prior open)
// untouched.
func (s *Sink) backfillMetaDefault(key, def string) error {
	_, ok, err := s.getMeta(key)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.setMeta(key, def)
}

func (s *Sink) getMeta(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlitesink: read meta %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Sink) setMeta(key, value string) error {
	if _, err := s.db.Exec(
		`INSERT INTO meta(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	); err != nil {
		return fmt.Errorf("sqlitesink: write meta %q: %w", key, err)
	}
	return nil
}

// StationInstanceID returns this database's station_instance_id, assigned
// once on first open and stable across every later open.
func (s *Sink) StationInstanceID() (string, error) {
	id, ok, err := s.getMeta(metaKeyStationInstanceID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("sqlitesink: station_instance_id missing from meta table")
	}
	return id, nil
}

// SchemaVersion returns the meta.schema_version row this database is
// currently stamped with.
func (s *Sink) SchemaVersion() (int, error) {
	return s.readMetaInt(metaKeySchemaVersion, legacySchemaVersion)
}

func randomStationInstanceID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sqlitesink: generate station_instance_id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
