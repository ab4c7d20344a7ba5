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

package runtime

import (
	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/qso"
)

// EventKind tags which fields of an Event are populated, the same
// tagged-struct convention op.Op and engine.DepKey use.
type EventKind uint8

const (
	EventInserted EventKind = iota
	EventUpdated
	EventVoided
	EventUndoApplied
	EventRedoApplied
	EventDurableUpTo
	EventPersistenceError
	EventNotDurableWarning
)

func (k EventKind) String() string {
	switch k {
	case EventInserted:
		return "inserted"
	case EventUpdated:
		return "updated"
	case EventVoided:
		return "voided"
	case EventUndoApplied:
		return "undo_applied"
	case EventRedoApplied:
		return "redo_applied"
	case EventDurableUpTo:
		return "durable_up_to"
	case EventPersistenceError:
		return "persistence_error"
	case EventNotDurableWarning:
		return "not_durable_warning"
	default:
		return "unknown"
	}
}

// Event is a single domain or durability notification broadcast to every
// subscriber. Exactly the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	ID qso.ID // Inserted, Updated, Voided

	OpSeq op.Seq // DurableUpTo, NotDurableWarning, and PersistenceError's LastDurableSeq

	Err error // PersistenceError
}

func inserted(id qso.ID) Event { return Event{Kind: EventInserted, ID: id} }
func updated(id qso.ID) Event  { return Event{Kind: EventUpdated, ID: id} }
func voided(id qso.ID) Event   { return Event{Kind: EventVoided, ID: id} }
func undoApplied() Event       { return Event{Kind: EventUndoApplied} }
func redoApplied() Event       { return Event{Kind: EventRedoApplied} }
func durableUpTo(seq op.Seq) Event {
	return Event{Kind: EventDurableUpTo, OpSeq: seq}
}
func notDurableWarning(seq op.Seq) Event {
	return Event{Kind: EventNotDurableWarning, OpSeq: seq}
}
func persistenceError(err error, lastDurableSeq op.Seq) Event {
	return Event{Kind: EventPersistenceError, Err: err, OpSeq: lastDurableSeq}
}
