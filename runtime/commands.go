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

// Each command is a small struct carrying its own reply channel, the same
// request/response shape the original's tokio oneshot-per-command Command
// enum uses. The writer loop type-switches on these.

type insertCmd struct {
	draft qso.Draft
	reply chan insertResult
}
type insertResult struct {
	id  qso.ID
	err error
}

type patchCmd struct {
	id    qso.ID
	patch qso.Patch
	reply chan error
}

type voidCmd struct {
	id    qso.ID
	reply chan error
}

type undoCmd struct{ reply chan error }
type redoCmd struct{ reply chan error }

type getCmd struct {
	id    qso.ID
	reply chan getResult
}
type getResult struct {
	rec qso.Record
	ok  bool
}

type recentCmd struct {
	n     int
	reply chan []qso.Record
}

type byCallCmd struct {
	call  string
	reply chan []qso.Record
}

type flushCmd struct {
	reply chan flushResult
}
type flushResult struct {
	seq op.Seq
	err error
}

type checkpointCmd struct {
	reply chan error
}

type shutdownCmd struct {
	reply chan error
}

// pendingAck defers a mutation's reply until the worker has acknowledged
// its seq as durable (AckDurable mode). resolve delivers the final reply.
type pendingAck struct {
	seq     op.Seq
	resolve func(err error)
}
