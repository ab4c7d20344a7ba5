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

// Package runtime is the single-writer command loop that owns a QsoStore:
// it serializes client mutations, fans domain events out to subscribers,
// and coordinates a bounded, batched, durable persistence worker with
// backpressure and health signalling (spec §4.5, §5).
package runtime

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/qso"
	"github.com/chadsbrown/qsolog/sink"
	"github.com/chadsbrown/qsolog/store"
)

// Runtime is a handle to the running writer; it is safe to share across
// goroutines and clone-like (every method just sends a command over a
// channel), mirroring the original's cheaply-Clone QsoLogHandle.
type Runtime struct {
	cmdCh chan any

	hub *eventHub

	persistCh chan persistMsg // nil when no sink is configured
	durableCh chan durableResult

	group   *errgroup.Group
	closed  atomic.Bool
}

// Spawn starts the writer (and, if sink is non-nil, the persistence worker)
// and returns a handle. st is owned exclusively by the writer from this
// point on — callers must not touch it directly again (spec §9's
// single-writer discipline).
func Spawn(st *store.Store, snk sink.Sink, cfg Config) *Runtime {
	group, ctx := errgroup.WithContext(context.Background())

	rt := &Runtime{
		cmdCh: make(chan any, commandQueueBound),
		hub:   newEventHub(cfg.EventBufferSize),
	}

	var persistCh chan persistMsg
	var durableCh chan durableResult
	if snk != nil {
		persistCh = make(chan persistMsg, cfg.PersistQueueBound)
		durableCh = make(chan durableResult, durableQueueBound)
		worker := newPersistWorker(snk, cfg, persistCh, durableCh)
		group.Go(func() error {
			return worker.run()
		})
	}
	rt.persistCh = persistCh
	rt.durableCh = durableCh
	rt.group = group

	w := &writer{
		rt:    rt,
		store: st,
		cfg:   cfg,
	}
	group.Go(func() error {
		return w.run(ctx)
	})

	return rt
}

// Subscribe returns a channel of future Events and an unsubscribe func the
// caller must call when done (e.g. via defer). A subscriber that falls
// behind drops events rather than stalling the writer.
func (rt *Runtime) Subscribe() (<-chan Event, func()) {
	return rt.hub.subscribe()
}

// Insert submits a new QSO draft.
func (rt *Runtime) Insert(draft qso.Draft) (qso.ID, error) {
	reply := make(chan insertResult, 1)
	if err := rt.send(insertCmd{draft: draft, reply: reply}); err != nil {
		return 0, err
	}
	res := <-reply
	return res.id, res.err
}

// Patch submits a sparse patch against id.
func (rt *Runtime) Patch(id qso.ID, patch qso.Patch) error {
	reply := make(chan error, 1)
	if err := rt.send(patchCmd{id: id, patch: patch, reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// Void toggles id's void flag.
func (rt *Runtime) Void(id qso.ID) error {
	reply := make(chan error, 1)
	if err := rt.send(voidCmd{id: id, reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// Undo reapplies the most recent undo-stack entry.
func (rt *Runtime) Undo() error {
	reply := make(chan error, 1)
	if err := rt.send(undoCmd{reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// Redo reapplies the most recent redo-stack entry.
func (rt *Runtime) Redo() error {
	reply := make(chan error, 1)
	if err := rt.send(redoCmd{reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// Get returns id's current record, if present.
func (rt *Runtime) Get(id qso.ID) (qso.Record, bool, error) {
	reply := make(chan getResult, 1)
	if err := rt.send(getCmd{id: id, reply: reply}); err != nil {
		return qso.Record{}, false, err
	}
	res := <-reply
	return res.rec, res.ok, nil
}

// Recent returns up to n most-recently-inserted records.
func (rt *Runtime) Recent(n int) ([]qso.Record, error) {
	reply := make(chan []qso.Record, 1)
	if err := rt.send(recentCmd{n: n, reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// ByCall returns every record currently filed under callNorm.
func (rt *Runtime) ByCall(callNorm string) ([]qso.Record, error) {
	reply := make(chan []qso.Record, 1)
	if err := rt.send(byCallCmd{call: callNorm, reply: reply}); err != nil {
		return nil, err
	}
	return <-reply, nil
}

// Flush forces the persistence worker to drain its buffer and returns the
// resulting durable seq. With no sink configured it just returns the
// store's latest seq.
func (rt *Runtime) Flush() (op.Seq, error) {
	reply := make(chan flushResult, 1)
	if err := rt.send(flushCmd{reply: reply}); err != nil {
		return 0, err
	}
	res := <-reply
	return res.seq, res.err
}

// Checkpoint synchronously asks the worker to write a snapshot (and, if
// configured, compact the journal through it).
func (rt *Runtime) Checkpoint() error {
	reply := make(chan error, 1)
	if err := rt.send(checkpointCmd{reply: reply}); err != nil {
		return err
	}
	return <-reply
}

// Close shuts the writer and persistence worker down, waiting for both to
// exit. It is safe to call more than once.
func (rt *Runtime) Close() error {
	if rt.closed.CompareAndSwap(false, true) {
		reply := make(chan error, 1)
		rt.cmdCh <- shutdownCmd{reply: reply}
		<-reply
	}
	return rt.group.Wait()
}

// send delivers cmd to the writer, or fails fast with ErrChannelClosed once
// Close has been called.
func (rt *Runtime) send(cmd any) error {
	if rt.closed.Load() {
		return ErrChannelClosed
	}
	rt.cmdCh <- cmd
	return nil
}
