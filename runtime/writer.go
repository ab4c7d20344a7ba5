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
	"context"

	"github.com/ethereum/go-ethereum/log"

	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/store"
)

// writer is the single task that owns the QsoStore (spec §5: "exactly one
// task mutates the QsoStore"). All of its state is private to its own
// goroutine; the Runtime handle never touches it directly.
type writer struct {
	rt    *Runtime
	store *store.Store
	cfg   Config

	opsSinceSnapshot int

	// healthy mirrors core/ubtemit.Service's degraded atomic.Bool, except
	// it's only ever touched from this single goroutine so it's a plain
	// bool rather than an atomic.
	healthy        bool
	lastErr        error
	lastDurableSeq op.Seq

	pendingAcks []pendingAck
}

func (w *writer) run(ctx context.Context) error {
	w.healthy = true

	for {
		select {
		case raw, ok := <-w.rt.cmdCh:
			if !ok {
				return nil
			}
			if w.handleCommand(raw) {
				return nil
			}

		case res, ok := <-w.rt.durableCh:
			if !ok {
				continue
			}
			w.handleDurableResult(res)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *writer) handleCommand(raw any) (shutdown bool) {
	switch cmd := raw.(type) {
	case insertCmd:
		w.doInsert(cmd)
	case patchCmd:
		w.doPatch(cmd)
	case voidCmd:
		w.doVoid(cmd)
	case undoCmd:
		w.doUndo(cmd)
	case redoCmd:
		w.doRedo(cmd)
	case getCmd:
		rec, ok := w.store.Get(cmd.id)
		cmd.reply <- getResult{rec: rec, ok: ok}
	case recentCmd:
		cmd.reply <- w.store.Recent(cmd.n)
	case byCallCmd:
		cmd.reply <- w.store.ByCall(cmd.call)
	case flushCmd:
		w.doFlush(cmd)
	case checkpointCmd:
		w.doCheckpoint(cmd)
	case shutdownCmd:
		w.doShutdown(cmd)
		return true
	default:
		log.Error("qsolog runtime: unknown command type", "type", raw)
	}
	return false
}

// submitMutation hands stored to the persistence worker (if configured),
// rolling the store back to cp and failing with ErrPersistQueueFull if the
// bounded queue rejects it. deferred reports whether the caller should hold
// its reply until a durability ack arrives (AckDurable with a sink).
func (w *writer) submitMutation(cp store.Checkpoint, stored op.StoredOp) (deferred bool, err error) {
	if w.rt.persistCh == nil {
		w.rt.hub.broadcast(durableUpTo(w.store.LatestOpSeq()))
		return false, nil
	}

	select {
	case w.rt.persistCh <- persistOpMsg{stored: stored}:
		if !w.healthy && w.cfg.AckMode == AckInMemory {
			w.rt.hub.broadcast(notDurableWarning(stored.Seq))
		}
		return w.cfg.AckMode == AckDurable, nil

	default:
		queueFullTotal.Inc(1)
		if rbErr := w.store.Rollback(cp, stored.Op); rbErr != nil {
			log.Error("qsolog runtime: rollback after queue-full failed", "err", rbErr)
		}
		return false, ErrPersistQueueFull
	}
}

func (w *writer) afterSuccessfulMutation() {
	w.opsSinceSnapshot++
	w.maybeAutoCheckpoint()
}

func (w *writer) maybeAutoCheckpoint() {
	if w.cfg.SnapshotEveryOps == 0 || w.opsSinceSnapshot < w.cfg.SnapshotEveryOps {
		return
	}
	if w.rt.persistCh == nil {
		return
	}

	snap := w.store.ExportSnapshot()
	lastSeq := w.store.LatestOpSeq()
	reply := make(chan error, 1)
	w.rt.persistCh <- persistCheckpointMsg{
		snapshot: snap,
		lastSeq:  lastSeq,
		compact:  w.cfg.CompactAfterSnapshot,
		reply:    reply,
	}
	if err := <-reply; err != nil {
		log.Error("qsolog runtime: auto-checkpoint failed", "err", err)
	}
	w.opsSinceSnapshot = 0
}

func (w *writer) doInsert(cmd insertCmd) {
	if w.cfg.AckMode == AckDurable && !w.healthy {
		cmd.reply <- insertResult{err: ErrPersistenceUnhealthy}
		return
	}
	cp := w.store.Checkpoint()
	id, stored, err := w.store.Insert(cmd.draft)
	if err != nil {
		cmd.reply <- insertResult{err: err}
		return
	}
	deferred, err := w.submitMutation(cp, stored)
	if err != nil {
		cmd.reply <- insertResult{err: err}
		return
	}
	w.rt.hub.broadcast(inserted(id))
	w.afterSuccessfulMutation()

	if deferred {
		w.pendingAcks = append(w.pendingAcks, pendingAck{
			seq: stored.Seq,
			resolve: func(err error) {
				cmd.reply <- insertResult{id: id, err: err}
			},
		})
		return
	}
	cmd.reply <- insertResult{id: id}
}

func (w *writer) doPatch(cmd patchCmd) {
	if w.cfg.AckMode == AckDurable && !w.healthy {
		cmd.reply <- ErrPersistenceUnhealthy
		return
	}
	cp := w.store.Checkpoint()
	stored, err := w.store.Patch(cmd.id, cmd.patch)
	if err != nil {
		cmd.reply <- err
		return
	}
	deferred, err := w.submitMutation(cp, stored)
	if err != nil {
		cmd.reply <- err
		return
	}
	w.rt.hub.broadcast(updated(cmd.id))
	w.afterSuccessfulMutation()

	if deferred {
		w.pendingAcks = append(w.pendingAcks, pendingAck{
			seq:     stored.Seq,
			resolve: func(err error) { cmd.reply <- err },
		})
		return
	}
	cmd.reply <- nil
}

func (w *writer) doVoid(cmd voidCmd) {
	if w.cfg.AckMode == AckDurable && !w.healthy {
		cmd.reply <- ErrPersistenceUnhealthy
		return
	}
	cp := w.store.Checkpoint()
	stored, err := w.store.Void(cmd.id)
	if err != nil {
		cmd.reply <- err
		return
	}
	deferred, err := w.submitMutation(cp, stored)
	if err != nil {
		cmd.reply <- err
		return
	}
	w.rt.hub.broadcast(voided(cmd.id))
	w.afterSuccessfulMutation()

	if deferred {
		w.pendingAcks = append(w.pendingAcks, pendingAck{
			seq:     stored.Seq,
			resolve: func(err error) { cmd.reply <- err },
		})
		return
	}
	cmd.reply <- nil
}

func (w *writer) doUndo(cmd undoCmd) {
	if w.cfg.AckMode == AckDurable && !w.healthy {
		cmd.reply <- ErrPersistenceUnhealthy
		return
	}
	cp := w.store.Checkpoint()
	stored, err := w.store.Undo()
	if err != nil {
		cmd.reply <- err
		return
	}
	deferred, err := w.submitMutation(cp, stored)
	if err != nil {
		cmd.reply <- err
		return
	}
	w.rt.hub.broadcast(undoApplied())
	w.afterSuccessfulMutation()

	if deferred {
		w.pendingAcks = append(w.pendingAcks, pendingAck{
			seq:     stored.Seq,
			resolve: func(err error) { cmd.reply <- err },
		})
		return
	}
	cmd.reply <- nil
}

func (w *writer) doRedo(cmd redoCmd) {
	if w.cfg.AckMode == AckDurable && !w.healthy {
		cmd.reply <- ErrPersistenceUnhealthy
		return
	}
	cp := w.store.Checkpoint()
	stored, err := w.store.Redo()
	if err != nil {
		cmd.reply <- err
		return
	}
	deferred, err := w.submitMutation(cp, stored)
	if err != nil {
		cmd.reply <- err
		return
	}
	w.rt.hub.broadcast(redoApplied())
	w.afterSuccessfulMutation()

	if deferred {
		w.pendingAcks = append(w.pendingAcks, pendingAck{
			seq:     stored.Seq,
			resolve: func(err error) { cmd.reply <- err },
		})
		return
	}
	cmd.reply <- nil
}

func (w *writer) doFlush(cmd flushCmd) {
	if w.rt.persistCh == nil {
		cmd.reply <- flushResult{seq: w.store.LatestOpSeq()}
		return
	}
	reply := make(chan flushResult, 1)
	w.rt.persistCh <- persistFlushMsg{reply: reply}
	res := <-reply
	cmd.reply <- res
}

func (w *writer) doCheckpoint(cmd checkpointCmd) {
	if w.rt.persistCh == nil {
		cmd.reply <- nil
		return
	}
	snap := w.store.ExportSnapshot()
	lastSeq := w.store.LatestOpSeq()
	reply := make(chan error, 1)
	w.rt.persistCh <- persistCheckpointMsg{
		snapshot: snap,
		lastSeq:  lastSeq,
		compact:  w.cfg.CompactAfterSnapshot,
		reply:    reply,
	}
	cmd.reply <- <-reply
}

func (w *writer) doShutdown(cmd shutdownCmd) {
	if w.rt.persistCh != nil {
		reply := make(chan struct{})
		w.rt.persistCh <- persistShutdownMsg{reply: reply}
		<-reply
	}
	cmd.reply <- nil
}

// handleDurableResult processes one worker report: either a new durable
// seq (resolving every pending AckDurable reply whose seq it covers) or an
// append failure (marking persistence unhealthy and failing every
// currently pending AckDurable reply, since none of them is known to have
// landed durably).
func (w *writer) handleDurableResult(res durableResult) {
	if res.err != nil {
		w.markUnhealthy(res.err)
		for _, pa := range w.pendingAcks {
			pa.resolve(ErrPersistenceUnhealthy)
		}
		w.pendingAcks = nil
		return
	}

	w.markHealthy(res.seq)

	cut := 0
	for ; cut < len(w.pendingAcks); cut++ {
		if w.pendingAcks[cut].seq > res.seq {
			break
		}
		w.pendingAcks[cut].resolve(nil)
	}
	w.pendingAcks = w.pendingAcks[cut:]
}

func (w *writer) markUnhealthy(err error) {
	w.lastErr = err
	wasHealthy := w.healthy
	w.healthy = false
	persistDegraded.Update(1)
	if wasHealthy {
		log.Error("qsolog runtime: persistence degraded", "err", err, "last_durable_seq", w.lastDurableSeq)
	}
	w.rt.hub.broadcast(persistenceError(err, w.lastDurableSeq))
}

func (w *writer) markHealthy(seq op.Seq) {
	if seq > w.lastDurableSeq {
		w.lastDurableSeq = seq
	}
	if !w.healthy {
		log.Info("qsolog runtime: persistence recovered", "seq", seq)
	}
	w.healthy = true
	persistDegraded.Update(0)
	w.rt.hub.broadcast(durableUpTo(seq))
}
