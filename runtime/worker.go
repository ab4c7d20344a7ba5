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
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/chadsbrown/qsolog/op"
	"github.com/chadsbrown/qsolog/sink"
	"github.com/chadsbrown/qsolog/store"
)

// persistMsg is the worker's inbound message sum type, the Go equivalent of
// the original's PersistMsg enum.
type persistMsg interface{ isPersistMsg() }

type persistOpMsg struct{ stored op.StoredOp }

func (persistOpMsg) isPersistMsg() {}

type persistFlushMsg struct{ reply chan flushResult }

func (persistFlushMsg) isPersistMsg() {}

type persistCheckpointMsg struct {
	snapshot store.Snapshot
	lastSeq  op.Seq
	compact  bool
	reply    chan error
}

func (persistCheckpointMsg) isPersistMsg() {}

type persistShutdownMsg struct{ reply chan struct{} }

func (persistShutdownMsg) isPersistMsg() {}

// durableResult is what the worker reports back to the writer after each
// flush attempt: either the new durable seq, or the error the append hit.
type durableResult struct {
	seq op.Seq
	err error
}

// persistWorker owns the sink exclusively; sink I/O runs synchronously
// inside its goroutine so it never shares state with the writer beyond
// these channels (spec §5's "sink I/O runs on a blocking executor so it
// never stalls the writer" — here that's just "its own goroutine", since Go
// blocking I/O doesn't need a separate thread pool the way tokio does).
type persistWorker struct {
	sink       sink.Sink
	cfg        Config
	msgCh      chan persistMsg
	durableCh  chan durableResult
	batch      []op.StoredOp
	lastDurable op.Seq
}

func newPersistWorker(s sink.Sink, cfg Config, msgCh chan persistMsg, durableCh chan durableResult) *persistWorker {
	return &persistWorker{sink: s, cfg: cfg, msgCh: msgCh, durableCh: durableCh}
}

func (w *persistWorker) run() error {
	timer := time.NewTimer(w.latency())
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-w.msgCh:
			if !ok {
				w.flush(true)
				return nil
			}
			switch m := msg.(type) {
			case persistOpMsg:
				isInsert := m.stored.Op.Kind == op.KindInsert
				w.batch = append(w.batch, m.stored)
				persistQueueDepth.Update(int64(len(w.batch)))
				if len(w.batch) >= w.cfg.BatchMaxOps || (w.cfg.FlushOnInsert && isInsert) {
					w.flush(true)
					resetTimer(timer, w.latency())
				}

			case persistFlushMsg:
				err := w.flush(true)
				m.reply <- flushResult{seq: w.lastDurable, err: err}
				resetTimer(timer, w.latency())

			case persistCheckpointMsg:
				err := w.checkpoint(m)
				m.reply <- err
				resetTimer(timer, w.latency())

			case persistShutdownMsg:
				w.flush(true)
				close(m.reply)
				return nil
			}

		case <-timer.C:
			if len(w.batch) > 0 {
				w.flush(false)
			}
			resetTimer(timer, w.latency())
		}
	}
}

func (w *persistWorker) latency() time.Duration {
	return time.Duration(w.cfg.BatchMaxLatencyMs) * time.Millisecond
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// flush appends whatever is buffered as one batch and reports the result
// over durableCh. When callFlush is set it also forces the sink's own
// Flush (checkpoint) afterward.
func (w *persistWorker) flush(callFlush bool) error {
	if len(w.batch) == 0 {
		if callFlush {
			if err := w.sink.Flush(); err != nil {
				log.Error("qsolog persist worker: flush failed", "err", err)
				return err
			}
		}
		return nil
	}

	ops := w.batch
	w.batch = nil
	persistQueueDepth.Update(0)

	seq, err := w.sink.AppendOps(ops)
	if err != nil {
		log.Error("qsolog persist worker: append failed", "err", err, "count", len(ops))
		w.durableCh <- durableResult{err: err}
		return err
	}
	if callFlush {
		if err := w.sink.Flush(); err != nil {
			log.Error("qsolog persist worker: post-append flush failed", "err", err)
			w.durableCh <- durableResult{err: err}
			return err
		}
	}

	if seq > w.lastDurable {
		w.lastDurable = seq
	}
	durableUpToGauge.Update(int64(w.lastDurable))
	w.durableCh <- durableResult{seq: w.lastDurable}
	return nil
}

func (w *persistWorker) checkpoint(m persistCheckpointMsg) error {
	if err := w.flush(true); err != nil {
		return err
	}
	if err := w.sink.WriteSnapshot(m.snapshot, m.lastSeq); err != nil {
		return err
	}
	if m.compact {
		if _, err := w.sink.CompactThrough(m.lastSeq); err != nil {
			return err
		}
	}
	return nil
}
