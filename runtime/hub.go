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

import "sync"

// eventHub fans Events out to subscribers without ever blocking the writer.
// go-ethereum's event.Feed blocks Send until every subscriber channel can
// receive, which is the opposite of what spec §5 requires here ("lagging
// subscribers drop events"), so this is a small hand-rolled broadcaster
// instead of that package.
type eventHub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Event
	bufLen int
}

func newEventHub(bufLen int) *eventHub {
	if bufLen <= 0 {
		bufLen = 1
	}
	return &eventHub{subs: make(map[uint64]chan Event), bufLen: bufLen}
}

// subscribe returns a receive-only channel of future events and an
// unsubscribe func the caller must eventually call.
func (h *eventHub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufLen)
	h.subs[id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// broadcast sends ev to every subscriber; a subscriber whose buffer is full
// drops it rather than stalling the writer goroutine.
func (h *eventHub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			droppedEvents.Inc(1)
		}
	}
}
