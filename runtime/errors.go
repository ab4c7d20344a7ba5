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

import "errors"

// ErrChannelClosed is returned when a command can't be delivered to, or a
// reply can't be received from, a writer that has already shut down.
var ErrChannelClosed = errors.New("runtime: channel closed")

// ErrPersistQueueFull is returned when the writer-to-worker persist channel
// rejects a submission. The mutation that produced it is rolled back before
// this error reaches the caller, so the store's observable state is
// unaffected.
var ErrPersistQueueFull = errors.New("runtime: persist queue full")

// ErrPersistenceUnhealthy is returned by mutation commands in AckDurable
// mode while the persistence worker's last append failed and no later
// append has yet succeeded.
var ErrPersistenceUnhealthy = errors.New("runtime: persistence unhealthy")
