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

package store

import (
	"errors"
	"fmt"

	"github.com/chadsbrown/qsolog/qso"
)

// ErrNothingToUndo is returned by Undo when the undo stack is empty.
var ErrNothingToUndo = errors.New("store: nothing to undo")

// ErrNothingToRedo is returned by Redo when the redo stack is empty.
var ErrNothingToRedo = errors.New("store: nothing to redo")

// MissingQsoError is returned whenever an operation names an id the store
// doesn't hold.
type MissingQsoError struct {
	ID qso.ID
}

func (e *MissingQsoError) Error() string {
	return fmt.Sprintf("store: qso %d not found", e.ID)
}

// AlreadyExistsError is returned by Insert and ApplyReplayedOp when the
// target id is already present (a replay/snapshot path reusing an id).
type AlreadyExistsError struct {
	ID qso.ID
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("store: qso %d already exists", e.ID)
}
