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
	"sort"

	"github.com/chadsbrown/qsolog/qso"
)

// insertSorted inserts id into m[key], keeping the bucket ordered by each
// member's canonical order position (binary search on pos), never by field
// value (spec's tie-break rule).
func insertSorted[K comparable](m map[K][]qso.ID, pos map[qso.ID]int, key K, id qso.ID) {
	list := m[key]
	at := sort.Search(len(list), func(i int) bool { return pos[list[i]] >= pos[id] })
	list = append(list, 0)
	copy(list[at+1:], list[at:])
	list[at] = id
	m[key] = list
}

// removeFromIndex drops id from m[key], deleting the bucket entirely once
// empty.
func removeFromIndex[K comparable](m map[K][]qso.ID, key K, id qso.ID) {
	list := m[key]
	for i, v := range list {
		if v == id {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(m, key)
	} else {
		m[key] = list
	}
}
