// Copyright 2024 The Hashinator Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashinator

// Iterator walks occupied slots of a Map in ascending index order (spec
// §6, "Forward iteration over occupied slots"). Unlike the C++
// original's begin()/end()/operator++ trio, this follows Go's stateful
// iterator idiom (bufio.Scanner-style: call Next, then read); the
// teacher's own bulk-iteration entry point, All(yield func(K,V) bool),
// is kept unchanged alongside this for callers that don't need a
// resumable cursor (see Map.All).
//
// Iterators are invalidated by any mutation that can rehash, exactly as
// spec §4.3 warns.
type Iterator[K comparable, V any] struct {
	m     *Map[K, V]
	index int
}

// Begin returns an iterator positioned at the first occupied slot, or an
// End iterator if the map is empty.
func (m *Map[K, V]) Begin() Iterator[K, V] {
	it := Iterator[K, V]{m: m, index: -1}
	it.advance()
	return it
}

// End returns the sentinel iterator one past the last slot.
func (m *Map[K, V]) End() Iterator[K, V] {
	return Iterator[K, V]{m: m, index: m.backing.Len()}
}

func (it Iterator[K, V]) valid() bool {
	return it.index >= 0 && it.index < it.m.backing.Len()
}

// Next advances the iterator and reports whether it now points at an
// occupied slot.
func (it *Iterator[K, V]) Next() bool {
	it.advance()
	return it.valid()
}

func (it *Iterator[K, V]) advance() {
	empty := it.m.empty
	slots := it.m.backing.Slice()
	for it.index++; it.index < len(slots); it.index++ {
		if slots[it.index].Key != empty {
			return
		}
	}
}

// Key returns the key at the iterator's current position. Panics if the
// iterator is not valid, matching the teacher's own unchecked
// dereference of end() being a programmer error.
func (it Iterator[K, V]) Key() K { return it.m.backing.Slice()[it.index].Key }

// Value returns the value at the iterator's current position.
func (it Iterator[K, V]) Value() V { return it.m.backing.Slice()[it.index].LoadValue() }

// Index returns the backing slot index the iterator currently points at,
// mirroring the C++ original's get_index().
func (it Iterator[K, V]) Index() int { return it.index }

// Equal reports whether two iterators refer to the same map and slot.
func (it Iterator[K, V]) Equal(other Iterator[K, V]) bool {
	return it.m == other.m && it.index == other.index
}
