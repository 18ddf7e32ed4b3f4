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

// bucketBank implements the "bucket bank" rehash policy from spec §3 and
// §4.3: an ordered set of pre-allocated backings of increasing size, of
// which exactly one is active. Growing the table becomes "migrate to an
// already-allocated dormant backing" rather than "allocate a bigger
// backing and copy into it", amortising allocation across many rehashes
// at the cost of holding several backings in memory at once.
//
// This is grounded on the teacher's own sketch of extendible hashing in
// map.go's header comment (a directory of buckets of increasing local
// depth, split rather than resized in place) adapted from "split a
// bucket into two" to "swap the whole active backing for a larger
// dormant one", which is what spec §4.3 actually describes.
type bucketBank[K comparable, V any] struct {
	backings    []Backing[K, V]
	sizePowers  []int
	activeIndex int
	depth       int
	empty       K
}

// newBucketBank eagerly allocates depth dormant backings of sizes
// 2^initialSizePower, 2^{initialSizePower+1}, ..., up to
// 2^{initialSizePower+depth-1}, per spec §3/§4.3's description of the
// bucket bank as pre-allocated up front rather than grown lazily as
// each rehash needs a new size. The first (smallest) backing starts
// active.
func newBucketBank[K comparable, V any](initialSizePower, depth int, empty K) *bucketBank[K, V] {
	if depth <= 0 {
		depth = 6
	}
	b := &bucketBank[K, V]{depth: depth, empty: empty}
	for i := 0; i < depth; i++ {
		p := initialSizePower + i
		b.backings = append(b.backings, newHostBacking[K, V](1<<uint(p), empty))
		b.sizePowers = append(b.sizePowers, p)
	}
	return b
}

func (b *bucketBank[K, V]) active() Backing[K, V] { return b.backings[b.activeIndex] }

func (b *bucketBank[K, V]) activeSizePower() int { return b.sizePowers[b.activeIndex] }

func (b *bucketBank[K, V]) findDormant(sizePower int) int {
	for i, p := range b.sizePowers {
		if i != b.activeIndex && p == sizePower {
			return i
		}
	}
	return -1
}

// expand allocates additional dormant backings so that every size power
// up to and including upToPower is present in the bank, per spec §4.3
// step (b): "allocate additional dormant backings in the bank (sizes
// 2^P', 2^{P'+1}, ...)". depth is a sizing hint for how many backings to
// pre-stage up front, not a hard ceiling — correctness (being able to
// reach upToPower) always wins over the hint.
func (b *bucketBank[K, V]) expand(upToPower int) {
	maxPower := b.sizePowers[0]
	for _, p := range b.sizePowers {
		if p > maxPower {
			maxPower = p
		}
	}
	for p := maxPower + 1; p <= upToPower; p++ {
		if b.findDormant(p) >= 0 {
			continue
		}
		b.backings = append(b.backings, newHostBacking[K, V](1<<uint(p), b.empty))
		b.sizePowers = append(b.sizePowers, p)
	}
}

// migrate implements spec §4.3's two-step bucket-bank rehash: (a) find a
// dormant backing of exactly size 2^targetPower and re-insert into it
// using the probe engine bounded by overflowBound; on EXHAUSTED the
// caller retries with targetPower+1. (b) if no dormant backing of that
// size exists yet, expand the bank first. migrate reports whether the
// re-insertion at targetPower succeeded, and — on success — the largest
// probe distance any re-inserted key actually needed, so the caller can
// recompute observedOverflow from a sound snapshot instead of carrying
// over the pre-rehash value. migrate never itself decides to try a
// larger power (that loop lives in Map.rehashBank).
func (b *bucketBank[K, V]) migrate(m *Map[K, V], targetPower int) (bool, int) {
	idx := b.findDormant(targetPower)
	if idx < 0 {
		b.expand(targetPower)
		idx = b.findDormant(targetPower)
		if idx < 0 {
			return false, 0
		}
	}

	dest := b.backings[idx]
	destSlots := dest.Slice()
	for i := range destSlots {
		destSlots[i].reset(b.empty)
	}

	maxDistance := 0
	srcSlots := b.active().Slice()
	for i := range srcSlots {
		key := srcSlots[i].Key
		if key == b.empty {
			continue
		}
		h := m.hasher(key, targetPower)
		res := probe(destSlots, b.empty, key, h, m.overflowBound)
		if res.outcome != probeVacant {
			return false, 0
		}
		destSlots[res.index].Key = key
		destSlots[res.index].StoreValue(srcSlots[i].LoadValue())
		if res.distance > maxDistance {
			maxDistance = res.distance
		}
	}

	b.activeIndex = idx
	return true, maxDistance
}
