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

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

const empty = ^uint32(0)

func genKeys(n int) []uint32 {
	keys := make([]uint32, n)
	seen := make(map[uint32]bool, n)
	r := rand.New(rand.NewSource(1))
	for i := range keys {
		for {
			k := r.Uint32()
			if k != empty && !seen[k] {
				seen[k] = true
				keys[i] = k
				break
			}
		}
	}
	return keys
}

func BenchmarkMapInsert(b *testing.B) {
	for _, n := range []int{16, 256, 4096} {
		keys := genKeys(n)
		b.Run("n="+strconv.Itoa(n), func(b *testing.B) {
			c := perfbench.Open(b)
			defer c.Close()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m := New[uint32, int](empty)
				for _, k := range keys {
					m.Insert(k, int(k))
				}
			}
		})
	}
}

func BenchmarkMapGetHit(b *testing.B) {
	for _, n := range []int{16, 256, 4096} {
		keys := genKeys(n)
		m := New[uint32, int](empty)
		for _, k := range keys {
			m.Insert(k, int(k))
		}
		b.Run("n="+strconv.Itoa(n), func(b *testing.B) {
			c := perfbench.Open(b)
			defer c.Close()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Get(keys[i%len(keys)])
			}
		})
	}
}

func BenchmarkMapGetMiss(b *testing.B) {
	for _, n := range []int{16, 256, 4096} {
		// genKeys is seeded deterministically, so draw one pool of 2n
		// distinct keys and split it: the second half is guaranteed
		// absent from the map built out of the first.
		all := genKeys(2 * n)
		keys, misses := all[:n], all[n:]
		m := New[uint32, int](empty)
		for _, k := range keys {
			m.Insert(k, int(k))
		}
		b.Run("n="+strconv.Itoa(n), func(b *testing.B) {
			c := perfbench.Open(b)
			defer c.Close()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Get(misses[i%len(misses)])
			}
		})
	}
}

func BenchmarkMapEraseInsertChurn(b *testing.B) {
	keys := genKeys(1024)
	m := New[uint32, int](empty)
	for _, k := range keys {
		m.Insert(k, int(k))
	}
	c := perfbench.Open(b)
	defer c.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		m.Erase(k)
		m.Insert(k, int(k))
	}
}
