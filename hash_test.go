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
	"testing"

	"github.com/stretchr/testify/require"
)

// fibonacci32/fibonacci64 return a 32-bit value that callers mask with
// capacity-1 themselves (hash.go's doc comment, spec §4.1); the mask is
// applied here the same way every real call site (probe.go's probe, via
// m.hasher then "start := h & mask") applies it.
func TestFibonacciHashInRange(t *testing.T) {
	for sizePower := 1; sizePower <= 20; sizePower++ {
		mask := uint32(1)<<uint(sizePower) - 1
		for _, k := range []uint32{0, 1, 2, 1 << 30, ^uint32(0)} {
			h := fibonacci32(k, sizePower) & mask
			require.LessOrEqual(t, h, mask)
		}
	}
}

func TestFibonacci64HashInRange(t *testing.T) {
	for sizePower := 1; sizePower <= 20; sizePower++ {
		mask := uint32(1)<<uint(sizePower) - 1
		for _, k := range []uint64{0, 1, 1 << 40, ^uint64(0)} {
			h := fibonacci64(k, sizePower) & mask
			require.LessOrEqual(t, h, mask)
		}
	}
}

func TestMurmurHashInRange(t *testing.T) {
	for sizePower := 1; sizePower <= 20; sizePower++ {
		mask := uint32(1)<<uint(sizePower) - 1
		h32 := newHasher[uint32](HashMurmur)
		for _, k := range []uint32{0, 1, 2, 1 << 30, ^uint32(0)} {
			require.LessOrEqual(t, h32(k, sizePower), mask)
		}
		h64 := newHasher[uint64](HashMurmur)
		for _, k := range []uint64{0, 1, 1 << 40, ^uint64(0)} {
			require.LessOrEqual(t, h64(k, sizePower), mask)
		}
	}
}

// TestMurmurHashesKeyDirectly guards against regressing to composing
// Murmur's finalizer over an FNV-1a digest of the key: Murmur must mix
// the arithmetic key value itself, so it agrees with murmurFinalizer
// called directly on the key.
func TestMurmurHashesKeyDirectly(t *testing.T) {
	h := newHasher[uint32](HashMurmur)
	const k = uint32(12345)
	const sizePower = 10
	require.Equal(t, murmurFinalizer(k)&fullMask(sizePower), h(k, sizePower))
}

func TestMurmurHasherForPanicsOnUnsupportedKind(t *testing.T) {
	require.Panics(t, func() { murmurHasherFor[string]() })
}

func TestNewHasherAutoDispatchesByKeyKind(t *testing.T) {
	require.NotNil(t, newHasher[uint32](HashAuto))
	require.NotNil(t, newHasher[int64](HashAuto))
	require.NotNil(t, newHasher[string](HashAuto))
}

func TestFibonacciHasherForPanicsOnUnsupportedKind(t *testing.T) {
	require.Panics(t, func() { fibonacciHasherFor[string]() })
}

func TestFnv1aDeterministic(t *testing.T) {
	a := fnv1aBytes([]byte("hashinator"))
	b := fnv1aBytes([]byte("hashinator"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, fnv1aBytes([]byte("Hashinator")))
}
