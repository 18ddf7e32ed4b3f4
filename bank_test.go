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

// TestBucketBankMigration is spec §8 scenario F: growing from P=4 to
// P=5 with bank depth 3 must reuse a pre-allocated dormant backing
// rather than allocating a new one.
func TestBucketBankMigration(t *testing.T) {
	const empty = ^uint32(0)
	m := New[uint32, int](empty,
		WithSizePower[uint32, int](4),
		WithBucketBank[uint32, int](3),
	)
	require.NotNil(t, m.bank)
	require.Equal(t, 16, m.BucketCount())

	for k := uint32(0); k < 12; k++ {
		m.Insert(k, int(k))
	}

	oldActive := m.bank.activeIndex
	backingsBefore := len(m.bank.backings)
	require.NoError(t, m.rehash(5))

	require.Equal(t, 32, m.BucketCount())
	require.NotEqual(t, oldActive, m.bank.activeIndex)
	require.Equal(t, 5, m.bank.activeSizePower())
	// depth 3 pre-allocates sizes {16, 32, 64} up front, so migrating from
	// 16 to 32 must reuse the dormant backing rather than allocate a new
	// one (spec §8 scenario F's "no allocation occurred during rehash").
	require.Equal(t, backingsBefore, len(m.bank.backings))

	for k := uint32(0); k < 12; k++ {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, int(k), v)
	}
}

func TestNewBucketBankPreallocatesDepthBackings(t *testing.T) {
	const empty = ^uint32(0)
	b := newBucketBank[uint32, int](2, 4, empty)
	require.Len(t, b.backings, 4)
	require.Equal(t, []int{2, 3, 4, 5}, b.sizePowers)
	require.Equal(t, 2, b.activeSizePower()) // smallest size starts active
	for _, p := range []int{3, 4, 5} {
		require.NotEqual(t, -1, b.findDormant(p), "size power %d should already be pre-allocated", p)
	}
}

func TestBucketBankExpandAllocatesOnlyWhenNeeded(t *testing.T) {
	const empty = ^uint32(0)
	b := newBucketBank[uint32, int](2, 2, empty) // pre-allocates sizes {2, 3}
	require.Len(t, b.backings, 2)

	b.expand(5)
	require.Len(t, b.backings, 4) // sizes 4 and 5 added
	require.NotEqual(t, -1, b.findDormant(4))
	require.NotEqual(t, -1, b.findDormant(5))

	countBefore := len(b.backings)
	b.expand(5)
	require.Equal(t, countBefore, len(b.backings))
}
