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

// Option configures a Map at construction time, following the same
// functional-options shape as the teacher's option[K,V] interface
// (its own options.go: WithHash/WithAllocator), generalized to the
// domain policy knobs spec §9 calls "capability sets ... selected at
// compile time" in the C++ original (hash kind, overflow bound,
// bucket-bank depth). Go has no non-type template parameters, so what
// the C++ original fixes at compile time via template arguments this
// module fixes once, at construction, via these options instead.
type Option[K comparable, V any] interface {
	apply(m *Map[K, V])
}

type sizePowerOption[K comparable, V any] struct{ p int }

func (o sizePowerOption[K, V]) apply(m *Map[K, V]) { m.sizePower = o.p }

// WithSizePower sets the initial size power (spec §3, default 4).
func WithSizePower[K comparable, V any](p int) Option[K, V] {
	return sizePowerOption[K, V]{p}
}

type overflowBoundOption[K comparable, V any] struct{ n int }

func (o overflowBoundOption[K, V]) apply(m *Map[K, V]) { m.overflowBound = o.n }

// WithOverflowBound sets the maximum tolerated probe distance before the
// host forces a rehash (spec §3, default 8).
func WithOverflowBound[K comparable, V any](n int) Option[K, V] {
	return overflowBoundOption[K, V]{n}
}

type hasherOption[K comparable, V any] struct{ kind HashKind }

func (o hasherOption[K, V]) apply(m *Map[K, V]) { m.hasher = newHasher[K](o.kind) }

// WithHasher selects one of the compile-time hash function policies
// (spec §4.1 / §9).
func WithHasher[K comparable, V any](kind HashKind) Option[K, V] {
	return hasherOption[K, V]{kind}
}

type bucketBankOption[K comparable, V any] struct{ depth int }

func (o bucketBankOption[K, V]) apply(m *Map[K, V]) { m.bankDepth = o.depth }

// WithBucketBank enables the bucket-bank rehash policy (spec §4.3,
// "Bucket-bank variant of rehash") with the given bank depth (spec
// default 6). Without this option the map uses the simpler
// grow-in-place rehash.
func WithBucketBank[K comparable, V any](depth int) Option[K, V] {
	return bucketBankOption[K, V]{depth}
}

type loggerOption[K comparable, V any] struct{ l Logger }

func (o loggerOption[K, V]) apply(m *Map[K, V]) { m.logger = o.l }

// WithLogger attaches a structured logger for rehash/handshake events
// (SPEC_FULL.md §3.1).
func WithLogger[K comparable, V any](l Logger) Option[K, V] {
	return loggerOption[K, V]{l}
}
