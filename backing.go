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

import "sync/atomic"

// Backing is the migratable array interface described in spec §2 and §6:
// a contiguous, power-of-two-sized store of slots that can be made
// resident on the host or on an accelerator. The hash table treats it as
// an external collaborator (spec §1 lists it as "interface only") — the
// table never assumes anything about how OptimizeForAccelerator or
// OptimizeForHost actually move bytes around, only that afterwards the
// same logical slots are visible wherever the caller reads them next.
//
// This mirrors the teacher's own separation of concerns: cockroachdb's
// Map[K,V] delegates slot storage to an Allocator[K,V] (options.go)
// rather than hardcoding make()/free(); Backing plays the equivalent
// role here, generalized to also carry the host/device migration hook
// the teacher's allocator has no need for.
type Backing[K comparable, V any] interface {
	// Len returns the number of slots (always a power of two).
	Len() int
	// At returns a pointer to the slot at index i for in-place mutation.
	At(i int) *Slot[K, V]
	// Slice exposes every slot for bulk scans (rehash, iteration).
	Slice() []Slot[K, V]
	// Swap exchanges contents with another Backing of a compatible
	// concrete type. Map.Swap and bucket-bank migration do not use it.
	Swap(other Backing[K, V])
	// OptimizeForAccelerator prepares the backing for cross-domain
	// access, asynchronously with respect to stream.
	OptimizeForAccelerator(s *Stream)
	// OptimizeForHost is OptimizeForAccelerator's inverse.
	OptimizeForHost(s *Stream)
}

// Slot holds one key/value pair. A slot is empty iff Key equals the
// map's configured EMPTY sentinel (spec §3, "Slot").
//
// Value is boxed behind an atomic.Pointer[V] rather than stored inline,
// because sync/atomic has no CAS/store primitive generic over arbitrary
// V the way it does for fixed-width integers (the same gap AtomicKey
// works around for the Key field — spec §6.6). This is the same
// value-boxing trick _examples/rip-create-your-account-fishtable/conmap.go
// uses for its generic-valued array (consarray[V]'s atomic.Pointer[sarray[V]]
// plus Load/Update pair): spec §4.5 step 2 requires the device insert
// path's value write to be an atomic store, and a bare V field can't
// give one for an arbitrary generic V. LoadValue/StoreValue are the
// atomic accessors every read/write path — host and device — goes
// through; ValuePtr is the one escape hatch, used only by the host's
// At and the device's DevAt, both of which hand the caller a raw *V
// by spec contract (§4.5's dev_at is explicitly documented there as
// carrying no ordering guarantee).
type Slot[K comparable, V any] struct {
	Key   K
	value atomic.Pointer[V]
}

// LoadValue atomically reads the slot's value, returning the zero value
// of V if nothing has been stored yet.
func (s *Slot[K, V]) LoadValue() V {
	if p := s.value.Load(); p != nil {
		return *p
	}
	var zero V
	return zero
}

// StoreValue atomically replaces the slot's value, implementing spec
// §4.5 step 2's "STORE(slot[i].value, v) as an atomic store."
func (s *Slot[K, V]) StoreValue(v V) {
	s.value.Store(&v)
}

// ValuePtr returns a pointer to the slot's currently boxed value,
// allocating a zero-valued box first if none exists yet. Writes through
// the returned pointer are ordinary, non-atomic memory writes — callers
// that need a race-free store must go through StoreValue instead. This
// exists only for At (host-side, single-threaded by regime) and DevAt
// (device-side, deliberately racy per spec §4.5's documented contract).
func (s *Slot[K, V]) ValuePtr() *V {
	if p := s.value.Load(); p != nil {
		return p
	}
	var zero V
	if s.value.CompareAndSwap(nil, &zero) {
		return &zero
	}
	return s.value.Load()
}

// reset clears the slot back to empty, releasing its boxed value.
func (s *Slot[K, V]) reset(empty K) {
	s.Key = empty
	s.value.Store(nil)
}

// hostBacking is the default Backing implementation: a plain Go slice.
// residency records which domain currently believes it owns the storage
// (spec §5: "between upload and reclaim, the host must not touch the
// map"). It is set by OptimizeForAccelerator/OptimizeForHost and can be
// read with isHostResident; no host operation checks it.
type hostBacking[K comparable, V any] struct {
	slots     []Slot[K, V]
	residency atomic.Int32 // 0 = host, 1 = accelerator
}

const (
	residentHost = int32(0)
	residentAccel = int32(1)
)

func newHostBacking[K comparable, V any](size int, empty K) *hostBacking[K, V] {
	b := &hostBacking[K, V]{slots: make([]Slot[K, V], size)}
	for i := range b.slots {
		b.slots[i].Key = empty
	}
	return b
}

func (b *hostBacking[K, V]) Len() int { return len(b.slots) }

func (b *hostBacking[K, V]) At(i int) *Slot[K, V] { return &b.slots[i] }

func (b *hostBacking[K, V]) Slice() []Slot[K, V] { return b.slots }

func (b *hostBacking[K, V]) Swap(other Backing[K, V]) {
	o, ok := other.(*hostBacking[K, V])
	if !ok {
		panic("hashinator: Swap requires two hostBacking instances")
	}
	b.slots, o.slots = o.slots, b.slots
}

func (b *hostBacking[K, V]) OptimizeForAccelerator(s *Stream) {
	b.residency.Store(residentAccel)
}

func (b *hostBacking[K, V]) OptimizeForHost(s *Stream) {
	b.residency.Store(residentHost)
}

func (b *hostBacking[K, V]) isHostResident() bool {
	return b.residency.Load() == residentHost
}
