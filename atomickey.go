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
	"sync/atomic"
	"unsafe"
)

// AtomicKey narrows integerKey to exactly the key kinds DeviceView can
// operate on with sync/atomic: Go's atomic package only understands
// fixed machine-width scalars, so a key must be exactly 4 or 8 bytes
// wide for compareAndSwapKey/loadKey below to reinterpret its address as
// a *uint32 or *uint64 (spec §6.6). This is the same unsafe.Pointer
// reinterpretation trick hash.go's fibonacciHasherForAuto already uses
// for the Fibonacci fast path, applied here to the key's storage instead
// of a copy of its value.
type AtomicKey interface {
	integerKey
}

// compareAndSwapKey atomically swaps *addr from old to new and reports
// success, implementing spec §4.5 step 1's CAS(slot[i].key, EMPTY, k).
// On failure it also returns the value actually observed at *addr, so
// callers can immediately test it against EMPTY/k without a second load.
func compareAndSwapKey[K AtomicKey](addr *K, old, new K) (observed K, swapped bool) {
	switch unsafe.Sizeof(*addr) {
	case 4:
		p := (*uint32)(unsafe.Pointer(addr))
		o := *(*uint32)(unsafe.Pointer(&old))
		n := *(*uint32)(unsafe.Pointer(&new))
		if atomic.CompareAndSwapUint32(p, o, n) {
			return new, true
		}
		got := atomic.LoadUint32(p)
		return *(*K)(unsafe.Pointer(&got)), false
	case 8:
		p := (*uint64)(unsafe.Pointer(addr))
		o := *(*uint64)(unsafe.Pointer(&old))
		n := *(*uint64)(unsafe.Pointer(&new))
		if atomic.CompareAndSwapUint64(p, o, n) {
			return new, true
		}
		got := atomic.LoadUint64(p)
		return *(*K)(unsafe.Pointer(&got)), false
	default:
		panic("hashinator: unsupported key width for atomic access")
	}
}

// loadKey atomically loads *addr, used by the device read/find paths so
// a concurrent inserter's CAS is guaranteed to either be fully visible
// or not visible at all (spec §5, "per-slot atomicity").
func loadKey[K AtomicKey](addr *K) K {
	switch unsafe.Sizeof(*addr) {
	case 4:
		v := atomic.LoadUint32((*uint32)(unsafe.Pointer(addr)))
		return *(*K)(unsafe.Pointer(&v))
	case 8:
		v := atomic.LoadUint64((*uint64)(unsafe.Pointer(addr)))
		return *(*K)(unsafe.Pointer(&v))
	default:
		panic("hashinator: unsupported key width for atomic access")
	}
}

// exchangeKey atomically stores new into *addr and returns the previous
// value, implementing the "atomicExch on each field" erase step spec
// §4.6 calls for on the parallel side.
func exchangeKey[K AtomicKey](addr *K, new K) (previous K) {
	switch unsafe.Sizeof(*addr) {
	case 4:
		n := *(*uint32)(unsafe.Pointer(&new))
		old := atomic.SwapUint32((*uint32)(unsafe.Pointer(addr)), n)
		return *(*K)(unsafe.Pointer(&old))
	case 8:
		n := *(*uint64)(unsafe.Pointer(&new))
		old := atomic.SwapUint64((*uint64)(unsafe.Pointer(addr)), n)
		return *(*K)(unsafe.Pointer(&old))
	default:
		panic("hashinator: unsupported key width for atomic access")
	}
}
