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
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// Stream stands in for a CUDA stream: a pool of goroutines that "kernel
// launches" run on, plus a completion barrier for whatever asynchronous
// transfer Upload/Reclaim scheduled on it. One Stream can be shared
// across several maps' Upload/Reclaim pairs and across LaunchKernel
// calls, mirroring how a real CUDA stream orders and overlaps work
// issued to it.
type Stream struct {
	pool *ants.Pool
	g    errgroup.Group
}

// NewStream creates a Stream backed by a goroutine pool of the given
// size (spec §4.7; concurrency model grounded on
// matrixorigin-matrixone's scheduler.go ants.Pool usage).
func NewStream(poolSize int) (*Stream, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &Stream{pool: pool}, nil
}

// Wait blocks until every transfer and kernel issued on the stream has
// completed, returning the first error encountered, matching
// cudaStreamSynchronize.
func (s *Stream) Wait() error {
	return s.g.Wait()
}

// Close releases the stream's goroutine pool. Call once no more work
// will be issued on this stream.
func (s *Stream) Close() {
	s.pool.Release()
}

// runOnPool submits fn to the stream's ants.Pool worker set and blocks
// the calling goroutine until that worker runs it, bridging Submit's
// bare func() signature to an error return. Callers wrap this in
// s.g.Go so Wait's errgroup still owns completion/error propagation;
// the pool's own worker goroutine is what actually executes fn. A panic
// in fn is caught on the worker and re-raised on the calling goroutine,
// since the pool itself recovers worker panics.
func (s *Stream) runOnPool(fn func() error) error {
	done := make(chan error, 1)
	panicked := make(chan any, 1)
	if err := s.pool.Submit(func() {
		defer func() {
			if p := recover(); p != nil {
				panicked <- p
			}
		}()
		done <- fn()
	}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case p := <-panicked:
		panic(p)
	}
}

// Upload snapshots a Map's active backing and counters into a
// DeviceView and marks the backing accelerator-resident (spec §4.7).
// The "asynchronous transfer" is modeled as a stream-scoped goroutine so
// Upload itself returns immediately without blocking the caller; call
// stream.Wait() (or Reclaim, which does so internally) to observe its
// completion.
func Upload[K AtomicKey, V any](m *Map[K, V], s *Stream) (*DeviceView[K, V], error) {
	if m.deviceOutstanding {
		return nil, ErrDeviceViewOutstanding
	}
	m.deviceOutstanding = true

	view := &DeviceView[K, V]{
		backing:       m.backing,
		hasher:        m.hasher,
		empty:         m.empty,
		sizePower:     m.sizePower,
		overflowBound: m.overflowBound,
	}
	view.fill.Store(int64(m.fill))
	view.observedOverflow.Store(int64(m.observedOverflow))

	backing := m.backing
	s.g.Go(func() error {
		return s.runOnPool(func() error {
			backing.OptimizeForAccelerator(s)
			return nil
		})
	})

	m.logger.uploaded(m.fill, m.sizePower)
	return view, nil
}

// Reclaim blocks until stream's outstanding work completes, reads
// fill/observedOverflow back from the DeviceView, marks the backing
// host-resident again, and — the only point at which device-side growth
// can trigger a rehash — grows the table if the reclaimed
// observedOverflow exceeds the host's overflow_bound (spec §4.7).
func Reclaim[K AtomicKey, V any](m *Map[K, V], view *DeviceView[K, V], s *Stream) error {
	if err := s.Wait(); err != nil {
		return err
	}

	m.fill = int(view.fill.Load())
	m.observedOverflow = int(view.observedOverflow.Load())
	m.backing.OptimizeForHost(s)
	m.deviceOutstanding = false

	triggeredRehash := m.observedOverflow > m.overflowBound
	var err error
	if triggeredRehash {
		err = m.rehash(m.sizePower + 1)
	}
	m.logger.reclaimed(m.fill, m.observedOverflow, m.overflowBound, triggeredRehash)
	return err
}

// LaunchKernel runs fn(view, threadID) for threadID in [0, n): each
// invocation is submitted to the stream's ants.Pool, so the number of
// threads actually running fn concurrently is bounded by the pool's own
// worker count rather than by a separately tracked limit, and blocks
// until every invocation returns — the way tests and demonstrations
// drive §4.5's algorithm with real goroutines and real sync/atomic
// contention rather than a mock. There is no cancellation: per spec §7,
// a kernel either completes or the whole process aborts, so a Saturated
// panic from fn is re-raised by runOnPool on the goroutine that
// submitted it, where nothing recovers it.
func LaunchKernel[K AtomicKey, V any](s *Stream, view *DeviceView[K, V], n int, fn func(view *DeviceView[K, V], threadID int)) error {
	var g errgroup.Group
	for t := 0; t < n; t++ {
		t := t
		g.Go(func() error {
			return s.runOnPool(func() error {
				fn(view, t)
				return nil
			})
		})
	}
	return g.Wait()
}
