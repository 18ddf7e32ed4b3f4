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

import "github.com/cockroachdb/errors"

// Sentinel errors for the error kinds named in the map's error contract.
// Callers should compare against these with errors.Is rather than string
// matching, per github.com/cockroachdb/errors convention.
var (
	// ErrTooLarge is returned when a rehash would need to grow the table
	// past a size power of 32.
	ErrTooLarge = errors.New("hashinator: table exceeds maximum size power")

	// ErrSaturated is raised (via panic) by a device thread that exhausts
	// every slot in the backing without finding an empty one or its own
	// key. This mirrors the CUDA original's assert-and-abort: there is no
	// way to recover a single device thread once the whole table has no
	// vacancy left.
	ErrSaturated = errors.New("hashinator: table saturated during parallel insert")

	// ErrInvalidArgument is raised (via panic) by At, and so by Insert,
	// when a caller passes the EMPTY sentinel as a key.
	ErrInvalidArgument = errors.New("hashinator: EMPTY used as a key")

	// ErrResizeDuringParallelPhase is returned by Resize/ResizeToLoadFactor
	// when a DeviceView on the same map has not yet been reclaimed.
	ErrResizeDuringParallelPhase = errors.New("hashinator: cannot resize while a device view is outstanding")

	// ErrDeviceViewOutstanding is returned by Upload when the map already
	// has a DeviceView that has not yet been reclaimed.
	ErrDeviceViewOutstanding = errors.New("hashinator: a device view is already outstanding for this map")
)
