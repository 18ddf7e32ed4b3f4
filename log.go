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

import "github.com/rs/zerolog"

// Logger is the structured-logging seam described in SPEC_FULL.md §3.1.
// It wraps a zerolog.Logger (see NewLogger); the zero Logger, which holds
// no zerolog.Logger, disables logging entirely, matching the teacher's
// zero-cost-when-disabled
// `debug` const idiom (map.go's `if debug { fmt.Printf(...) }`) instead
// of requiring callers to configure a no-op logger.
type Logger struct {
	z *zerolog.Logger
}

// NewLogger wraps a zerolog.Logger for use with WithLogger.
func NewLogger(z zerolog.Logger) Logger {
	return Logger{z: &z}
}

func (l Logger) enabled() bool { return l.z != nil }

func (l Logger) rehashed(oldPower, newPower, fill int) {
	if !l.enabled() {
		return
	}
	l.z.Debug().
		Int("old_size_power", oldPower).
		Int("new_size_power", newPower).
		Int("fill", fill).
		Msg("hashinator: rehash complete")
}

func (l Logger) migrated(oldPower, newPower, activeIndex int) {
	if !l.enabled() {
		return
	}
	l.z.Debug().
		Int("old_size_power", oldPower).
		Int("new_size_power", newPower).
		Int("active_index", activeIndex).
		Msg("hashinator: bucket bank migration complete")
}

func (l Logger) reclaimed(fill, observedOverflow, overflowBound int, triggeredRehash bool) {
	if !l.enabled() {
		return
	}
	l.z.Debug().
		Int("fill", fill).
		Int("observed_overflow", observedOverflow).
		Int("overflow_bound", overflowBound).
		Bool("triggered_rehash", triggeredRehash).
		Msg("hashinator: reclaim complete")
}

func (l Logger) uploaded(fill, sizePower int) {
	if !l.enabled() {
		return
	}
	l.z.Debug().
		Int("fill", fill).
		Int("size_power", sizePower).
		Msg("hashinator: upload complete")
}
