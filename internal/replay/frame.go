/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package replay turns the states a script run produced all at once into a
// timeline the learner watches at a controllable pace. A Player owns a cursor
// into an immutable frame sequence and supports play, pause, single stepping
// in both directions, and cancellation that is safe against stale clock ticks.
package replay

import "github.com/chris-ha458/elara/internal/sim"

// Frame is one world-state snapshot with the 1-based source line that
// produced it. Line 0 means the frame has no annotation (the initial state).
type Frame struct {
	State sim.State
	Line  int
}

// Sequence is an ordered, immutable list of frames from one run. An empty
// sequence is legal and plays back as immediately finished.
type Sequence struct {
	frames []Frame
}

// NewSequence copies frames into an immutable sequence.
func NewSequence(frames []Frame) *Sequence {
	return &Sequence{frames: append([]Frame(nil), frames...)}
}

// FromRun zips parallel state and line slices into a sequence. A nil or
// short lines slice leaves the remaining frames unannotated.
func FromRun(states []sim.State, lines []int) *Sequence {
	frames := make([]Frame, len(states))
	for i, st := range states {
		frames[i] = Frame{State: st}
		if i < len(lines) {
			frames[i].Line = lines[i]
		}
	}
	return &Sequence{frames: frames}
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// At returns the frame at index i, or false when i is out of bounds.
func (s *Sequence) At(i int) (Frame, bool) {
	if s == nil || i < 0 || i >= len(s.frames) {
		return Frame{}, false
	}
	return s.frames[i], true
}
