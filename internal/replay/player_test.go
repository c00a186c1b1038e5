/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package replay

import (
	"sync"
	"testing"
	"time"

	"github.com/chris-ha458/elara/internal/sim"
)

func seqOf(n int) *Sequence {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{
			State: sim.State{Player: sim.Player{Pos: sim.Pos{X: i}}, Step: i},
			Line:  i + 1,
		}
	}
	return NewSequence(frames)
}

type recorder struct {
	indices []int
	frames  []Frame
	done    int
}

func (r *recorder) onFrame(i int, f Frame) {
	r.indices = append(r.indices, i)
	r.frames = append(r.frames, f)
}

func (r *recorder) onDone() { r.done++ }

func newTestPlayer(n int) (*Player, *recorder) {
	rec := &recorder{}
	p := NewPlayer(seqOf(n), Config{StepsPerSecond: 10}, rec.onFrame, rec.onDone)
	return p, rec
}

func TestContinuousPlayEmitsEveryIndexOnce(t *testing.T) {
	for _, n := range []int{0, 1, 5, 20} {
		p, rec := newTestPlayer(n)
		t0 := time.Now()
		gen := p.Start(t0)
		// one giant tick far past the end coalesces everything
		p.Tick(gen, t0.Add(time.Hour))
		if len(rec.indices) != n {
			t.Fatalf("n=%d: emitted %v", n, rec.indices)
		}
		for i, idx := range rec.indices {
			if idx != i {
				t.Fatalf("n=%d: indices out of order: %v", n, rec.indices)
			}
		}
		if rec.done != 1 {
			t.Fatalf("n=%d: completion fired %d times", n, rec.done)
		}
		// a further tick must not emit anything more
		p.Tick(gen, t0.Add(2*time.Hour))
		if len(rec.indices) != n || rec.done != 1 {
			t.Fatalf("n=%d: callbacks after completion", n)
		}
	}
}

func TestStepDuringTickEmissionKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once

	p := NewPlayer(seqOf(5), Config{StepsPerSecond: 10}, func(i int, _ Frame) {
		mu.Lock()
		got = append(got, i)
		mu.Unlock()
		if i == 0 {
			// hold the tick's emission open so the step races it
			enteredOnce.Do(func() { close(entered) })
			<-release
		}
	}, nil)

	t0 := time.Now()
	gen := p.Start(t0)

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		p.Tick(gen, t0.Add(350*time.Millisecond)) // catch-up over frames 0,1,2
	}()
	<-entered

	stepDone := make(chan struct{})
	go func() {
		defer close(stepDone)
		p.StepForward()
	}()

	time.Sleep(50 * time.Millisecond) // let the step reach the player
	close(release)
	<-tickDone
	<-stepDone

	mu.Lock()
	defer mu.Unlock()
	want := []int{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("frame indices: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame callbacks out of order: %v", got)
		}
	}
}

func TestTickAdvancesByElapsedTime(t *testing.T) {
	p, rec := newTestPlayer(10)
	t0 := time.Now()
	gen := p.Start(t0) // 10 steps/sec -> 100ms interval

	p.Tick(gen, t0.Add(50*time.Millisecond))
	if len(rec.indices) != 0 {
		t.Fatalf("early tick emitted: %v", rec.indices)
	}
	p.Tick(gen, t0.Add(250*time.Millisecond))
	if len(rec.indices) != 2 || rec.indices[0] != 0 || rec.indices[1] != 1 {
		t.Fatalf("after 2.5 intervals: %v", rec.indices)
	}
	if p.Cursor() != 2 {
		t.Fatalf("cursor: %d", p.Cursor())
	}
	// same target again: no callback fires on this tick
	p.Tick(gen, t0.Add(260*time.Millisecond))
	if len(rec.indices) != 2 {
		t.Fatalf("duplicate emission: %v", rec.indices)
	}
}

func TestStepClampsAtBothEnds(t *testing.T) {
	p, rec := newTestPlayer(2)

	p.StepBackward()
	if len(rec.indices) != 0 {
		t.Fatalf("step back at 0 emitted: %v", rec.indices)
	}

	p.StepForward() // -> 1, emits 0
	p.StepForward() // -> 2 (end), emits 1, fires done
	if len(rec.indices) != 2 || rec.done != 1 {
		t.Fatalf("emitted %v, done %d", rec.indices, rec.done)
	}

	p.StepForward() // at end: no-op
	if len(rec.indices) != 2 || rec.done != 1 {
		t.Fatalf("step at end emitted: %v done=%d", rec.indices, rec.done)
	}

	p.StepBackward() // -> 1, replays frame 1
	if len(rec.indices) != 3 || rec.indices[2] != 1 {
		t.Fatalf("step back: %v", rec.indices)
	}
	if rec.done != 1 {
		t.Fatalf("done must fire at most once")
	}
}

func TestPauseStepPlayResumesFromSteppedIndex(t *testing.T) {
	p, rec := newTestPlayer(6)
	t0 := time.Now()
	gen := p.Start(t0)
	p.Tick(gen, t0.Add(210*time.Millisecond)) // emits 0,1; cursor 2
	p.Pause()
	if p.Playing() {
		t.Fatalf("still playing after pause")
	}

	p.StepForward() // emits 2; cursor 3
	if rec.indices[len(rec.indices)-1] != 2 {
		t.Fatalf("step emission: %v", rec.indices)
	}

	// a stale tick with the old generation must be dropped
	p.Tick(gen, t0.Add(time.Hour))
	if len(rec.indices) != 3 {
		t.Fatalf("stale tick emitted: %v", rec.indices)
	}

	t1 := time.Now()
	gen2 := p.Start(t1)
	if gen2 == gen {
		t.Fatalf("generation must advance on restart")
	}
	p.Tick(gen2, t1.Add(350*time.Millisecond)) // 3 intervals: emits 3,4,5
	if len(rec.indices) != 6 || rec.done != 1 {
		t.Fatalf("resume: %v done=%d", rec.indices, rec.done)
	}
	for i, idx := range rec.indices {
		if idx != i {
			t.Fatalf("order: %v", rec.indices)
		}
	}
}

func TestStartWhilePlayingIsNoOp(t *testing.T) {
	p, _ := newTestPlayer(3)
	t0 := time.Now()
	gen := p.Start(t0)
	if g := p.Start(t0.Add(time.Second)); g != gen {
		t.Fatalf("second start changed generation: %d -> %d", gen, g)
	}
}

func TestStopSilencesEverything(t *testing.T) {
	p, rec := newTestPlayer(5)
	t0 := time.Now()
	gen := p.Start(t0)
	p.Tick(gen, t0.Add(110*time.Millisecond)) // emits 0

	p.Stop()
	// a tick that was already scheduled fires after cancel: must do nothing
	p.Tick(gen, t0.Add(time.Hour))
	p.StepForward()
	p.StepBackward()
	if len(rec.indices) != 1 || rec.done != 0 {
		t.Fatalf("callbacks after stop: %v done=%d", rec.indices, rec.done)
	}
	if p.Start(time.Now()) != p.Gen() {
		t.Fatalf("start after stop should be inert")
	}
	if p.Playing() {
		t.Fatalf("playing after stop")
	}
}

func TestFrameAnnotationsReachCallback(t *testing.T) {
	p, rec := newTestPlayer(3)
	p.StepForward()
	p.StepForward()
	if rec.frames[0].Line != 1 || rec.frames[1].Line != 2 {
		t.Fatalf("frame lines: %+v", rec.frames)
	}
	if rec.frames[1].State.Player.Pos.X != 1 {
		t.Fatalf("frame state: %+v", rec.frames[1].State.Player)
	}
}

func TestSequenceAccess(t *testing.T) {
	s := seqOf(2)
	if s.Len() != 2 {
		t.Fatalf("len: %d", s.Len())
	}
	if _, ok := s.At(-1); ok {
		t.Fatalf("negative index allowed")
	}
	if _, ok := s.At(2); ok {
		t.Fatalf("out of range index allowed")
	}
	f, ok := s.At(1)
	if !ok || f.Line != 2 {
		t.Fatalf("At(1): %+v %v", f, ok)
	}

	var nilSeq *Sequence
	if nilSeq.Len() != 0 {
		t.Fatalf("nil sequence length")
	}
}

func TestFromRunZipsLines(t *testing.T) {
	states := []sim.State{{Step: 0}, {Step: 1}, {Step: 2}}
	s := FromRun(states, []int{0, 4})
	if s.Len() != 3 {
		t.Fatalf("len: %d", s.Len())
	}
	f0, _ := s.At(0)
	f1, _ := s.At(1)
	f2, _ := s.At(2)
	if f0.Line != 0 || f1.Line != 4 || f2.Line != 0 {
		t.Fatalf("lines: %d %d %d", f0.Line, f1.Line, f2.Line)
	}
}

func TestDriverPlaysToCompletion(t *testing.T) {
	rec := &recorder{}
	done := make(chan struct{})
	p := NewPlayer(seqOf(4), Config{StepsPerSecond: 50}, rec.onFrame, func() {
		rec.onDone()
		close(done)
	})
	d := StartDriver(p)
	defer d.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("driver did not finish playback")
	}
	if len(rec.indices) != 4 || rec.done != 1 {
		t.Fatalf("driver playback: %v done=%d", rec.indices, rec.done)
	}
}
