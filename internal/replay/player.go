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
	"time"
)

// Config controls playback pacing.
type Config struct {
	// StepsPerSecond is the continuous-play rate. Values <= 0 fall back to
	// DefaultStepsPerSecond.
	StepsPerSecond float64
}

// DefaultStepsPerSecond is used when no rate is configured.
const DefaultStepsPerSecond = 2.0

// Interval returns the wall-clock duration of one step.
func (c Config) Interval() time.Duration {
	rate := c.StepsPerSecond
	if rate <= 0 {
		rate = DefaultStepsPerSecond
	}
	return time.Duration(float64(time.Second) / rate)
}

// FrameFunc receives (index, frame) for every cursor advance, exactly once
// per index during continuous play. Callbacks must not call back into the
// Player; they run on the caller's goroutine.
type FrameFunc func(index int, frame Frame)

// DoneFunc fires exactly once when the cursor reaches the end of the
// sequence, whether by ticking or by forward stepping. Pause and Stop never
// fire it.
type DoneFunc func()

// Player holds the playback cursor for one run. The cursor lives in
// [0, Len()]; Len() means finished. Ticks, steps, and control calls are
// serialized internally; a generation counter invalidates ticks scheduled
// before a Pause or Stop so a cancelled player can never emit late frames.
type Player struct {
	// emitMu serializes callback delivery across goroutines. It is acquired
	// before mu, and held from cursor advance through the last callback of
	// that advance, so a manual step can never interleave its frame into a
	// tick's catch-up emission.
	emitMu sync.Mutex

	mu       sync.Mutex
	seq      *Sequence
	interval time.Duration
	onFrame  FrameFunc
	onDone   DoneFunc

	cursor    int
	playing   bool
	stopped   bool
	doneFired bool

	gen      uint64
	playBase int       // cursor value when playback was (re)started
	playFrom time.Time // wall-clock anchor of the current play segment
}

// NewPlayer builds a player over seq. Either callback may be nil.
func NewPlayer(seq *Sequence, cfg Config, onFrame FrameFunc, onDone DoneFunc) *Player {
	return &Player{
		seq:      seq,
		interval: cfg.Interval(),
		onFrame:  onFrame,
		onDone:   onDone,
	}
}

// Cursor returns the current cursor position in [0, Len()].
func (p *Player) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Playing reports whether continuous playback is active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Finished reports whether the cursor has reached the end.
func (p *Player) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor >= p.seq.Len()
}

// Start begins or resumes continuous playback anchored at now and returns
// the tick generation. Ticks carrying an older generation are ignored.
// No-op (returning the current generation) if already playing, stopped, or
// finished.
func (p *Player) Start(now time.Time) uint64 {
	p.mu.Lock()
	if p.playing || p.stopped {
		g := p.gen
		p.mu.Unlock()
		return g
	}
	if p.cursor >= p.seq.Len() {
		// an empty or already-finished sequence completes immediately
		g := p.gen
		p.mu.Unlock()
		p.emitMu.Lock()
		p.fireDone()
		p.emitMu.Unlock()
		return g
	}
	p.gen++
	p.playing = true
	p.playBase = p.cursor
	p.playFrom = now
	g := p.gen
	p.mu.Unlock()
	return g
}

// Pause halts ticking without moving the cursor. No-op if not playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.gen++
	p.playing = false
}

// Stop cancels playback permanently and releases the sequence. After Stop
// no callback of any kind fires again.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.playing = false
	p.stopped = true
	p.seq = nil
}

// Tick advances playback according to wall-clock time. The driver passes the
// generation it obtained from Start; a stale generation means a Pause, Stop,
// or restart happened in between and the tick is dropped whole.
func (p *Player) Tick(gen uint64, now time.Time) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if gen != p.gen || !p.playing || p.stopped {
		p.mu.Unlock()
		return
	}
	elapsed := now.Sub(p.playFrom)
	target := p.playBase + int(elapsed/p.interval)
	length := p.seq.Len()
	if target > length {
		target = length
	}
	if target <= p.cursor {
		p.mu.Unlock()
		return
	}
	// emit every index between the old and new cursor, never just the last
	emit := make([]Frame, 0, target-p.cursor)
	first := p.cursor
	for i := p.cursor; i < target; i++ {
		f, _ := p.seq.At(i)
		emit = append(emit, f)
	}
	p.cursor = target
	finished := target == length
	if finished {
		p.playing = false
	}
	p.mu.Unlock()

	for off, f := range emit {
		if !p.genAlive(gen) {
			return
		}
		if p.onFrame != nil {
			p.onFrame(first+off, f)
		}
	}
	if finished && p.genAlive(gen) {
		p.fireDone()
	}
}

// StepForward moves the cursor one frame ahead and emits its callback
// synchronously, in play or pause alike. Reaching the end fires completion.
// No-op at the end.
func (p *Player) StepForward() {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if p.stopped || p.cursor >= p.seq.Len() {
		p.mu.Unlock()
		return
	}
	idx := p.cursor
	f, _ := p.seq.At(idx)
	p.cursor++
	finished := p.cursor == p.seq.Len()
	if finished {
		p.playing = false
	}
	// re-anchor an active play segment so ticking continues from the
	// stepped-to index instead of jumping back
	if p.playing {
		p.playBase = p.cursor
		p.playFrom = time.Now()
	}
	p.mu.Unlock()

	if p.onFrame != nil {
		p.onFrame(idx, f)
	}
	if finished {
		p.fireDone()
	}
}

// StepBackward moves the cursor one frame back and replays that frame's
// callback synchronously. No-op at the start. Never fires completion.
func (p *Player) StepBackward() {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if p.stopped || p.cursor <= 0 {
		p.mu.Unlock()
		return
	}
	p.cursor--
	idx := p.cursor
	f, _ := p.seq.At(idx)
	if p.playing {
		p.playBase = p.cursor
		p.playFrom = time.Now()
	}
	p.mu.Unlock()

	if p.onFrame != nil {
		p.onFrame(idx, f)
	}
}

// Gen returns the current tick generation, for drivers that need to refresh.
func (p *Player) Gen() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func (p *Player) genAlive(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.gen && !p.stopped
}

func (p *Player) fireDone() {
	p.mu.Lock()
	if p.doneFired || p.stopped {
		p.mu.Unlock()
		return
	}
	p.doneFired = true
	p.mu.Unlock()
	if p.onDone != nil {
		p.onDone()
	}
}
