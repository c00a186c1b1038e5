/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"log/slog"
	"sync"

	applog "github.com/chris-ha458/elara/internal/log"
	"github.com/chris-ha458/elara/internal/replay"
	"github.com/chris-ha458/elara/internal/script"
	"github.com/chris-ha458/elara/internal/sim"
)

// State of the controller. All UI controls read it; only the controller
// transitions it.
type State int

const (
	StateEditing State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// ErrNotEditing is returned when a run is requested while a previous run is
// still active. The request is a no-op; cancel or wait for completion first.
var ErrNotEditing = errors.New("a run is already active")

// Interpreter produces a frame sequence (or a script error) from source
// text. contextID names the level the script runs against.
type Interpreter interface {
	Run(source, contextID string) (*replay.Sequence, sim.Outcome, *script.Error)
}

// Saver receives the latest script text on run start, cancel, and
// completion, for out-of-band persistence. The controller never reads
// persisted state back.
type Saver interface {
	SaveScript(contextID, source string) error
}

// Hooks are the host-facing callbacks. Any of them may be nil.
type Hooks struct {
	// OnFrame fires per advanced frame, for board redraw.
	OnFrame func(index int, frame replay.Frame)
	// OnDone fires once per finished run with the run's outcome.
	OnDone func(outcome sim.Outcome)
	// OnDiagnostic mirrors the diagnostic set on the view, nil on clear.
	OnDiagnostic func(r *TextRange)
	// OnState fires after every state transition.
	OnState func(s State)
}

// Controller is the finite-state coordinator between the interpreter, the
// replay player, and the host editor view. One controller per open level.
type Controller struct {
	mu     sync.Mutex
	state  State
	interp Interpreter
	view   View
	saver  Saver
	hooks  Hooks
	cfg    replay.Config
	log    *slog.Logger

	contextID   string
	source      string
	outcome     sim.Outcome
	player      *replay.Player
	driver      *replay.Driver
	runSeq      uint64 // guards callbacks from torn-down players
	runInFlight bool   // a Run call is between gate and player install
}

func NewController(interp Interpreter, view View, saver Saver, hooks Hooks, cfg replay.Config) *Controller {
	return &Controller{
		state:  StateEditing,
		interp: interp,
		view:   view,
		saver:  saver,
		hooks:  hooks,
		cfg:    cfg,
		log:    applog.WithComponent("editor"),
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run executes source against contextID. On success the controller holds a
// fresh paused replay so the learner can inspect before watching. On a
// script error it stays in editing and displays a diagnostic. Returns
// ErrNotEditing while a previous run is active, and the script error (also
// shown inline) when the script fails.
func (c *Controller) Run(source, contextID string) error {
	c.mu.Lock()
	if c.state != StateEditing || c.runInFlight {
		c.mu.Unlock()
		c.log.Debug("run rejected", "state", c.state.String())
		return ErrNotEditing
	}
	c.runInFlight = true
	c.source = source
	c.contextID = contextID
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.runInFlight = false
		c.mu.Unlock()
	}()

	c.saveScript(contextID, source)
	c.setDiagnostic(nil)
	c.setHighlight(nil)

	seq, outcome, serr := c.interp.Run(source, contextID)
	if serr != nil {
		if serr.Positioned() {
			r := Resolve(NewDocument(source), serr)
			c.setDiagnostic(&r)
		} else {
			c.log.Warn("script failed without a position", "err", serr.Message)
			r := TextRange{Message: serr.Message, Severity: SeverityError}
			c.notifyDiagnostic(&r)
		}
		return serr
	}

	c.mu.Lock()
	c.runSeq++
	mySeq := c.runSeq
	c.outcome = outcome
	c.player = replay.NewPlayer(seq, c.cfg,
		func(i int, f replay.Frame) { c.handleFrame(mySeq, i, f) },
		func() { c.handleDone(mySeq) },
	)
	c.state = StatePaused
	c.mu.Unlock()

	c.notifyState(StatePaused)
	return nil
}

// Play resumes continuous playback. No-op unless paused.
func (c *Controller) Play() {
	c.mu.Lock()
	if c.state != StatePaused || c.player == nil {
		c.mu.Unlock()
		return
	}
	c.state = StateRunning
	p := c.player
	c.mu.Unlock()

	d := replay.StartDriver(p)
	c.mu.Lock()
	if c.player == p && c.state == StateRunning {
		c.driver = d
		c.mu.Unlock()
	} else {
		c.mu.Unlock()
		d.Stop()
		return
	}
	c.notifyState(StateRunning)
}

// Pause halts playback, keeping the cursor. No-op unless running.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state != StateRunning || c.player == nil {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	p, d := c.player, c.driver
	c.driver = nil
	c.mu.Unlock()

	p.Pause()
	if d != nil {
		d.Stop()
	}
	c.notifyState(StatePaused)
}

// StepForward advances one frame in running or paused state.
func (c *Controller) StepForward() {
	if p := c.activePlayer(); p != nil {
		p.StepForward()
	}
}

// StepBackward rewinds one frame in running or paused state.
func (c *Controller) StepBackward() {
	if p := c.activePlayer(); p != nil {
		p.StepBackward()
	}
}

func (c *Controller) activePlayer() *replay.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateEditing {
		return nil
	}
	return c.player
}

// Cancel tears the current replay down and returns to editing, saving the
// in-progress script text. Safe to call in any state.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state == StateEditing && c.player == nil {
		c.mu.Unlock()
		return
	}
	c.runSeq++
	p, d := c.player, c.driver
	src, ctx := c.source, c.contextID
	c.player, c.driver = nil, nil
	c.state = StateEditing
	c.mu.Unlock()

	if p != nil {
		p.Stop()
	}
	if d != nil {
		d.Stop()
	}
	c.setHighlight(nil)
	c.setDiagnostic(nil)
	c.saveScript(ctx, src)
	c.notifyState(StateEditing)
}

// handleFrame forwards a frame to the host and syncs the line highlight.
func (c *Controller) handleFrame(runSeq uint64, index int, frame replay.Frame) {
	c.mu.Lock()
	stale := runSeq != c.runSeq
	c.mu.Unlock()
	if stale {
		return
	}

	if frame.Line > 0 && c.view != nil {
		if span, ok := c.view.LineSpan(frame.Line); ok {
			c.setHighlight(&TextRange{From: span.Start, To: span.Start + span.Length})
		} else {
			c.log.Warn("frame annotation outside the document", "line", frame.Line)
			c.setHighlight(nil)
		}
	} else {
		c.setHighlight(nil)
	}
	if c.hooks.OnFrame != nil {
		c.hooks.OnFrame(index, frame)
	}
}

// handleDone finishes the run: back to editing, persist, report the outcome.
func (c *Controller) handleDone(runSeq uint64) {
	c.mu.Lock()
	if runSeq != c.runSeq {
		c.mu.Unlock()
		return
	}
	c.runSeq++
	outcome := c.outcome
	src, ctx := c.source, c.contextID
	c.player, c.driver = nil, nil
	c.state = StateEditing
	c.mu.Unlock()

	c.setHighlight(nil)
	c.saveScript(ctx, src)
	c.notifyState(StateEditing)
	if c.hooks.OnDone != nil {
		c.hooks.OnDone(outcome)
	}
}

func (c *Controller) setHighlight(r *TextRange) {
	if c.view != nil {
		c.view.SetHighlight(r)
	}
}

func (c *Controller) setDiagnostic(r *TextRange) {
	if c.view != nil {
		c.view.SetDiagnostic(r)
	}
	c.notifyDiagnostic(r)
}

func (c *Controller) notifyDiagnostic(r *TextRange) {
	if c.hooks.OnDiagnostic != nil {
		c.hooks.OnDiagnostic(r)
	}
}

func (c *Controller) notifyState(s State) {
	if c.hooks.OnState != nil {
		c.hooks.OnState(s)
	}
}

func (c *Controller) saveScript(contextID, source string) {
	if c.saver == nil || source == "" {
		return
	}
	if err := c.saver.SaveScript(contextID, source); err != nil {
		c.log.Warn("saving script failed", "context", contextID, "err", err)
	}
}
