/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package script runs player scripts against a simulation. The language is
// golisp; a small set of rover primitives (move-right, say, read-data, ...)
// bridges script calls into queued simulation actions. Evaluation goes form
// by form so every recorded state carries the source line that produced it.
package script

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/steelseries/golisp"

	applog "github.com/chris-ha458/elara/internal/log"
	"github.com/chris-ha458/elara/internal/sim"
)

// OpBudget bounds the work a single run may do (simulation steps plus
// primitive calls). Infinite loops hit the budget instead of hanging the app.
const OpBudget = 10000

// simulationEndSentinel marks the control-flow error primitives raise to
// unwind golisp once the outcome is terminal. It is never shown to users.
const simulationEndSentinel = "ELARA_SIMULATION_END"

// Result of a run. States and Lines are parallel; Lines[i] is the 1-based
// source line that produced States[i], 0 for the initial state.
type Result struct {
	States  []sim.State
	Lines   []int
	Outcome sim.Outcome
}

// session is the per-run state the primitives operate on. golisp primitives
// are process-global, so exactly one session is active at a time.
type session struct {
	sim        *sim.Simulation
	player     *sim.PlayerActor
	states     []sim.State
	lines      []int
	currLine   int
	ops        int
	budget     int
	overBudget bool
}

var (
	engineMu      sync.Mutex
	activeSession *session
	registerOnce  sync.Once
)

func (s *session) record(line int) {
	s.states = append(s.states, s.sim.CurrState())
	s.lines = append(s.lines, line)
}

// step advances the simulation once, records the state, and returns the
// sentinel error when the run is over.
func (s *session) step() error {
	if err := s.spend(1); err != nil {
		return err
	}
	out := s.sim.StepForward()
	s.record(s.currLine)
	if out.Terminal() {
		return errors.New(simulationEndSentinel)
	}
	return nil
}

func (s *session) spend(n int) error {
	s.ops += n
	if s.ops > s.budget {
		s.overBudget = true
		return errors.New(simulationEndSentinel)
	}
	return nil
}

func registerPrimitives() {
	moves := map[string]sim.Direction{
		"move-up":    sim.DirUp,
		"move-down":  sim.DirDown,
		"move-left":  sim.DirLeft,
		"move-right": sim.DirRight,
	}
	for name, dir := range moves {
		d := dir
		golisp.MakePrimitiveFunction(name, "0|1", func(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
			s := activeSession
			if s == nil {
				return nil, errors.New("no active run")
			}
			n, err := optionalCount(args)
			if err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				s.player.Enqueue(sim.Action{Kind: sim.ActionMove, Dir: d})
				if err := s.step(); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
	}

	golisp.MakePrimitiveFunction("wait", "0|1", func(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
		s := activeSession
		if s == nil {
			return nil, errors.New("no active run")
		}
		n, err := optionalCount(args)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			s.player.Enqueue(sim.Action{Kind: sim.ActionWait})
			if err := s.step(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	golisp.MakePrimitiveFunction("say", "1", func(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
		s := activeSession
		if s == nil {
			return nil, errors.New("no active run")
		}
		msg := golisp.Car(args)
		if !golisp.StringP(msg) {
			return nil, errors.New("say: expected a string")
		}
		s.player.Enqueue(sim.Action{Kind: sim.ActionSay, Message: golisp.StringValue(msg)})
		if err := s.step(); err != nil {
			return nil, err
		}
		return nil, nil
	})

	golisp.MakePrimitiveFunction("read-data", "0", func(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
		s := activeSession
		if s == nil {
			return nil, errors.New("no active run")
		}
		if err := s.spend(1); err != nil {
			return nil, err
		}
		st := s.sim.CurrState()
		for _, dp := range st.DataPoints {
			if adjacentOrSame(dp.Pos, st.Player.Pos) {
				return golisp.StringWithValue(dp.Data), nil
			}
		}
		return nil, errors.New("read-data: there is no data terminal next to the rover")
	})

	golisp.MakePrimitiveFunction("get-energy", "0", func(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
		s := activeSession
		if s == nil {
			return nil, errors.New("no active run")
		}
		if err := s.spend(1); err != nil {
			return nil, err
		}
		return golisp.IntegerWithValue(int64(s.sim.CurrState().Player.Energy)), nil
	})

	golisp.MakePrimitiveFunction("get-position", "0", func(args *golisp.Data, env *golisp.SymbolTableFrame) (*golisp.Data, error) {
		s := activeSession
		if s == nil {
			return nil, errors.New("no active run")
		}
		if err := s.spend(1); err != nil {
			return nil, err
		}
		p := s.sim.CurrState().Player.Pos
		return golisp.ArrayToList([]*golisp.Data{
			golisp.IntegerWithValue(int64(p.X)),
			golisp.IntegerWithValue(int64(p.Y)),
		}), nil
	})
}

func optionalCount(args *golisp.Data) (int, error) {
	if golisp.Length(args) == 0 {
		return 1, nil
	}
	arg := golisp.Car(args)
	if !golisp.IntegerP(arg) {
		return 0, errors.New("expected an integer count")
	}
	n := int(golisp.IntegerValue(arg))
	if n < 0 {
		return 0, errors.New("count must not be negative")
	}
	return n, nil
}

func adjacentOrSame(a, b sim.Pos) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy <= 1
}

// Runner evaluates scripts. Safe for concurrent use; runs are serialized
// internally because the golisp primitive table is global.
type Runner struct {
	budget int
	log    *slog.Logger
}

func NewRunner() *Runner {
	return &Runner{budget: OpBudget, log: applog.WithComponent("script")}
}

// Run evaluates source against a fresh simulation built from the given
// pieces. On success the Error is nil and the Result holds every recorded
// state with its source line. On a script error the Result still holds the
// states produced before the failure.
func (r *Runner) Run(source string, initial sim.State, player *sim.PlayerActor, actors []sim.Actor, checker sim.OutcomeChecker) (*Result, *Error) {
	forms, serr := splitForms(source)
	if serr != nil {
		return nil, serr
	}

	registerOnce.Do(registerPrimitives)

	engineMu.Lock()
	defer engineMu.Unlock()

	s := &session{
		sim:    sim.NewSimulation(initial, actors, checker),
		player: player,
		budget: r.budget,
	}
	s.record(0) // initial state, no line annotation
	activeSession = s
	defer func() { activeSession = nil }()

	env := golisp.NewSymbolTableFrameBelow(golisp.Global, "elara-run")

	var runErr *Error
	for _, f := range forms {
		s.currLine = f.Line
		_, err := golisp.ParseAndEvalInEnvironment(f.Text, env)
		if err == nil {
			continue
		}
		if strings.Contains(err.Error(), simulationEndSentinel) {
			if s.overBudget {
				runErr = errAt(f.Line, f.Col, "script exceeded the limit of %d operations (is there an infinite loop?)", r.budget)
			}
			break
		}
		runErr = errAt(f.Line, f.Col, "%s", cleanMessage(err.Error()))
		break
	}

	res := &Result{States: s.states, Lines: s.lines, Outcome: s.sim.LastOutcome()}
	r.log.Debug("run finished",
		"steps", len(s.states)-1, "ops", s.ops, "outcome", int(res.Outcome.Kind), "err", runErr != nil)
	return res, runErr
}

// cleanMessage strips golisp's error prefixes so diagnostics read naturally
// in the editor gutter.
func cleanMessage(msg string) string {
	for _, prefix := range []string{"Error in evaluation:", "Evaluation error:", "Parse error:"} {
		if strings.HasPrefix(msg, prefix) {
			msg = strings.TrimSpace(strings.TrimPrefix(msg, prefix))
		}
	}
	return msg
}
