/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package sim

// OutcomeKind classifies the result of an objective check after a step.
type OutcomeKind int

const (
	// OutcomeContinue means the run is still going.
	OutcomeContinue OutcomeKind = iota
	// OutcomeSuccess means the level objective is met.
	OutcomeSuccess
	// OutcomeFailure means a failure condition triggered; Message explains it.
	OutcomeFailure
	// OutcomeNoObjective is used by sandbox levels without win conditions.
	OutcomeNoObjective
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeNoObjective:
		return "no_objective"
	default:
		return "continue"
	}
}

// Outcome is the objective checker's verdict for one state.
type Outcome struct {
	Kind    OutcomeKind
	Message string // set for OutcomeFailure
}

// Terminal reports whether the outcome ends the run.
func (o Outcome) Terminal() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeFailure
}

// OutcomeChecker evaluates a state against the current level's rules.
type OutcomeChecker interface {
	Check(state State) Outcome
}

// OutcomeCheckerFunc adapts a plain function to OutcomeChecker.
type OutcomeCheckerFunc func(state State) Outcome

func (f OutcomeCheckerFunc) Check(state State) Outcome { return f(state) }

// Simulation owns the current state, the actor list, and the full state
// history for a run. It is not safe for concurrent use; the script engine
// drives it from a single goroutine.
type Simulation struct {
	curr    State
	actors  []Actor
	checker OutcomeChecker
	history []State
	last    Outcome
}

// NewSimulation seeds the history with a clone of initial (step 0) and
// evaluates the initial outcome.
func NewSimulation(initial State, actors []Actor, checker OutcomeChecker) *Simulation {
	s := &Simulation{
		curr:    initial.Clone(),
		actors:  actors,
		checker: checker,
	}
	s.curr.Step = 0
	s.history = append(s.history, s.curr.Clone())
	s.last = s.check(s.curr)
	return s
}

func (s *Simulation) check(state State) Outcome {
	if s.checker == nil {
		return Outcome{Kind: OutcomeNoObjective}
	}
	return s.checker.Check(state)
}

// StepForward runs every actor once, records the new state, and returns the
// outcome for it. Built-in hazards (enemy contact, energy exhaustion with
// pending moves) fail the run before the level checker sees the state.
func (s *Simulation) StepForward() Outcome {
	next := s.curr
	for _, a := range s.actors {
		next = a.Apply(next)
	}
	next.Step = s.curr.Step + 1
	s.curr = next
	s.history = append(s.history, next.Clone())

	if next.EnemyAt(next.Player.Pos) {
		s.last = Outcome{Kind: OutcomeFailure, Message: "A malfunctioning rover caught you!"}
		return s.last
	}
	s.last = s.check(next)
	return s.last
}

// CurrState returns a copy of the current state.
func (s *Simulation) CurrState() State { return s.curr.Clone() }

// StateHistory returns every recorded state, index 0 being the initial state.
// The returned slice is a copy; snapshots inside it are already deep copies.
func (s *Simulation) StateHistory() []State {
	return append([]State(nil), s.history...)
}

// LastOutcome returns the outcome of the most recent step (or of the initial
// state if no step has run).
func (s *Simulation) LastOutcome() Outcome { return s.last }
