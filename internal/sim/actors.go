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

// ActionKind distinguishes the commands a script can queue.
type ActionKind int

const (
	ActionWait ActionKind = iota
	ActionMove
	ActionSay
	ActionReadData
)

// Action is one queued player command. Exactly one of Dir/Message is
// meaningful depending on Kind.
type Action struct {
	Kind    ActionKind
	Dir     Direction
	Message string
}

// Actor mutates the state by one step. Actors run in registration order;
// the player always runs first.
type Actor interface {
	Apply(state State) State
}

// PlayerActor consumes one queued action per step. The script-facing
// primitives push actions into the queue; the simulation drains it.
type PlayerActor struct {
	queue []Action
}

func NewPlayerActor() *PlayerActor { return &PlayerActor{} }

// Enqueue appends an action for a later step.
func (a *PlayerActor) Enqueue(act Action) { a.queue = append(a.queue, act) }

// Pending reports how many actions are queued.
func (a *PlayerActor) Pending() int { return len(a.queue) }

// Apply pops the next action and returns the resulting state. With an empty
// queue the step is a wait.
func (a *PlayerActor) Apply(state State) State {
	next := state.Clone()
	next.Player.Message = ""

	if len(a.queue) == 0 {
		return next
	}
	act := a.queue[0]
	a.queue = a.queue[1:]

	switch act.Kind {
	case ActionMove:
		next.Player.Facing = act.Dir
		if next.Player.Energy <= 0 {
			return next
		}
		dest := Pos{
			X: next.Player.Pos.X + act.Dir.Offset().X,
			Y: next.Player.Pos.Y + act.Dir.Offset().Y,
		}
		if !InBounds(dest) || next.ObstacleAt(dest) {
			return next
		}
		next.Player.Pos = dest
		next.Player.Energy--
		collectEnergy(&next)
	case ActionSay:
		next.Player.Message = act.Message
		openAdjacentGates(&next, act.Message)
	case ActionReadData, ActionWait:
		// read_data resolves synchronously in the script layer; the step
		// itself is a wait
	}
	return next
}

func collectEnergy(s *State) {
	for i := range s.EnergyCells {
		c := &s.EnergyCells[i]
		if !c.Collected && c.Pos == s.Player.Pos {
			c.Collected = true
			s.Player.Energy += EnergyCellAmount
			if s.Player.Energy > MaxEnergy {
				s.Player.Energy = MaxEnergy
			}
		}
	}
}

func openAdjacentGates(s *State, said string) {
	for i := range s.Gates {
		g := &s.Gates[i]
		if !g.Open && adjacent(g.Pos, s.Player.Pos) && g.Password == said {
			g.Open = true
		}
	}
}

// EnemyActor moves every enemy one cell toward the player each step,
// preferring the axis with the larger gap. Enemies never enter obstacles.
type EnemyActor struct{}

func NewEnemyActor() *EnemyActor { return &EnemyActor{} }

func (a *EnemyActor) Apply(state State) State {
	next := state.Clone()
	for i := range next.Enemies {
		next.Enemies[i].Pos = chaseStep(&next, next.Enemies[i].Pos, next.Player.Pos)
	}
	return next
}

func chaseStep(s *State, from, target Pos) Pos {
	dx, dy := target.X-from.X, target.Y-from.Y
	var first, second Pos
	if abs(dx) >= abs(dy) {
		first = Pos{from.X + sign(dx), from.Y}
		second = Pos{from.X, from.Y + sign(dy)}
	} else {
		first = Pos{from.X, from.Y + sign(dy)}
		second = Pos{from.X + sign(dx), from.Y}
	}
	for _, cand := range []Pos{first, second} {
		if cand == from {
			continue
		}
		if InBounds(cand) && !s.ObstacleAt(cand) {
			return cand
		}
	}
	return from
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
