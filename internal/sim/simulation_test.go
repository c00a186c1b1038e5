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

import "testing"

func startState() State {
	return State{
		Player: Player{Pos: Pos{0, 0}, Energy: 10, Facing: DirRight},
		Goals:  []Goal{{Pos: Pos{3, 0}}},
	}
}

func goalChecker() OutcomeChecker {
	return OutcomeCheckerFunc(func(s State) Outcome {
		if s.GoalAt(s.Player.Pos) {
			return Outcome{Kind: OutcomeSuccess}
		}
		return Outcome{Kind: OutcomeContinue}
	})
}

func TestPlayerMovesAndReachesGoal(t *testing.T) {
	pa := NewPlayerActor()
	simn := NewSimulation(startState(), []Actor{pa}, goalChecker())

	for i := 0; i < 3; i++ {
		pa.Enqueue(Action{Kind: ActionMove, Dir: DirRight})
	}
	var out Outcome
	for i := 0; i < 3; i++ {
		out = simn.StepForward()
	}
	if out.Kind != OutcomeSuccess {
		t.Fatalf("expected success, got %v", out.Kind)
	}
	st := simn.CurrState()
	if st.Player.Pos != (Pos{3, 0}) {
		t.Fatalf("player pos: %+v", st.Player.Pos)
	}
	if st.Player.Energy != 7 {
		t.Fatalf("energy: %d", st.Player.Energy)
	}
	if got := len(simn.StateHistory()); got != 4 {
		t.Fatalf("history length: %d", got)
	}
}

func TestMoveBlockedByObstacleAndEdge(t *testing.T) {
	st := startState()
	st.Obstacles = []Obstacle{{Pos: Pos{1, 0}}}
	pa := NewPlayerActor()
	simn := NewSimulation(st, []Actor{pa}, goalChecker())

	pa.Enqueue(Action{Kind: ActionMove, Dir: DirRight}) // into obstacle
	pa.Enqueue(Action{Kind: ActionMove, Dir: DirUp})    // off the board
	simn.StepForward()
	out := simn.StepForward()

	cur := simn.CurrState()
	if cur.Player.Pos != (Pos{0, 0}) {
		t.Fatalf("player should not have moved: %+v", cur.Player.Pos)
	}
	if cur.Player.Energy != 10 {
		t.Fatalf("blocked moves must not spend energy: %d", cur.Player.Energy)
	}
	if out.Kind != OutcomeContinue {
		t.Fatalf("outcome: %v", out.Kind)
	}
	// facing updates even when the move is blocked
	if cur.Player.Facing != DirUp {
		t.Fatalf("facing: %v", cur.Player.Facing)
	}
}

func TestEnergyCellCollection(t *testing.T) {
	st := startState()
	st.Player.Energy = 1
	st.EnergyCells = []EnergyCell{{Pos: Pos{1, 0}}}
	pa := NewPlayerActor()
	simn := NewSimulation(st, []Actor{pa}, nil)

	pa.Enqueue(Action{Kind: ActionMove, Dir: DirRight})
	simn.StepForward()

	cur := simn.CurrState()
	if !cur.EnergyCells[0].Collected {
		t.Fatalf("cell not collected")
	}
	// 1 - 1 (move) + 10 (cell)
	if cur.Player.Energy != 10 {
		t.Fatalf("energy after pickup: %d", cur.Player.Energy)
	}
}

func TestOutOfEnergyCannotMove(t *testing.T) {
	st := startState()
	st.Player.Energy = 0
	pa := NewPlayerActor()
	simn := NewSimulation(st, []Actor{pa}, nil)

	pa.Enqueue(Action{Kind: ActionMove, Dir: DirRight})
	simn.StepForward()
	if got := simn.CurrState().Player.Pos; got != (Pos{0, 0}) {
		t.Fatalf("moved with no energy: %+v", got)
	}
}

func TestSayOpensAdjacentGate(t *testing.T) {
	st := startState()
	st.Gates = []PasswordGate{{Pos: Pos{1, 0}, Password: "lovelace"}}
	pa := NewPlayerActor()
	simn := NewSimulation(st, []Actor{pa}, nil)

	pa.Enqueue(Action{Kind: ActionMove, Dir: DirRight}) // blocked by closed gate
	simn.StepForward()
	if simn.CurrState().Player.Pos != (Pos{0, 0}) {
		t.Fatalf("closed gate should block")
	}

	pa.Enqueue(Action{Kind: ActionSay, Message: "lovelace"})
	simn.StepForward()
	cur := simn.CurrState()
	if !cur.Gates[0].Open {
		t.Fatalf("gate should open on password")
	}
	if cur.Player.Message != "lovelace" {
		t.Fatalf("message: %q", cur.Player.Message)
	}

	pa.Enqueue(Action{Kind: ActionMove, Dir: DirRight})
	simn.StepForward()
	if simn.CurrState().Player.Pos != (Pos{1, 0}) {
		t.Fatalf("open gate should be passable")
	}
}

func TestMessageClearsNextStep(t *testing.T) {
	pa := NewPlayerActor()
	simn := NewSimulation(startState(), []Actor{pa}, nil)
	pa.Enqueue(Action{Kind: ActionSay, Message: "hi"})
	simn.StepForward()
	if simn.CurrState().Player.Message != "hi" {
		t.Fatalf("message not set")
	}
	simn.StepForward() // empty queue, wait
	if simn.CurrState().Player.Message != "" {
		t.Fatalf("message should clear after one step")
	}
}

func TestEnemyChasesAndCatchesPlayer(t *testing.T) {
	st := startState()
	st.Enemies = []Enemy{{Pos: Pos{2, 0}}}
	pa := NewPlayerActor()
	simn := NewSimulation(st, []Actor{pa, NewEnemyActor()}, goalChecker())

	out := simn.StepForward() // player waits, enemy moves to (1,0)
	if out.Kind != OutcomeContinue {
		t.Fatalf("outcome after first step: %v", out.Kind)
	}
	if got := simn.CurrState().Enemies[0].Pos; got != (Pos{1, 0}) {
		t.Fatalf("enemy pos: %+v", got)
	}

	out = simn.StepForward() // enemy reaches (0,0)
	if out.Kind != OutcomeFailure {
		t.Fatalf("expected failure on contact, got %v", out.Kind)
	}
	if out.Message == "" {
		t.Fatalf("failure outcome needs a message")
	}
}

func TestEnemyAvoidsObstacles(t *testing.T) {
	st := startState()
	st.Enemies = []Enemy{{Pos: Pos{2, 0}}}
	st.Obstacles = []Obstacle{{Pos: Pos{1, 0}}}
	pa := NewPlayerActor()
	simn := NewSimulation(st, []Actor{pa, NewEnemyActor()}, nil)

	simn.StepForward()
	// blocked on the x axis, detours on y
	if got := simn.CurrState().Enemies[0].Pos; got != (Pos{2, 1}) {
		t.Fatalf("enemy detour pos: %+v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := startState()
	st.EnergyCells = []EnergyCell{{Pos: Pos{5, 5}}}
	c := st.Clone()
	c.EnergyCells[0].Collected = true
	if st.EnergyCells[0].Collected {
		t.Fatalf("clone shares energy cell slice")
	}
}

func TestHistorySnapshotsAreImmutable(t *testing.T) {
	pa := NewPlayerActor()
	simn := NewSimulation(startState(), []Actor{pa}, nil)
	pa.Enqueue(Action{Kind: ActionMove, Dir: DirRight})
	simn.StepForward()

	h := simn.StateHistory()
	if h[0].Player.Pos != (Pos{0, 0}) || h[1].Player.Pos != (Pos{1, 0}) {
		t.Fatalf("history positions wrong: %+v %+v", h[0].Player.Pos, h[1].Player.Pos)
	}
	h[0].Player.Pos = Pos{9, 9}
	if simn.StateHistory()[0].Player.Pos != (Pos{0, 0}) {
		t.Fatalf("history snapshot mutated through caller copy")
	}
}
