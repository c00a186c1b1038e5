/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package level

import (
	"testing"

	"github.com/chris-ha458/elara/internal/sim"
)

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	all := cat.All()
	if len(all) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(all))
	}
	for i, l := range all {
		if l.Order != i+1 {
			t.Fatalf("levels out of order at %d: %+v", i, l)
		}
		if l.ID == "" || l.Name == "" || l.Objective == "" {
			t.Fatalf("level %d missing metadata: %+v", i, l)
		}
	}
	if _, ok := cat.ByID("first_steps"); !ok {
		t.Fatalf("first_steps not found by id")
	}
	if _, ok := cat.ByID("nope"); ok {
		t.Fatalf("unknown id should not resolve")
	}
}

func TestInitialStateMatchesBoard(t *testing.T) {
	cat, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	l, _ := cat.ByID("energy_budget")
	st := l.InitialState()
	if st.Player.Pos != (sim.Pos{X: 0, Y: 4}) || st.Player.Energy != 4 {
		t.Fatalf("player: %+v", st.Player)
	}
	if len(st.EnergyCells) != 1 || st.EnergyCells[0].Pos != (sim.Pos{X: 3, Y: 4}) {
		t.Fatalf("energy cells: %+v", st.EnergyCells)
	}
	if len(st.Goals) != 1 || len(st.Obstacles) != 2 {
		t.Fatalf("board: %+v", st)
	}
}

func TestCheckerWinAndFailRules(t *testing.T) {
	cat, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	l, _ := cat.ByID("energy_budget")
	chk := l.Checker()

	st := l.InitialState()
	if out := chk.Check(st); out.Kind != sim.OutcomeContinue {
		t.Fatalf("initial outcome: %v", out.Kind)
	}

	win := st.Clone()
	win.Player.Pos = sim.Pos{X: 8, Y: 4}
	if out := chk.Check(win); out.Kind != sim.OutcomeSuccess {
		t.Fatalf("win outcome: %v", out.Kind)
	}

	dead := st.Clone()
	dead.Player.Energy = 0
	out := chk.Check(dead)
	if out.Kind != sim.OutcomeFailure {
		t.Fatalf("fail outcome: %v", out.Kind)
	}
	if out.Message != "The rover ran out of energy before reaching the exit." {
		t.Fatalf("fail message: %q", out.Message)
	}
}

func TestCheckerNoObjective(t *testing.T) {
	l := &Level{} // no win rule compiled
	out := l.Checker().Check(sim.State{})
	if out.Kind != sim.OutcomeNoObjective {
		t.Fatalf("outcome: %v", out.Kind)
	}
}

func TestGateLevelIsSolvable(t *testing.T) {
	cat, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	l, _ := cat.ByID("the_password")
	st := l.InitialState()

	pa, actors := l.Actors()
	simn := sim.NewSimulation(st, actors, l.Checker())

	// walk to the gate, say the password, drive through to the exit
	script := []sim.Action{
		{Kind: sim.ActionMove, Dir: sim.DirRight}, // (2,2)
		{Kind: sim.ActionMove, Dir: sim.DirRight}, // (3,2)
		{Kind: sim.ActionMove, Dir: sim.DirRight}, // (4,2), adjacent to gate
		{Kind: sim.ActionSay, Message: "turing"},
		{Kind: sim.ActionMove, Dir: sim.DirRight}, // (5,2) through gate
		{Kind: sim.ActionMove, Dir: sim.DirRight},
		{Kind: sim.ActionMove, Dir: sim.DirRight},
		{Kind: sim.ActionMove, Dir: sim.DirRight},
		{Kind: sim.ActionMove, Dir: sim.DirRight}, // (9,2) goal
	}
	for _, a := range script {
		pa.Enqueue(a)
	}
	var out sim.Outcome
	for range script {
		out = simn.StepForward()
	}
	if out.Kind != sim.OutcomeSuccess {
		t.Fatalf("expected success, got %v (%s)", out.Kind, out.Message)
	}
}

func TestChaseLevelFailsWhenIdle(t *testing.T) {
	cat, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	l, _ := cat.ByID("uninvited_guest")
	_, actors := l.Actors()
	simn := sim.NewSimulation(l.InitialState(), actors, l.Checker())

	// standing still, the chaser must eventually make contact
	var out sim.Outcome
	for i := 0; i < 40; i++ {
		out = simn.StepForward()
		if out.Terminal() {
			break
		}
	}
	if out.Kind != sim.OutcomeFailure {
		t.Fatalf("expected chaser to catch idle player, got %v", out.Kind)
	}
}
