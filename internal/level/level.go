/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package level loads the built-in level catalog. Levels are JSON documents
// embedded in the binary, validated against a JSON Schema at load time.
// Win and failure conditions are small expressions evaluated against each
// simulation state, so new levels need no Go code.
package level

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/xeipuuv/gojsonschema"

	"github.com/chris-ha458/elara/internal/sim"
)

//go:embed levels/*.json
var levelFS embed.FS

//go:embed schema.json
var schemaJSON []byte

// cellSpec mirrors the JSON layout of a board entity.
type cellSpec struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type gateSpec struct {
	cellSpec
	Password string `json:"password"`
}

type dataPointSpec struct {
	cellSpec
	Data string `json:"data"`
}

type playerSpec struct {
	cellSpec
	Energy int    `json:"energy"`
	Facing string `json:"facing"`
}

type boardSpec struct {
	Player      playerSpec      `json:"player"`
	Goals       []cellSpec      `json:"goals"`
	Obstacles   []cellSpec      `json:"obstacles"`
	EnergyCells []cellSpec      `json:"energy_cells"`
	Enemies     []cellSpec      `json:"enemies"`
	Gates       []gateSpec      `json:"gates"`
	DataPoints  []dataPointSpec `json:"data_points"`
}

// Level is one playable level.
type Level struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Order       int    `json:"order"`
	Objective   string `json:"objective"`
	InitialCode string `json:"initial_code"`

	Board       boardSpec `json:"board"`
	WinRule     string    `json:"win_rule"`
	FailRule    string    `json:"fail_rule"`
	FailMessage string    `json:"fail_message"`

	winProg  *vm.Program
	failProg *vm.Program
}

// ruleEnv is the expression environment for win/fail rules.
func ruleEnv(s sim.State) map[string]any {
	atGoal := s.GoalAt(s.Player.Pos)
	cellsLeft := 0
	for _, c := range s.EnergyCells {
		if !c.Collected {
			cellsLeft++
		}
	}
	gatesClosed := 0
	for _, g := range s.Gates {
		if !g.Open {
			gatesClosed++
		}
	}
	return map[string]any{
		"at_goal":      atGoal,
		"energy":       s.Player.Energy,
		"step":         s.Step,
		"message":      s.Player.Message,
		"cells_left":   cellsLeft,
		"gates_closed": gatesClosed,
		"player_x":     s.Player.Pos.X,
		"player_y":     s.Player.Pos.Y,
	}
}

func compileRule(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(ruleEnv(sim.State{})), expr.AsBool())
}

// InitialState builds the step-0 simulation state for the level.
func (l *Level) InitialState() sim.State {
	st := sim.State{
		Player: sim.Player{
			Pos:    sim.Pos{X: l.Board.Player.X, Y: l.Board.Player.Y},
			Energy: l.Board.Player.Energy,
			Facing: parseFacing(l.Board.Player.Facing),
		},
	}
	for _, g := range l.Board.Goals {
		st.Goals = append(st.Goals, sim.Goal{Pos: sim.Pos{X: g.X, Y: g.Y}})
	}
	for _, o := range l.Board.Obstacles {
		st.Obstacles = append(st.Obstacles, sim.Obstacle{Pos: sim.Pos{X: o.X, Y: o.Y}})
	}
	for _, c := range l.Board.EnergyCells {
		st.EnergyCells = append(st.EnergyCells, sim.EnergyCell{Pos: sim.Pos{X: c.X, Y: c.Y}})
	}
	for _, e := range l.Board.Enemies {
		st.Enemies = append(st.Enemies, sim.Enemy{Pos: sim.Pos{X: e.X, Y: e.Y}})
	}
	for _, g := range l.Board.Gates {
		st.Gates = append(st.Gates, sim.PasswordGate{Pos: sim.Pos{X: g.X, Y: g.Y}, Password: g.Password})
	}
	for _, d := range l.Board.DataPoints {
		st.DataPoints = append(st.DataPoints, sim.DataPoint{Pos: sim.Pos{X: d.X, Y: d.Y}, Data: d.Data})
	}
	return st
}

func parseFacing(s string) sim.Direction {
	switch strings.ToLower(s) {
	case "up":
		return sim.DirUp
	case "down":
		return sim.DirDown
	case "left":
		return sim.DirLeft
	default:
		return sim.DirRight
	}
}

// Actors returns the actor list for a fresh run. The player actor is always
// first and is returned separately so the script layer can enqueue into it.
func (l *Level) Actors() (*sim.PlayerActor, []sim.Actor) {
	pa := sim.NewPlayerActor()
	actors := []sim.Actor{pa}
	if len(l.Board.Enemies) > 0 {
		actors = append(actors, sim.NewEnemyActor())
	}
	return pa, actors
}

// Checker returns the outcome checker backed by the level's compiled rules.
func (l *Level) Checker() sim.OutcomeChecker {
	return sim.OutcomeCheckerFunc(func(s sim.State) sim.Outcome {
		env := ruleEnv(s)
		if l.failProg != nil {
			if v, err := expr.Run(l.failProg, env); err == nil && v == true {
				msg := l.FailMessage
				if msg == "" {
					msg = "The run failed."
				}
				return sim.Outcome{Kind: sim.OutcomeFailure, Message: msg}
			}
		}
		if l.winProg == nil {
			return sim.Outcome{Kind: sim.OutcomeNoObjective}
		}
		if v, err := expr.Run(l.winProg, env); err == nil && v == true {
			return sim.Outcome{Kind: sim.OutcomeSuccess}
		}
		return sim.Outcome{Kind: sim.OutcomeContinue}
	})
}

// Catalog is the loaded, ordered level set.
type Catalog struct {
	levels []*Level
	byID   map[string]*Level
}

// LoadCatalog parses, validates, and rule-compiles every embedded level.
func LoadCatalog() (*Catalog, error) {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	schema, err := gojsonschema.NewSchema(schemaLoader)
	if err != nil {
		return nil, fmt.Errorf("level schema: %w", err)
	}

	entries, err := levelFS.ReadDir("levels")
	if err != nil {
		return nil, err
	}
	cat := &Catalog{byID: map[string]*Level{}}
	for _, e := range entries {
		data, err := levelFS.ReadFile("levels/" + e.Name())
		if err != nil {
			return nil, err
		}
		res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("validate %s: %w", e.Name(), err)
		}
		if !res.Valid() {
			var b strings.Builder
			for _, desc := range res.Errors() {
				fmt.Fprintf(&b, "%s; ", desc)
			}
			return nil, fmt.Errorf("level %s invalid: %s", e.Name(), b.String())
		}
		var lvl Level
		if err := json.Unmarshal(data, &lvl); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		if lvl.WinRule != "" {
			if lvl.winProg, err = compileRule(lvl.WinRule); err != nil {
				return nil, fmt.Errorf("level %s win_rule: %w", lvl.ID, err)
			}
		}
		if lvl.FailRule != "" {
			if lvl.failProg, err = compileRule(lvl.FailRule); err != nil {
				return nil, fmt.Errorf("level %s fail_rule: %w", lvl.ID, err)
			}
		}
		if _, dup := cat.byID[lvl.ID]; dup {
			return nil, fmt.Errorf("duplicate level id %q", lvl.ID)
		}
		cat.byID[lvl.ID] = &lvl
		cat.levels = append(cat.levels, &lvl)
	}
	sort.Slice(cat.levels, func(i, j int) bool { return cat.levels[i].Order < cat.levels[j].Order })
	return cat, nil
}

// All returns the levels in play order.
func (c *Catalog) All() []*Level { return append([]*Level(nil), c.levels...) }

// ByID looks a level up by its id.
func (c *Catalog) ByID(id string) (*Level, bool) {
	l, ok := c.byID[id]
	return l, ok
}
