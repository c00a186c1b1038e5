/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package sim implements the deterministic grid-world simulation the player's
// script drives. A Simulation advances one step at a time; every step yields
// an immutable State snapshot that downstream consumers (replay, UI, export)
// treat as read-only.
package sim

// Board dimensions in cells.
const (
	Width  = 12
	Height = 8
)

// MaxEnergy caps the rover's energy gauge.
const MaxEnergy = 50

// EnergyCellAmount is how much each collected energy cell restores.
const EnergyCellAmount = 10

// Pos is a cell coordinate. (0,0) is the top-left corner.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// InBounds reports whether p lies on the board.
func InBounds(p Pos) bool {
	return p.X >= 0 && p.X < Width && p.Y >= 0 && p.Y < Height
}

// Direction of movement on the grid.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "unknown"
}

// Offset returns the unit step for the direction.
func (d Direction) Offset() Pos {
	switch d {
	case DirUp:
		return Pos{0, -1}
	case DirDown:
		return Pos{0, 1}
	case DirLeft:
		return Pos{-1, 0}
	case DirRight:
		return Pos{1, 0}
	}
	return Pos{}
}

// Player is the rover the script controls.
type Player struct {
	Pos     Pos       `json:"pos"`
	Energy  int       `json:"energy"`
	Facing  Direction `json:"facing"`
	Message string    `json:"message"` // most recent say(), empty when silent
}

// EnergyCell restores energy when the rover moves onto it.
type EnergyCell struct {
	Pos       Pos  `json:"pos"`
	Collected bool `json:"collected"`
}

// Goal is the level exit marker.
type Goal struct {
	Pos Pos `json:"pos"`
}

// Enemy is a malfunctioning rover that chases the player.
type Enemy struct {
	Pos Pos `json:"pos"`
}

// Obstacle is an impassable cell (rock, wall).
type Obstacle struct {
	Pos Pos `json:"pos"`
}

// PasswordGate blocks a cell until the rover says its password adjacent to it.
type PasswordGate struct {
	Pos      Pos    `json:"pos"`
	Password string `json:"password"`
	Open     bool   `json:"open"`
}

// DataPoint holds a string the rover can read when adjacent.
type DataPoint struct {
	Pos  Pos    `json:"pos"`
	Data string `json:"data"`
}

// State is one immutable snapshot of the whole board.
type State struct {
	Player      Player         `json:"player"`
	EnergyCells []EnergyCell   `json:"energy_cells,omitempty"`
	Goals       []Goal         `json:"goals,omitempty"`
	Enemies     []Enemy        `json:"enemies,omitempty"`
	Obstacles   []Obstacle     `json:"obstacles,omitempty"`
	Gates       []PasswordGate `json:"gates,omitempty"`
	DataPoints  []DataPoint    `json:"data_points,omitempty"`
	Step        int            `json:"step"` // 0 for the initial state
}

// Clone returns a deep copy; slices are never shared with the receiver.
func (s State) Clone() State {
	c := s
	c.EnergyCells = append([]EnergyCell(nil), s.EnergyCells...)
	c.Goals = append([]Goal(nil), s.Goals...)
	c.Enemies = append([]Enemy(nil), s.Enemies...)
	c.Obstacles = append([]Obstacle(nil), s.Obstacles...)
	c.Gates = append([]PasswordGate(nil), s.Gates...)
	c.DataPoints = append([]DataPoint(nil), s.DataPoints...)
	return c
}

// ObstacleAt reports whether pos is blocked by an obstacle or a closed gate.
func (s *State) ObstacleAt(pos Pos) bool {
	for _, o := range s.Obstacles {
		if o.Pos == pos {
			return true
		}
	}
	for _, g := range s.Gates {
		if g.Pos == pos && !g.Open {
			return true
		}
	}
	return false
}

// EnemyAt reports whether an enemy occupies pos.
func (s *State) EnemyAt(pos Pos) bool {
	for _, e := range s.Enemies {
		if e.Pos == pos {
			return true
		}
	}
	return false
}

// GoalAt reports whether a goal occupies pos.
func (s *State) GoalAt(pos Pos) bool {
	for _, g := range s.Goals {
		if g.Pos == pos {
			return true
		}
	}
	return false
}

func adjacent(a, b Pos) bool {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}
