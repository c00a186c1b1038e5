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
	"github.com/chris-ha458/elara/internal/level"
	"github.com/chris-ha458/elara/internal/replay"
	"github.com/chris-ha458/elara/internal/script"
	"github.com/chris-ha458/elara/internal/sim"
)

// LevelInterpreter runs scripts against levels from the catalog. It is the
// production Interpreter; tests substitute their own.
type LevelInterpreter struct {
	runner  *script.Runner
	catalog *level.Catalog
}

func NewLevelInterpreter(cat *level.Catalog) *LevelInterpreter {
	return &LevelInterpreter{runner: script.NewRunner(), catalog: cat}
}

func (li *LevelInterpreter) Run(source, contextID string) (*replay.Sequence, sim.Outcome, *script.Error) {
	lvl, ok := li.catalog.ByID(contextID)
	if !ok {
		return nil, sim.Outcome{}, &script.Error{Message: "unknown level: " + contextID}
	}
	player, actors := lvl.Actors()
	res, serr := li.runner.Run(source, lvl.InitialState(), player, actors, lvl.Checker())
	if serr != nil {
		return nil, sim.Outcome{}, serr
	}
	return replay.FromRun(res.States, res.Lines), res.Outcome, nil
}
