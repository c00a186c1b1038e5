/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chris-ha458/elara/internal/backend"
	"github.com/chris-ha458/elara/internal/config"
	"github.com/chris-ha458/elara/internal/crash"
	"github.com/chris-ha458/elara/internal/export"
	"github.com/chris-ha458/elara/internal/level"
	applog "github.com/chris-ha458/elara/internal/log"
	"github.com/chris-ha458/elara/internal/script"
	"github.com/chris-ha458/elara/internal/sim"
	"github.com/chris-ha458/elara/internal/storage"
	"github.com/chris-ha458/elara/internal/ui"
	"github.com/chris-ha458/elara/internal/version"
)

func usage() {
	fmt.Println("Elara — learn to code by driving a rover")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  elara version|-v|--version                 Show version")
	fmt.Println("  elara levels                                List available levels")
	fmt.Println("  elara run <levelID> <script.el>             Run a script headless, printing the frame timeline")
	fmt.Println("  elara export <levelID> <out.pdf|out.png> [script.el]")
	fmt.Println("                                              Export a level handout (pdf) or board/replay sheet (png)")
	fmt.Println("  elara sync list                             List classroom progress from the sync server")
	fmt.Println("  elara sync push <levelID> <script.el>       Run a script and push the result to the sync server")
	fmt.Println("  elara server                                Run the classroom sync server (Postgres)")
	fmt.Println("  elara ui [<levelID>]                        Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var ph *storage.ProfileHandle
	defer func() { crash.Recover(ph) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) <= 1 {
		usage()
		return
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Elara — learn to code by driving a rover")
		fmt.Println(version.String())
	case "levels":
		cmdLevels(l)
	case "run":
		if len(args) < 4 {
			fmt.Println("run requires <levelID> and <script.el>")
			usage()
			os.Exit(2)
		}
		ph = cmdRun(l, args[2], args[3])
	case "export":
		if len(args) < 4 {
			fmt.Println("export requires <levelID> and an output path")
			usage()
			os.Exit(2)
		}
		scriptPath := ""
		if len(args) >= 5 {
			scriptPath = args[4]
		}
		ph = cmdExport(l, args[2], args[3], scriptPath)
	case "sync":
		if len(args) < 3 {
			fmt.Println("sync requires a subcommand: list | push")
			usage()
			os.Exit(2)
		}
		cmdSync(l, args[2:])
	case "server":
		if err := backend.StartServer(); err != nil {
			l.Error("server failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	case "ui":
		var id string
		if len(args) >= 3 {
			id = args[2]
		}
		if err := ui.Run(id); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	default:
		usage()
	}
}

func cmdLevels(l *slog.Logger) {
	cat, err := level.LoadCatalog()
	if err != nil {
		l.Error("load levels failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	for _, lvl := range cat.All() {
		fmt.Printf("%-20s %s\n", lvl.ID, lvl.Objective)
	}
}

// headlessRun evaluates a script file against a level and returns the result.
func headlessRun(l *slog.Logger, levelID, scriptPath string) (*level.Level, *script.Result) {
	cat, err := level.LoadCatalog()
	if err != nil {
		l.Error("load levels failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	lvl, ok := cat.ByID(levelID)
	if !ok {
		fmt.Println("Unknown level:", levelID)
		os.Exit(1)
	}
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	player, actors := lvl.Actors()
	res, serr := script.NewRunner().Run(string(src), lvl.InitialState(), player, actors, lvl.Checker())
	if serr != nil {
		if serr.Positioned() {
			fmt.Printf("Script error at line %d, column %d: %s\n", serr.Line, serr.Col, serr.Message)
		} else {
			fmt.Println("Script error:", serr.Message)
		}
		if res == nil {
			os.Exit(1)
		}
	}
	return lvl, res
}

func cmdRun(l *slog.Logger, levelID, scriptPath string) *storage.ProfileHandle {
	lvl, res := headlessRun(l, levelID, scriptPath)

	for i, s := range res.States {
		line := res.Lines[i]
		mark := ""
		if line > 0 {
			mark = fmt.Sprintf("  (line %d)", line)
		}
		fmt.Printf("step %2d: rover at (%d,%d) energy %d%s\n",
			s.Step, s.Player.Pos.X, s.Player.Pos.Y, s.Player.Energy, mark)
	}
	steps := len(res.States) - 1
	switch res.Outcome.Kind {
	case sim.OutcomeSuccess:
		fmt.Printf("Objective complete in %d steps.\n", steps)
	case sim.OutcomeFailure:
		fmt.Println("Failed:", res.Outcome.Message)
	case sim.OutcomeNoObjective:
		fmt.Println("Sandbox run finished.")
	default:
		fmt.Println("Run ended before reaching an outcome.")
	}

	// record the attempt locally
	root, err := config.DataDir()
	if err != nil {
		l.Warn("resolve data dir failed", slog.Any("err", err))
		return nil
	}
	ph, err := storage.OpenOrInit(root, "learner")
	if err != nil {
		l.Warn("open profile failed", slog.Any("err", err))
		return nil
	}
	if res.Outcome.Kind == sim.OutcomeSuccess {
		ph.Profile.RecordCompletion(lvl.ID, steps)
		if err := storage.Save(ph); err != nil {
			l.Warn("profile save failed", slog.Any("err", err))
		}
	}
	store, err := storage.InitOrOpenStore(root)
	if err != nil {
		l.Warn("open store failed", slog.Any("err", err))
		return ph
	}
	defer func() { _ = store.Close() }()
	if err := store.RecordAttempt(lvl.ID, res.Outcome, steps); err != nil {
		l.Warn("record attempt failed", slog.Any("err", err))
	}
	return ph
}

func cmdExport(l *slog.Logger, levelID, outPath, scriptPath string) *storage.ProfileHandle {
	root, err := config.DataDir()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	ph, err := storage.OpenOrInit(root, "learner")
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	var lvl *level.Level
	var res *script.Result
	if scriptPath != "" {
		lvl, res = headlessRun(l, levelID, scriptPath)
	} else {
		cat, cerr := level.LoadCatalog()
		if cerr != nil {
			fmt.Println("Error:", cerr)
			os.Exit(1)
		}
		var ok bool
		lvl, ok = cat.ByID(levelID)
		if !ok {
			fmt.Println("Unknown level:", levelID)
			os.Exit(1)
		}
	}

	switch {
	case strings.HasSuffix(strings.ToLower(outPath), ".pdf"):
		src := ""
		var outcome *sim.Outcome
		if res != nil {
			b, _ := os.ReadFile(scriptPath)
			src = string(b)
			outcome = &res.Outcome
		}
		err = export.ExportLevelPDF(ph, lvl, src, outcome, outPath, export.PDFOptions{IncludeBoard: true, IncludeScript: true})
	case res != nil:
		err = export.ExportContactSheet(ph, res.States, outPath, export.PNGOptions{ShowGrid: true, ShowLabels: true})
	default:
		err = export.ExportStatePNG(ph, lvl.InitialState(), outPath, export.PNGOptions{ShowGrid: true, ShowLabels: true})
	}
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Println("Exported", outPath)
	return ph
}

func cmdSync(l *slog.Logger, args []string) {
	cfg, token, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if cfg.Sync.BaseURL == "" {
		fmt.Println("No sync server configured. Set sync.base_url in config or", config.EnvSyncURL)
		os.Exit(1)
	}
	client := backend.NewClient(cfg.Sync.BaseURL, token, cfg.Sync.EffectiveTimeout())
	ctx := context.Background()

	switch args[0] {
	case "list":
		list, err := client.ListProgress(ctx)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		for _, p := range list {
			status := "in progress"
			if p.Completed {
				status = fmt.Sprintf("completed (best %d steps)", p.BestSteps)
			}
			fmt.Printf("%-12s %-20s %s\n", p.Student, p.LevelID, status)
		}
	case "push":
		if len(args) < 3 {
			fmt.Println("sync push requires <levelID> and <script.el>")
			os.Exit(2)
		}
		lvl, res := headlessRun(l, args[1], args[2])
		b, _ := os.ReadFile(args[2])
		steps := len(res.States) - 1
		up := backend.ProgressUpload{
			LevelID:   lvl.ID,
			Completed: res.Outcome.Kind == sim.OutcomeSuccess,
			Script:    string(b),
			Outcome:   res.Outcome.Kind.String(),
			Steps:     steps,
		}
		if up.Completed {
			up.BestSteps = steps
		}
		if err := client.PushProgress(ctx, up); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Pushed", lvl.ID)
	default:
		fmt.Println("Unknown sync subcommand:", args[0])
		os.Exit(2)
	}
}
