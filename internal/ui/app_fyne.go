//go:build fyne && cgo

/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/chris-ha458/elara/internal/config"
	"github.com/chris-ha458/elara/internal/crash"
	"github.com/chris-ha458/elara/internal/editor"
	"github.com/chris-ha458/elara/internal/export"
	"github.com/chris-ha458/elara/internal/level"
	applog "github.com/chris-ha458/elara/internal/log"
	"github.com/chris-ha458/elara/internal/replay"
	"github.com/chris-ha458/elara/internal/sim"
	"github.com/chris-ha458/elara/internal/storage"
	"github.com/chris-ha458/elara/internal/telemetry"
)

// entryView bridges the controller's view contract onto the script entry:
// line layout questions answer against the current text, highlight and
// diagnostic updates land on labels next to the editor.
type entryView struct {
	mu         sync.Mutex
	doc        *editor.Document
	activeLbl  *widget.Label
	diagLbl    *widget.Label
	highlight  *editor.TextRange
	diagnostic *editor.TextRange
}

func newEntryView(activeLbl, diagLbl *widget.Label) *entryView {
	return &entryView{doc: editor.NewDocument(""), activeLbl: activeLbl, diagLbl: diagLbl}
}

func (v *entryView) setText(s string) {
	v.mu.Lock()
	v.doc = editor.NewDocument(s)
	v.mu.Unlock()
}

func (v *entryView) LineCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.LineCount()
}

func (v *entryView) LineSpan(line int) (editor.Span, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.LineSpan(line)
}

func (v *entryView) WordRangeAt(offset int) (int, int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.doc.WordRangeAt(offset)
}

func (v *entryView) SetHighlight(r *editor.TextRange) {
	v.mu.Lock()
	v.highlight = r
	v.mu.Unlock()
	fyne.Do(func() {
		if r == nil {
			v.activeLbl.SetText("")
			return
		}
		v.activeLbl.SetText(fmt.Sprintf("running %d..%d", r.From, r.To))
	})
}

func (v *entryView) SetDiagnostic(r *editor.TextRange) {
	v.mu.Lock()
	v.diagnostic = r
	v.mu.Unlock()
	fyne.Do(func() {
		if r == nil {
			v.diagLbl.SetText("")
			return
		}
		v.diagLbl.SetText(r.Message)
	})
}

// Run starts the Fyne desktop app, optionally opening levelID directly.
func Run(levelID string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var ph *storage.ProfileHandle
	defer func() { crash.Recover(ph) }()

	cfg, _, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	root, err := config.DataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	ph, err = storage.OpenOrInit(root, "learner")
	if err != nil {
		return fmt.Errorf("open profile: %w", err)
	}
	store, err := storage.InitOrOpenStore(root)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Warn("store close failed", slog.Any("err", err))
		}
	}()

	catalog, err := level.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}
	levels := catalog.All()
	if len(levels) == 0 {
		return fmt.Errorf("no levels available")
	}
	current := levels[0]
	if levelID != "" {
		lvl, ok := catalog.ByID(levelID)
		if !ok {
			return fmt.Errorf("unknown level: %s", levelID)
		}
		current = lvl
	}

	fyneApp := app.NewWithID("elara")
	w := fyneApp.NewWindow("Elara")
	w.Resize(fyne.NewSize(1100, 700))

	status := widget.NewLabel("Ready")
	activeLbl := widget.NewLabel("")
	diagLbl := widget.NewLabel("")
	diagLbl.Wrapping = fyne.TextWrapWord

	view := newEntryView(activeLbl, diagLbl)

	codeEntry := widget.NewMultiLineEntry()
	codeEntry.TextStyle = fyne.TextStyle{Monospace: true}
	codeEntry.OnChanged = func(s string) { view.setText(s) }

	renderOpt := export.PNGOptions{CellSize: 48, ShowGrid: true, ShowLabels: true}
	boardImg := canvas.NewImageFromImage(export.RenderState(current.InitialState(), renderOpt))
	boardImg.FillMode = canvas.ImageFillContain
	boardImg.SetMinSize(fyne.NewSize(576, 384))

	showState := func(s sim.State) {
		fyne.Do(func() {
			boardImg.Image = export.RenderState(s, renderOpt)
			boardImg.Refresh()
		})
	}
	setStatus := func(s string) {
		fyne.Do(func() { status.SetText(s) })
	}

	interp := editor.NewLevelInterpreter(catalog)
	var lastStep int
	hooks := editor.Hooks{
		OnFrame: func(index int, frame replay.Frame) {
			lastStep = frame.State.Step
			showState(frame.State)
			setStatus(fmt.Sprintf("step %d", frame.State.Step))
		},
		OnDone: func(outcome sim.Outcome) {
			switch outcome.Kind {
			case sim.OutcomeSuccess:
				setStatus("Objective complete!")
				ph.Profile.RecordCompletion(current.ID, lastStep)
				if err := storage.Save(ph); err != nil {
					l.Warn("profile save failed", slog.Any("err", err))
				}
				telemetry.Event("level_completed", map[string]any{"level": current.ID})
			case sim.OutcomeFailure:
				setStatus(outcome.Message)
			default:
				setStatus("Run finished.")
			}
			if err := store.RecordAttempt(current.ID, outcome, lastStep); err != nil {
				l.Warn("record attempt failed", slog.Any("err", err))
			}
		},
		OnDiagnostic: func(r *editor.TextRange) {
			if r != nil {
				setStatus("Script error")
			}
		},
		OnState: func(s editor.State) {
			l.Debug("controller state", slog.String("state", s.String()))
		},
	}
	ctl := editor.NewController(interp, view, store, hooks, replay.Config{
		StepsPerSecond: cfg.Playback.StepsPerSecond,
	})

	loadLevel := func(lvl *level.Level) {
		ctl.Cancel()
		current = lvl
		src := lvl.InitialCode
		if saved, ok, err := store.LatestScript(lvl.ID); err == nil && ok {
			src = saved
		}
		codeEntry.SetText(src)
		view.setText(src)
		diagLbl.SetText("")
		activeLbl.SetText("")
		showState(lvl.InitialState())
		setStatus(lvl.Objective)
	}

	doRun := func() {
		telemetry.Event("level_run", map[string]any{"level": current.ID})
		if err := ctl.Run(codeEntry.Text, current.ID); err != nil {
			setStatus(err.Error())
			return
		}
		setStatus("Run ready — press Space to play")
	}
	doPlayPause := func() {
		switch ctl.State() {
		case editor.StatePaused:
			ctl.Play()
		case editor.StateRunning:
			ctl.Pause()
		}
	}
	doReset := func() {
		ctl.Cancel()
		telemetry.Event("replay_cancelled", map[string]any{"level": current.ID})
		showState(current.InitialState())
		setStatus("Reset.")
	}

	names := make([]string, len(levels))
	for i, lvl := range levels {
		names[i] = lvl.Name
	}
	levelSelect := widget.NewSelect(names, func(name string) {
		for _, lvl := range levels {
			if lvl.Name == name {
				loadLevel(lvl)
				return
			}
		}
	})

	runBtn := widget.NewButton("Run (Ctrl+Enter)", doRun)
	playBtn := widget.NewButton("Play/Pause (Space)", doPlayPause)
	backBtn := widget.NewButton("◀ Step", func() { ctl.StepBackward() })
	fwdBtn := widget.NewButton("Step ▶", func() { ctl.StepForward() })
	resetBtn := widget.NewButton("Reset (Esc)", doReset)
	controls := container.NewHBox(runBtn, playBtn, backBtn, fwdBtn, resetBtn)

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyReturn, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		doRun()
	})
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeySpace:
			doPlayPause()
		case fyne.KeyRight:
			ctl.StepForward()
		case fyne.KeyLeft:
			ctl.StepBackward()
		case fyne.KeyEscape:
			doReset()
		}
	})

	left := container.NewBorder(
		container.NewVBox(levelSelect, controls),
		container.NewVBox(activeLbl, diagLbl, status),
		nil, nil,
		codeEntry,
	)
	right := container.NewCenter(boardImg)
	w.SetContent(container.NewHSplit(left, right))

	levelSelect.SetSelected(current.Name)
	w.ShowAndRun()
	ctl.Cancel()
	return nil
}
