/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chris-ha458/elara/internal/level"
	"github.com/chris-ha458/elara/internal/sim"
	"github.com/chris-ha458/elara/internal/storage"
)

func testState() sim.State {
	return sim.State{
		Player:      sim.Player{Pos: sim.Pos{X: 0, Y: 3}, Energy: 12, Facing: sim.DirRight},
		Goals:       []sim.Goal{{Pos: sim.Pos{X: 5, Y: 3}}},
		EnergyCells: []sim.EnergyCell{{Pos: sim.Pos{X: 2, Y: 3}}},
		Obstacles:   []sim.Obstacle{{Pos: sim.Pos{X: 3, Y: 2}}},
		Gates:       []sim.PasswordGate{{Pos: sim.Pos{X: 4, Y: 4}, Password: "pw"}},
		DataPoints:  []sim.DataPoint{{Pos: sim.Pos{X: 1, Y: 1}, Data: "pw"}},
		Enemies:     []sim.Enemy{{Pos: sim.Pos{X: 9, Y: 0}}},
	}
}

func testProfile(t *testing.T) *storage.ProfileHandle {
	t.Helper()
	ph, err := storage.InitProfile(t.TempDir(), storage.NewProfile("ada"))
	if err != nil {
		t.Fatalf("InitProfile: %v", err)
	}
	return ph
}

func TestRenderStateDimensions(t *testing.T) {
	img := RenderState(testState(), PNGOptions{CellSize: 16, ShowGrid: true, ShowLabels: true})
	b := img.Bounds()
	if b.Dx() != sim.Width*16 || b.Dy() != sim.Height*16 {
		t.Fatalf("bounds: %v", b)
	}
}

func TestExportStatePNG(t *testing.T) {
	ph := testProfile(t)
	if err := ExportStatePNG(ph, testState(), "board.png", PNGOptions{ShowGrid: true}); err != nil {
		t.Fatalf("ExportStatePNG: %v", err)
	}
	path := filepath.Join(ph.Root, "exports", "board.png")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read exported png: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != sim.Width*32 {
		t.Fatalf("default cell size not applied: %v", img.Bounds())
	}
}

func TestExportContactSheet(t *testing.T) {
	ph := testProfile(t)
	s := testState()
	frames := []sim.State{s, s, s, s, s} // 5 frames, 4 columns -> 2 rows
	if err := ExportContactSheet(ph, frames, "sheet.png", PNGOptions{CellSize: 8}); err != nil {
		t.Fatalf("ExportContactSheet: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(ph.Root, "exports", "sheet.png"))
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tileW := sim.Width * 8
	wantW := 8 + 4*(tileW+8)
	if img.Bounds().Dx() != wantW {
		t.Fatalf("sheet width: got %d want %d", img.Bounds().Dx(), wantW)
	}

	if err := ExportContactSheet(ph, nil, "empty.png", PNGOptions{}); err == nil {
		t.Fatalf("empty frame list must error")
	}
}

func TestExportLevelPDF(t *testing.T) {
	cat, err := level.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	lvl, ok := cat.ByID("first_steps")
	if !ok {
		t.Fatalf("level first_steps missing")
	}
	ph := testProfile(t)
	out := &sim.Outcome{Kind: sim.OutcomeSuccess}
	err = ExportLevelPDF(ph, lvl, "(move-right 5)\n", out, "handout.pdf", PDFOptions{IncludeBoard: true, IncludeScript: true})
	if err != nil {
		t.Fatalf("ExportLevelPDF: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(ph.Root, "exports", "handout.pdf"))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(b) == 0 || !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf: %d bytes", len(b))
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("drive the rover to the exit without running out of energy", 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	for _, l := range lines {
		if len(l) > 20 {
			t.Fatalf("line too long: %q", l)
		}
	}
	if got := wrapText("", 10); len(got) != 1 || got[0] != "" {
		t.Fatalf("empty input: %v", got)
	}
}
