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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/chris-ha458/elara/internal/level"
	"github.com/chris-ha458/elara/internal/sim"
	"github.com/chris-ha458/elara/internal/storage"
)

// PDFOptions controls the level handout exporter.
// Built-in Helvetica and Courier keep the text vector without font embedding.
type PDFOptions struct {
	IncludeBoard  bool
	IncludeScript bool
	Author        string
}

// ExportLevelPDF writes a one-level handout: name and objective, the starting
// board as a diagram, the script listing, and the run outcome if one is
// given. A relative outPath is placed under the profile's exports folder.
func ExportLevelPDF(ph *storage.ProfileHandle, lvl *level.Level, script string, outcome *sim.Outcome, outPath string, opt PDFOptions) error {
	if lvl == nil {
		return fmt.Errorf("level is nil")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: 595.28, Ht: 841.89}, // A4
		OrientationStr: "",
	})
	pdf.SetTitle(fmt.Sprintf("Elara — %s", lvl.Name), false)
	author := opt.Author
	if author == "" {
		author = "Elara"
	}
	pdf.SetAuthor(author, false)
	pdf.AddPage()

	const margin = 56.0
	y := margin

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(margin, y, lvl.Name)
	y += 28

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range wrapText(lvl.Objective, 80) {
		pdf.Text(margin, y, line)
		y += 16
	}
	y += 12

	if opt.IncludeBoard {
		y = drawBoard(pdf, lvl.InitialState(), margin, y)
		y += 20
	}

	if opt.IncludeScript {
		src := script
		if src == "" {
			src = lvl.InitialCode
		}
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Text(margin, y, "Script")
		y += 18
		pdf.SetFont("Courier", "", 10)
		for _, line := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
			pdf.Text(margin, y, line)
			y += 13
		}
		y += 12
	}

	if outcome != nil {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Text(margin, y, "Outcome")
		y += 18
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(margin, y, outcomeLine(*outcome))
	}

	if !filepath.IsAbs(outPath) && ph != nil {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// drawBoard renders the state as a grid of filled cells, matching the PNG
// renderer's color scheme. Returns the y coordinate below the diagram.
func drawBoard(pdf *gofpdf.Fpdf, s sim.State, x, y float64) float64 {
	const cell = 24.0
	pdf.SetLineWidth(0.4)
	pdf.SetDrawColor(180, 180, 180)

	fill := func(p sim.Pos, r, g, b int) {
		pdf.SetFillColor(r, g, b)
		pdf.Rect(x+float64(p.X)*cell, y+float64(p.Y)*cell, cell, cell, "FD")
	}

	// empty grid first
	pdf.SetFillColor(255, 255, 255)
	for gx := 0; gx < sim.Width; gx++ {
		for gy := 0; gy < sim.Height; gy++ {
			pdf.Rect(x+float64(gx)*cell, y+float64(gy)*cell, cell, cell, "FD")
		}
	}

	for _, o := range s.Obstacles {
		fill(o.Pos, 90, 90, 90)
	}
	for _, g := range s.Goals {
		fill(g.Pos, 80, 180, 80)
	}
	for _, ec := range s.EnergyCells {
		if !ec.Collected {
			fill(ec.Pos, 240, 200, 40)
		}
	}
	for _, dp := range s.DataPoints {
		fill(dp.Pos, 70, 120, 220)
	}
	for _, g := range s.Gates {
		if !g.Open {
			fill(g.Pos, 150, 100, 50)
		}
	}
	for _, e := range s.Enemies {
		fill(e.Pos, 200, 60, 60)
	}
	fill(s.Player.Pos, 40, 60, 160)

	return y + float64(sim.Height)*cell
}

func outcomeLine(o sim.Outcome) string {
	switch o.Kind {
	case sim.OutcomeSuccess:
		return "Objective complete."
	case sim.OutcomeFailure:
		if o.Message != "" {
			return "Failed: " + o.Message
		}
		return "Failed."
	case sim.OutcomeNoObjective:
		return "Sandbox run (no objective)."
	default:
		return "Run still in progress."
	}
}

// wrapText performs a simple greedy word wrap at width runes.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if len(cur)+1+len(w) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	return append(lines, cur)
}
