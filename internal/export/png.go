/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders board frames to PNG and level handouts to PDF.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/chris-ha458/elara/internal/sim"
	"github.com/chris-ha458/elara/internal/storage"
)

// PNGOptions controls PNG rendering.
// - CellSize: pixel edge of one grid cell; defaults to 32
// - ShowGrid: draw cell separators
// - ShowLabels: draw one-letter glyph labels on entities
// - Columns: tiles per row in a contact sheet; defaults to 4
type PNGOptions struct {
	CellSize   int
	ShowGrid   bool
	ShowLabels bool
	Columns    int
}

var (
	colBackground = color.RGBA{255, 255, 255, 255}
	colGrid       = color.RGBA{220, 220, 220, 255}
	colObstacle   = color.RGBA{90, 90, 90, 255}
	colGoal       = color.RGBA{80, 180, 80, 255}
	colEnergy     = color.RGBA{240, 200, 40, 255}
	colData       = color.RGBA{70, 120, 220, 255}
	colGate       = color.RGBA{150, 100, 50, 255}
	colEnemy      = color.RGBA{200, 60, 60, 255}
	colPlayer     = color.RGBA{40, 60, 160, 255}
	colLabel      = color.RGBA{255, 255, 255, 255}
	colCaption    = color.RGBA{0, 0, 0, 255}
)

// RenderState draws one simulation state as a board image.
func RenderState(s sim.State, opt PNGOptions) *image.RGBA {
	cs := opt.CellSize
	if cs <= 0 {
		cs = 32
	}
	w := sim.Width * cs
	h := sim.Height * cs
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colBackground}, image.Point{}, draw.Src)

	if opt.ShowGrid {
		for x := 0; x <= sim.Width; x++ {
			px := min(x*cs, w-1)
			for y := 0; y < h; y++ {
				img.SetRGBA(px, y, colGrid)
			}
		}
		for y := 0; y <= sim.Height; y++ {
			py := min(y*cs, h-1)
			for x := 0; x < w; x++ {
				img.SetRGBA(x, py, colGrid)
			}
		}
	}

	cell := func(p sim.Pos, c color.RGBA, label string) {
		x0 := p.X*cs + 1
		y0 := p.Y*cs + 1
		fillRect(img, x0, y0, p.X*cs+cs-2, p.Y*cs+cs-2, c)
		if opt.ShowLabels && label != "" {
			drawLabel(img, x0+cs/2-3, y0+cs/2+4, label, colLabel)
		}
	}

	for _, o := range s.Obstacles {
		cell(o.Pos, colObstacle, "")
	}
	for _, g := range s.Goals {
		cell(g.Pos, colGoal, "X")
	}
	for _, ec := range s.EnergyCells {
		if !ec.Collected {
			cell(ec.Pos, colEnergy, "E")
		}
	}
	for _, dp := range s.DataPoints {
		cell(dp.Pos, colData, "D")
	}
	for _, g := range s.Gates {
		if g.Open {
			strokeRect(img, g.Pos.X*cs+1, g.Pos.Y*cs+1, g.Pos.X*cs+cs-2, g.Pos.Y*cs+cs-2, colGate)
		} else {
			cell(g.Pos, colGate, "G")
		}
	}
	for _, e := range s.Enemies {
		cell(e.Pos, colEnemy, "M")
	}
	cell(s.Player.Pos, colPlayer, "R")
	return img
}

// ExportStatePNG writes one rendered frame to outPath. A relative outPath is
// placed under the profile's exports folder.
func ExportStatePNG(ph *storage.ProfileHandle, s sim.State, outPath string, opt PNGOptions) error {
	img := RenderState(s, opt)
	return writePNG(ph, outPath, img)
}

// ExportContactSheet tiles a run's frames into a single PNG, each tile
// captioned with its step number. Useful for sharing a whole replay at a
// glance.
func ExportContactSheet(ph *storage.ProfileHandle, frames []sim.State, outPath string, opt PNGOptions) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to export")
	}
	cols := opt.Columns
	if cols <= 0 {
		cols = 4
	}
	if cols > len(frames) {
		cols = len(frames)
	}
	rows := (len(frames) + cols - 1) / cols

	cs := opt.CellSize
	if cs <= 0 {
		cs = 32
	}
	tileW := sim.Width * cs
	tileH := sim.Height * cs
	const margin = 8
	const caption = 16

	sheet := image.NewRGBA(image.Rect(0, 0,
		margin+cols*(tileW+margin),
		margin+rows*(tileH+caption+margin)))
	draw.Draw(sheet, sheet.Bounds(), &image.Uniform{C: colBackground}, image.Point{}, draw.Src)

	for i, s := range frames {
		tile := RenderState(s, opt)
		x0 := margin + (i%cols)*(tileW+margin)
		y0 := margin + (i/cols)*(tileH+caption+margin)
		dst := image.Rect(x0, y0, x0+tileW, y0+tileH)
		draw.Draw(sheet, dst, tile, image.Point{}, draw.Src)
		drawLabel(sheet, x0, y0+tileH+caption-4, fmt.Sprintf("step %d", s.Step), colCaption)
	}
	return writePNG(ph, outPath, sheet)
}

func writePNG(ph *storage.ProfileHandle, outPath string, img image.Image) error {
	if !filepath.IsAbs(outPath) && ph != nil {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func drawLabel(img *image.RGBA, x, y int, text string, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
