// Package sheet renders a printable character sheet (parchment style) for a
// finished or in-progress setup: attributes down the left, quests with their
// experience share and affected attributes on the right.
package sheet

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
)

const (
	pageW      = 595
	pageH      = 842
	margin     = 40
	titleSize  = 18
	headSize   = 11
	fontSize   = 9
	rowH       = 16.0
	attrColW   = 150.0
	barW       = 120.0
	maxNameLen = 28
)

// Generate returns PDF bytes for the sheet. An empty title falls back to
// "Character Sheet".
func Generate(attrs []game.Attribute, quests []game.Quest, title string) ([]byte, error) {
	pdf := render(attrs, quests, title)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func render(attrs []game.Attribute, quests []game.Quest, title string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	used := 0
	for _, q := range quests {
		used += q.ExperiencePointValue
	}

	newPage(pdf)
	if title == "" {
		title = "Character Sheet"
	}
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(margin+10, margin+12)
	pdf.CellFormat(pageW-2*margin-20, 20, tr(title), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	pdf.SetXY(margin+10, margin+34)
	pdf.CellFormat(pageW-2*margin-20, 12,
		fmt.Sprintf("%d of %d experience points assigned", used, game.ExperiencePool),
		"", 0, "C", false, 0, "")

	top := float64(margin) + 64
	left := float64(margin) + 16
	right := left + attrColW + 20

	// Attributes column
	pdf.SetFont("Helvetica", "B", headSize)
	pdf.SetXY(left, top)
	pdf.CellFormat(attrColW, rowH, "Attributes", "B", 0, "L", false, 0, "")
	y := top + rowH + 4
	for _, a := range attrs {
		if y > pageH-margin-rowH {
			nextPage(pdf)
			y = float64(margin) + 24
		}
		drawAttribute(pdf, tr, left, y, a)
		y += rowH
	}

	// Quests column, starting back on the first page.
	pdf.SetPage(1)
	pdf.SetFont("Helvetica", "B", headSize)
	pdf.SetXY(right, top)
	pdf.CellFormat(pageW-margin-16-right, rowH, "Quests", "B", 0, "L", false, 0, "")
	y = top + rowH + 4
	for _, q := range quests {
		need := rowH * float64(1+linesFor(q))
		if y+need > pageH-margin-rowH {
			nextPage(pdf)
			y = float64(margin) + 24
		}
		y = drawQuest(pdf, tr, right, y, q)
	}
	return pdf
}

// nextPage moves to the following page, adding one when the other column
// has not already.
func nextPage(pdf *gofpdf.Fpdf) {
	if n := pdf.PageNo(); n < pdf.PageCount() {
		pdf.SetPage(n + 1)
		return
	}
	newPage(pdf)
}

func newPage(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pdf.SetFillColor(245, 235, 210)
	pdf.Rect(0, 0, pageW, pageH, "F")
	drawWavyBorder(pdf)
	pdf.SetDrawColor(80, 50, 30)
	pdf.SetTextColor(80, 50, 30)
	pdf.SetLineWidth(1)
}

func drawAttribute(pdf *gofpdf.Fpdf, tr func(string) string, x, y float64, a game.Attribute) {
	// Required attribute gets a filled marker.
	style := "D"
	if game.IsSentinel(a.Name) {
		pdf.SetFillColor(180, 40, 40)
		style = "FD"
	}
	pdf.Circle(x+4, y+rowH/2, 3, style)
	pdf.SetFont("Helvetica", "", fontSize)
	pdf.SetXY(x+12, y)
	pdf.CellFormat(attrColW-12, rowH, tr(fmt.Sprintf("%d. %s", a.Order+1, truncate(a.Name))), "", 0, "L", false, 0, "")
}

// linesFor is how many affected-attribute lines a quest needs (three per line).
func linesFor(q game.Quest) int {
	return int(math.Ceil(float64(len(q.AffectedAttributes)) / 3))
}

func drawQuest(pdf *gofpdf.Fpdf, tr func(string) string, x, y float64, q game.Quest) float64 {
	w := pageW - margin - 16 - x
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetXY(x, y)
	pdf.CellFormat(w-barW-8, rowH, tr(truncate(q.Name)), "", 0, "L", false, 0, "")

	// Experience bar, filled proportionally to the pool.
	bx := x + w - barW
	by := y + 4
	pdf.Rect(bx, by, barW, rowH-8, "D")
	if q.ExperiencePointValue > 0 {
		pdf.SetFillColor(180, 140, 60)
		pdf.Rect(bx, by, barW*float64(q.ExperiencePointValue)/game.ExperiencePool, rowH-8, "F")
	}
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(bx, y)
	pdf.CellFormat(barW, rowH, fmt.Sprintf("%d xp", q.ExperiencePointValue), "", 0, "C", false, 0, "")
	y += rowH

	pdf.SetFont("Helvetica", "I", 8)
	for i := 0; i < len(q.AffectedAttributes); i += 3 {
		end := min(i+3, len(q.AffectedAttributes))
		parts := make([]string, 0, 3)
		for _, aa := range q.AffectedAttributes[i:end] {
			parts = append(parts, truncate(aa.Name)+aa.Strength.Label())
		}
		pdf.SetXY(x+10, y)
		pdf.CellFormat(w-10, rowH, tr(strings.Join(parts, ", ")), "", 0, "L", false, 0, "")
		y += rowH
	}
	return y + 4
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) > maxNameLen {
		return string(r[:maxNameLen-3]) + "..."
	}
	return s
}

// drawWavyBorder draws the tattered page edge.
func drawWavyBorder(pdf *gofpdf.Fpdf) {
	pts := wavyRectPoints(margin, margin, pageW-2*margin, pageH-2*margin, 12, 4)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Polygon(pts, "D")
	pdf.SetLineWidth(1)
}

// wavyRectPoints returns polygon points for a rectangle with sinusoidal wobble on each side.
func wavyRectPoints(x, y, w, h float64, steps int, amp float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, 0, steps*4+4)
	side := func(x0, y0, dx, dy, fx, fy float64, from int) {
		for i := from; i <= steps; i++ {
			t := float64(i) / float64(steps)
			pts = append(pts, gofpdf.PointType{
				X: x0 + t*dx + amp*math.Sin(float64(i)*fx),
				Y: y0 + t*dy + amp*math.Cos(float64(i)*fy),
			})
		}
	}
	side(x, y, w, 0, 0.7, 0.5, 0)
	side(x+w, y, 0, h, 0.6, 0.4, 1)
	side(x+w, y+h, -w, 0, 0.8, 0.3, 1)
	side(x, y+h, 0, -h, 0.5, 0.6, 1)
	return pts
}
