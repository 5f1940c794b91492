package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// PathsToASCII plots the x-y paths of every trajectory top-down, with equal
// scaling on both axes. Each vehicle is drawn with the first rune of its name
// (digits when names collide) and its final pose is marked '@'.
func PathsToASCII(trs []dynamo.Trajectory, width, height int) string {
	if width < 2 || height < 2 {
		return ""
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	points := 0
	for _, tr := range trs {
		for _, s := range tr.States {
			q := s.Pose()
			minX, maxX = math.Min(minX, q.X()), math.Max(maxX, q.X())
			minY, maxY = math.Min(minY, q.Y()), math.Max(maxY, q.Y())
			points++
		}
	}
	if points == 0 {
		return ""
	}

	// Terminal cells are about twice as tall as they are wide.
	rangeX := math.Max(maxX-minX, 1) * 1.2
	rangeY := math.Max(maxY-minY, 1) * 1.2
	scale := math.Min(float64(width-1)/rangeX, 2*float64(height-1)/rangeY)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	plot := func(x, y float64, r rune) {
		col := int(math.Round(float64(width-1)/2 + (x-cx)*scale))
		row := int(math.Round(float64(height-1)/2 - (y-cy)*scale/2))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = r
		}
	}

	// Axes first so that paths draw over them.
	if col := int(math.Round(float64(width-1)/2 - cx*scale)); col >= 0 && col < width {
		for row := range canvas {
			canvas[row][col] = '│'
		}
	}
	if row := int(math.Round(float64(height-1)/2 + cy*scale/2)); row >= 0 && row < height {
		for col := range canvas[row] {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	for i, tr := range trs {
		mark := pathRune(trs, i)
		for _, s := range tr.States {
			plot(s.Pose().X(), s.Pose().Y(), mark)
		}
		if n := len(tr.States); n > 0 {
			plot(tr.States[n-1].Pose().X(), tr.States[n-1].Pose().Y(), '@')
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func pathRune(trs []dynamo.Trajectory, i int) rune {
	first := func(s string) rune {
		for _, r := range s {
			return r
		}
		return '•'
	}
	r := first(trs[i].Vehicle)
	for j := range trs {
		if j != i && first(trs[j].Vehicle) == r {
			return rune('0' + i%10)
		}
	}
	return r
}
