// Package export renders recorded runs for use outside the terminal.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// Palette colors the vehicles of a run in order.
var Palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#0088ff"}

// TrajectoriesSVG draws the top-down path of every vehicle with equal axis
// scaling. Starts are marked with a ring, final poses with a heading tick.
func TrajectoriesSVG(result *dynamo.Result, width, height int) string {
	var pts [][2]float64
	for _, tr := range result.Trajectories {
		for _, s := range tr.States {
			pts = append(pts, [2]float64{s.Pose().X(), s.Pose().Y()})
		}
	}
	if len(pts) == 0 {
		return ""
	}

	minX, maxX := pts[0][0], pts[0][0]
	minY, maxY := pts[0][1], pts[0][1]
	for _, p := range pts {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	// Add padding
	rangeX := math.Max(maxX-minX, 1) * 1.2
	rangeY := math.Max(maxY-minY, 1) * 1.2
	scale := math.Min(float64(width)/rangeX, float64(height)/rangeY)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	project := func(x, y float64) (float64, float64) {
		return float64(width)/2 + (x-cx)*scale, float64(height)/2 - (y-cy)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, tr := range result.Trajectories {
		if len(tr.States) == 0 {
			continue
		}
		color := Palette[i%len(Palette)]

		fmt.Fprintf(&sb, `<g id="%s" stroke="%s" fill="none">
<path stroke-width="1.5" d="M`, xmlEscape(tr.Vehicle), color)
		for j, s := range tr.States {
			x, y := project(s.Pose().X(), s.Pose().Y())
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		first, last := tr.States[0].Pose(), tr.States[len(tr.States)-1].Pose()
		x0, y0 := project(first.X(), first.Y())
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"4\"/>\n", x0, y0)

		x1, y1 := project(last.X(), last.Y())
		s, c := math.Sincos(last.Yaw())
		fmt.Fprintf(&sb, "<line stroke-width=\"3\" x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n",
			x1, y1, x1+12*c, y1-12*s)
		fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\" fill=\"%s\" stroke=\"none\" font-size=\"12\">%s</text>\n</g>\n",
			x1+6, y1-6, color, xmlEscape(tr.Vehicle))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteSVG writes TrajectoriesSVG of result to w.
func WriteSVG(w io.Writer, result *dynamo.Result, width, height int) error {
	svg := TrajectoriesSVG(result, width, height)
	if svg == "" {
		return fmt.Errorf("no trajectory data")
	}
	_, err := io.WriteString(w, svg)
	return err
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func xmlEscape(s string) string { return xmlEscaper.Replace(s) }
