package confnode

import (
	"fmt"
	"math"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// MaxOutlineVertices matches the polygon vertex limit of the physics engine.
const MaxOutlineVertices = 8

// MinVertexSpacing is the physics engine's linear slop. Vertices closer than
// this are welded together by the engine.
const MinVertexSpacing = 0.005

// Outline is a validated chassis polygon in vehicle-local coordinates.
type Outline struct {
	Vertices [][2]float64
	Area     float64
	// HullArea is the area of the convex hull, which is the shape the
	// physics engine actually builds.
	HullArea float64
	Centroid [2]float64
}

// ParseOutline reads the "outline" attribute of n ("x y; x y; ...") or, when
// absent, an <outline> child listing <pt>x y</pt> elements.
func ParseOutline(n Node) (Outline, error) {
	if raw, ok := n.Attr("outline"); ok {
		pts, err := parsePoints(strings.Split(raw, ";"))
		if err != nil {
			return Outline{}, dynamo.Malformed(n.Tag(), "outline", raw, "%v", err)
		}
		return newOutline(n.Tag(), pts)
	}
	child := n.Child("outline")
	if child == nil {
		return Outline{}, dynamo.Malformed(n.Tag(), "outline", "", "required attribute missing")
	}
	var rows []string
	for _, pt := range ChildrenByTag(child, "pt") {
		rows = append(rows, pt.Text())
	}
	pts, err := parsePoints(rows)
	if err != nil {
		return Outline{}, dynamo.Malformed("outline", "pt", "", "%v", err)
	}
	return newOutline("outline", pts)
}

func parsePoints(rows []string) ([][2]float64, error) {
	pts := make([][2]float64, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row) == "" {
			continue
		}
		vals, err := SplitFloats(row)
		if err != nil || len(vals) != 2 {
			return nil, fmt.Errorf("point %d: expected two numbers", i)
		}
		pts = append(pts, [2]float64{vals[0], vals[1]})
	}
	return pts, nil
}

func newOutline(element string, pts [][2]float64) (Outline, error) {
	if len(pts) < 3 || len(pts) > MaxOutlineVertices {
		return Outline{}, dynamo.Malformed(element, "outline", "", "need 3..%d vertices, got %d", MaxOutlineVertices, len(pts))
	}
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1]) < MinVertexSpacing {
				return Outline{}, dynamo.Malformed(element, "outline", "", "vertices %d and %d closer than %g", i, j, MinVertexSpacing)
			}
		}
	}

	coords := make([]float64, 0, 2*(len(pts)+1))
	for _, p := range pts {
		coords = append(coords, p[0], p[1])
	}
	coords = append(coords, pts[0][0], pts[0][1])

	ring, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		return Outline{}, dynamo.Malformed(element, "outline", "", "invalid ring: %v", err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return Outline{}, dynamo.Malformed(element, "outline", "", "invalid polygon: %v", err)
	}

	area := poly.Area()
	if area <= 0 {
		return Outline{}, dynamo.Malformed(element, "outline", "", "polygon has no area")
	}
	hull := poly.ConvexHull()
	hullArea := hull.Area()
	if hull.Type() != geom.TypePolygon || hullArea < MinVertexSpacing*MinVertexSpacing {
		return Outline{}, dynamo.Malformed(element, "outline", "", "degenerate convex hull")
	}

	out := Outline{Vertices: pts, Area: area, HullArea: hullArea}
	if xy, ok := poly.Centroid().XY(); ok {
		out.Centroid = [2]float64{xy.X, xy.Y}
	}
	return out, nil
}
