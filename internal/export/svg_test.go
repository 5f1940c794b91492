package export

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

func sampleResult() *dynamo.Result {
	line := dynamo.Trajectory{Vehicle: "r1", Class: "differential"}
	turn := dynamo.Trajectory{Vehicle: "a<b", Class: "ackermann"}
	for i := 0; i < 10; i++ {
		f := float64(i)
		line.States = append(line.States, dynamo.NewState(dynamo.Vec3{f, 0, 0}, dynamo.Vec3{}))
		turn.States = append(turn.States, dynamo.NewState(dynamo.Vec3{0, f, 1.57}, dynamo.Vec3{}))
	}
	return &dynamo.Result{Dt: 0.1, Trajectories: []dynamo.Trajectory{line, turn}}
}

func TestTrajectoriesSVG(t *testing.T) {
	svg := TrajectoriesSVG(sampleResult(), 400, 300)
	require.NotEmpty(t, svg)

	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Equal(t, 2, strings.Count(svg, "<path"))
	assert.Contains(t, svg, Palette[0])
	assert.Contains(t, svg, Palette[1])
	assert.Contains(t, svg, "a&lt;b")
	assert.NotContains(t, svg, "a<b")

	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error(), "svg must be well-formed XML")
			break
		}
	}
}

var pathPoint = regexp.MustCompile(`[ML](-?[0-9.]+),(-?[0-9.]+)`)

func TestTrajectoriesSVGFitsCanvas(t *testing.T) {
	svg := TrajectoriesSVG(sampleResult(), 400, 300)
	matches := pathPoint.FindAllStringSubmatch(svg, -1)
	require.Len(t, matches, 20)
	for _, m := range matches {
		x, _ := strconv.ParseFloat(m[1], 64)
		y, _ := strconv.ParseFloat(m[2], 64)
		assert.True(t, x >= 0 && x <= 400, "x %g outside canvas", x)
		assert.True(t, y >= 0 && y <= 300, "y %g outside canvas", y)
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, sampleResult(), 200, 200))
	assert.Contains(t, buf.String(), "</svg>")

	assert.Error(t, WriteSVG(&buf, &dynamo.Result{}, 200, 200))
}
