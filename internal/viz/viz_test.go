package viz

import (
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mv2dsim/internal/confnode"
	_ "github.com/san-kum/mv2dsim/internal/dynamics"
	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/physics"
	"github.com/san-kum/mv2dsim/internal/vehicle"
	"github.com/san-kum/mv2dsim/internal/world"
)

const twoRobots = `
<world timestep="0.01">
  <vehicle class="differential" name="r1" pose="0 0 0">
    <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
              outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15">
      <controller class="twist" v="0.5" w="0"/>
    </dynamics>
  </vehicle>
  <vehicle class="differential" name="r2" pose="2 1 90">
    <dynamics wheel_separation="0.3" wheel_radius="0.05" mass="15"
              outline="-0.2 -0.15; 0.2 -0.15; 0.2 0.15; -0.2 0.15"/>
  </vehicle>
</world>`

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	w := world.New(world.DefaultConfig())
	t.Cleanup(func() { w.Close() })
	if err := w.LoadWorldText(twoRobots); err != nil {
		t.Fatal(err)
	}
	m, err := NewModel(w, opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.Dots()
	if w != 8 || h != 8 {
		t.Fatalf("dots = %dx%d, want 8x8", w, h)
	}

	c.Set(0, 0)
	c.Set(3, 7)
	c.Set(-1, 2)
	c.Set(100, 0)
	if !c.IsSet(0, 0) || !c.IsSet(3, 7) {
		t.Error("expected pixels to be set")
	}
	if c.Grid[0][0] != blank+0x1 {
		t.Errorf("cell (0,0) = %U", c.Grid[0][0])
	}
	if c.Grid[1][1] != blank+0x80 {
		t.Errorf("cell (1,1) = %U", c.Grid[1][1])
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("clear left a pixel set")
	}
	if lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n"); len(lines) != 2 {
		t.Errorf("expected 2 rows, got %d", len(lines))
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 3)
	c.DrawLine(0, 0, 9, 0)
	for x := 0; x <= 9; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("pixel (%d,0) not set", x)
		}
	}

	c.Clear()
	c.DrawLine(0, 0, 1e6, 1e6)
	if c.IsSet(0, 0) {
		t.Error("far segment should be dropped")
	}
}

func TestCanvasDrawPolygon(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawPolygon([][2]int{{2, 2}, {10, 2}, {10, 10}, {2, 10}})
	for _, p := range [][2]int{{2, 2}, {10, 2}, {10, 10}, {2, 10}, {6, 2}, {2, 6}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("pixel %v not set", p)
		}
	}
	if c.IsSet(6, 6) {
		t.Error("polygon interior should be empty")
	}
}

func TestViewportProject(t *testing.T) {
	c := NewCanvas(10, 5) // 20x20 dots
	vp := Viewport{CenterX: 1, CenterY: 1, Scale: 2}

	tests := []struct {
		x, y   float64
		px, py int
	}{
		{1, 1, 10, 10},
		{2, 1, 12, 10},
		{1, 2, 10, 8},
		{0, 0, 8, 12},
	}
	for _, tt := range tests {
		px, py := vp.Project(c, tt.x, tt.y)
		if px != tt.px || py != tt.py {
			t.Errorf("Project(%g,%g) = (%d,%d), want (%d,%d)", tt.x, tt.y, px, py, tt.px, tt.py)
		}
	}
}

func TestFit(t *testing.T) {
	c := NewCanvas(10, 5)
	vp := Fit(c, [][2]float64{{-2, 0}, {2, 1}}, 0)
	if vp.CenterX != 0 || vp.CenterY != 0.5 {
		t.Errorf("center = (%g,%g)", vp.CenterX, vp.CenterY)
	}

	w, h := c.Dots()
	sets := [][][2]float64{
		{{-2, 0}, {2, 1}},
		{{0, -3}, {0, 3}},
		{{-7, -7}, {7, 7}, {3, -1}},
	}
	for _, pts := range sets {
		vp := Fit(c, pts, 0)
		for _, p := range pts {
			x, y := vp.Project(c, p[0], p[1])
			if x < 0 || x >= w || y < 0 || y >= h {
				t.Errorf("fit %v: point %v projected outside canvas at (%d,%d)", pts, p, x, y)
			}
		}
	}

	if empty := Fit(c, nil, 1); empty.Scale != 2 {
		t.Errorf("empty fit scale = %g, want 2", empty.Scale)
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("retro").Name != "retro" {
		t.Error("expected retro theme")
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names mismatch")
	}
	if nextTheme(Themes[len(Themes)-1]).Name != Themes[0].Name {
		t.Error("theme cycle should wrap")
	}
}

func TestFootprint(t *testing.T) {
	m := newTestModel(t, Options{})
	v, _ := m.world.Vehicle("r2")
	fp := footprint(v)
	if len(fp) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(fp))
	}
	// r2 sits at (2, 1) facing +y, so the body-frame corner (0.2, 0.15)
	// lands at (1.85, 1.2).
	if math.Abs(fp[2][0]-1.85) > 1e-9 || math.Abs(fp[2][1]-1.2) > 1e-9 {
		t.Errorf("corner = %v", fp[2])
	}
}

func TestTickAdvancesWorld(t *testing.T) {
	m := newTestModel(t, Options{Speed: 1, FPS: 10})
	m = update(m, TickMsg{})

	if got := m.world.StepIndex(); got != 10 {
		t.Errorf("expected 10 ticks per frame, got %d", got)
	}
	if len(m.trails["r1"]) != 2 {
		t.Errorf("expected 2 trail points, got %d", len(m.trails["r1"]))
	}
	if m.trails["r1"][1][0] <= 0 {
		t.Error("r1 should have moved forward")
	}
}

func TestPauseStopsTicks(t *testing.T) {
	m := newTestModel(t, Options{FPS: 10})
	m = update(m, key("space"))
	if m.running {
		t.Fatal("expected paused")
	}
	m = update(m, TickMsg{})
	if m.world.StepIndex() != 0 {
		t.Error("paused view should not step")
	}
}

func TestDurationStops(t *testing.T) {
	m := newTestModel(t, Options{Speed: 1, FPS: 10, Duration: 0.05})
	m = update(m, TickMsg{})
	if m.world.StepIndex() != 5 {
		t.Errorf("expected 5 ticks, got %d", m.world.StepIndex())
	}
	if m.running {
		t.Error("expected view to stop at duration")
	}
}

func TestKeys(t *testing.T) {
	m := newTestModel(t, Options{})

	m = update(m, key("tab"))
	if m.selectedVehicle().Name() != "r2" {
		t.Errorf("selected %s", m.selectedVehicle().Name())
	}
	m = update(m, key("tab"))
	if m.selectedVehicle().Name() != "r1" {
		t.Error("selection should wrap")
	}

	m = update(m, key("f"))
	if !m.follow || m.autoFit {
		t.Error("expected follow mode")
	}
	m = update(m, key("+"))
	if m.autoFit || m.view.Scale <= 0 {
		t.Error("zoom should leave a positive manual scale")
	}
	m = update(m, key("a"))
	if !m.autoFit || m.follow {
		t.Error("expected auto fit")
	}

	th := m.theme.Name
	m = update(m, key("t"))
	if m.theme.Name == th {
		t.Error("theme did not change")
	}

	m = update(m, key("c"))
	if len(m.trails["r1"]) != 0 {
		t.Error("trails not cleared")
	}

	m = update(m, tea.WindowSizeMsg{Width: 140, Height: 40})
	if m.canvas.Width != 140-statsWidth-6 || m.canvas.Height != 36 {
		t.Errorf("canvas %dx%d", m.canvas.Width, m.canvas.Height)
	}
}

func TestViewRenders(t *testing.T) {
	m := newTestModel(t, Options{FPS: 10})
	m = update(m, TickMsg{})
	m = update(m, TickMsg{})

	out := m.View()
	for _, want := range []string{"MV2DSIM", "r1", "r2", "differential", "RUNNING"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(m, key("?"))
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("help overlay missing")
	}
}

// jammed fails its first pre-step.
type jammed struct{}

func (jammed) LoadDynamicsParams(confnode.Node) error { return nil }

func (jammed) CreateMultibodySystem(f physics.BodyFactory, q0, dq0 dynamo.Vec3) (*physics.Body, error) {
	b, err := f.CreateBody(physics.BodyDef{Position: mgl64.Vec2{q0[0], q0[1]}})
	if err != nil {
		return nil, err
	}
	return b, b.CreateFixture(physics.FixtureDef{
		Vertices: []mgl64.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
		Density:  1,
	})
}

func (jammed) PreStep(dynamo.SimulContext, *physics.Body) error { return errors.New("jammed") }

func TestFailureShown(t *testing.T) {
	reg := vehicle.NewRegistry()
	reg.MustRegister("jammed", func(vehicle.Parent, confnode.Node) (vehicle.Model, error) { return jammed{}, nil })

	w := world.New(world.DefaultConfig(), world.WithRegistry(reg))
	defer w.Close()
	if _, err := w.LoadVehicleText(`<vehicle class="jammed" name="j" pose="0 0 0"><dynamics/></vehicle>`); err != nil {
		t.Fatal(err)
	}
	m, err := NewModel(w, Options{FPS: 10})
	if err != nil {
		t.Fatal(err)
	}

	m = update(m, TickMsg{})
	if m.err == nil || m.running {
		t.Fatal("expected the view to stop on a failed tick")
	}
	if !strings.Contains(m.View(), "FAILED") {
		t.Error("failure not rendered")
	}
}
