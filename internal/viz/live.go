package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mv2dsim/internal/dynamo"
	"github.com/san-kum/mv2dsim/internal/vehicle"
	"github.com/san-kum/mv2dsim/internal/world"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	statsWidth      = 52
	trailCapacity   = 400
	historyCapacity = 120
	fitMargin       = 1.0
)

type TickMsg time.Time

type Options struct {
	// Speed is simulated seconds per wall-clock second.
	Speed float64
	FPS   int
	Theme string
	// Duration stops the simulation once world time reaches it; 0 runs on.
	Duration float64
}

func (o Options) withDefaults() Options {
	if o.Speed <= 0 {
		o.Speed = 1
	}
	if o.FPS <= 0 {
		o.FPS = 30
	}
	return o
}

// outliner is implemented by models that expose their chassis polygon.
type outliner interface {
	Outline() [][2]float64
}

// Model is the Bubble Tea model of the live view.
type Model struct {
	world    *world.World
	opts     Options
	canvas   *Canvas
	view     Viewport
	autoFit  bool
	follow   bool
	running  bool
	selected int
	theme    Theme
	styles   styles
	trails   map[string][][2]float64
	speeds   map[string][]float64
	err      error
	showHelp bool
}

// NewModel creates the bodies of w if needed and returns the view model.
func NewModel(w *world.World, opts Options) (Model, error) {
	if err := w.Init(); err != nil {
		return Model{}, err
	}
	opts = opts.withDefaults()
	th := GetTheme(opts.Theme)
	m := Model{
		world:   w,
		opts:    opts,
		canvas:  NewCanvas(defaultWidth, defaultHeight),
		autoFit: true,
		running: true,
		theme:   th,
		styles:  newStyles(th),
		trails:  make(map[string][][2]float64),
		speeds:  make(map[string][]float64),
	}
	m.record()
	return m, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and advances the world.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "tab":
			if n := len(m.world.Vehicles()); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "f":
			m.view = m.currentView()
			m.follow = !m.follow
			if m.follow {
				m.autoFit = false
			}
		case "a":
			m.autoFit, m.follow = true, false
		case "+", "=":
			m.zoom(1.25)
		case "-":
			m.zoom(0.8)
		case "left":
			m.pan(-1, 0)
		case "right":
			m.pan(1, 0)
		case "up":
			m.pan(0, 1)
		case "down":
			m.pan(0, -1)
		case "c":
			for k := range m.trails {
				m.trails[k] = m.trails[k][:0]
			}
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}

	case tea.WindowSizeMsg:
		w := max(msg.Width-statsWidth-6, 20)
		h := max(msg.Height-4, 8)
		m.canvas = NewCanvas(w, h)

	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) zoom(factor float64) {
	m.view = m.currentView()
	m.view.Scale *= factor
	m.autoFit = false
}

// pan shifts the view by a tenth of its width.
func (m *Model) pan(dx, dy float64) {
	m.view = m.currentView()
	w, _ := m.canvas.Dots()
	step := float64(w) / m.view.Scale / 10
	m.view.CenterX += dx * step
	m.view.CenterY += dy * step
	m.autoFit, m.follow = false, false
}

// advance runs as many ticks as one frame covers at the configured speed.
func (m *Model) advance() {
	steps := int(math.Max(1, math.Round(m.opts.Speed/(float64(m.opts.FPS)*m.world.Dt()))))
	for i := 0; i < steps; i++ {
		if m.opts.Duration > 0 && m.world.Time() >= m.opts.Duration-1e-9 {
			m.running = false
			break
		}
		if err := m.world.Step(); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	m.record()
}

func (m *Model) record() {
	for _, v := range m.world.Vehicles() {
		q := v.Pose()
		m.trails[v.Name()] = appendCapped(m.trails[v.Name()], [2]float64{q.X(), q.Y()}, trailCapacity)
		m.speeds[v.Name()] = appendCapped(m.speeds[v.Name()], v.Velocity().Speed(), historyCapacity)
	}
}

func appendCapped[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}

func (m Model) selectedVehicle() *vehicle.Vehicle {
	vs := m.world.Vehicles()
	if len(vs) == 0 {
		return nil
	}
	return vs[m.selected%len(vs)]
}

func (m Model) currentView() Viewport {
	switch {
	case m.autoFit:
		var pts [][2]float64
		for _, v := range m.world.Vehicles() {
			pts = append(pts, footprint(v)...)
		}
		return Fit(m.canvas, pts, fitMargin)
	case m.follow:
		vp := m.view
		if v := m.selectedVehicle(); v != nil {
			vp.CenterX, vp.CenterY = v.Pose().X(), v.Pose().Y()
		}
		return vp
	default:
		return m.view
	}
}

// footprint returns the chassis polygon of v in world coordinates, or a small
// arrow when the model does not expose one.
func footprint(v *vehicle.Vehicle) [][2]float64 {
	local := [][2]float64{{0.3, 0}, {-0.2, 0.15}, {-0.2, -0.15}}
	if o, ok := v.Model().(outliner); ok && len(o.Outline()) > 0 {
		local = o.Outline()
	}
	q := v.Pose()
	s, c := math.Sincos(q.Yaw())
	out := make([][2]float64, len(local))
	for i, p := range local {
		out[i] = [2]float64{q.X() + c*p[0] - s*p[1], q.Y() + s*p[0] + c*p[1]}
	}
	return out
}

func (m Model) draw() {
	m.canvas.Clear()
	vp := m.currentView()
	if vp.Scale <= 0 {
		return
	}

	for _, trail := range m.trails {
		for _, p := range trail {
			m.canvas.Set(vp.Project(m.canvas, p[0], p[1]))
		}
	}
	for _, v := range m.world.Vehicles() {
		fp := footprint(v)
		pts := make([][2]int, len(fp))
		for i, p := range fp {
			pts[i][0], pts[i][1] = vp.Project(m.canvas, p[0], p[1])
		}
		m.canvas.DrawPolygon(pts)

		q := v.Pose()
		x0, y0 := vp.Project(m.canvas, q.X(), q.Y())
		s, c := math.Sincos(q.Yaw())
		heading := 6 / vp.Scale
		x1, y1 := vp.Project(m.canvas, q.X()+c*heading, q.Y()+s*heading)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.err.Render("FAILED")
	case !m.running:
		return "PAUSED"
	default:
		return fmt.Sprintf("RUNNING x%.1f", m.opts.Speed)
	}
}

// View renders the canvas and the side panel.
func (m Model) View() string {
	m.draw()
	canvasView := m.styles.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(m.styles.header.Render("MV2DSIM") + "\n")
	s.WriteString(m.status() + "\n\n")
	s.WriteString(m.styles.label.Render("Time") + m.styles.value.Render(fmt.Sprintf("%.2fs", m.world.Time())) + "\n")
	s.WriteString(m.styles.label.Render("Step") + m.styles.value.Render(fmt.Sprintf("%d", m.world.StepIndex())) + "\n")
	s.WriteString(m.styles.label.Render("Vehicles") + m.styles.value.Render(fmt.Sprintf("%d", len(m.world.Vehicles()))) + "\n\n")

	sel := m.selectedVehicle()
	for _, v := range m.world.Vehicles() {
		q := v.Pose()
		line := fmt.Sprintf("%-8s %-12s %6.2f %6.2f %6.1f°", v.Name(), v.Class(), q.X(), q.Y(), dynamo.Rad2Deg(dynamo.NormalizeAngle(q.Yaw())))
		if v == sel {
			s.WriteString(m.styles.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + m.styles.value.Render(line) + "\n")
		}
	}

	if sel != nil {
		if hist := m.speeds[sel.Name()]; len(hist) > 1 {
			chart := asciigraph.Plot(hist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(sel.Name()+" speed [m/s]"))
			s.WriteString(m.styles.graph.Render(chart) + "\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n" + m.styles.err.Render(wrap(m.err.Error(), statsWidth-6)) + "\n")
	}
	s.WriteString(m.styles.help.Render("SP:Pause Tab:Select F:Follow A:Fit\n+/-:Zoom ←↑↓→:Pan C:Clear T:Theme Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.styles.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  Tab      - Select next vehicle      ║
║  F        - Follow selected vehicle  ║
║  A        - Fit all vehicles         ║
║  +/-      - Zoom in/out              ║
║  Arrows   - Pan                      ║
║  C        - Clear trails             ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width] + "\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

// Run shows w until the user quits.
func Run(w *world.World, opts Options) error {
	m, err := NewModel(w, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
