package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/graspsim/internal/grasp"
	"github.com/san-kum/graspsim/internal/scenario"
	"github.com/san-kum/graspsim/internal/session"
)

const (
	canvasWidth     = 48
	canvasHeight    = 20
	historyCapacity = 300
	eventLogSize    = 8
	frameRate       = 30
	tuneFactor      = 1.25
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(11)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Plane picks the two world axes the live view draws.
type Plane int

const (
	PlaneTop Plane = iota
	PlaneFront
)

func (p Plane) String() string {
	if p == PlaneTop {
		return "top (x/z)"
	}
	return "front (x/y)"
}

// Project drops a world position onto the plane's two axes.
func (p Plane) Project(v mgl64.Vec3) (float64, float64) {
	if p == PlaneTop {
		return v.X(), v.Z()
	}
	return v.X(), v.Y()
}

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// LiveModel steps a scenario run and draws the scene and per-hand grasp
// state in the terminal.
type LiveModel struct {
	run      *scenario.Run
	total    int
	speed    int
	running  bool
	done     bool
	showHelp bool
	plane    Plane
	view     Viewport
	canvas   *Canvas
	last     session.Sample
	errors   [][]float64
	events   []grasp.Event
	radii    map[string]float64
}

func NewLiveModel(run *scenario.Run) LiveModel {
	radii := make(map[string]float64, len(run.Scenario.Objects))
	for _, o := range run.Scenario.Objects {
		radii[o.Name] = o.Radius
	}
	return LiveModel{
		run:     run,
		total:   run.Ticks(),
		speed:   1,
		running: true,
		view:    Viewport{Extent: 0.6},
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		errors:  make([][]float64, len(run.Session.Hands())),
		radii:   radii,
	}
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

// Done reports whether the scenario has played to its last tick.
func (m LiveModel) Done() bool { return m.done }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.step()
			}
		case "+", "=":
			m.speed = min(m.speed*2, 64)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "v":
			m.plane = (m.plane + 1) % 2
		case "]":
			m.tune("velocity_strength", tuneFactor)
		case "[":
			m.tune("velocity_strength", 1/tuneFactor)
		case "}":
			m.tune("rotation_strength", tuneFactor)
		case "{":
			m.tune("rotation_strength", 1/tuneFactor)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.speed && !m.done; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

// tune scales a controller gain on every hand.
func (m *LiveModel) tune(name string, factor float64) {
	for _, h := range m.run.Session.Hands() {
		pd := h.Controller()
		pd.SetParam(name, pd.GetParams()[name]*factor)
	}
}

func (m *LiveModel) step() {
	s := m.run.Session
	if int(s.Tick()) >= m.total {
		m.done = true
		m.running = false
		return
	}
	m.last = s.Step(m.run.Player.Frame(s.Tick()))
	for i, h := range m.last.Hands {
		m.errors[i] = append(m.errors[i], h.TrackingError)
		if len(m.errors[i]) > historyCapacity {
			m.errors[i] = m.errors[i][1:]
		}
	}
	m.events = append(m.events, m.last.Events...)
	if len(m.events) > eventLogSize {
		m.events = m.events[len(m.events)-eventLogSize:]
	}
}

func (m *LiveModel) draw() {
	m.canvas.Clear()
	scale := m.view.Scale(m.canvas)

	gx0, gy0 := m.view.Project(m.canvas, -m.view.Extent, 0)
	gx1, _ := m.view.Project(m.canvas, m.view.Extent, 0)
	if m.plane == PlaneFront {
		m.canvas.DrawLine(gx0, gy0, gx1, gy0)
	}

	for name, id := range m.run.Bodies {
		b, ok := m.run.World.Body(id)
		if !ok {
			continue
		}
		x, y := m.plane.Project(b.Position)
		px, py := m.view.Project(m.canvas, x, y)
		m.canvas.DrawCircle(px, py, m.radii[name]*scale)
	}

	for _, h := range m.run.Session.Hands() {
		pose := h.Pose()
		x, y := m.plane.Project(pose.Position)
		px, py := m.view.Project(m.canvas, x, y)
		m.canvas.DrawCircle(px, py, 0.04*scale)
		fx, fy := m.plane.Project(pose.Position.Add(pose.Forward().Mul(0.08)))
		qx, qy := m.view.Project(m.canvas, fx, fy)
		m.canvas.DrawLine(px, py, qx, qy)
	}
}

func (m LiveModel) grabbableName(id grasp.GrabbableID) string {
	if g, ok := m.run.Session.Registry().Get(id); ok {
		return g.Name
	}
	return "-"
}

func (m LiveModel) View() string {
	m.draw()

	status := "RUNNING"
	switch {
	case m.done:
		status = "DONE"
	case !m.running:
		status = "PAUSED"
	}
	tickNow := m.run.Session.Tick()

	var left strings.Builder
	left.WriteString(headerStyle.Render(strings.ToUpper(m.run.Scenario.Name)) + "\n")
	left.WriteString(fmt.Sprintf("%s  tick %d/%d  x%d  %s\n", status, tickNow, m.total, m.speed, Subtle.Render(m.plane.String())))
	left.WriteString(canvasStyle.Render(m.canvas.String()))

	var right strings.Builder
	for i, h := range m.run.Session.Hands() {
		held, _ := h.Held()
		candidate, _ := h.Candidate()
		right.WriteString(Title.Render(fmt.Sprintf("%s hand", h.Side())) + "  " + StateBadge(h.State()) + "\n")
		right.WriteString(labelStyle.Render("held") + valueStyle.Render(m.grabbableName(held)) + "\n")
		right.WriteString(labelStyle.Render("candidate") + valueStyle.Render(m.grabbableName(candidate)) + "\n")
		gains := h.Controller().GetParams()
		right.WriteString(labelStyle.Render("gains") + valueStyle.Render(fmt.Sprintf("v %.2f  r %.2f", gains["velocity_strength"], gains["rotation_strength"])) + "\n")
		if j := h.Joint(); j != nil {
			right.WriteString(labelStyle.Render("joint") + valueStyle.Render(j.Stage().String()) + "\n")
		}
		for f, t := range h.Fingers().Params() {
			right.WriteString(labelStyle.Render(fmt.Sprintf("finger %d", f)) + ProgressBar(t, 20) + "\n")
		}
		right.WriteString(labelStyle.Render("error") + SparklineChart(m.errors[i], 24) + "\n\n")
	}
	right.WriteString(Title.Render("events") + "\n")
	for _, ev := range m.events {
		right.WriteString(EventLine(ev) + "\n")
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, left.String(), statsStyle.Render(right.String()))
	if m.showHelp {
		out += "\n" + helpStyle.Render("space pause  . step  +/- speed  [/] velocity  {/} rotation  v view  q quit")
	} else {
		out += "\n" + KeyHint.Render("? help")
	}
	return out
}
