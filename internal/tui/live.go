package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/ornlund/mdshake/internal/md"
)

const (
	canvasWidth  = 64
	canvasHeight = 22
	historyCap   = 240
	frameRate    = 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model owns a live simulation: it steps the integrator on every tick and
// renders atoms, bonds, and solver health.
type Model struct {
	name    string
	state   *md.State
	initial *md.State
	integ   *md.Integrator

	stepsPerTick int
	t            float64
	step         int

	canvas *Canvas
	camera *Camera

	running  bool
	err      error
	last     md.StepInfo
	errHist  []float64
	tempHist []float64
}

// NewModel wires a live view around a prepared state and integrator.
// stepsPerTick controls how much simulated time passes per frame.
func NewModel(name string, st *md.State, integ *md.Integrator, stepsPerTick int) Model {
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	return Model{
		name:         name,
		state:        st,
		initial:      st.Clone(),
		integ:        integ,
		stepsPerTick: stepsPerTick,
		canvas:       NewCanvas(canvasWidth, canvasHeight),
		camera:       NewCamera(4),
		running:      true,
		errHist:      make([]float64, 0, historyCap),
		tempHist:     make([]float64, 0, historyCap),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "left", "h":
			m.camera.Rotate(-0.15, 0)
		case "right", "l":
			m.camera.Rotate(0.15, 0)
		case "up", "k":
			m.camera.Rotate(0, 0.15)
		case "down", "j":
			m.camera.Rotate(0, -0.15)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		info, err := m.integ.Step(m.state)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.last = info
		m.t += m.integ.Dt
		m.step++
	}

	bondErr := m.integ.Solver.MaxPositionError(m.state.Pos)
	m.errHist = append(m.errHist, math.Log10(math.Max(bondErr, 1e-16)))
	if len(m.errHist) > historyCap {
		m.errHist = m.errHist[1:]
	}
	m.tempHist = append(m.tempHist, m.state.Temperature())
	if len(m.tempHist) > historyCap {
		m.tempHist = m.tempHist[1:]
	}
}

func (m *Model) reset() {
	m.state = m.initial.Clone()
	m.t = 0
	m.step = 0
	m.err = nil
	m.running = true
	m.last = md.StepInfo{}
	m.errHist = m.errHist[:0]
	m.tempHist = m.tempHist[:0]
}

func (m Model) View() string {
	RenderSystem(m.canvas, m.camera, m.state, m.integ.Solver.Clusters())
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	status := "RUNNING"
	if m.err != nil {
		status = errStyle.Render("SOLVER ERROR")
	} else if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.tempHist) > 1 {
		chart := asciigraph.Plot(m.tempHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("temperature"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.errHist) > 1 {
		chart := asciigraph.Plot(m.errHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("log10 bond error"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3f", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.step)) + "\n")
	s.WriteString(labelStyle.Render("Atoms") + valueStyle.Render(fmt.Sprintf("%d", m.state.NumAtoms())) + "\n")
	s.WriteString(labelStyle.Render("Temperature") + valueStyle.Render(fmt.Sprintf("%.4f", m.state.Temperature())) + "\n")
	s.WriteString(labelStyle.Render("Kinetic") + valueStyle.Render(fmt.Sprintf("%.4f", m.state.KineticEnergy())) + "\n")
	s.WriteString(labelStyle.Render("Bond error") + valueStyle.Render(fmt.Sprintf("%.2e", m.integ.Solver.MaxPositionError(m.state.Pos))) + "\n")
	s.WriteString(labelStyle.Render("SHAKE iters") + valueStyle.Render(fmt.Sprintf("%d", m.last.Positions.Iterations)) + "\n")
	s.WriteString(labelStyle.Render("RATTLE iters") + valueStyle.Render(fmt.Sprintf("%d", m.last.Velocities.Iterations)) + "\n")

	if m.err != nil {
		s.WriteString("\n" + errStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\n←↑↓→:Rotate +/-:Zoom"))

	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}
