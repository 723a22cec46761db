// Package viz renders trajectories in the terminal: a bubbletea live
// monitor and asciigraph plots of stored runs.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/renosim/internal/dynamo"
	"github.com/san-kum/renosim/internal/physio"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(1, 2)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model is the live monitor: it steps the physiology in simulated-minute
// chunks per frame and charts the regulated variables as they evolve.
type Model struct {
	phys       *physio.Model
	integrator dynamo.Integrator
	scenario   string

	state   dynamo.State
	initial dynamo.State
	t       float64
	dt      float64
	speed   float64 // simulated minutes per frame
	running bool

	mapHist   []float64
	bvHist    []float64
	gfrHist   []float64
	urineHist []float64
}

func NewModel(phys *physio.Model, integ dynamo.Integrator, x0 dynamo.State, dt float64, scenario string) Model {
	return Model{
		phys:       phys,
		integrator: integ,
		scenario:   scenario,
		state:      x0.Clone(),
		initial:    x0.Clone(),
		dt:         dt,
		speed:      2.0,
		running:    true,
		mapHist:    make([]float64, 0, historyCapacity),
		bvHist:     make([]float64, 0, historyCapacity),
		gfrHist:    make([]float64, 0, historyCapacity),
		urineHist:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			m.speed *= 2
			if m.speed > 240 {
				m.speed = 240
			}
		case "-", "_":
			m.speed /= 2
			if m.speed < 0.25 {
				m.speed = 0.25
			}
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// advance integrates one frame's worth of simulated time and records one
// history sample.
func (m *Model) advance() {
	remaining := m.speed
	for remaining > 0 {
		h := m.dt
		if h > remaining {
			h = remaining
		}
		m.state = m.integrator.Step(m.phys, m.state, m.t, h)
		m.t += h
		m.phys.Clamp(m.state)
		remaining -= h
	}

	out := m.phys.Evaluate(m.state, m.t)
	m.mapHist = push(m.mapHist, out.Hemo.MAP)
	m.bvHist = push(m.bvHist, m.state[physio.IxBloodVolume])
	m.gfrHist = push(m.gfrHist, out.Renal.GFR)
	m.urineHist = push(m.urineHist, out.Tubular.UrineFlow)
}

func push(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

func (m *Model) reset() {
	m.t = 0
	m.state = m.initial.Clone()
	m.mapHist = m.mapHist[:0]
	m.bvHist = m.bvHist[:0]
	m.gfrHist = m.gfrHist[:0]
	m.urineHist = m.urineHist[:0]
}

func (m Model) View() string {
	out := m.phys.Evaluate(m.state, m.t)

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.scenario)) + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(fmt.Sprintf("%s  x%.2g min/frame\n", status, m.speed))

	charts := []struct {
		name string
		hist []float64
	}{
		{"MAP (mmHg)", m.mapHist},
		{"Blood volume (L)", m.bvHist},
		{"GFR (ml/min)", m.gfrHist},
		{"Urine (ml/min)", m.urineHist},
	}
	for _, c := range charts {
		if len(c.hist) > 1 {
			chart := asciigraph.Plot(c.hist,
				asciigraph.Height(5), asciigraph.Width(60), asciigraph.Caption(c.name))
			s.WriteString(graphStyle.Render(chart) + "\n")
		}
	}

	var stats strings.Builder
	row := func(label, format string, v float64) {
		stats.WriteString(labelStyle.Render(label) + valueStyle.Render(fmt.Sprintf(format, v)) + "\n")
	}
	row("Time", "%.1f h", m.t/60.0)
	row("MAP", "%.1f mmHg", out.Hemo.MAP)
	row("CO", "%.2f L/min", out.Hemo.CO)
	row("Heart rate", "%.0f bpm", out.Tone.HeartRate)
	row("GFR", "%.1f ml/min", out.Renal.GFR)
	row("RBF", "%.2f L/min", out.Renal.RBF)
	row("Urine", "%.2f ml/min", out.Tubular.UrineFlow)
	row("Na excretion", "%.3f mEq/min", out.Tubular.NaExcretion)
	row("Renin", "%.2f", m.state[physio.IxRenin])
	row("Aldosterone", "%.2f", m.state[physio.IxAldosterone])
	row("ADH", "%.2f", m.state[physio.IxADH])
	row("Plasma Na", "%.1f mEq/L", m.state[physio.IxPlasmaNa])
	row("Osmolarity", "%.1f mOsm/L", m.state[physio.IxPlasmaOsm])

	s.WriteString(helpStyle.Render("SP:Pause R:Reset +/-:Speed Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(s.String()), panelStyle.Render(stats.String()))
}
