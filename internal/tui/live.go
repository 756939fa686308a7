// Package tui provides a live terminal view of a running scenario.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"enermix/internal/dynamo"
	"enermix/internal/integrators"
	"enermix/internal/market"
	"enermix/internal/scenario"
	"enermix/internal/viz"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dim         = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// maxHistory bounds the plotted window so long runs stay responsive.
const maxHistory = 2000

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	sc     *scenario.Scenario
	solver *dynamo.Solver
	sys    dynamo.System

	x    dynamo.State
	t    float64
	hist dynamo.Trajectory

	stepsPerTick int
	paused       bool
	done         bool
	err          error

	width  int
	height int
}

func newModel(sc *scenario.Scenario) *model {
	m := &model{
		sc:           sc,
		solver:       dynamo.NewSolver(integrators.NewRK4()),
		sys:          market.NewReplicator(sc.Params()),
		stepsPerTick: 5,
		width:        80,
		height:       24,
	}
	m.reset()
	return m
}

func (m *model) reset() {
	m.x = dynamo.State(m.sc.X0).Clone()
	m.t = m.sc.T0
	m.hist = dynamo.Trajectory{}
	m.hist.Times = append(m.hist.Times, m.t)
	m.hist.States = append(m.hist.States, m.x.Clone())
	m.done = false
	m.err = nil
}

func (m *model) Init() tea.Cmd { return tick() }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.reset()
			return m, tick()
		case "+", "=":
			m.stepsPerTick *= 2
		case "-":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if !m.paused && !m.done && m.err == nil {
			m.advance()
		}
		if m.done || m.err != nil {
			return m, nil
		}
		return m, tick()
	}

	return m, nil
}

func (m *model) advance() {
	for i := 0; i < m.stepsPerTick && m.t < m.sc.TEnd; i++ {
		next, err := m.solver.Advance(m.sys, m.x, m.t, m.sc.Dt)
		if err != nil {
			m.err = err
			return
		}
		m.x = next
		m.t += m.sc.Dt

		m.hist.Times = append(m.hist.Times, m.t)
		m.hist.States = append(m.hist.States, m.x.Clone())
		if m.hist.Len() > maxHistory {
			m.hist.Times = m.hist.Times[1:]
			m.hist.States = m.hist.States[1:]
		}
	}
	if m.t >= m.sc.TEnd {
		m.done = true
	}
}

func (m *model) View() string {
	status := dim.Render("running")
	switch {
	case m.err != nil:
		status = errStyle.Render(fmt.Sprintf("failed: %v", m.err))
	case m.done:
		status = doneStyle.Render("done")
	case m.paused:
		status = pausedStyle.Render("paused")
	}

	header := fmt.Sprintf("%s  t=%6.1f / %.1f  %s\n%s\n\n",
		headerStyle.Render(m.sc.Name),
		m.t, m.sc.TEnd,
		status,
		dim.Render("space pause · r reset · +/- speed · q quit"))

	chartWidth := m.width - 12
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := m.height - 12
	if chartHeight < 6 {
		chartHeight = 6
	}

	return header + viz.Chart("", &m.hist, scenario.Technologies, chartWidth, chartHeight) + "\n"
}

// Run displays a scenario live until it finishes or the user quits.
func Run(sc *scenario.Scenario) error {
	if err := sc.Validate(); err != nil {
		return err
	}

	p := tea.NewProgram(newModel(sc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
