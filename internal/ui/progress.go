package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"boxrt/internal/stress"
)

type progressModel struct {
	title      string
	events     <-chan stress.Event
	spinner    spinner.Model
	prog       progress.Model
	workers    []workerItem
	phaseLabel string
	err        error
	width      int
	done       bool
}

type workerItem struct {
	status stress.Status
	done   int
	total  int
}

type eventMsg stress.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders stress progress,
// one row per worker. The model quits when events is closed.
func NewProgressModel(title string, workers int, events <-chan stress.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]workerItem, workers)
	for i := range items {
		items[i].status = stress.StatusQueued
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		workers: items,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(stress.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.phaseLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.phaseLabel)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-16, 20)
	for i, w := range m.workers {
		status := string(w.status)
		name := truncate(fmt.Sprintf("worker %d  %d/%d", i, w.done, w.total), nameWidth)
		fmt.Fprintf(&b, "  %s %s\n", styleStatus(w.status).Render(fmt.Sprintf("%12s", status)), name)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styleStatus(stress.StatusError).Render(truncate(m.err.Error(), m.width)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev stress.Event) tea.Cmd {
	if ev.Worker < 0 {
		m.phaseLabel = phaseLabel(ev.Phase, ev.Status)
		if ev.Err != nil {
			m.err = ev.Err
		}
		return nil
	}
	if ev.Worker >= len(m.workers) {
		return nil
	}
	w := &m.workers[ev.Worker]
	w.status = ev.Status
	w.done = ev.Done
	w.total = ev.Total
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.workers) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range m.workers {
		switch {
		case w.status == stress.StatusDone || w.status == stress.StatusError:
			total += 1.0
		case w.total > 0:
			total += float64(w.done) / float64(w.total)
		}
	}
	return total / float64(len(m.workers))
}

func phaseLabel(phase stress.Phase, status stress.Status) string {
	if status == stress.StatusError {
		return string(phase) + " failed"
	}
	switch phase {
	case stress.PhaseBuild:
		return "building graph"
	case stress.PhaseRun:
		return "running"
	case stress.PhaseVerify:
		if status == stress.StatusDone {
			return "verified"
		}
		return "verifying"
	default:
		return ""
	}
}

func styleStatus(status stress.Status) lipgloss.Style {
	switch status {
	case stress.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case stress.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case stress.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
