// Package dashboard renders the orchestrator state as an interactive
// terminal dashboard using BubbleTea.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"codeberg.org/mutker/thermosense/internal/classify"
	"codeberg.org/mutker/thermosense/internal/history"
	"codeberg.org/mutker/thermosense/internal/orchestrator"
	"codeberg.org/mutker/thermosense/internal/view"
)

const (
	clockInterval = time.Second
	chartPoints   = 60
)

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type stateMsg struct {
	state  orchestrator.State
	points []history.Point
}

// updateMsg is a stateMsg produced by waiting on the update channel.
type updateMsg stateMsg

type closedMsg struct{}

// ── Model ────────────────────────────────────────────────────────────

// Source is what the dashboard reads from.
type Source interface {
	State() orchestrator.State
	Updates() <-chan struct{}
}

// Model is the BubbleTea model for the dashboard.
type Model struct {
	source   Source
	history  history.Recorder
	interval time.Duration
	now      func() time.Time

	state  orchestrator.State
	points []history.Point
	width  int
	height int
}

// New creates the dashboard model. rec may be nil.
func New(source Source, rec history.Recorder, interval time.Duration) Model {
	return Model{
		source:   source,
		history:  rec,
		interval: interval,
		now:      time.Now,
	}
}

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) readState() tea.Msg {
	msg := stateMsg{state: m.source.State()}
	if m.history != nil {
		points, err := m.history.Recent(context.Background(), chartPoints)
		if err == nil {
			msg.points = points
		}
	}

	return msg
}

func (m Model) waitForUpdate() tea.Msg {
	if _, ok := <-m.source.Updates(); !ok {
		return closedMsg{}
	}

	return updateMsg(m.readState().(stateMsg))
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.readState, m.waitForUpdate, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.readState
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tickCmd()

	case stateMsg:
		m = m.apply(msg)

	case updateMsg:
		m = m.apply(stateMsg(msg))
		return m, m.waitForUpdate

	case closedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) apply(msg stateMsg) Model {
	m.state = msg.state
	if msg.points != nil {
		m.points = msg.points
	}

	return m
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorCrit     = lipgloss.Color("196")
	colorDevice   = lipgloss.Color("208")
	colorAmbient  = lipgloss.Color("70")
)

func tierColor(t classify.Tier) lipgloss.Color {
	switch t {
	case classify.TierDanger:
		return colorCrit
	case classify.TierWarning:
		return colorWarn
	default:
		return colorOk
	}
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 60 {
		contentWidth = 60
	}

	sections := []string{m.renderTitleBar(contentWidth)}

	if m.state.Stats == nil {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Loading system data...")
		sections = append(sections, waiting)
	} else {
		d := view.Build(m.state, m.now(), m.interval)
		sections = append(sections, m.renderCards(d, contentWidth)...)
		if d.Advisory != nil {
			sections = append(sections, m.renderAdvisory(d.Advisory, contentWidth))
		}
		if chart := m.renderChart(contentWidth); chart != "" {
			sections = append(sections, chart)
		}
		if len(d.Errors) > 0 {
			sections = append(sections, m.renderErrors(d.Errors, contentWidth))
		}
	}

	sections = append(sections, m.renderFooter(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("THERMOSENSE")

	dimS := lipgloss.NewStyle().Foreground(colorDim)

	var statusParts []string
	if w := m.state.Weather; w != nil && w.LocationName != "" {
		statusParts = append(statusParts, dimS.Render(w.LocationName))
	} else if c := m.state.Coordinate; c != nil {
		statusParts = append(statusParts, dimS.Render(c.String()))
	}
	statusParts = append(statusParts, dimS.Render(m.now().Format("15:04:05")))

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderCards(d view.Dashboard, width int) []string {
	cardWidth := width/4 - 2

	first := []view.Card{d.Battery, d.Temperature, d.CPULoad, d.Memory}
	second := []view.Card{d.Platform, d.LastUpdate, d.Status}
	if d.Weather != nil {
		second = append([]view.Card{*d.Weather}, second...)
	}

	return []string{
		renderRow(first, cardWidth),
		renderRow(second, cardWidth),
	}
}

func renderRow(cards []view.Card, width int) string {
	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		rendered = append(rendered, renderCard(c, width))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderCard(c view.Card, width int) string {
	accent := tierColor(c.Tier)
	if c.Color != "" {
		accent = lipgloss.Color(string(c.Color))
	}

	title := lipgloss.NewStyle().Foreground(colorDim).Render(c.Title)
	value := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(c.Value)
	sub := lipgloss.NewStyle().Foreground(colorLabel).Render(c.Sub)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, value, sub))
}

func (m Model) renderAdvisory(a *view.Advisory, width int) string {
	accent := tierColor(classify.Tier(a.Tier))

	heading := lipgloss.NewStyle().Bold(true).Foreground(colorLabel).Render("System Advisory") +
		"  " + lipgloss.NewStyle().Foreground(accent).Bold(true).Render(a.Icon+" "+a.Level)

	rows := []string{heading, a.Tip}
	if a.Action != nil {
		rows = append(rows, lipgloss.NewStyle().Foreground(colorWarn).Render("👉 "+*a.Action))
	}
	rows = append(rows, lipgloss.NewStyle().Foreground(colorDim).
		Render(fmt.Sprintf("Health impact score: %.5f", a.HealthImpact)))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderChart(width int) string {
	if len(m.points) == 0 {
		return ""
	}

	device := make([]float64, 0, len(m.points))
	ambient := make([]float64, 0, len(m.points))
	for _, p := range m.points {
		device = append(device, p.DeviceTemp)
		ambient = append(ambient, p.AmbientTemp)
	}

	lo, hi := bounds(device, ambient)
	chartWidth := width - 24
	if chartWidth > chartPoints {
		chartWidth = chartPoints
	}

	last := m.points[len(m.points)-1]
	labelS := lipgloss.NewStyle().Foreground(colorLabel).Width(10)

	rows := []string{
		labelS.Render("Device") + lipgloss.NewStyle().Foreground(colorDevice).Render(sparkline(device, chartWidth, lo, hi)) +
			fmt.Sprintf(" %5.1f°C", last.DeviceTemp),
		labelS.Render("Ambient") + lipgloss.NewStyle().Foreground(colorAmbient).Render(sparkline(ambient, chartWidth, lo, hi)) +
			fmt.Sprintf(" %5.1f°C", last.AmbientTemp),
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderErrors(errs map[string]string, width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)

	var parts []string
	for _, facet := range []string{"stats", "weather", "advisory"} {
		if _, ok := errs[facet]; ok {
			parts = append(parts, facet)
		}
	}

	return dimS.Width(width).Padding(0, 1).
		Render("data unavailable: " + strings.Join(parts, ", "))
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	labelS := lipgloss.NewStyle().Foreground(colorLabel)

	legend := lipgloss.NewStyle().Foreground(colorOk).Render("██") + dimS.Render(" safe ") +
		lipgloss.NewStyle().Foreground(colorWarn).Render("██") + dimS.Render(" warning ") +
		lipgloss.NewStyle().Foreground(colorCrit).Render("██") + dimS.Render(" danger")

	keys := dimS.Render("q") + labelS.Render(":quit") +
		dimS.Render("  r") + labelS.Render(":redraw")

	gap := width - lipgloss.Width(legend) - lipgloss.Width(keys) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + strings.Repeat(" ", gap) + keys)
}
