// Package dashboard renders the live sensor table in the terminal with
// BubbleTea and lets the operator drive the fault lifecycle from the keyboard.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sensor_fleet/internal/models"
)

const (
	historySize  = 120
	sparkWidth   = 30
	minRefresh   = 100 * time.Millisecond
	actionExpiry = 5 * time.Second
)

// Source supplies the fleet snapshot. service.Monitoring satisfies it.
type Source interface {
	Status(ctx context.Context) ([]models.SensorStatus, error)
}

// Controller drives the fault lifecycle. service.Fleet satisfies it.
type Controller interface {
	InjectFault(ctx context.Context, name string) error
	ClearFault(ctx context.Context, name string) error
	Shutdown(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
}

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type statusMsg struct {
	status []models.SensorStatus
	time   time.Time
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type actionMsg struct {
	sensor string
	action string
	err    error
	time   time.Time
}

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the live dashboard.
type Model struct {
	ctx     context.Context
	src     Source
	ctl     Controller
	refresh time.Duration

	status    []models.SensorStatus
	history   *history
	cursor    int
	err       error
	lastPoll  time.Time
	lastDone  *actionMsg
	startTime time.Time
	paused    bool
	width     int
}

// New creates the initial dashboard model.
func New(ctx context.Context, src Source, ctl Controller, refresh time.Duration) Model {
	return Model{
		ctx:       ctx,
		src:       src,
		ctl:       ctl,
		refresh:   max(refresh, minRefresh),
		history:   newHistory(historySize),
		startTime: time.Now(),
	}
}

// Run blocks until the user quits or ctx is done.
func Run(ctx context.Context, src Source, ctl Controller, refresh time.Duration) error {
	p := tea.NewProgram(New(ctx, src, ctl, refresh), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// ── Commands ─────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) poll() tea.Msg {
	st, err := m.src.Status(m.ctx)
	if err != nil {
		return errMsg{err}
	}
	return statusMsg{status: st, time: time.Now()}
}

// act runs a lifecycle operation on the selected sensor.
func (m Model) act(action string, op func(context.Context, string) error) tea.Cmd {
	if m.cursor >= len(m.status) {
		return nil
	}
	name := m.status[m.cursor].Sensor.Name
	return func() tea.Msg {
		err := op(m.ctx, name)
		return actionMsg{sensor: name, action: action, err: err, time: time.Now()}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poll, m.tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.status)-1 {
				m.cursor++
			}
		case "p", " ":
			m.paused = !m.paused
		case "f":
			return m, m.act("fault injected", m.ctl.InjectFault)
		case "c":
			return m, m.act("fault cleared", m.ctl.ClearFault)
		case "s":
			return m, m.act("shut down", m.ctl.Shutdown)
		case "r":
			return m, m.act("started", m.ctl.Start)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		if m.paused {
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.poll, m.tickCmd())

	case statusMsg:
		m.err = nil
		m.status = msg.status
		m.lastPoll = msg.time
		for _, st := range msg.status {
			if st.Latest != nil {
				m.history.record(st.Sensor.Name, st.Latest.Temperature, st.Latest.Timestamp)
			}
		}
		if m.cursor >= len(m.status) {
			m.cursor = max(len(m.status)-1, 0)
		}

	case actionMsg:
		m.lastDone = &msg
		// refresh right away so the status column reflects the change
		return m, m.poll

	case errMsg:
		m.err = msg.err
	}

	return m, nil
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorName     = lipgloss.Color("147")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorHigh     = lipgloss.Color("208")
	colorCrit     = lipgloss.Color("196")
	colorCursor   = lipgloss.Color("57")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	width := max(m.width-2, 80)

	sections := []string{m.renderTitleBar(width)}

	if m.err != nil {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf(" ERROR: %v", m.err)))
	}

	if len(m.status) == 0 {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Waiting for sensor data..."))
	} else {
		sections = append(sections, m.renderTable(width))
	}

	sections = append(sections, m.renderFooter(width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().Bold(true).Foreground(colorTitleFg).Render("SENSOR FLEET")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	parts := []string{dimS.Render("up " + fmtDuration(time.Since(m.startTime)))}
	if !m.lastPoll.IsZero() {
		parts = append(parts, dimS.Render(m.lastPoll.Format("15:04:05")))
	}
	if m.paused {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorCrit).Bold(true).Render("PAUSED"))
	}
	right := strings.Join(parts, dimS.Render(" │ "))

	gap := max(width-lipgloss.Width(logo)-lipgloss.Width(right)-4, 1)
	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

// column widths
const (
	wName     = 14
	wLocation = 12
	wTemp     = 8
	wQuality  = 5
	wAlert    = 10
	wStatus   = 8
)

func (m Model) renderTable(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	cell := func(s string, w int, c lipgloss.Color) string {
		return lipgloss.NewStyle().Foreground(c).Width(w).Render(truncate(s, w))
	}

	header := "  " +
		cell("SENSOR", wName, colorDim) + " " +
		cell("LOCATION", wLocation, colorDim) + " " +
		cell("TEMP", wTemp, colorDim) + " " +
		cell("SMOOTH", wTemp, colorDim) + " " +
		cell("QUAL", wQuality, colorDim) + " " +
		cell("ALERT", wAlert, colorDim) + " " +
		cell("STATUS", wStatus, colorDim) + " " +
		dimS.Render("HISTORY")
	rows := []string{header}

	for i, st := range m.status {
		s := st.Sensor
		temp, smooth, qual, alert := "--", "--", "--", "--"
		tempColor, qualColor, alertC := colorDim, colorDim, colorDim
		if r := st.Latest; r != nil {
			temp = fmt.Sprintf("%.2f", r.Temperature)
			smooth = fmt.Sprintf("%.2f", r.SmoothedValue)
			qual = fmt.Sprintf("%d", r.QualityScore)
			alert = r.AlertType.String()
			tempColor = alertColor(r.AlertType)
			qualColor = qualityColor(r.QualityScore)
			alertC = alertColor(r.AlertType)
		}
		statusText, statusColor := sensorStatus(s)

		spark := dimS.Render(strings.Repeat("╌", sparkWidth))
		if h := m.history.get(s.Name); h != nil {
			window := h.lastN(sparkWidth)
			lo, hi := bounds(window)
			spark = lipgloss.NewStyle().Foreground(tempColor).
				Render(sparkline(window, sparkWidth, lo, hi))
		}

		marker := "  "
		if i == m.cursor {
			marker = lipgloss.NewStyle().Foreground(colorCursor).Bold(true).Render("▶ ")
		}
		rows = append(rows, marker+
			lipgloss.NewStyle().Foreground(colorName).Bold(true).Width(wName).Render(truncate(s.Name, wName))+" "+
			cell(s.Location, wLocation, colorLabel)+" "+
			cell(temp, wTemp, tempColor)+" "+
			cell(smooth, wTemp, colorLabel)+" "+
			cell(qual, wQuality, qualColor)+" "+
			cell(alert, wAlert, alertC)+" "+
			cell(statusText, wStatus, statusColor)+" "+
			spark)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func sensorStatus(s models.Sensor) (string, lipgloss.Color) {
	switch {
	case s.IsOffline:
		return "OFFLINE", colorDim
	case s.IsFaulty:
		return "FAULTY", colorCrit
	default:
		return "OK", colorOk
	}
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)
	keys := dimS.Render("↑/↓") + keyS.Render(":select") +
		dimS.Render("  f") + keyS.Render(":fault") +
		dimS.Render("  c") + keyS.Render(":clear") +
		dimS.Render("  s") + keyS.Render(":shutdown") +
		dimS.Render("  r") + keyS.Render(":start") +
		dimS.Render("  p") + keyS.Render(":pause") +
		dimS.Render("  q") + keyS.Render(":quit")

	var note string
	if d := m.lastDone; d != nil && time.Since(d.time) < actionExpiry {
		if d.err != nil {
			note = lipgloss.NewStyle().Foreground(colorCrit).Render(fmt.Sprintf("%s: %v", d.sensor, d.err))
		} else {
			note = lipgloss.NewStyle().Foreground(colorOk).Render(d.sensor + " " + d.action)
		}
	}

	gap := max(width-lipgloss.Width(note)-lipgloss.Width(keys)-4, 1)
	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(note + strings.Repeat(" ", gap) + keys)
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mm := d / time.Minute
	d -= mm * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, mm, s)
	}
	return fmt.Sprintf("%dm%02ds", mm, s)
}
