// Package dashboard renders a live terminal view of server activity,
// enabled with `serve --dashboard`.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cafelist/internal/stats"
)

// Version can be set at build time.
var Version = "dev"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle  = lipgloss.NewStyle().Width(16).Foreground(lipgloss.Color("39"))
	valueStyle  = lipgloss.NewStyle()
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	numberStyle = lipgloss.NewStyle().Width(8).Align(lipgloss.Right)
)

// Model is the Bubble Tea model for the server dashboard.
type Model struct {
	collector *stats.Collector
	addr      string

	width  int
	height int
}

// NewModel creates a dashboard model reading from collector.
func NewModel(collector *stats.Collector, addr string) Model {
	return Model{collector: collector, addr: addr}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) View() string {
	snap := m.collector.Snapshot()

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(m.renderField("Address", "http://"+m.addr))
	b.WriteString("\n")
	b.WriteString(m.renderField("Version", Version))
	b.WriteString("\n")
	b.WriteString(m.renderField("Uptime", snap.Uptime.Truncate(time.Second).String()))
	b.WriteString("\n\n")

	b.WriteString(m.renderCounters(snap))
	b.WriteString("\n")

	if len(snap.Recent) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderRequests(snap))
	}

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("cafelist")
	hint := hintStyle.Render("(q to quit)")

	spacing := " "
	if m.width > 0 {
		spaces := m.width - lipgloss.Width(title) - lipgloss.Width(hint)
		if spaces > 0 {
			spacing = strings.Repeat(" ", spaces)
		}
	} else {
		spacing = strings.Repeat(" ", 40)
	}

	return title + spacing + hint
}

func (m Model) renderField(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func (m Model) renderCounters(snap stats.Snapshot) string {
	header := labelStyle.Render("Requests")
	for _, h := range []string{"ttl", "2xx", "3xx", "4xx", "5xx", "p50", "p90"} {
		header += hintStyle.Render(numberStyle.Render(h))
	}

	values := labelStyle.Render("")
	values += numberStyle.Render(fmt.Sprintf("%d", snap.TotalRequests))
	values += numberStyle.Render(fmt.Sprintf("%d", snap.OK))
	values += numberStyle.Render(fmt.Sprintf("%d", snap.Redirects))
	values += numberStyle.Render(fmt.Sprintf("%d", snap.ClientErrors))
	values += numberStyle.Render(fmt.Sprintf("%d", snap.ServerErrors))
	values += numberStyle.Render(formatDuration(snap.P50))
	values += numberStyle.Render(formatDuration(snap.P90))

	return header + "\n" + values
}

func (m Model) renderRequests(snap stats.Snapshot) string {
	lines := []string{labelStyle.Render("HTTP Requests")}

	for _, req := range snap.Recent {
		status := okStyle.Render(fmt.Sprintf("%d", req.Status))
		if req.Status >= 400 {
			status = errStyle.Render(fmt.Sprintf("%d", req.Status))
		}
		line := fmt.Sprintf("%-6s %s %s %s",
			req.Method,
			pathStyle.Render(truncatePath(req.Path, 40)),
			status,
			hintStyle.Render(formatDuration(req.Duration)),
		)
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0.00"
	}
	secs := d.Seconds()
	if secs < 1 {
		return fmt.Sprintf("%.2f", secs)
	}
	return fmt.Sprintf("%.1f", secs)
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// Run starts the dashboard and blocks until it exits or ctx is cancelled.
func Run(ctx context.Context, collector *stats.Collector, addr string) error {
	p := tea.NewProgram(NewModel(collector, addr), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err == tea.ErrProgramKilled && ctx.Err() != nil {
		return nil
	}
	return err
}
