package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/graspsim/internal/grasp"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(16)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

var stateStyles = map[grasp.State]lipgloss.Style{
	grasp.Idle:         Subtle,
	grasp.HasCandidate: SparkMid,
	grasp.Fitting:      SparkLow,
	grasp.Attached:     SparkHigh,
}

// StateBadge renders a grasp state in its colour.
func StateBadge(s grasp.State) string {
	return stateStyles[s].Render(strings.ToUpper(s.String()))
}

// ProgressBar renders percent in [0, 1] as a bar of width cells.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if percent >= 1 {
		return SparkHigh.Render(bar)
	} else if percent > 0 {
		return SparkMid.Render(bar)
	}
	return Subtle.Render(bar)
}

// SparklineChart renders a mini sparkline from values.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(chars)-1)), 0), len(chars)-1)
		result.WriteRune(chars[idx])
	}
	return SparkMid.Render(result.String())
}

// SummaryTable renders metrics as a two-column table sorted by name.
func SummaryTable(title string, metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(Title.Render(title) + "\n")
	for _, name := range names {
		b.WriteString(MetricLabel.Render(name) + MetricValue.Render(formatMetric(metrics[name])) + "\n")
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func formatMetric(v float64) string {
	if v == float64(int64(v)) && v < 1e9 && v > -1e9 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.4f", v)
}

// EventLine formats one grasp event for a log.
func EventLine(ev grasp.Event) string {
	line := fmt.Sprintf("%6d  %-5s %-12s #%d", ev.Tick, ev.Side, ev.Kind, ev.Grabbable)
	if ev.Err != nil {
		line += "  " + Subtle.Render(ev.Err.Error())
	}
	return line
}
